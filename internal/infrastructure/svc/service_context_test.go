package svc

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tickerwatch/internal/application/usecase/tracker"
	"tickerwatch/internal/infrastructure/config"
	"tickerwatch/internal/interfaces/console"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func quoteServer(t *testing.T) *httptest.Server {
	up := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame := `{"stocks":[{"ticker":"` + string(b) + `","price":150,"change_percent":0,"direction":"neutral"}]}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"symbol":"AAPL","name":"Apple Inc."}]}`))
	})
	return httptest.NewServer(mux)
}

func TestServiceContextEndToEnd(t *testing.T) {
	srv := quoteServer(t)
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Stream.URL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	cfg.Lookup.BaseURL = srv.URL

	out := &lockedBuffer{}
	sc, err := NewWithOverrides(context.Background(), cfg, Overrides{Sink: console.NewSinkWriter(out)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, run := range []func(context.Context) error{sc.Engine().Run, sc.Journal().Run, sc.Monitor().Run} {
		wg.Add(1)
		go func(run func(context.Context) error) {
			defer wg.Done()
			_ = run(ctx)
		}(run)
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	store := sc.Engine().Store()
	waitFor(t, func() bool { return store.Snapshot().Connection == tracker.StateConnected })

	if err := sc.Shell().Handle(ctx, "aapl"); err != nil {
		t.Fatalf("shell: %v", err)
	}
	waitFor(t, func() bool { return store.Snapshot().Stocks.Len() == 1 })

	mem := sc.Storage().MemoryRepo()
	waitFor(t, func() bool { return len(mem.Snapshots()) == 1 })
	if q, ok := mem.Latest("AAPL"); !ok || q.Price != 150 {
		t.Errorf("latest quote not journaled: %+v", q)
	}

	waitFor(t, func() bool { return strings.Contains(out.String(), "AAPL 150.00") })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}
