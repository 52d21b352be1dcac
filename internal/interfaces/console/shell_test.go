package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/application/usecase/tracker"
	"tickerwatch/internal/domain"
)

func noticeWarn(msg string) port.Notice { return port.Notice{Level: port.NoticeWarn, Message: msg} }

type fakeEngine struct {
	mu        sync.Mutex
	store     *tracker.Store
	typed     []string
	submitted [][2]string
	submitErr error
	stopped   bool
}

func newFakeEngine() *fakeEngine { return &fakeEngine{store: tracker.NewStore()} }

func (e *fakeEngine) Type(q string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed = append(e.typed, q)
	return !e.stopped
}

func (e *fakeEngine) Submit(ctx context.Context, raw, selected string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitted = append(e.submitted, [2]string{raw, selected})
	return e.submitErr
}

func (e *fakeEngine) Store() *tracker.Store { return e.store }

type noticeLog struct {
	mu      sync.Mutex
	notices []port.Notice
}

func (n *noticeLog) Notify(x port.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		kind commandKind
		text string
		idx  int
		bad  bool
	}{
		{"", cmdNone, "", 0, false},
		{"  aapl ", cmdSubmit, "aapl", 0, false},
		{"?app", cmdLookup, "app", 0, false},
		{"#2", cmdSelect, "", 2, false},
		{"#0", 0, "", 0, true},
		{"#x", 0, "", 0, true},
		{":q", cmdQuit, "", 0, false},
		{":help", cmdHelp, "", 0, false},
	}
	for _, tc := range cases {
		cmd, err := parseCommand(tc.in)
		if tc.bad {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if cmd.kind != tc.kind || cmd.text != tc.text || cmd.index != tc.idx {
			t.Errorf("%q: got %+v", tc.in, cmd)
		}
	}
}

func TestShellRun(t *testing.T) {
	eng := newFakeEngine()
	eng.store.SetSuggestions([]domain.SearchResult{{Symbol: "AAPL"}, {Symbol: "AAPU"}})
	notes := &noticeLog{}
	sh := NewShell(eng, notes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := strings.NewReader("?aap\n#2\n#9\nmsft\n:q\nignored\n")
	err := sh.Run(ctx, in)
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("expected ErrQuit, got %v", err)
	}

	if len(eng.typed) != 1 || eng.typed[0] != "aap" {
		t.Errorf("unexpected lookups %v", eng.typed)
	}
	want := [][2]string{{"", "AAPU"}, {"msft", ""}}
	if len(eng.submitted) != len(want) || eng.submitted[0] != want[0] || eng.submitted[1] != want[1] {
		t.Errorf("submitted %v, want %v", eng.submitted, want)
	}
	if len(notes.notices) != 1 || !strings.Contains(notes.notices[0].Message, "#9") {
		t.Errorf("expected a notice for the missing suggestion, got %v", notes.notices)
	}
}

func TestShellEOF(t *testing.T) {
	sh := NewShell(newFakeEngine(), nil)
	if err := sh.Run(context.Background(), strings.NewReader("aapl\n")); err != nil {
		t.Errorf("EOF should end the shell cleanly, got %v", err)
	}
}

func TestShellRejectedSubmitKeepsRunning(t *testing.T) {
	eng := newFakeEngine()
	eng.submitErr = tracker.ErrNotConnected
	sh := NewShell(eng, nil)

	if err := sh.Handle(context.Background(), "aapl"); err != nil {
		t.Errorf("rejected submit must not stop the shell, got %v", err)
	}

	eng.submitErr = tracker.ErrEngineStopped
	if err := sh.Handle(context.Background(), "aapl"); !errors.Is(err, tracker.ErrEngineStopped) {
		t.Errorf("engine shutdown must stop the shell, got %v", err)
	}
}
