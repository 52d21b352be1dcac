package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestJournalWritesEntries(t *testing.T) {
	mock := newMockRepository()
	j := NewJournal(mock, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	set := domain.NewTrackedSet(domain.StockSnapshot{Ticker: "AAPL", Price: 150})
	j.RecordSnapshot("sub-1", set)
	j.RecordNotice(port.Notice{Level: port.NoticeError, Message: "Invalid ticker"})

	waitUntil(t, func() bool { return j.Written() == 2 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected Run result %v", err)
	}

	quotes, snaps, notices := mock.counts()
	if quotes != 1 || snaps != 1 || notices != 1 {
		t.Fatalf("expected 1/1/1 writes, got %d/%d/%d", quotes, snaps, notices)
	}
	if !strings.HasPrefix(mock.snapshots[0], "sub-1 [") {
		t.Errorf("snapshot not tagged with its subscription: %s", mock.snapshots[0])
	}
	if mock.notices[0] != "error: Invalid ticker" {
		t.Errorf("unexpected notice row %q", mock.notices[0])
	}
}

func TestJournalDropsWhenFull(t *testing.T) {
	mock := newMockRepository()
	j := NewJournal(mock, 2)

	// no worker running: the third entry cannot be queued
	for i := 0; i < 3; i++ {
		j.RecordNotice(port.Notice{Message: "x"})
	}
	if j.Dropped() != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", j.Dropped())
	}

	// flush on shutdown drains what was queued
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = j.Run(ctx)
	if _, _, notices := mock.counts(); notices != 2 {
		t.Errorf("expected queued notices flushed, got %d", notices)
	}
}

func TestJournalQuoteFailureDoesNotStop(t *testing.T) {
	mock := newMockRepository()
	mock.failQuotes = true
	j := NewJournal(mock, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = j.Run(ctx) }()

	j.RecordSnapshot("sub", domain.NewTrackedSet(domain.StockSnapshot{Ticker: "AAPL", Price: 1}))
	j.RecordSnapshot("sub", domain.NewTrackedSet(domain.StockSnapshot{Ticker: "AAPL", Price: 2}))
	waitUntil(t, func() bool { return j.Written() == 2 })

	if _, snaps, _ := mock.counts(); snaps != 2 {
		t.Errorf("snapshots must still be written, got %d", snaps)
	}
}
