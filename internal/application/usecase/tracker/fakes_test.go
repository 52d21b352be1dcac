package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

// ---------------------------------------------------------------------------
// clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and fires every due timer in order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Pending counts timers that are armed and not yet fired
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// transport
// ---------------------------------------------------------------------------

type fakeConn struct {
	in   chan []byte
	errc chan error
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	sent   []string
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan []byte, 16),
		errc: make(chan error, 1),
		done: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case b := <-c.in:
		return b, nil
	case err := <-c.errc:
		return nil, err
	case <-c.done:
		return nil, fmt.Errorf("%w: local close", port.ErrStreamClosed)
	}
}

func (c *fakeConn) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

func (c *fakeConn) push(frame string) { c.in <- []byte(frame) }

// closeRemote simulates the server closing the connection
func (c *fakeConn) closeRemote() { c.errc <- fmt.Errorf("%w: 1000", port.ErrStreamClosed) }

func (c *fakeConn) fail(err error) { c.errc <- err }

func (c *fakeConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeDialer struct {
	clock *fakeClock

	mu      sync.Mutex
	failErr error
	conns   []*fakeConn
	dialAt  []time.Time
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (port.StreamConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clock != nil {
		d.dialAt = append(d.dialAt, d.clock.Now())
	}
	if d.failErr != nil {
		d.conns = append(d.conns, nil)
		return nil, d.failErr
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	d.failErr = err
	d.mu.Unlock()
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) times() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]time.Time, len(d.dialAt))
	copy(out, d.dialAt)
	return out
}

// ---------------------------------------------------------------------------
// lookup
// ---------------------------------------------------------------------------

type fakeSearcher struct {
	gate    chan struct{} // when non-nil, Search blocks until closed or ctx is done
	results []domain.SearchResult
	err     error

	mu       sync.Mutex
	queries  []string
	returned chan struct{}
}

func newFakeSearcher(results ...domain.SearchResult) *fakeSearcher {
	return &fakeSearcher{results: results, returned: make(chan struct{}, 16)}
}

func (s *fakeSearcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	gate := s.gate
	s.mu.Unlock()
	defer func() { s.returned <- struct{}{} }()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *fakeSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// ---------------------------------------------------------------------------
// notifier / recorder
// ---------------------------------------------------------------------------

type recordingNotifier struct {
	mu      sync.Mutex
	notices []port.Notice
}

func (n *recordingNotifier) Notify(notice port.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) All() []port.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]port.Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

type recordingRecorder struct {
	mu        sync.Mutex
	snapshots []domain.TrackedSet
	notices   []port.Notice
}

func (r *recordingRecorder) RecordSnapshot(_ string, set domain.TrackedSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, set)
}

func (r *recordingRecorder) RecordNotice(n port.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// pump drains the loop on the test goroutine until cond holds
func pump(t *testing.T, loop *Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		loop.RunPending()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

// waitFor polls cond while the loop runs on its own goroutine
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
