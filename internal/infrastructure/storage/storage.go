package storage

import (
	"context"
	"sync"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

// SnapshotRow is a single journaled snapshot
type SnapshotRow struct {
	SubscriptionID string
	Ts             int64
	Payload        string
}

// NoticeRow is a single journaled notice
type NoticeRow struct {
	Ts      int64
	Level   string
	Message string
}

// InMemoryRepo is a simple in-memory implementation, used when no backend is configured
type InMemoryRepo struct {
	mu        sync.Mutex
	latest    map[domain.Ticker]domain.StockSnapshot
	snapshots []SnapshotRow
	notices   []NoticeRow
}

// NewInMemoryRepo creates a new in-memory repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{latest: make(map[domain.Ticker]domain.StockSnapshot)}
}

func (r *InMemoryRepo) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[q.Ticker] = q
	return nil
}

func (r *InMemoryRepo) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, SnapshotRow{SubscriptionID: subscriptionID, Ts: ts, Payload: payload})
	return nil
}

func (r *InMemoryRepo) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, NoticeRow{Ts: ts, Level: level, Message: message})
	return nil
}

func (r *InMemoryRepo) Close() error { return nil }

func (r *InMemoryRepo) Latest(t domain.Ticker) (domain.StockSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.latest[t]
	return q, ok
}

func (r *InMemoryRepo) Snapshots() []SnapshotRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SnapshotRow, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

func (r *InMemoryRepo) Notices() []NoticeRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NoticeRow, len(r.notices))
	copy(out, r.notices)
	return out
}

var _ port.QuoteRepository = (*InMemoryRepo)(nil)
