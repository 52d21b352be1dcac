package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

const defaultJournalBuffer = 256

type journalEntry struct {
	ts             int64
	subscriptionID string
	set            domain.TrackedSet
	notice         *port.Notice
}

// Journal 异步写行情日志
// Record* 在引擎事件循环上调用，只做非阻塞投递；队列满时丢弃并计数，存储慢不会拖住引擎
type Journal struct {
	prices    *PriceService
	snapshots *SnapshotService
	notices   *NoticeService

	ch      chan journalEntry
	dropped atomic.Int64
	written atomic.Int64
	now     func() time.Time
}

func NewJournal(repo port.QuoteRepository, buffer int) *Journal {
	if buffer <= 0 {
		buffer = defaultJournalBuffer
	}
	return &Journal{
		prices:    NewPriceService(repo),
		snapshots: NewSnapshotService(repo),
		notices:   NewNoticeService(repo),
		ch:        make(chan journalEntry, buffer),
		now:       time.Now,
	}
}

func (j *Journal) RecordSnapshot(subscriptionID string, set domain.TrackedSet) {
	j.enqueue(journalEntry{ts: j.now().UnixMilli(), subscriptionID: subscriptionID, set: set})
}

func (j *Journal) RecordNotice(n port.Notice) {
	j.enqueue(journalEntry{ts: j.now().UnixMilli(), notice: &n})
}

func (j *Journal) enqueue(e journalEntry) {
	select {
	case j.ch <- e:
	default:
		if n := j.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Warn().Int64("dropped", n).Msg("journal queue full, entry dropped")
		}
	}
}

// Dropped returns how many entries were discarded because the queue was full
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Written returns how many entries reached the repository
func (j *Journal) Written() int64 { return j.written.Load() }

// Run writes queued entries until ctx is cancelled, then flushes what is left
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return ctx.Err()
		case e := <-j.ch:
			j.write(ctx, e)
		}
	}
}

func (j *Journal) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		select {
		case e := <-j.ch:
			j.write(ctx, e)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, e journalEntry) {
	if e.notice != nil {
		if err := j.notices.SaveNotice(ctx, *e.notice, e.ts); err != nil {
			log.Error().Err(err).Str("level", e.notice.Level.String()).Msg("journal notice failed")
			return
		}
		j.written.Add(1)
		return
	}

	if err := j.snapshots.SaveSnapshot(ctx, e.subscriptionID, e.set, e.ts); err != nil {
		log.Error().Err(err).Str("subscription", e.subscriptionID).Msg("journal snapshot failed")
	}
	if err := j.prices.UpdateSet(ctx, e.set, e.ts); err != nil {
		log.Error().Err(err).Str("subscription", e.subscriptionID).Msg("journal quote failed")
	}
	j.written.Add(1)
}

var _ port.Recorder = (*Journal)(nil)
