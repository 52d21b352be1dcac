package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type Repo struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	keyLatest    string // prefix + ":latest"
	noticeStream string
	snapshotChan string
}

type LatestQuote struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"`
	Ts            int64   `json:"ts"`
}

type snapshotMessage struct {
	SubscriptionID string          `json:"subscription_id"`
	Ts             int64           `json:"ts_ms"`
	Stocks         json.RawMessage `json:"stocks"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, snapshotChan string) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "tickerwatch"
	}
	if strings.TrimSpace(snapshotChan) == "" {
		snapshotChan = prefix + ":snapshots"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		keyLatest:    prefix + ":latest",
		noticeStream: prefix + ":notices",
		snapshotChan: snapshotChan,
	}
}

func (r *Repo) Close() error { return r.rdb.Close() }

func (r *Repo) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	if q.Ticker.IsZero() {
		return nil
	}
	b, _ := json.Marshal(LatestQuote{
		Ticker:        q.Ticker.String(),
		Price:         q.Price,
		ChangePercent: q.ChangePercent,
		Direction:     q.Direction.String(),
		Ts:            ts,
	})

	// Hash: field = ticker -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, q.Ticker.String(), string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// InsertSnapshot 只做 PUBLISH，给外部消费者实时推送，不落库
func (r *Repo) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	stocks := json.RawMessage(payload)
	if !json.Valid(stocks) {
		stocks, _ = json.Marshal(payload)
	}
	b, err := json.Marshal(snapshotMessage{SubscriptionID: subscriptionID, Ts: ts, Stocks: stocks})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.snapshotChan, string(b)).Err()
}

func (r *Repo) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	// Stream: XADD <prefix>:notices * ts_ms level message
	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.noticeStream,
		Values: map[string]any{
			"ts_ms":   ts,
			"level":   level,
			"message": message,
		},
	}).Err()
}

var _ port.QuoteRepository = (*Repo)(nil)
