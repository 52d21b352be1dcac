package port

import (
	"context"

	"tickerwatch/internal/domain"
)

// QuoteRepository 只写的行情日志，引擎从不回读
type QuoteRepository interface {
	// Quote operations
	UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error

	// Snapshot operations
	InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error

	// Notice operations
	InsertNotice(ctx context.Context, ts int64, level, message string) error

	// Connection management
	Close() error
}

// Recorder 引擎侧的日志入口，必须非阻塞
type Recorder interface {
	RecordSnapshot(subscriptionID string, set domain.TrackedSet)
	RecordNotice(n Notice)
}
