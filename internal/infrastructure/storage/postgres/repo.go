package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  ticker TEXT PRIMARY KEY,
  price DOUBLE PRECISION NOT NULL,
  change_percent DOUBLE PRECISION NOT NULL,
  direction SMALLINT NOT NULL,
  ts_ms BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
  id BIGSERIAL PRIMARY KEY,
  subscription_id TEXT NOT NULL,
  ts_ms BIGINT NOT NULL,
  payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
CREATE INDEX IF NOT EXISTS idx_snapshots_sub ON snapshots(subscription_id);

CREATE TABLE IF NOT EXISTS notices (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  level TEXT NOT NULL,
  message TEXT NOT NULL
);
`)
	return err
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes(ticker, price, change_percent, direction, ts_ms)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT(ticker) DO UPDATE SET
		price=EXCLUDED.price, change_percent=EXCLUDED.change_percent,
		direction=EXCLUDED.direction, ts_ms=EXCLUDED.ts_ms
	`, q.Ticker.String(), q.Price, q.ChangePercent, int(q.Direction), ts)
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots(subscription_id, ts_ms, payload) VALUES($1, $2, $3)`,
		subscriptionID, ts, payload)
	return err
}

func (r *Repo) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO notices(ts_ms, level, message) VALUES($1, $2, $3)`, ts, level, message)
	return err
}

func (r *Repo) countSnapshots(ctx context.Context, subscriptionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE subscription_id=$1`, subscriptionID).Scan(&n)
	return n, err
}

var _ port.QuoteRepository = (*Repo)(nil)
