package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  ticker TEXT PRIMARY KEY,
  price REAL NOT NULL,
  change_percent REAL NOT NULL,
  direction INTEGER NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quotes_ts ON quotes(ts_ms);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  subscription_id TEXT NOT NULL,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
CREATE INDEX IF NOT EXISTS idx_snapshots_sub ON snapshots(subscription_id);

CREATE TABLE IF NOT EXISTS notices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  level TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notices_ts ON notices(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes(ticker, price, change_percent, direction, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
		price=excluded.price, change_percent=excluded.change_percent,
		direction=excluded.direction, ts_ms=excluded.ts_ms
	`, q.Ticker.String(), q.Price, q.ChangePercent, int(q.Direction), ts, ts)
	return err
}

func (r *Repo) GetLatestQuote(ctx context.Context, ticker domain.Ticker) (domain.StockSnapshot, int64, error) {
	var (
		q   domain.StockSnapshot
		sym string
		dir int
		ts  int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT ticker, price, change_percent, direction, ts_ms
		FROM quotes WHERE ticker=?
	`, ticker.String()).Scan(&sym, &q.Price, &q.ChangePercent, &dir, &ts)
	if err != nil {
		return domain.StockSnapshot{}, 0, err
	}
	q.Ticker = domain.Ticker(sym)
	q.Direction = domain.Direction(dir)
	return q, ts, nil
}

func (r *Repo) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots(subscription_id, ts_ms, payload, created_at) VALUES(?, ?, ?, ?)`,
		subscriptionID, ts, payload, ts)
	return err
}

// ListSnapshots 按写入顺序返回某次订阅的快照负载
func (r *Repo) ListSnapshots(ctx context.Context, subscriptionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM snapshots WHERE subscription_id=? ORDER BY id`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO notices(ts_ms, level, message, created_at) VALUES(?, ?, ?, ?)`, ts, level, message, ts)
	return err
}

func (r *Repo) CountNotices(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notices`).Scan(&n)
	return n, err
}

var _ port.QuoteRepository = (*Repo)(nil)
