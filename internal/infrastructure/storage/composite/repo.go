package composite

import (
	"context"
	"errors"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type Repo struct {
	repos []port.QuoteRepository
}

func New(repos ...port.QuoteRepository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.QuoteRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestQuote(ctx, q, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertSnapshot(ctx, subscriptionID, ts, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertNotice(ctx, ts, level, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.QuoteRepository = (*Repo)(nil)
