package composite

import (
	"context"
	"errors"
	"testing"

	"tickerwatch/internal/domain"
	"tickerwatch/internal/infrastructure/storage"
)

type failingRepo struct {
	*storage.InMemoryRepo
	closed bool
}

func (f *failingRepo) InsertNotice(context.Context, int64, string, string) error {
	return errors.New("disk full")
}

func (f *failingRepo) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestCompositeFansOut(t *testing.T) {
	a := storage.NewInMemoryRepo()
	b := storage.NewInMemoryRepo()
	repo := New(a, nil, b)
	if repo.Len() != 2 {
		t.Fatalf("nil repos should be dropped, got %d", repo.Len())
	}

	ctx := context.Background()
	q := domain.StockSnapshot{Ticker: "AAPL", Price: 150}
	if err := repo.UpsertLatestQuote(ctx, q, 1); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertSnapshot(ctx, "sub", 1, "[]"); err != nil {
		t.Fatal(err)
	}

	for i, r := range []*storage.InMemoryRepo{a, b} {
		if got, ok := r.Latest("AAPL"); !ok || got != q {
			t.Errorf("repo %d missing latest quote", i)
		}
		if len(r.Snapshots()) != 1 {
			t.Errorf("repo %d missing snapshot", i)
		}
	}
}

func TestCompositeKeepsGoingOnError(t *testing.T) {
	bad := &failingRepo{InMemoryRepo: storage.NewInMemoryRepo()}
	good := storage.NewInMemoryRepo()
	repo := New(bad, good)

	if err := repo.InsertNotice(context.Background(), 1, "error", "x"); err == nil {
		t.Errorf("expected first error to surface")
	}
	if len(good.Notices()) != 1 {
		t.Errorf("healthy repo must still receive the notice")
	}
	if err := repo.Close(); err == nil || !bad.closed {
		t.Errorf("close error should be reported after closing every repo")
	}
}
