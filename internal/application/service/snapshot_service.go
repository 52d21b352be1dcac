package service

import (
	"context"
	"encoding/json"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type SnapshotService struct {
	repo port.QuoteRepository
}

func NewSnapshotService(repo port.QuoteRepository) *SnapshotService {
	return &SnapshotService{repo: repo}
}

type snapshotStock struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"`
}

// EncodeSet renders a tracked set as the journal payload, preserving order
func EncodeSet(set domain.TrackedSet) (string, error) {
	stocks := set.Stocks()
	out := make([]snapshotStock, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, snapshotStock{
			Ticker:        s.Ticker.String(),
			Price:         s.Price,
			ChangePercent: s.ChangePercent,
			Direction:     s.Direction.String(),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *SnapshotService) SaveSnapshot(ctx context.Context, subscriptionID string, set domain.TrackedSet, ts int64) error {
	payload, err := EncodeSet(set)
	if err != nil {
		return err
	}
	return s.repo.InsertSnapshot(ctx, subscriptionID, ts, payload)
}
