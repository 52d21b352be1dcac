package service

import (
	"context"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type PriceService struct {
	repo port.QuoteRepository
}

func NewPriceService(repo port.QuoteRepository) *PriceService {
	return &PriceService{repo: repo}
}

// UpdateSet 写入集合中每只股票的最新报价，返回第一个错误
func (s *PriceService) UpdateSet(ctx context.Context, set domain.TrackedSet, ts int64) error {
	var firstErr error
	for _, q := range set.Stocks() {
		if err := s.repo.UpsertLatestQuote(ctx, q, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
