package service

import (
	"context"

	"tickerwatch/internal/application/port"
)

type NoticeService struct {
	repo port.QuoteRepository
}

func NewNoticeService(repo port.QuoteRepository) *NoticeService {
	return &NoticeService{repo: repo}
}

func (s *NoticeService) SaveNotice(ctx context.Context, n port.Notice, ts int64) error {
	return s.repo.InsertNotice(ctx, ts, n.Level.String(), n.Message)
}
