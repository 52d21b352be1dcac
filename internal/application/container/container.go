package container

import (
	"tickerwatch/internal/application/port"
	"tickerwatch/internal/application/service"
)

type Container struct {
	repo          port.QuoteRepository
	journalBuffer int

	priceService    *service.PriceService
	snapshotService *service.SnapshotService
	noticeService   *service.NoticeService
	journal         *service.Journal
}

func New(repo port.QuoteRepository, journalBuffer int) *Container {
	return &Container{
		repo:          repo,
		journalBuffer: journalBuffer,
	}
}

func (c *Container) Repository() port.QuoteRepository {
	return c.repo
}

func (c *Container) PriceService() *service.PriceService {
	if c.priceService == nil {
		c.priceService = service.NewPriceService(c.repo)
	}
	return c.priceService
}

func (c *Container) SnapshotService() *service.SnapshotService {
	if c.snapshotService == nil {
		c.snapshotService = service.NewSnapshotService(c.repo)
	}
	return c.snapshotService
}

func (c *Container) NoticeService() *service.NoticeService {
	if c.noticeService == nil {
		c.noticeService = service.NewNoticeService(c.repo)
	}
	return c.noticeService
}

// Journal 引擎的 Recorder，整个进程只有一个
func (c *Container) Journal() *service.Journal {
	if c.journal == nil {
		c.journal = service.NewJournal(c.repo, c.journalBuffer)
	}
	return c.journal
}
