package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/application/usecase/tracker"
)

// StateSource is the part of tracker.Store the view needs
type StateSource interface {
	Snapshot() tracker.State
	Subscribe(fn func(tracker.Event)) func()
}

type ServiceDeps struct {
	Store       StateSource
	Sink        port.Sink
	Formatter   *Formatter
	RenderEvery time.Duration // live line refresh is coalesced to at most once per interval
}

// Service 把状态变化渲染到终端
type Service struct {
	deps  ServiceDeps
	dirty chan struct{}
	sugg  chan []string
}

func NewService(deps ServiceDeps) *Service {
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter(false)
	}
	if deps.RenderEvery <= 0 {
		deps.RenderEvery = 250 * time.Millisecond
	}
	return &Service{
		deps:  deps,
		dirty: make(chan struct{}, 1),
		sugg:  make(chan []string, 8),
	}
}

func (s *Service) onEvent(ev tracker.Event) {
	if ev.Kind == tracker.EventSuggestions && len(ev.State.Suggestions) > 0 {
		select {
		case s.sugg <- s.deps.Formatter.RenderSuggestions(ev.State.Suggestions):
		default:
		}
	}
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Service) Run(ctx context.Context) error {
	cancel := s.deps.Store.Subscribe(s.onEvent)
	defer cancel()

	ticker := time.NewTicker(s.deps.RenderEvery)
	defer ticker.Stop()

	// initial live line
	_ = s.deps.Sink.WriteLive(s.deps.Formatter.Render(s.deps.Store.Snapshot(), RenderLive))

	pending := false
	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case lines := <-s.sugg:
			for _, l := range lines {
				if err := s.deps.Sink.WriteLine(l); err != nil {
					log.Debug().Err(err).Msg("sink write failed")
				}
			}
			pending = true

		case <-s.dirty:
			pending = true

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			line := s.deps.Formatter.Render(s.deps.Store.Snapshot(), RenderLive)
			if err := s.deps.Sink.WriteLive(line); err != nil {
				log.Debug().Err(err).Msg("sink write failed")
			}
		}
	}
}
