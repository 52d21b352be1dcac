package tracker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type EngineDeps struct {
	Dialer   port.StreamDialer
	Searcher port.SymbolSearcher
	Notifier port.Notifier // optional
	Recorder port.Recorder // optional
}

type EngineOptions struct {
	Session  SessionConfig
	Debounce DebouncerConfig
	Clock    Clock // nil means system clock
}

// Engine 把会话、解码、对账、联想和订阅控制串在同一个事件循环上
type Engine struct {
	loop      *Loop
	store     *Store
	session   *Session
	debouncer *Debouncer
	ctrl      *Controller
	notifier  port.Notifier
	recorder  port.Recorder
}

func NewEngine(deps EngineDeps, opts EngineOptions) *Engine {
	e := &Engine{
		loop:     NewLoop(opts.Clock),
		store:    NewStore(),
		notifier: deps.Notifier,
		recorder: deps.Recorder,
	}

	e.session = NewSession(e.loop, deps.Dialer, opts.Session, SessionHandlers{
		OnState:   e.onState,
		OnMessage: e.onMessage,
		OnError:   e.onError,
		OnClose:   e.onClose,
	})
	e.debouncer = NewDebouncer(e.loop, deps.Searcher, opts.Debounce, e.store.SetSuggestions)
	e.ctrl = NewController(e.session, e.store, e.debouncer, e)
	return e
}

// Store exposes the observable state to the view layer
func (e *Engine) Store() *Store { return e.store }

// Run starts the session and processes events until ctx is cancelled.
// The session and the debouncer are always released on return.
func (e *Engine) Run(ctx context.Context) error {
	if !e.loop.Post(e.session.Start) {
		return ErrEngineStopped
	}
	defer e.teardown()
	return e.loop.Run(ctx)
}

// Type feeds the current input text to the lookup debouncer
func (e *Engine) Type(q string) bool {
	return e.loop.Post(func() {
		e.store.SetInput(q)
		e.debouncer.Input(q)
	})
}

// Submit tracks rawInput, or selected when it is non-empty
func (e *Engine) Submit(ctx context.Context, rawInput, selected string) error {
	errc := make(chan error, 1)
	if !e.loop.Post(func() { errc <- e.ctrl.Submit(rawInput, selected) }) {
		return ErrEngineStopped
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.loop.Done():
		return ErrEngineStopped
	}
}

// Select tracks a suggestion picked by the user
func (e *Engine) Select(ctx context.Context, symbol string) error {
	return e.Submit(ctx, "", symbol)
}

// Notify implements port.Notifier for the controller
func (e *Engine) Notify(n port.Notice) {
	if e.notifier != nil {
		e.notifier.Notify(n)
	}
}

func (e *Engine) teardown() {
	e.debouncer.Close()
	e.session.Stop()
	log.Info().Msg("engine stopped")
}

func (e *Engine) onState(st ConnectionState) {
	e.store.SetConnection(st)
}

func (e *Engine) onError(err error) {
	e.store.SetLoading(false)
	e.store.SetDegraded(true)
	e.Notify(port.Notice{Level: port.NoticeWarn, Message: fmt.Sprintf("connection problem: %v", err)})
}

func (e *Engine) onClose(error) {
	e.store.EndTracking()
}

func (e *Engine) onMessage(raw []byte) {
	msg, err := domain.DecodeMessage(raw)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(raw)).Msg("drop undecodable frame")
		return
	}

	switch msg.Kind {
	case domain.KindErrorNotice:
		log.Warn().Str("error", msg.Error).Msg("server error notice")
		n := port.Notice{Level: port.NoticeError, Message: msg.Error}
		e.Notify(n)
		if e.recorder != nil {
			e.recorder.RecordNotice(n)
		}
		e.store.SetLoading(false)

	case domain.KindSnapshot:
		st := e.store.Snapshot()
		if !st.Tracking {
			log.Debug().Int("stocks", len(msg.Stocks)).Msg("snapshot ignored, not tracking")
			return
		}
		next := domain.Reconcile(st.Stocks, msg.Stocks)
		e.store.SetStocks(next)
		if e.recorder != nil {
			e.recorder.RecordSnapshot(st.SubscriptionID, next)
		}

	default:
		log.Debug().Int("bytes", len(raw)).Msg("drop unrecognized frame")
	}
}
