package tracker

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

// Sender is the part of Session the controller needs
type Sender interface {
	State() ConnectionState
	Send(command string) error
}

// Controller validates a chosen ticker and starts a new subscription
type Controller struct {
	session   Sender
	store     *Store
	debouncer *Debouncer
	notifier  port.Notifier
	newID     func() string
}

func NewController(session Sender, store *Store, debouncer *Debouncer, notifier port.Notifier) *Controller {
	return &Controller{
		session:   session,
		store:     store,
		debouncer: debouncer,
		notifier:  notifier,
		newID:     func() string { return uuid.NewString() },
	}
}

// Submit resolves the ticker (selected suggestion first, raw input otherwise),
// resets tracked state and sends the subscribe command.
func (c *Controller) Submit(rawInput, selected string) error {
	t := domain.NormalizeTicker(rawInput)
	if selected != "" {
		t = domain.NormalizeTicker(selected)
	}

	if t.IsZero() {
		c.notify(port.NoticeWarn, "please enter a ticker symbol")
		return ErrEmptyTicker
	}
	if c.session.State() != StateConnected {
		c.notify(port.NoticeWarn, "not connected, try again once the stream is back")
		return fmt.Errorf("submit %s: %w", t, ErrNotConnected)
	}

	// 先同步取消联想，避免迟到的响应在跟踪开始后回填
	if c.debouncer != nil {
		c.debouncer.Cancel()
	}

	id := c.newID()
	c.store.BeginSubscription(t, id)

	if err := c.session.Send(t.String()); err != nil {
		c.store.SetLoading(false)
		c.notify(port.NoticeError, fmt.Sprintf("failed to subscribe to %s", t))
		return err
	}

	log.Info().Str("ticker", t.String()).Str("subscription", id).Msg("subscribed")
	return nil
}

func (c *Controller) notify(level port.NoticeLevel, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(port.Notice{Level: level, Message: msg})
	}
}
