package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
)

const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultDialTimeout    = 10 * time.Second
)

// SessionHandlers 会话生命周期回调，全部在事件循环上执行
type SessionHandlers struct {
	OnState   func(ConnectionState)
	OnMessage func(raw []byte)
	OnError   func(err error)
	OnClose   func(err error)
}

type SessionConfig struct {
	URL            string
	ReconnectDelay time.Duration // fixed, never grows
	DialTimeout    time.Duration
}

// Session 持有一条流连接的完整生命周期
// 断开后只挂一个固定延迟的重连定时器；Stop 在任意状态下回到 Disconnected
type Session struct {
	sched    Scheduler
	dialer   port.StreamDialer
	cfg      SessionConfig
	handlers SessionHandlers

	state      ConnectionState
	conn       port.StreamConn
	gen        uint64 // connection generation; callbacks from older generations are ignored
	cancelDial context.CancelFunc

	reconnect    Timer
	reconnectSeq uint64
	attempts     int
}

func NewSession(sched Scheduler, dialer port.StreamDialer, cfg SessionConfig, h SessionHandlers) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	return &Session{
		sched:    sched,
		dialer:   dialer,
		cfg:      cfg,
		handlers: h,
	}
}

func (s *Session) State() ConnectionState { return s.state }

// Attempts returns how many reconnects have been started
func (s *Session) Attempts() int { return s.attempts }

// ReconnectPending reports whether a reconnect timer is armed
func (s *Session) ReconnectPending() bool { return s.reconnect != nil }

// Start opens the transport. No-op unless Disconnected.
func (s *Session) Start() {
	if s.state != StateDisconnected {
		return
	}
	s.connect()
}

// Send writes one raw text frame. Only valid while Connected.
func (s *Session) Send(command string) error {
	if s.state != StateConnected || s.conn == nil {
		return ErrSendRejected
	}
	if err := s.conn.WriteText(command); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}

// Stop closes the transport and cancels any pending reconnect. Idempotent.
func (s *Session) Stop() {
	s.cancelReconnect()
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	s.gen++
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.setState(StateDisconnected)
}

func (s *Session) connect() {
	s.gen++
	gen := s.gen
	s.setState(StateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DialTimeout)
	s.cancelDial = cancel

	log.Info().Str("url", s.cfg.URL).Int("attempt", s.attempts).Msg("stream connecting")
	go func() {
		conn, err := s.dialer.Dial(ctx, s.cfg.URL)
		cancel()
		posted := s.sched.Post(func() { s.handleDial(gen, conn, err) })
		if !posted && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (s *Session) handleDial(gen uint64, conn port.StreamConn, err error) {
	if gen != s.gen {
		// superseded by Stop or a newer attempt
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	s.cancelDial = nil

	if err != nil {
		log.Error().Err(err).Str("url", s.cfg.URL).Msg("stream dial failed")
		s.emitError(err)
		s.handleClose(err)
		return
	}

	s.conn = conn
	s.setState(StateConnected)
	log.Info().Str("url", s.cfg.URL).Msg("stream connected")
	go s.readLoop(gen, conn)
}

func (s *Session) readLoop(gen uint64, conn port.StreamConn) {
	for {
		b, err := conn.ReadMessage()
		if err != nil {
			s.sched.Post(func() { s.handleReadError(gen, err) })
			return
		}
		if !s.sched.Post(func() { s.handleMessage(gen, b) }) {
			return
		}
	}
}

func (s *Session) handleMessage(gen uint64, b []byte) {
	if gen != s.gen || s.state != StateConnected {
		return
	}
	if s.handlers.OnMessage != nil {
		s.handlers.OnMessage(b)
	}
}

func (s *Session) handleReadError(gen uint64, err error) {
	if gen != s.gen {
		return
	}
	if !errors.Is(err, port.ErrStreamClosed) {
		log.Warn().Err(err).Msg("stream transport error")
		s.emitError(err)
	}
	s.handleClose(err)
}

// handleClose arms the single reconnect timer and moves to Reconnecting
func (s *Session) handleClose(err error) {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.gen++

	if s.reconnect == nil {
		s.reconnectSeq++
		seq := s.reconnectSeq
		s.reconnect = s.sched.AfterFunc(s.cfg.ReconnectDelay, func() { s.fireReconnect(seq) })
		log.Warn().
			Err(err).
			Int64("delay_ms", s.cfg.ReconnectDelay.Milliseconds()).
			Msg("stream disconnected, reconnecting")
	}
	s.setState(StateReconnecting)

	if s.handlers.OnClose != nil {
		s.handlers.OnClose(err)
	}
}

func (s *Session) fireReconnect(seq uint64) {
	if s.reconnect == nil || seq != s.reconnectSeq {
		return // cancelled after the timer had already fired
	}
	s.reconnect = nil
	s.attempts++
	s.connect()
}

func (s *Session) cancelReconnect() {
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	s.reconnectSeq++
}

func (s *Session) setState(st ConnectionState) {
	if s.state == st {
		return
	}
	prev := s.state
	s.state = st
	log.Debug().Str("from", prev.String()).Str("to", st.String()).Msg("session state")
	if s.handlers.OnState != nil {
		s.handlers.OnState(st)
	}
}

func (s *Session) emitError(err error) {
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
}
