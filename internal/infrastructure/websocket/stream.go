package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
)

// Options 连接保活参数
type Options struct {
	ReadTimeout  time.Duration // read deadline, refreshed on every frame and pong
	PingInterval time.Duration // 0 disables client pings
	WriteTimeout time.Duration
	Header       http.Header
}

// DefaultOptions 60s 读超时，25s ping
var DefaultOptions = Options{
	ReadTimeout:  60 * time.Second,
	PingInterval: 25 * time.Second,
	WriteTimeout: 10 * time.Second,
}

// Dialer implements port.StreamDialer on gorilla/websocket
type Dialer struct {
	opts   Options
	dialer *websocket.Dialer
}

func NewDialer(opts Options) *Dialer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultOptions.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultOptions.WriteTimeout
	}
	d := *websocket.DefaultDialer
	return &Dialer{opts: opts, dialer: &d}
}

func (d *Dialer) Dial(ctx context.Context, url string) (port.StreamConn, error) {
	log.Debug().Str("url", url).Msg("ws connecting")
	conn, resp, err := d.dialer.DialContext(ctx, url, d.opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}
	log.Info().Str("url", url).Msg("ws connected")
	return newConn(conn, d.opts), nil
}

// Conn wraps a gorilla connection with read deadline and ping keepalive
type Conn struct {
	ws   *websocket.Conn
	opts Options

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

func newConn(ws *websocket.Conn, opts Options) *Conn {
	c := &Conn{ws: ws, opts: opts, done: make(chan struct{})}

	_ = ws.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
		return nil
	})

	if opts.PingInterval > 0 {
		go c.pingLoop()
	}
	return c
}

// ReadMessage 只返回文本/二进制帧的负载
// 对端正常关闭（1000/1001）和本地 Close 都映射为 port.ErrStreamClosed
func (c *Conn) ReadMessage() ([]byte, error) {
	_, b, err := c.ws.ReadMessage()
	if err != nil {
		if c.closed.Load() {
			return nil, fmt.Errorf("%w: local close", port.ErrStreamClosed)
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, fmt.Errorf("%w: %v", port.ErrStreamClosed, err)
		}
		return nil, err
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	return b, nil
}

func (c *Conn) WriteText(text string) error {
	if c.closed.Load() {
		return errors.New("ws write on closed connection")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close sends a normal close frame and releases the socket. Safe to call twice.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) pingLoop() {
	t := time.NewTicker(c.opts.PingInterval)
	defer t.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Msg("ws ping failed")
				return
			}
		}
	}
}
