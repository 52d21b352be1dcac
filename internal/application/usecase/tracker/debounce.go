package tracker

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

const (
	DefaultDebounceDelay = 1 * time.Second
	DefaultLookupTimeout = 5 * time.Second
)

type DebouncerConfig struct {
	Delay   time.Duration
	Timeout time.Duration // per lookup request
}

// Debouncer 把连续输入合并为每个静默期至多一次联想查询
//
// 每次定时器触发和每次请求都带序号；Cancel / 新输入都会推进序号，
// 过期的响应在事件循环上被直接丢弃，不会在开始跟踪后重新填充联想列表
type Debouncer struct {
	sched    Scheduler
	searcher port.SymbolSearcher
	cfg      DebouncerConfig
	onResult func([]domain.SearchResult) // nil clears

	query    string
	timer    Timer
	seq      uint64
	inflight context.CancelFunc
}

func NewDebouncer(sched Scheduler, searcher port.SymbolSearcher, cfg DebouncerConfig, onResult func([]domain.SearchResult)) *Debouncer {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDebounceDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLookupTimeout
	}
	return &Debouncer{
		sched:    sched,
		searcher: searcher,
		cfg:      cfg,
		onResult: onResult,
	}
}

// Input handles the current query text after a keystroke
func (d *Debouncer) Input(q string) {
	d.query = q
	d.Cancel()

	if utf8.RuneCountInString(strings.TrimSpace(q)) <= 1 {
		d.publish(nil)
		return
	}

	seq := d.seq
	d.timer = d.sched.AfterFunc(d.cfg.Delay, func() { d.fire(seq) })
}

// Cancel stops the pending timer and invalidates any in-flight lookup
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
	d.seq++
}

// Close releases the debouncer on engine teardown
func (d *Debouncer) Close() {
	d.Cancel()
}

// Pending reports whether a lookup is scheduled or in flight
func (d *Debouncer) Pending() bool {
	return d.timer != nil || d.inflight != nil
}

func (d *Debouncer) fire(seq uint64) {
	if d.timer == nil || seq != d.seq {
		return
	}
	d.timer = nil

	q := strings.TrimSpace(d.query)
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	d.inflight = cancel

	log.Debug().Str("query", q).Msg("symbol lookup")
	go func() {
		results, err := d.searcher.Search(ctx, q)
		cancel()
		d.sched.Post(func() { d.deliver(seq, q, results, err) })
	}()
}

func (d *Debouncer) deliver(seq uint64, q string, results []domain.SearchResult, err error) {
	if seq != d.seq {
		log.Debug().Str("query", q).Msg("stale lookup response dropped")
		return
	}
	d.inflight = nil

	if err != nil {
		log.Warn().Err(err).Str("query", q).Msg("symbol lookup failed")
		d.publish(nil)
		return
	}
	d.publish(results)
}

func (d *Debouncer) publish(results []domain.SearchResult) {
	if d.onResult != nil {
		d.onResult(results)
	}
}
