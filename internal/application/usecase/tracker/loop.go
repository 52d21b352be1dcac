package tracker

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs callbacks on the engine's single goroutine
type Scheduler interface {
	// Post queues fn to run on the loop. It returns false once the loop has shut down.
	Post(fn func()) bool
	// AfterFunc runs fn on the loop after d
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop 单 goroutine 事件循环
// 所有状态修改都在 Run 所在的 goroutine 上执行，其他 goroutine（拨号、读循环、查询请求、定时器）
// 只通过 Post 投递闭包，因此引擎内部不需要锁
type Loop struct {
	clock Clock
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop; a nil clock means the system clock
func NewLoop(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock()
	}
	return &Loop{
		clock: clock,
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

func (l *Loop) Clock() Clock { return l.clock }

func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() { l.Post(fn) })
}

// Run executes queued callbacks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer l.Shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// RunPending executes every callback already queued without blocking and
// returns how many ran. Used when the caller owns the loop goroutine.
func (l *Loop) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}

// Shutdown makes every later Post a no-op
func (l *Loop) Shutdown() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed after Shutdown
func (l *Loop) Done() <-chan struct{} { return l.done }
