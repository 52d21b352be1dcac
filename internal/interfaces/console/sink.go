package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tickerwatch/internal/application/port"
)

const clearEOL = "\033[K"

// Sink 终端输出；渲染器、提示和命令行共用，写操作串行化
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	onLive bool // the cursor sits at the end of a live line
}

func NewSink() *Sink { return NewSinkWriter(os.Stdout) }

func NewSinkWriter(w io.Writer) *Sink { return &Sink{out: w} }

func (s *Sink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.out, line) // no newline
	s.onLive = true
	return err
}

// WriteLine 覆盖当前 live 行打印一整行；live 行等下一次变化再重画
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := ""
	if s.onLive {
		prefix = "\r" + clearEOL
	}
	_, err := fmt.Fprint(s.out, prefix+line+"\n")
	s.onLive = false
	return err
}

func (s *Sink) NewLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.out, "\n")
	s.onLive = false
	return err
}

var _ port.Sink = (*Sink)(nil)
