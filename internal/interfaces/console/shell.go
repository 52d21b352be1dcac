package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/application/usecase/tracker"
)

// ErrQuit is returned by Shell.Run when the user asks to exit
var ErrQuit = errors.New("quit")

// Engine is the part of tracker.Engine the shell drives
type Engine interface {
	Type(q string) bool
	Submit(ctx context.Context, rawInput, selected string) error
	Store() *tracker.Store
}

// Shell 行命令输入
//
//	?text   查询联想
//	#n      选中第 n 个联想结果
//	:q      退出
//	其他    直接作为 ticker 提交
type Shell struct {
	engine   Engine
	notifier port.Notifier
}

func NewShell(engine Engine, notifier port.Notifier) *Shell {
	return &Shell{engine: engine, notifier: notifier}
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdLookup
	cmdSelect
	cmdQuit
	cmdHelp
	cmdSubmit
)

type command struct {
	kind  commandKind
	text  string
	index int // 1-based, cmdSelect only
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return command{kind: cmdNone}, nil
	case line == ":q" || line == ":quit":
		return command{kind: cmdQuit}, nil
	case line == ":h" || line == ":help":
		return command{kind: cmdHelp}, nil
	case strings.HasPrefix(line, "?"):
		return command{kind: cmdLookup, text: strings.TrimPrefix(line, "?")}, nil
	case strings.HasPrefix(line, "#"):
		n, err := strconv.Atoi(strings.TrimPrefix(line, "#"))
		if err != nil || n <= 0 {
			return command{}, fmt.Errorf("bad suggestion index %q", line)
		}
		return command{kind: cmdSelect, index: n}, nil
	default:
		return command{kind: cmdSubmit, text: line}, nil
	}
}

// Run reads commands from in until EOF, ctx cancellation or :q
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Warn().Err(err).Msg("stdin read failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, line); err != nil {
				return err
			}
		}
	}
}

// Handle executes one input line. Only ErrQuit and engine shutdown are returned;
// user mistakes are reported through the notifier.
func (s *Shell) Handle(ctx context.Context, line string) error {
	cmd, err := parseCommand(line)
	if err != nil {
		s.notify(port.NoticeWarn, err.Error())
		return nil
	}

	switch cmd.kind {
	case cmdNone:
		return nil
	case cmdQuit:
		return ErrQuit
	case cmdHelp:
		s.notify(port.NoticeInfo, "AAPL subscribe | ?app search | #2 pick suggestion | :q quit")
		return nil
	case cmdLookup:
		if !s.engine.Type(cmd.text) {
			return tracker.ErrEngineStopped
		}
		return nil
	case cmdSelect:
		sugg := s.engine.Store().Snapshot().Suggestions
		if cmd.index > len(sugg) {
			s.notify(port.NoticeWarn, fmt.Sprintf("no suggestion #%d", cmd.index))
			return nil
		}
		return s.submit(ctx, "", sugg[cmd.index-1].Symbol)
	default:
		return s.submit(ctx, cmd.text, "")
	}
}

func (s *Shell) submit(ctx context.Context, raw, selected string) error {
	err := s.engine.Submit(ctx, raw, selected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tracker.ErrEngineStopped):
		return err
	default:
		// already surfaced to the user by the controller
		log.Debug().Err(err).Msg("submit rejected")
		return nil
	}
}

func (s *Shell) notify(level port.NoticeLevel, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(port.Notice{Level: level, Message: msg})
	}
}
