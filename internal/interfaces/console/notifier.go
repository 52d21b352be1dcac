package console

import (
	"strings"

	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

// Notifier 把用户提示打印到终端，同时写日志
type Notifier struct {
	sink    port.Sink
	noColor bool
}

func NewNotifier(sink port.Sink, noColor bool) *Notifier {
	return &Notifier{sink: sink, noColor: noColor}
}

func (n *Notifier) Notify(notice port.Notice) {
	log.Debug().Str("level", notice.Level.String()).Str("notice", notice.Message).Msg("notice")

	line := "[" + strings.ToUpper(notice.Level.String()) + "] " + notice.Message
	if !n.noColor {
		switch notice.Level {
		case port.NoticeError:
			line = ansiRed + line + ansiReset
		case port.NoticeWarn:
			line = ansiYellow + line + ansiReset
		default:
			line = ansiDim + line + ansiReset
		}
	}
	if err := n.sink.WriteLine(line); err != nil {
		log.Warn().Err(err).Msg("notice write failed")
	}
}

var _ port.Notifier = (*Notifier)(nil)
