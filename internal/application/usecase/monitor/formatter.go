package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"tickerwatch/internal/application/usecase/tracker"
	"tickerwatch/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	NoColor bool
}

func NewFormatter(noColor bool) *Formatter {
	return &Formatter{NoColor: noColor}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

func (f *Formatter) paint(s, c string) string {
	if f.NoColor {
		return s
	}
	return colorize(s, c)
}

// Render 一行展示连接状态和全部跟踪中的股票
func (f *Formatter) Render(st tracker.State, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(f.paint("[TW] ", ansiDim))
	sb.WriteString(f.connection(st))

	switch {
	case st.Loading && !st.Ticker.IsZero():
		sb.WriteString(f.paint("  loading "+st.Ticker.String()+"...", ansiDim))
	case st.Stocks.Len() == 0 && !st.Tracking:
		sb.WriteString(f.paint("  type a ticker, ?query to search", ansiDim))
	}

	for i, s := range st.Stocks.Stocks() {
		if i == 0 {
			sb.WriteString("  ")
		} else {
			sb.WriteString(f.paint("  ||  ", ansiDim))
		}
		sb.WriteString(f.stock(s))
	}

	if mode == RenderLive && !f.NoColor {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

func (f *Formatter) connection(st tracker.State) string {
	switch st.Connection {
	case tracker.StateConnected:
		if st.Degraded {
			return f.paint("● degraded", ansiYellow)
		}
		return f.paint("● live", ansiGreen)
	case tracker.StateConnecting:
		return f.paint("○ connecting", ansiYellow)
	case tracker.StateReconnecting:
		return f.paint("○ reconnecting", ansiRed)
	default:
		return f.paint("○ offline", ansiDim)
	}
}

func (f *Formatter) stock(s domain.StockSnapshot) string {
	arrow, col := "—", ansiYellow
	switch s.Direction {
	case domain.DirectionUp:
		arrow, col = "▲", ansiGreen
	case domain.DirectionDown:
		arrow, col = "▼", ansiRed
	}
	px := strconv.FormatFloat(s.Price, 'f', 2, 64)
	chg := fmt.Sprintf("%s %+.2f%%", arrow, s.ChangePercent)
	return s.Ticker.String() + " " + px + " " + f.paint(chg, col)
}

// RenderSuggestions 联想列表，序号从 1 开始，与 #n 命令对应
func (f *Formatter) RenderSuggestions(results []domain.SearchResult) []string {
	out := make([]string, 0, len(results))
	for i, r := range results {
		line := fmt.Sprintf("  #%d %-6s %s", i+1, r.Symbol, r.Name)
		out = append(out, f.paint(line, ansiDim))
	}
	return out
}
