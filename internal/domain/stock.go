package domain

import "strings"

// Ticker is a normalized stock symbol, the identity key for tracked state
type Ticker string

// NormalizeTicker trims and uppercases raw user or wire input
func NormalizeTicker(s string) Ticker {
	return Ticker(strings.ToUpper(strings.TrimSpace(s)))
}

func (t Ticker) String() string { return string(t) }

// IsZero reports whether the ticker is empty after normalization
func (t Ticker) IsZero() bool { return t == "" }

// Direction represents the price movement direction
type Direction int

const (
	DirectionNeutral Direction = 0
	DirectionUp      Direction = +1
	DirectionDown    Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "neutral"
	}
}

// ParseDirection maps the wire representation to a Direction.
// ok is false for anything other than "up", "down" or "neutral".
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirectionUp, true
	case "down":
		return DirectionDown, true
	case "neutral":
		return DirectionNeutral, true
	default:
		return DirectionNeutral, false
	}
}

// DirectionOf returns the direction matching the sign of delta
func DirectionOf(delta float64) Direction {
	switch {
	case delta > 0:
		return DirectionUp
	case delta < 0:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// StockSnapshot is the displayed state of a single tracked ticker
type StockSnapshot struct {
	Ticker        Ticker
	Price         float64
	ChangePercent float64 // percentage, -1.0 means -1%
	Direction     Direction
}

// SearchResult is one entry returned by the symbol lookup service
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
