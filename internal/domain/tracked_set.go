package domain

// TrackedSet is the ordered-by-arrival mapping from ticker to snapshot.
// A TrackedSet is never modified after it has been handed out, so it can be
// shared between the engine and readers without copying.
type TrackedSet struct {
	order  []Ticker                 // ordered ticker list
	stocks map[Ticker]StockSnapshot // ticker -> snapshot
}

// EmptyTrackedSet returns a set with no entries
func EmptyTrackedSet() TrackedSet {
	return TrackedSet{}
}

// NewTrackedSet builds a set from snapshots in the given order.
// Empty tickers are skipped; a repeated ticker keeps its first position and
// takes the last value.
func NewTrackedSet(stocks ...StockSnapshot) TrackedSet {
	b := newTrackedSetBuilder(len(stocks))
	for _, s := range stocks {
		b.put(s)
	}
	return b.build()
}

// Len returns the number of tracked tickers
func (ts TrackedSet) Len() int { return len(ts.order) }

// Get returns the snapshot for a ticker
func (ts TrackedSet) Get(t Ticker) (StockSnapshot, bool) {
	s, ok := ts.stocks[t]
	return s, ok
}

// Tickers returns the ordered ticker list
func (ts TrackedSet) Tickers() []Ticker {
	out := make([]Ticker, len(ts.order))
	copy(out, ts.order)
	return out
}

// Stocks returns the snapshots in arrival order
func (ts TrackedSet) Stocks() []StockSnapshot {
	out := make([]StockSnapshot, 0, len(ts.order))
	for _, t := range ts.order {
		out = append(out, ts.stocks[t])
	}
	return out
}

type trackedSetBuilder struct {
	order  []Ticker
	stocks map[Ticker]StockSnapshot
}

func newTrackedSetBuilder(n int) *trackedSetBuilder {
	return &trackedSetBuilder{
		order:  make([]Ticker, 0, n),
		stocks: make(map[Ticker]StockSnapshot, n),
	}
}

func (b *trackedSetBuilder) put(s StockSnapshot) {
	s.Ticker = NormalizeTicker(string(s.Ticker))
	if s.Ticker.IsZero() {
		return
	}
	if _, ok := b.stocks[s.Ticker]; !ok {
		b.order = append(b.order, s.Ticker)
	}
	b.stocks[s.Ticker] = s
}

func (b *trackedSetBuilder) build() TrackedSet {
	return TrackedSet{order: b.order, stocks: b.stocks}
}
