package domain

// StockRecord is a single decoded stock entry of a Snapshot.
// ChangePercent and Direction are nil when the server did not send them.
type StockRecord struct {
	Ticker        Ticker
	Price         float64
	ChangePercent *float64
	Direction     *Direction
}

// Reconcile merges an incoming snapshot against the previous tracked set and
// returns the replacement set. Tickers missing from records are dropped.
//
// Server-provided change fields are trusted as-is. A missing field is computed
// from the previous price of the same ticker, or defaults to 0 / neutral on
// first sighting.
func Reconcile(prev TrackedSet, records []StockRecord) TrackedSet {
	b := newTrackedSetBuilder(len(records))
	for _, rec := range records {
		t := NormalizeTicker(string(rec.Ticker))
		if t.IsZero() {
			continue
		}

		pct, dir := 0.0, DirectionNeutral
		if old, ok := prev.Get(t); ok {
			pct, dir = ChangeFrom(old.Price, rec.Price)
		}
		if rec.ChangePercent != nil {
			pct = *rec.ChangePercent
		}
		if rec.Direction != nil {
			dir = *rec.Direction
		}

		b.put(StockSnapshot{
			Ticker:        t,
			Price:         rec.Price,
			ChangePercent: pct,
			Direction:     dir,
		})
	}
	return b.build()
}

// ChangeFrom computes the percentage change and direction from oldPrice to
// newPrice. A zero oldPrice yields a zero percentage.
func ChangeFrom(oldPrice, newPrice float64) (float64, Direction) {
	delta := newPrice - oldPrice
	dir := DirectionOf(delta)
	if oldPrice == 0 {
		return 0, dir
	}
	return 100 * delta / oldPrice, dir
}
