package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/domain"
)

type mockRepository struct {
	mu           sync.Mutex
	priceUpdates map[string]float64
	snapshots    []string
	notices      []string
	failQuotes   bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{priceUpdates: make(map[string]float64)}
}

func (m *mockRepository) UpsertLatestQuote(ctx context.Context, q domain.StockSnapshot, ts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failQuotes {
		return errors.New("quote table locked")
	}
	m.priceUpdates[q.Ticker.String()] = q.Price
	return nil
}

func (m *mockRepository) InsertSnapshot(ctx context.Context, subscriptionID string, ts int64, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, subscriptionID+" "+payload)
	return nil
}

func (m *mockRepository) InsertNotice(ctx context.Context, ts int64, level, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, level+": "+message)
	return nil
}

func (m *mockRepository) Close() error {
	return nil
}

func (m *mockRepository) counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.priceUpdates), len(m.snapshots), len(m.notices)
}

var _ port.QuoteRepository = (*mockRepository)(nil)

func TestPriceServiceUpdateSet(t *testing.T) {
	mock := newMockRepository()
	svc := NewPriceService(mock)

	set := domain.NewTrackedSet(
		domain.StockSnapshot{Ticker: "AAPL", Price: 150},
		domain.StockSnapshot{Ticker: "MSFT", Price: 410},
	)
	if err := svc.UpdateSet(context.Background(), set, 1234567890); err != nil {
		t.Fatalf("UpdateSet failed: %v", err)
	}

	if price, exists := mock.priceUpdates["MSFT"]; !exists || price != 410 {
		t.Errorf("expected price 410, got %v", price)
	}
	if len(mock.priceUpdates) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(mock.priceUpdates))
	}
}

func TestEncodeSetKeepsOrder(t *testing.T) {
	set := domain.NewTrackedSet(
		domain.StockSnapshot{Ticker: "MSFT", Price: 410, ChangePercent: 0.5, Direction: domain.DirectionUp},
		domain.StockSnapshot{Ticker: "AAPL", Price: 150, ChangePercent: -1, Direction: domain.DirectionDown},
	)
	got, err := EncodeSet(set)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"ticker":"MSFT","price":410,"change_percent":0.5,"direction":"up"},{"ticker":"AAPL","price":150,"change_percent":-1,"direction":"down"}]`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}
