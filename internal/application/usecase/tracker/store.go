package tracker

import (
	"sync"

	"tickerwatch/internal/domain"
)

type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// State is a point-in-time copy of everything the view layer displays
type State struct {
	Connection ConnectionState
	Degraded   bool // a transport error was seen on the current connection

	Stocks      domain.TrackedSet
	Suggestions []domain.SearchResult
	Input       string

	Loading  bool
	Tracking bool

	Ticker         domain.Ticker // last accepted subscription
	SubscriptionID string
}

func (s State) clone() State {
	if s.Suggestions != nil {
		sugg := make([]domain.SearchResult, len(s.Suggestions))
		copy(sugg, s.Suggestions)
		s.Suggestions = sugg
	}
	return s
}

type EventKind int

const (
	EventConnection EventKind = iota
	EventStocks
	EventSuggestions
	EventInput
	EventFlags
	EventSubscription
)

func (k EventKind) String() string {
	switch k {
	case EventConnection:
		return "connection"
	case EventStocks:
		return "stocks"
	case EventSuggestions:
		return "suggestions"
	case EventInput:
		return "input"
	case EventFlags:
		return "flags"
	default:
		return "subscription"
	}
}

// Event is delivered to observers after each update, carrying the new state
type Event struct {
	Kind  EventKind
	State State
}

// Store is the single source of truth for the view layer.
// Writes happen on the engine loop; Snapshot may be called from any goroutine.
type Store struct {
	mu        sync.RWMutex
	st        State
	observers map[int]func(Event)
	nextID    int
}

func NewStore() *Store {
	return &Store{
		st:        State{Stocks: domain.EmptyTrackedSet()},
		observers: make(map[int]func(Event)),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clone()
}

// Subscribe registers an observer and returns its cancel func
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(kind EventKind, fn func(st *State) bool) {
	s.mu.Lock()
	next := s.st.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return
	}
	s.st = next
	obs := make([]func(Event), 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	ev := Event{Kind: kind, State: next.clone()}
	for _, o := range obs {
		o(ev)
	}
}

func (s *Store) SetConnection(c ConnectionState) {
	s.update(EventConnection, func(st *State) bool {
		if st.Connection == c {
			return false
		}
		st.Connection = c
		if c == StateConnected {
			st.Degraded = false
		}
		return true
	})
}

func (s *Store) SetDegraded(v bool) {
	s.update(EventConnection, func(st *State) bool {
		if st.Degraded == v {
			return false
		}
		st.Degraded = v
		return true
	})
}

// SetStocks replaces the tracked set and clears the loading flag
func (s *Store) SetStocks(ts domain.TrackedSet) {
	s.update(EventStocks, func(st *State) bool {
		st.Stocks = ts
		st.Loading = false
		return true
	})
}

func (s *Store) SetSuggestions(results []domain.SearchResult) {
	s.update(EventSuggestions, func(st *State) bool {
		if len(results) == 0 && len(st.Suggestions) == 0 {
			return false
		}
		st.Suggestions = results
		return true
	})
}

func (s *Store) ClearSuggestions() { s.SetSuggestions(nil) }

func (s *Store) SetInput(q string) {
	s.update(EventInput, func(st *State) bool {
		if st.Input == q {
			return false
		}
		st.Input = q
		return true
	})
}

func (s *Store) SetLoading(v bool) {
	s.update(EventFlags, func(st *State) bool {
		if st.Loading == v {
			return false
		}
		st.Loading = v
		return true
	})
}

// EndTracking is applied on transport close
func (s *Store) EndTracking() {
	s.update(EventFlags, func(st *State) bool {
		if !st.Tracking && !st.Loading {
			return false
		}
		st.Tracking = false
		st.Loading = false
		return true
	})
}

// BeginSubscription resets tracked state for a newly accepted ticker in one step
func (s *Store) BeginSubscription(t domain.Ticker, id string) {
	s.update(EventSubscription, func(st *State) bool {
		st.Stocks = domain.EmptyTrackedSet()
		st.Suggestions = nil
		st.Input = ""
		st.Loading = true
		st.Tracking = true
		st.Ticker = t
		st.SubscriptionID = id
		return true
	})
}
