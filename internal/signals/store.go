package signals

import (
	"fmt"
	"time"
)

// Store owns the open-signal and closed-trade collections. It is the only
// component that mutates them; every accessor hands out copies.
//
// Store is not safe for concurrent use. Callers serialise access.
type Store struct {
	signals []Signal
	closed  []ClosedTrade

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock overrides the time source used for defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the record id generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(signals []Signal, closed []ClosedTrade, opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ReplaceSignals(signals)
	s.ReplaceClosedTrades(closed)
	return s
}

// Signals

func (s *Store) Signals() []Signal {
	out := make([]Signal, len(s.signals))
	for i, sig := range s.signals {
		out[i] = sig.clone()
	}
	return out
}

func (s *Store) Signal(id string) (Signal, error) {
	i := s.signalIndex(id)
	if i < 0 {
		return Signal{}, fmt.Errorf("signal %q: %w", id, ErrNotFound)
	}
	return s.signals[i].clone(), nil
}

// AddSignal appends a new signal. The ticker is upper-cased and must be unique
// among open signals; action defaults to buy and created_at to now.
func (s *Store) AddSignal(rec Signal) (Signal, error) {
	rec = rec.clone()
	rec.Ticker = canonicalTicker(rec.Ticker)
	if rec.Ticker == "" {
		return Signal{}, ErrMissingTicker
	}
	for _, existing := range s.signals {
		if canonicalTicker(existing.Ticker) == rec.Ticker {
			return Signal{}, fmt.Errorf("%s: %w", rec.Ticker, ErrDuplicateTicker)
		}
	}
	s.fillSignalDefaults(&rec)
	rec.ID = s.newID()
	s.signals = append(s.signals, rec)
	return rec.clone(), nil
}

// UpdateSignal merges patch onto the signal. Ticker uniqueness is only
// enforced on creation.
func (s *Store) UpdateSignal(id string, patch SignalPatch) (Signal, error) {
	i := s.signalIndex(id)
	if i < 0 {
		return Signal{}, fmt.Errorf("signal %q: %w", id, ErrNotFound)
	}
	updated := s.signals[i].clone()
	patch.applyTo(&updated)
	if updated.Ticker == "" {
		return Signal{}, ErrMissingTicker
	}
	updated = updated.clone()
	s.signals[i] = updated
	return updated.clone(), nil
}

func (s *Store) RemoveSignal(id string) error {
	i := s.signalIndex(id)
	if i < 0 {
		return fmt.Errorf("signal %q: %w", id, ErrNotFound)
	}
	s.signals = append(s.signals[:i], s.signals[i+1:]...)
	return nil
}

// DuplicateSignal appends an independent copy with a fresh id. The copy keeps
// the original ticker, so the open collection may hold the same ticker twice.
func (s *Store) DuplicateSignal(id string) (Signal, error) {
	i := s.signalIndex(id)
	if i < 0 {
		return Signal{}, fmt.Errorf("signal %q: %w", id, ErrNotFound)
	}
	dup := s.signals[i].clone()
	dup.ID = s.newID()
	s.signals = append(s.signals, dup)
	return dup.clone(), nil
}

// ReplaceSignals swaps the whole open collection, minting ids where missing or repeated.
func (s *Store) ReplaceSignals(list []Signal) {
	seen := make(map[string]bool, len(list))
	out := make([]Signal, 0, len(list))
	for _, sig := range list {
		sig = sig.clone()
		sig.Ticker = canonicalTicker(sig.Ticker)
		if sig.ID == "" || seen[sig.ID] {
			sig.ID = s.newID()
		}
		seen[sig.ID] = true
		out = append(out, sig)
	}
	s.signals = out
}

// Closed trades

func (s *Store) ClosedTrades() []ClosedTrade {
	out := make([]ClosedTrade, len(s.closed))
	for i, t := range s.closed {
		out[i] = t.clone()
	}
	return out
}

func (s *Store) ClosedTrade(id string) (ClosedTrade, error) {
	i := s.closedIndex(id)
	if i < 0 {
		return ClosedTrade{}, fmt.Errorf("closed trade %q: %w", id, ErrNotFound)
	}
	return s.closed[i].clone(), nil
}

// AddClosedTrade appends a closed trade. Tickers are checked against the
// closed collection only; open signals are a separate namespace.
func (s *Store) AddClosedTrade(rec ClosedTrade) (ClosedTrade, error) {
	rec = rec.clone()
	rec.Ticker = canonicalTicker(rec.Ticker)
	if rec.Ticker == "" {
		return ClosedTrade{}, ErrMissingTicker
	}
	for _, existing := range s.closed {
		if canonicalTicker(existing.Ticker) == rec.Ticker {
			return ClosedTrade{}, fmt.Errorf("%s: %w", rec.Ticker, ErrDuplicateTicker)
		}
	}
	s.fillSignalDefaults(&rec.Signal)
	rec.ID = s.newID()
	s.closed = append(s.closed, rec)
	return rec.clone(), nil
}

func (s *Store) UpdateClosedTrade(id string, patch ClosedTradePatch) (ClosedTrade, error) {
	i := s.closedIndex(id)
	if i < 0 {
		return ClosedTrade{}, fmt.Errorf("closed trade %q: %w", id, ErrNotFound)
	}
	updated := s.closed[i].clone()
	patch.applyTo(&updated)
	if updated.Ticker == "" {
		return ClosedTrade{}, ErrMissingTicker
	}
	updated = updated.clone()
	s.closed[i] = updated
	return updated.clone(), nil
}

func (s *Store) RemoveClosedTrade(id string) error {
	i := s.closedIndex(id)
	if i < 0 {
		return fmt.Errorf("closed trade %q: %w", id, ErrNotFound)
	}
	s.closed = append(s.closed[:i], s.closed[i+1:]...)
	return nil
}

func (s *Store) DuplicateClosedTrade(id string) (ClosedTrade, error) {
	i := s.closedIndex(id)
	if i < 0 {
		return ClosedTrade{}, fmt.Errorf("closed trade %q: %w", id, ErrNotFound)
	}
	dup := s.closed[i].clone()
	dup.ID = s.newID()
	s.closed = append(s.closed, dup)
	return dup.clone(), nil
}

func (s *Store) ReplaceClosedTrades(list []ClosedTrade) {
	seen := make(map[string]bool, len(list))
	out := make([]ClosedTrade, 0, len(list))
	for _, t := range list {
		t = t.clone()
		t.Ticker = canonicalTicker(t.Ticker)
		if t.ID == "" || seen[t.ID] {
			t.ID = s.newID()
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	s.closed = out
}

// CloseSignal converts an open signal into a closed trade priced at
// priceText on date. Unless dryRun is set the signal leaves the open
// collection. Nothing is committed when validation fails.
//
// Repeated calls for the same signal in dry-run mode produce one closed
// trade per call.
func (s *Store) CloseSignal(id string, date time.Time, priceText string, dryRun bool) (ClosedTrade, error) {
	i := s.signalIndex(id)
	if i < 0 {
		return ClosedTrade{}, fmt.Errorf("signal %q: %w", id, ErrNotFound)
	}
	pending, err := PrepareClose(s.signals[i], s.now())
	if err != nil {
		return ClosedTrade{}, err
	}
	trade, err := pending.Confirm(date, priceText)
	if err != nil {
		return ClosedTrade{}, err
	}
	trade.ID = s.newID()
	s.closed = append(s.closed, trade)
	if !dryRun {
		s.signals = append(s.signals[:i], s.signals[i+1:]...)
	}
	return trade.clone(), nil
}

func (s *Store) fillSignalDefaults(rec *Signal) {
	if rec.Action == "" {
		rec.Action = ActionBuy
	}
	if rec.CreatedAt == nil {
		now := s.now().UTC()
		rec.CreatedAt = &now
	}
}

func (s *Store) signalIndex(id string) int {
	for i := range s.signals {
		if s.signals[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) closedIndex(id string) int {
	for i := range s.closed {
		if s.closed[i].ID == id {
			return i
		}
	}
	return -1
}
