package signals

import (
	"encoding/json"
	"strings"
	"time"
)

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal is an open, tracked trading idea. Optional numeric fields are nil when unknown.
type Signal struct {
	ID       string `json:"id,omitempty"`
	Ticker   string `json:"ticker" validate:"required"`
	Exchange string `json:"exchange,omitempty"`
	Name     string `json:"name,omitempty"`

	BuyPrice       *float64 `json:"buy_price"`
	BuyAmount      *float64 `json:"buy_amount"`      // share count
	ExpectedProfit *float64 `json:"expected_profit"` // percent
	MaxRisk        *float64 `json:"max_risk"`        // percent
	TargetPrice    *float64 `json:"target_price"`
	StopLoss       *float64 `json:"stop_loss"`

	Action          Action     `json:"action"`
	ConfidenceScore *float64   `json:"confidence_score" validate:"omitempty,gte=0,lte=100"`
	CreatedAt       *time.Time `json:"created_at"`
	Notes           string     `json:"notes,omitempty"`
}

// ClosedTrade is a signal resolved with an exit price and date.
type ClosedTrade struct {
	Signal

	ClosePrice *float64   `json:"close_price" validate:"required"`
	ClosedAt   *time.Time `json:"closed_at" validate:"required"`
	Profit     *float64   `json:"profit"`
}

// DisplayName is the name used for alphabetical ordering.
func (s Signal) DisplayName() string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	return s.Ticker
}

// CostBasis is buy_price * buy_amount, zero when either is missing.
func (s Signal) CostBasis() float64 {
	return value(s.BuyPrice) * value(s.BuyAmount)
}

// RealizedProfit returns the stored profit, or recomputes it from prices when
// absent. ok is false when the trade has neither a profit nor a close price.
func (t ClosedTrade) RealizedProfit() (profit float64, ok bool) {
	switch {
	case t.Profit != nil:
		return *t.Profit, true
	case t.ClosePrice != nil:
		return (*t.ClosePrice - value(t.BuyPrice)) * value(t.BuyAmount), true
	default:
		return 0, false
	}
}

func (s Signal) clone() Signal {
	c := s
	c.BuyPrice = cloneFloat(s.BuyPrice)
	c.BuyAmount = cloneFloat(s.BuyAmount)
	c.ExpectedProfit = cloneFloat(s.ExpectedProfit)
	c.MaxRisk = cloneFloat(s.MaxRisk)
	c.TargetPrice = cloneFloat(s.TargetPrice)
	c.StopLoss = cloneFloat(s.StopLoss)
	c.ConfidenceScore = cloneFloat(s.ConfidenceScore)
	c.CreatedAt = cloneTime(s.CreatedAt)
	return c
}

func (t ClosedTrade) clone() ClosedTrade {
	c := t
	c.Signal = t.Signal.clone()
	c.ClosePrice = cloneFloat(t.ClosePrice)
	c.ClosedAt = cloneTime(t.ClosedAt)
	c.Profit = cloneFloat(t.Profit)
	return c
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneTime copies p in UTC. Every instant the store holds is UTC, matching
// what the collection loader produces.
func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := p.UTC()
	return &v
}

// Field is one slot of a patch. Set is true when the field was provided,
// including an explicit JSON null that clears an optional value.
type Field[T any] struct {
	Set   bool
	Value T
}

// Set builds a provided patch field.
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// SignalPatch is a shallow merge onto an existing signal.
type SignalPatch struct {
	Ticker          Field[string]     `json:"ticker"`
	Exchange        Field[string]     `json:"exchange"`
	Name            Field[string]     `json:"name"`
	BuyPrice        Field[*float64]   `json:"buy_price"`
	BuyAmount       Field[*float64]   `json:"buy_amount"`
	ExpectedProfit  Field[*float64]   `json:"expected_profit"`
	MaxRisk         Field[*float64]   `json:"max_risk"`
	TargetPrice     Field[*float64]   `json:"target_price"`
	StopLoss        Field[*float64]   `json:"stop_loss"`
	Action          Field[Action]     `json:"action"`
	ConfidenceScore Field[*float64]   `json:"confidence_score"`
	CreatedAt       Field[*time.Time] `json:"created_at"`
	Notes           Field[string]     `json:"notes"`
}

func (p SignalPatch) applyTo(s *Signal) {
	p.Ticker.apply(&s.Ticker)
	p.Exchange.apply(&s.Exchange)
	p.Name.apply(&s.Name)
	p.BuyPrice.apply(&s.BuyPrice)
	p.BuyAmount.apply(&s.BuyAmount)
	p.ExpectedProfit.apply(&s.ExpectedProfit)
	p.MaxRisk.apply(&s.MaxRisk)
	p.TargetPrice.apply(&s.TargetPrice)
	p.StopLoss.apply(&s.StopLoss)
	p.Action.apply(&s.Action)
	p.ConfidenceScore.apply(&s.ConfidenceScore)
	p.CreatedAt.apply(&s.CreatedAt)
	p.Notes.apply(&s.Notes)
	s.Ticker = canonicalTicker(s.Ticker)
}

// ClosedTradePatch is a shallow merge onto an existing closed trade.
type ClosedTradePatch struct {
	SignalPatch

	ClosePrice Field[*float64]   `json:"close_price"`
	ClosedAt   Field[*time.Time] `json:"closed_at"`
	Profit     Field[*float64]   `json:"profit"`
}

func (p ClosedTradePatch) applyTo(t *ClosedTrade) {
	p.SignalPatch.applyTo(&t.Signal)
	p.ClosePrice.apply(&t.ClosePrice)
	p.ClosedAt.apply(&t.ClosedAt)
	p.Profit.apply(&t.Profit)
}

func canonicalTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
