package signals

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unit selects how a rollup is displayed.
type Unit string

const (
	UnitUSD Unit = "usd" // signed absolute currency
	UnitPct Unit = "pct" // signed percentage of cost basis
)

// Placeholder is rendered when a percentage has no cost basis.
const Placeholder = "n/a"

func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitUSD, UnitPct:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("unknown unit %q (want usd or pct)", s)
	}
}

// Bucket is the profit and cost basis summed over a group of closed trades.
type Bucket struct {
	Label  string  `json:"label"`
	Profit float64 `json:"profit"`
	Cost   float64 `json:"cost"`
	Count  int     `json:"count"`
}

// add folds t into the bucket. Trades without a realized profit are left out.
func (b *Bucket) add(t ClosedTrade) {
	profit, ok := t.RealizedProfit()
	if !ok {
		return
	}
	b.Profit += profit
	b.Cost += t.CostBasis()
	b.Count++
}

// Percent is profit over cost basis; ok is false when the cost basis is zero.
func (b Bucket) Percent() (pct float64, ok bool) {
	if b.Cost == 0 {
		return 0, false
	}
	return b.Profit / b.Cost * 100, true
}

// Value returns the bucket total in unit.
func (b Bucket) Value(unit Unit) (float64, bool) {
	if unit == UnitPct {
		return b.Percent()
	}
	return b.Profit, true
}

// Format renders the bucket in unit, e.g. "+$1,234.50" or "-4.29%".
func (b Bucket) Format(unit Unit) string {
	v, ok := b.Value(unit)
	if !ok {
		return Placeholder
	}
	sign := "+"
	if v < 0 {
		sign = "-"
	}
	p := message.NewPrinter(language.English)
	if unit == UnitPct {
		return sign + p.Sprintf("%.2f%%", math.Abs(v))
	}
	return sign + "$" + p.Sprintf("%.2f", math.Abs(v))
}

// Window is a look-back period measured from now.
type Window struct {
	Label string
	Days  int
}

var Windows = []Window{
	{Label: "1d", Days: 1},
	{Label: "3d", Days: 3},
	{Label: "7d", Days: 7},
	{Label: "1m", Days: 30},
	{Label: "3m", Days: 90},
	{Label: "1y", Days: 365},
}

// SummarizeByWindow sums every trade closed at or after now minus each
// window. There is no upper bound, so future-dated trades count in every
// window; trades without closed_at count in none.
func SummarizeByWindow(trades []ClosedTrade, now time.Time) []Bucket {
	out := make([]Bucket, len(Windows))
	for i, w := range Windows {
		out[i].Label = w.Label
		from := now.Add(-time.Duration(w.Days) * 24 * time.Hour)
		for _, t := range trades {
			if t.ClosedAt == nil || t.ClosedAt.Before(from) {
				continue
			}
			out[i].add(t)
		}
	}
	return out
}

// ScoreRange is a confidence-score bucket.
type ScoreRange struct {
	Label string
	Min   float64
	Max   float64
}

var ConfidenceRanges = []ScoreRange{
	{Label: "10-50", Min: 10, Max: 50},
	{Label: "50-80", Min: 50, Max: 80},
	{Label: "80-90", Min: 80, Max: 90},
	{Label: "90-100", Min: 90, Max: 100},
}

// BoundaryPolicy decides which bucket owns a score sitting on a shared edge.
type BoundaryPolicy int

const (
	// BoundaryInclusiveBoth closes every range at both ends, so 50 and 80
	// count toward both neighbouring buckets.
	BoundaryInclusiveBoth BoundaryPolicy = iota
	// BoundaryHalfOpen uses [min, max) except for the last range, which is [min, max].
	BoundaryHalfOpen
)

func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "", "inclusive":
		return BoundaryInclusiveBoth, nil
	case "half_open":
		return BoundaryHalfOpen, nil
	default:
		return 0, fmt.Errorf("unknown boundary policy %q (want inclusive or half_open)", s)
	}
}

func (p BoundaryPolicy) String() string {
	if p == BoundaryHalfOpen {
		return "half_open"
	}
	return "inclusive"
}

// Contains reports whether score falls in r. last marks the final range.
func (p BoundaryPolicy) Contains(r ScoreRange, score float64, last bool) bool {
	if score < r.Min {
		return false
	}
	if p == BoundaryHalfOpen && !last {
		return score < r.Max
	}
	return score <= r.Max
}

// SummarizeByConfidence sums closed trades per confidence range. Trades
// without a score are skipped.
func SummarizeByConfidence(trades []ClosedTrade, policy BoundaryPolicy) []Bucket {
	out := make([]Bucket, len(ConfidenceRanges))
	for i, r := range ConfidenceRanges {
		out[i].Label = r.Label
		last := i == len(ConfidenceRanges)-1
		for _, t := range trades {
			if t.ConfidenceScore == nil || !policy.Contains(r, *t.ConfidenceScore, last) {
				continue
			}
			out[i].add(t)
		}
	}
	return out
}
