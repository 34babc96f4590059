package signals

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort keys for open signals.
const (
	SortNewest         = "newest"
	SortOldest         = "oldest"
	SortNameAZ         = "name_az"
	SortPriceDesc      = "price_desc"
	SortPriceAsc       = "price_asc"
	SortConfidenceDesc = "confidence_desc"
)

// Sort keys for closed trades.
const (
	SortProfitAsc  = "profit_asc"
	SortProfitDesc = "profit_desc"
	SortValueAZ    = "value_az"
	SortValueZA    = "value_za"
)

// FilterSignals returns the signals matching a free-text query and an optional tag.
func FilterSignals(list []Signal, query, tag string) []Signal {
	return filterRecords(list, query, tag, func(s Signal) Signal { return s })
}

// FilterClosedTrades is FilterSignals for closed trades.
func FilterClosedTrades(list []ClosedTrade, query, tag string) []ClosedTrade {
	return filterRecords(list, query, tag, func(t ClosedTrade) Signal { return t.Signal })
}

func filterRecords[T any](list []T, query, tag string, fields func(T) Signal) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(tag)

	out := make([]T, 0, len(list))
	for _, rec := range list {
		s := fields(rec)
		if q != "" && !matchesQuery(s, q) {
			continue
		}
		if t != "" && !hasTag(s.Notes, t) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesQuery(s Signal, q string) bool {
	return strings.Contains(strings.ToLower(s.Ticker), q) ||
		strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Notes), q)
}

// hasTag reports whether the comma-separated notes contain tag exactly,
// after trimming and lower-casing each part.
func hasTag(notes, tag string) bool {
	if notes == "" {
		return false
	}
	for _, part := range strings.Split(notes, ",") {
		if strings.ToLower(strings.TrimSpace(part)) == tag {
			return true
		}
	}
	return false
}

// SortSignals returns a sorted copy of list. Unknown keys sort newest first.
func SortSignals(list []Signal, key string) []Signal {
	out := make([]Signal, len(list))
	copy(out, list)

	switch key {
	case SortOldest:
		out = SortSignals(list, SortNewest)
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	case SortNameAZ:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].DisplayName(), out[j].DisplayName()) < 0
		})
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return value(out[i].BuyPrice) > value(out[j].BuyPrice)
		})
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return value(out[i].BuyPrice) < value(out[j].BuyPrice)
		})
	case SortConfidenceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return value(out[i].ConfidenceScore) > value(out[j].ConfidenceScore)
		})
	default:
		// Missing dates go last; equal dates keep their input order.
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].CreatedAt, out[j].CreatedAt
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	}
	return out
}

// SortClosedTrades returns a sorted copy of list. Unknown keys keep the input order.
func SortClosedTrades(list []ClosedTrade, key string) []ClosedTrade {
	out := make([]ClosedTrade, len(list))
	copy(out, list)

	switch key {
	case SortProfitAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return value(out[i].Profit) < value(out[j].Profit)
		})
	case SortProfitDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return value(out[i].Profit) > value(out[j].Profit)
		})
	case SortValueAZ:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].DisplayName(), out[j].DisplayName()) < 0
		})
	case SortValueZA:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].DisplayName(), out[j].DisplayName()) > 0
		})
	}
	return out
}

// A Collator keeps internal buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}
