package signals

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PendingClose is a signal that passed the close preconditions and awaits an
// exit price and date. ClosePrice and CloseDate are the suggested defaults.
type PendingClose struct {
	Signal     Signal
	ClosePrice float64
	CloseDate  time.Time
}

// PrepareClose checks that sig can be closed and proposes defaults: the buy
// price as exit price and today's date.
func PrepareClose(sig Signal, now time.Time) (PendingClose, error) {
	if sig.BuyPrice == nil || sig.BuyAmount == nil {
		return PendingClose{}, fmt.Errorf("%s: %w", sig.Ticker, ErrClosePrecondition)
	}
	return PendingClose{
		Signal:     sig.clone(),
		ClosePrice: *sig.BuyPrice,
		CloseDate:  startOfDay(now),
	}, nil
}

// Confirm builds the closed trade. The signal is copied, stamped with
// closed_at at 00:00 UTC of date and profit = (close - buy) * amount.
//
// The same formula applies to sell signals; the stored profit is never
// sign-flipped by action.
func (p PendingClose) Confirm(date time.Time, priceText string) (ClosedTrade, error) {
	if date.IsZero() {
		return ClosedTrade{}, ErrMissingCloseDate
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return ClosedTrade{}, err
	}

	closedAt := startOfDay(date)
	profit := (price - *p.Signal.BuyPrice) * *p.Signal.BuyAmount

	return ClosedTrade{
		Signal:     p.Signal.clone(),
		ClosePrice: &price,
		ClosedAt:   &closedAt,
		Profit:     &profit,
	}, nil
}

// ParsePrice parses a user-entered price. Empty, non-numeric and non-finite
// input is rejected with ErrInvalidClosePrice.
func ParsePrice(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", text, ErrInvalidClosePrice)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q: %w", text, ErrInvalidClosePrice)
	}
	return v, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
