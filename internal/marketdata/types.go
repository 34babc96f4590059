package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingSymbol = errors.New("missing symbol")
	ErrMissingAPIKey = errors.New("missing API key (set FINNHUB_API_KEY or API_KEY)")
)

const (
	DefaultDays       = 30
	DefaultResolution = "D"
)

// CandleProvider returns a candle series as the JSON body the dashboard
// charts consume: {"s": status, "c": closes, "t": unix seconds}.
type CandleProvider interface {
	Candles(ctx context.Context, req CandleRequest) ([]byte, error)
}

type CandleRequest struct {
	Symbol     string
	Resolution string
	Days       int
	From       int64
	To         int64
}

// Resolve fills the defaults: resolution D, a 30 day window ending now.
// Explicit From/To win over Days.
func (r CandleRequest) Resolve(now time.Time) CandleRequest {
	if r.Resolution == "" {
		r.Resolution = DefaultResolution
	}
	if r.Days <= 0 {
		r.Days = DefaultDays
	}
	if r.To <= 0 {
		r.To = now.Unix()
	}
	if r.From <= 0 {
		r.From = r.To - int64(r.Days)*24*60*60
	}
	return r
}

// Candles is the Finnhub candle shape, trimmed to what the charts use.
type Candles struct {
	S string    `json:"s"`
	C []float64 `json:"c"`
	T []int64   `json:"t"`
}

// StatusError carries a non-2xx upstream reply so callers can pass it through.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}
