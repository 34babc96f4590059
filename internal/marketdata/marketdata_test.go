package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/signal-desk/internal/logger"
)

func newTestClient(baseURL, key string, retries int) *FinnhubClient {
	return NewFinnhubClient(FinnhubOptions{
		BaseURL:       baseURL,
		APIKey:        key,
		Timeout:       2 * time.Second,
		MaxRetries:    retries,
		RetryInterval: time.Millisecond,
	}, logger.Nop())
}

func TestCandleRequestResolve(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	r := CandleRequest{Symbol: "AAPL"}.Resolve(now)
	assert.Equal(t, "D", r.Resolution)
	assert.Equal(t, int64(1_700_000_000), r.To)
	assert.Equal(t, int64(1_700_000_000-30*86400), r.From)

	r = CandleRequest{Symbol: "AAPL", Days: 2, To: 1000, Resolution: "60"}.Resolve(now)
	assert.Equal(t, int64(1000-2*86400), r.From)
	assert.Equal(t, "60", r.Resolution)

	r = CandleRequest{From: 5, To: 10}.Resolve(now)
	assert.Equal(t, int64(5), r.From)
}

func TestFinnhubCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Finnhub-Token"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "100", r.URL.Query().Get("from"))
		w.Write([]byte(`{"s":"ok","c":[1,2],"t":[100,200]}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL, "secret", 0).
		Candles(context.Background(), CandleRequest{Symbol: "AAPL", From: 100, To: 200})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"ok","c":[1,2],"t":[100,200]}`, string(body))
}

func TestFinnhubPreconditions(t *testing.T) {
	_, err := newTestClient("http://unused", "k", 0).Candles(context.Background(), CandleRequest{})
	assert.ErrorIs(t, err, ErrMissingSymbol)

	_, err = newTestClient("http://unused", "", 0).Candles(context.Background(), CandleRequest{Symbol: "A"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFinnhubClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("no access"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k", 3).Candles(context.Background(), CandleRequest{Symbol: "A"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, "no access", string(se.Body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFinnhubRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL, "k", 3).Candles(context.Background(), CandleRequest{Symbol: "A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"no_data"}`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFinnhubGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k", 2).Candles(context.Background(), CandleRequest{Symbol: "A"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSparklineDeterministic(t *testing.T) {
	got := Sparkline("aapl", 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 86.280835, got[0], 1e-5)
	assert.InDelta(t, 83.902525, got[1], 1e-5)
	assert.InDelta(t, 88.462733, got[2], 1e-5)

	assert.Equal(t, Sparkline("AAPL", 20), Sparkline("aapl", 20))
	assert.NotEqual(t, Sparkline("AAPL", 20), Sparkline("MSFT", 20))
	assert.Empty(t, Sparkline("AAPL", 0))

	for _, v := range Sparkline("MSFT", 50) {
		assert.GreaterOrEqual(t, v, 47.0)
		assert.LessOrEqual(t, v, 92.0)
	}
}
