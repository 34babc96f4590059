package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

func newTestGateway() *Gateway {
	return New(logger.Nop())
}

func TestImportSignalsPermissive(t *testing.T) {
	g := newTestGateway()
	data := []byte(`[
		{"ticker": "aapl", "buy_price": "101.5", "buy_amount": 10, "confidence_score": 80,
		 "created_at": "2024-03-01T10:00:00.000Z", "notes": "tech, growth"},
		{"ticker": "KO", "type": "SELL", "buy_price": "", "target_price": "abc", "created_at": "yesterday"},
		{"ticker": "MSFT", "created_at": "2024-03-02T09:30", "stop_loss": null}
	]`)

	got, err := g.ImportSignals(data)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.InDelta(t, 101.5, *got[0].BuyPrice, 1e-9)
	assert.InDelta(t, 10, *got[0].BuyAmount, 1e-9)
	assert.Equal(t, signals.ActionBuy, got[0].Action)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *got[0].CreatedAt)

	assert.Equal(t, signals.ActionSell, got[1].Action, "legacy type field fills action")
	assert.Nil(t, got[1].BuyPrice)
	assert.Nil(t, got[1].TargetPrice)
	assert.Nil(t, got[1].CreatedAt)

	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), *got[2].CreatedAt)
	assert.Nil(t, got[2].StopLoss)
}

func TestImportRejectsNonArray(t *testing.T) {
	g := newTestGateway()
	for _, body := range []string{`{"ticker":"A"}`, `null`, `"x"`, ``, `[1,`} {
		_, err := g.ImportSignals([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedImport, body)
		_, err = g.ImportClosedTrades([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedImport, body)
	}
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	g := newTestGateway()
	cases := map[string]string{
		"not an object":  `[1]`,
		"missing ticker": `[{"name": "x"}]`,
		"confidence":     `[{"ticker": "A", "confidence_score": 140}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.ImportSignals([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedImport)
		})
	}

	_, err := g.ImportClosedTrades([]byte(`[{"ticker": "A", "close_price": 5}]`))
	assert.ErrorIs(t, err, ErrMalformedImport, "closed_at is required")
}

func TestFailedImportLeavesStoreUntouched(t *testing.T) {
	g := newTestGateway()
	store := signals.NewStore([]signals.Signal{{Ticker: "A", Notes: "keep"}}, nil)
	before, err := Export(store.Signals())
	require.NoError(t, err)

	if list, err := g.ImportSignals([]byte(`{"ticker": "B"}`)); err == nil {
		store.ReplaceSignals(list)
	}

	after, err := Export(store.Signals())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExportImportRoundTrip(t *testing.T) {
	g := newTestGateway()
	created := time.Date(2024, 5, 1, 8, 15, 30, 0, time.UTC)
	closed := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	sigs := []signals.Signal{
		{ID: "s1", Ticker: "AAPL", Name: "Apple", Exchange: "NASDAQ", BuyPrice: signals.Float(180.25),
			BuyAmount: signals.Float(3), Action: signals.ActionBuy, ConfidenceScore: signals.Float(85),
			CreatedAt: signals.Time(created), Notes: "tech"},
		{ID: "s2", Ticker: "XOM", Action: signals.ActionSell},
	}
	trades := []signals.ClosedTrade{
		{Signal: sigs[0], ClosePrice: signals.Float(190), ClosedAt: signals.Time(closed), Profit: signals.Float(29.25)},
	}

	data, err := Export(sigs)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"s1\"")

	gotSigs, err := g.ImportSignals(data)
	require.NoError(t, err)
	assert.Equal(t, sigs, gotSigs)

	data, err = Export(trades)
	require.NoError(t, err)
	gotTrades, err := g.ImportClosedTrades(data)
	require.NoError(t, err)
	assert.Equal(t, trades, gotTrades)
}

func TestExportEmptyIsArray(t *testing.T) {
	data, err := Export[signals.Signal](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestLoadSignalsFromFile(t *testing.T) {
	g := newTestGateway()
	path := filepath.Join(t.TempDir(), SignalsFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"ticker":"a"}, 7, {"name":"no ticker"}]`), 0o644))

	got, rep := g.LoadSignals(context.Background(), path)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Ticker)
	assert.Equal(t, 1, rep.Records)
	assert.Equal(t, 2, rep.Skipped)
	assert.Error(t, rep.Check())
}

func TestLoadFailuresYieldEmpty(t *testing.T) {
	g := newTestGateway()
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"array"}`), 0o644))

	sigs, rep := g.LoadSignals(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Empty(t, sigs)
	assert.Error(t, rep.Err)
	assert.NoError(t, rep.Check())

	sigs, rep = g.LoadSignals(context.Background(), bad)
	assert.Empty(t, sigs)
	assert.Error(t, rep.Check())

	trades, rep := g.LoadClosedTrades(context.Background(), bad)
	assert.Empty(t, trades)
	assert.ErrorIs(t, rep.Err, ErrMalformedImport)
	assert.Error(t, rep.Check())
}

func TestLoadReportTrailingComma(t *testing.T) {
	g := newTestGateway()
	path := filepath.Join(t.TempDir(), ClosedTradesFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"ticker":"IBM","profit":3},]`), 0o644))

	trades, rep := g.LoadClosedTrades(context.Background(), path)
	assert.Empty(t, trades)
	assert.ErrorContains(t, rep.Check(), path)
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/closed_trades.json":
			w.Write([]byte(`[{"ticker":"IBM","close_price":"12","profit":3}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := newTestGateway()
	trades, rep := g.LoadClosedTrades(context.Background(), srv.URL+"/closed_trades.json")
	require.Len(t, trades, 1)
	assert.NoError(t, rep.Check())
	assert.InDelta(t, 12, *trades[0].ClosePrice, 1e-9)
	assert.Nil(t, trades[0].ClosedAt)

	sigs, rep := g.LoadSignals(context.Background(), srv.URL+"/signals.json")
	assert.Empty(t, sigs)
	assert.Error(t, rep.Check())
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := WriteFile(dir, SignalsFile, []signals.Signal{{ID: "1", Ticker: "A", Action: signals.ActionBuy}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SignalsFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := newTestGateway().ImportSignals(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Ticker)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}
