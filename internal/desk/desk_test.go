package desk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/signal-desk/internal/ai"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	closed []signals.ClosedTrade
	dryRun []bool
	errors []string
}

func (f *fakeNotifier) NotifyError(context string, err error) {
	f.errors = append(f.errors, context+": "+err.Error())
}

func (f *fakeNotifier) NotifyClose(t signals.ClosedTrade, dryRun bool) {
	f.closed = append(f.closed, t)
	f.dryRun = append(f.dryRun, dryRun)
}

type fakeDrafter struct{ got ai.DraftRequest }

func (f *fakeDrafter) Draft(_ context.Context, req ai.DraftRequest) ([]signals.Signal, error) {
	f.got = req
	return []signals.Signal{{Ticker: "NEW"}}, nil
}

func newTestDesk(t *testing.T, opts Options) *Desk {
	t.Helper()
	opts.Now = func() time.Time { return fixedNow }
	store := signals.NewStore([]signals.Signal{
		{ID: "s1", Ticker: "AAPL", BuyPrice: signals.Float(100), BuyAmount: signals.Float(2),
			ConfidenceScore: signals.Float(85), CreatedAt: signals.Time(fixedNow.AddDate(0, 0, -3)), Notes: "tech"},
		{ID: "s2", Ticker: "KO", CreatedAt: signals.Time(fixedNow.AddDate(0, 0, -1)), Notes: "staples"},
	}, nil, signals.WithClock(opts.Now))
	return New(store, gateway.New(logger.Nop()), nil, opts, logger.Nop())
}

func TestCloseSignalNotifies(t *testing.T) {
	d := newTestDesk(t, Options{})
	n := &fakeNotifier{}
	d.SetNotifier(n)

	pending, err := d.PendingClose("s1")
	require.NoError(t, err)
	assert.InDelta(t, 100, pending.ClosePrice, 1e-9)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), pending.CloseDate)

	trade, err := d.CloseSignal("s1", fixedNow, "110")
	require.NoError(t, err)
	assert.InDelta(t, 20, *trade.Profit, 1e-9)

	assert.Len(t, d.ListSignals("", "", ""), 1)
	assert.Len(t, d.ListClosed("", "", ""), 1)
	require.Len(t, n.closed, 1)
	assert.False(t, n.dryRun[0])

	_, err = d.PendingClose("s2")
	assert.ErrorIs(t, err, signals.ErrClosePrecondition)
}

func TestCloseSignalDryRunKeepsSignal(t *testing.T) {
	d := newTestDesk(t, Options{DryRun: true})
	n := &fakeNotifier{}
	d.SetNotifier(n)

	_, err := d.CloseSignal("s1", fixedNow, "90")
	require.NoError(t, err)
	_, err = d.CloseSignal("s1", fixedNow, "95")
	require.NoError(t, err)

	assert.Len(t, d.ListSignals("", "", ""), 2)
	assert.Len(t, d.ListClosed("", "", ""), 2, "repeated dry-run closes are not deduplicated")
	assert.Equal(t, []bool{true, true}, n.dryRun)
}

func TestListUsesDefaultSort(t *testing.T) {
	d := newTestDesk(t, Options{SignalSort: signals.SortOldest})
	list := d.ListSignals("", "", "")
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Ticker)

	list = d.ListSignals("", "", signals.SortNewest)
	assert.Equal(t, "KO", list[0].Ticker)

	assert.Len(t, d.ListSignals("", "staples", ""), 1)
	assert.Equal(t, []string{"staples", "tech"}, d.SignalTags())
}

func TestSummaryUsesSavedUnit(t *testing.T) {
	d := newTestDesk(t, Options{})
	_, err := d.CloseSignal("s1", fixedNow, "110")
	require.NoError(t, err)

	sum, err := d.Summary("")
	require.NoError(t, err)
	assert.Equal(t, signals.UnitUSD, sum.Unit)
	assert.Equal(t, "inclusive", sum.Boundary)
	require.Len(t, sum.Windows, 6)
	assert.Equal(t, "+$20.00", sum.Windows[0].Display)

	_, err = d.SetClosedViewUnit("pct")
	require.NoError(t, err)
	sum, err = d.Summary("")
	require.NoError(t, err)
	assert.Equal(t, "+10.00%", sum.Windows[0].Display)
	require.NotNil(t, sum.Windows[0].Value)
	assert.InDelta(t, 10, *sum.Windows[0].Value, 1e-9)

	empty := sum.Confidence[0]
	assert.Nil(t, empty.Value)
	assert.Equal(t, signals.Placeholder, empty.Display)

	_, err = d.Summary("eur")
	assert.Error(t, err)
	_, err = d.SetClosedViewUnit("eur")
	assert.Error(t, err)
}

func TestTheme(t *testing.T) {
	d := newTestDesk(t, Options{})
	theme, err := d.Theme()
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	require.NoError(t, d.SetTheme("light"))
	theme, _ = d.Theme()
	assert.Equal(t, "light", theme)
	assert.ErrorIs(t, d.SetTheme("blue"), ErrInvalidTheme)
}

func TestImportExport(t *testing.T) {
	d := newTestDesk(t, Options{})

	n, err := d.Import(CollectionSignals, []byte(`[{"ticker":"x"},{"ticker":"y"},{"ticker":"z"}]`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, d.ListSignals("", "", ""), 3)

	_, err = d.Import(CollectionSignals, []byte(`{"ticker":"x"}`))
	assert.ErrorIs(t, err, gateway.ErrMalformedImport)
	assert.Len(t, d.ListSignals("", "", ""), 3)

	data, err := d.Export(CollectionClosed)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	_, err = d.Import(Collection("bogus"), nil)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestPush(t *testing.T) {
	d := newTestDesk(t, Options{})

	_, err := d.Push(CollectionSignals)
	assert.ErrorIs(t, err, ErrNoDefaultDir)

	dir := t.TempDir()
	require.NoError(t, d.SetDefaultDir(dir))
	path, err := d.Push(CollectionSignals)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, gateway.SignalsFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ticker": "AAPL"`)

	assert.Error(t, d.SetDefaultDir("  "))

	require.NoError(t, d.ClearDefaultDir())
	_, ok, err := d.DefaultDir()
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = d.Push(CollectionSignals)
	assert.ErrorIs(t, err, ErrNoDefaultDir)
}

func TestWriteFailuresAreNotified(t *testing.T) {
	d := newTestDesk(t, Options{})
	n := &fakeNotifier{}
	d.SetNotifier(n)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := d.Save(CollectionClosed, filepath.Join(blocker, gateway.ClosedTradesFile))
	require.Error(t, err)

	require.NoError(t, d.SetDefaultDir(blocker))
	_, err = d.Push(CollectionSignals)
	require.Error(t, err)

	require.Len(t, n.errors, 2)
	assert.Contains(t, n.errors[0], "save closed")
	assert.Contains(t, n.errors[1], "push signals")
}

func TestDraft(t *testing.T) {
	d := newTestDesk(t, Options{})
	_, err := d.Draft(context.Background(), "buy NEW")
	assert.ErrorIs(t, err, ErrDraftingDisabled)

	fd := &fakeDrafter{}
	d.SetDrafter(fd)
	drafts, err := d.Draft(context.Background(), "buy NEW")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.ElementsMatch(t, []string{"AAPL", "KO"}, fd.got.Open)
	assert.Len(t, d.ListSignals("", "", ""), 2, "drafts are not added")
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("closed_trades")
	require.NoError(t, err)
	assert.Equal(t, CollectionClosed, c)
	assert.Equal(t, gateway.ClosedTradesFile, c.FileName())

	_, err = ParseCollection("orders")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestLoad(t *testing.T) {
	d := newTestDesk(t, Options{})
	dir := t.TempDir()
	sigPath := filepath.Join(dir, gateway.SignalsFile)
	require.NoError(t, os.WriteFile(sigPath, []byte(`[{"ticker":"msft"}]`), 0o644))

	sigRep, closedRep := d.Load(context.Background(), sigPath, filepath.Join(dir, "missing.json"))
	assert.NoError(t, sigRep.Check())
	assert.NoError(t, closedRep.Check())
	list := d.ListSignals("", "", "")
	require.Len(t, list, 1)
	assert.Equal(t, "MSFT", list[0].Ticker)
	assert.Empty(t, d.ListClosed("", "", ""))
}
