package desk

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/camuig/signal-desk/internal/ai"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
	"github.com/camuig/signal-desk/internal/storage"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNoDefaultDir      = errors.New("no default folder saved")
	ErrDraftingDisabled  = errors.New("signal drafting is not configured")
	ErrInvalidTheme      = errors.New("theme must be dark or light")
)

// Collection names one of the two record collections.
type Collection string

const (
	CollectionSignals Collection = "signals"
	CollectionClosed  Collection = "closed"
)

func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(s) {
	case "signals":
		return CollectionSignals, nil
	case "closed", "closed_trades", "closed-trades":
		return CollectionClosed, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownCollection, s)
	}
}

// FileName is the export file name for the collection.
func (c Collection) FileName() string {
	if c == CollectionClosed {
		return gateway.ClosedTradesFile
	}
	return gateway.SignalsFile
}

type Notifier interface {
	NotifyClose(trade signals.ClosedTrade, dryRun bool)
	NotifyError(context string, err error)
}

type Drafter interface {
	Draft(ctx context.Context, req ai.DraftRequest) ([]signals.Signal, error)
}

type Options struct {
	DryRun      bool
	Policy      signals.BoundaryPolicy
	DefaultUnit signals.Unit
	SignalSort  string
	ClosedSort  string
	Now         func() time.Time
}

// Desk is the single logical actor over the record store. Every operation
// holds the mutex for its whole duration.
type Desk struct {
	mu       sync.Mutex
	store    *signals.Store
	gateway  *gateway.Gateway
	notifier Notifier
	drafter  Drafter
	state    StateStore
	opts     Options
	logger   *logger.Logger
}

func New(store *signals.Store, gw *gateway.Gateway, state StateStore, opts Options, log *logger.Logger) *Desk {
	if state == nil {
		state = newMemState()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultUnit == "" {
		opts.DefaultUnit = signals.UnitUSD
	}
	return &Desk{
		store:   store,
		gateway: gw,
		state:   state,
		opts:    opts,
		logger:  log,
	}
}

func (d *Desk) SetNotifier(n Notifier) { d.notifier = n }
func (d *Desk) SetDrafter(dr Drafter)  { d.drafter = dr }
func (d *Desk) DryRun() bool           { return d.opts.DryRun }

// Load replaces both collections with what the sources hold. Unreadable
// sources leave an empty collection; the reports say what was lost.
func (d *Desk) Load(ctx context.Context, signalsSource, closedSource string) (sigRep, closedRep gateway.LoadReport) {
	sigs, sigRep := d.gateway.LoadSignals(ctx, signalsSource)
	closed, closedRep := d.gateway.LoadClosedTrades(ctx, closedSource)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.ReplaceSignals(sigs)
	d.store.ReplaceClosedTrades(closed)
	d.logger.Info("desk loaded", "signals", len(sigs), "closed", len(closed),
		"skipped", sigRep.Skipped+closedRep.Skipped)
	return sigRep, closedRep
}

// Open signals

func (d *Desk) ListSignals(query, tag, sortKey string) []signals.Signal {
	if sortKey == "" {
		sortKey = d.opts.SignalSort
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return signals.SortSignals(signals.FilterSignals(d.store.Signals(), query, tag), sortKey)
}

func (d *Desk) Signal(id string) (signals.Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Signal(id)
}

func (d *Desk) AddSignal(rec signals.Signal) (signals.Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.store.AddSignal(rec)
	if err != nil {
		return signals.Signal{}, err
	}
	d.logger.Info("signal added", "id", s.ID, "ticker", s.Ticker)
	return s, nil
}

func (d *Desk) UpdateSignal(id string, patch signals.SignalPatch) (signals.Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.UpdateSignal(id, patch)
}

func (d *Desk) RemoveSignal(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.RemoveSignal(id); err != nil {
		return err
	}
	d.logger.Info("signal removed", "id", id)
	return nil
}

func (d *Desk) DuplicateSignal(id string) (signals.Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.DuplicateSignal(id)
}

func (d *Desk) SignalTags() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return signals.SignalTags(d.store.Signals())
}

// Closed trades

func (d *Desk) ListClosed(query, tag, sortKey string) []signals.ClosedTrade {
	if sortKey == "" {
		sortKey = d.opts.ClosedSort
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return signals.SortClosedTrades(signals.FilterClosedTrades(d.store.ClosedTrades(), query, tag), sortKey)
}

func (d *Desk) ClosedTrade(id string) (signals.ClosedTrade, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.ClosedTrade(id)
}

func (d *Desk) AddClosedTrade(rec signals.ClosedTrade) (signals.ClosedTrade, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.AddClosedTrade(rec)
}

func (d *Desk) UpdateClosedTrade(id string, patch signals.ClosedTradePatch) (signals.ClosedTrade, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.UpdateClosedTrade(id, patch)
}

func (d *Desk) RemoveClosedTrade(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.RemoveClosedTrade(id)
}

func (d *Desk) DuplicateClosedTrade(id string) (signals.ClosedTrade, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.DuplicateClosedTrade(id)
}

func (d *Desk) ClosedTags() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return signals.ClosedTradeTags(d.store.ClosedTrades())
}

// Close lifecycle

// PendingClose returns the defaults a close form starts from.
func (d *Desk) PendingClose(id string) (signals.PendingClose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sig, err := d.store.Signal(id)
	if err != nil {
		return signals.PendingClose{}, err
	}
	return signals.PrepareClose(sig, d.opts.Now())
}

// CloseSignal moves the signal into the closed collection. In dry-run mode
// the signal stays open and the closed trade is still recorded.
func (d *Desk) CloseSignal(id string, date time.Time, priceText string) (signals.ClosedTrade, error) {
	d.mu.Lock()
	trade, err := d.store.CloseSignal(id, date, priceText, d.opts.DryRun)
	d.mu.Unlock()
	if err != nil {
		return signals.ClosedTrade{}, err
	}

	d.logger.Info("signal closed",
		"ticker", trade.Ticker, "close_price", *trade.ClosePrice, "profit", *trade.Profit, "dry_run", d.opts.DryRun)
	if d.notifier != nil {
		d.notifier.NotifyClose(trade, d.opts.DryRun)
	}
	return trade, nil
}

// Summary

type Row struct {
	Label   string   `json:"label"`
	Profit  float64  `json:"profit"`
	Cost    float64  `json:"cost"`
	Count   int      `json:"count"`
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

type Summary struct {
	Unit       signals.Unit `json:"unit"`
	Boundary   string       `json:"boundary"`
	Windows    []Row        `json:"windows"`
	Confidence []Row        `json:"confidence"`
}

// Summary computes both rollups. An empty unit uses the saved closed-view
// preference.
func (d *Desk) Summary(unit string) (Summary, error) {
	u, err := d.resolveUnit(unit)
	if err != nil {
		return Summary{}, err
	}

	d.mu.Lock()
	trades := d.store.ClosedTrades()
	d.mu.Unlock()

	return Summary{
		Unit:       u,
		Boundary:   d.opts.Policy.String(),
		Windows:    rows(signals.SummarizeByWindow(trades, d.opts.Now()), u),
		Confidence: rows(signals.SummarizeByConfidence(trades, d.opts.Policy), u),
	}, nil
}

func rows(buckets []signals.Bucket, unit signals.Unit) []Row {
	out := make([]Row, len(buckets))
	for i, b := range buckets {
		out[i] = Row{Label: b.Label, Profit: b.Profit, Cost: b.Cost, Count: b.Count, Display: b.Format(unit)}
		if v, ok := b.Value(unit); ok {
			out[i].Value = &v
		}
	}
	return out
}

func (d *Desk) resolveUnit(unit string) (signals.Unit, error) {
	if unit != "" {
		return signals.ParseUnit(unit)
	}
	return d.ClosedViewUnit()
}

// Preferences

func (d *Desk) ClosedViewUnit() (signals.Unit, error) {
	v, err := d.state.GetPreference(storage.PrefClosedViewUnit, string(d.opts.DefaultUnit))
	if err != nil {
		return d.opts.DefaultUnit, fmt.Errorf("read closed view: %w", err)
	}
	u, err := signals.ParseUnit(v)
	if err != nil {
		return d.opts.DefaultUnit, nil
	}
	return u, nil
}

func (d *Desk) SetClosedViewUnit(unit string) (signals.Unit, error) {
	u, err := signals.ParseUnit(unit)
	if err != nil {
		return "", err
	}
	if err := d.state.SetPreference(storage.PrefClosedViewUnit, string(u)); err != nil {
		return "", fmt.Errorf("save closed view: %w", err)
	}
	return u, nil
}

func (d *Desk) Theme() (string, error) {
	return d.state.GetPreference(storage.PrefTheme, "dark")
}

func (d *Desk) SetTheme(theme string) error {
	if theme != "dark" && theme != "light" {
		return ErrInvalidTheme
	}
	return d.state.SetPreference(storage.PrefTheme, theme)
}

// Preferences returns every view preference, defaults filled in for the ones
// never saved.
func (d *Desk) Preferences() (map[string]string, error) {
	out := map[string]string{
		storage.PrefClosedViewUnit: string(d.opts.DefaultUnit),
		storage.PrefTheme:          "dark",
	}
	stored, err := d.state.Preferences()
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	for _, p := range stored {
		out[p.Key] = p.Value
	}
	return out, nil
}

// Import, export and push

// Import replaces a whole collection. A rejected document leaves the store
// untouched.
func (d *Desk) Import(c Collection, data []byte) (int, error) {
	switch c {
	case CollectionSignals:
		list, err := d.gateway.ImportSignals(data)
		if err != nil {
			return 0, err
		}
		d.mu.Lock()
		d.store.ReplaceSignals(list)
		d.mu.Unlock()
		d.logger.Info("signals imported", "records", len(list))
		return len(list), nil
	case CollectionClosed:
		list, err := d.gateway.ImportClosedTrades(data)
		if err != nil {
			return 0, err
		}
		d.mu.Lock()
		d.store.ReplaceClosedTrades(list)
		d.mu.Unlock()
		d.logger.Info("closed trades imported", "records", len(list))
		return len(list), nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownCollection, c)
	}
}

func (d *Desk) Export(c Collection) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch c {
	case CollectionSignals:
		return gateway.Export(d.store.Signals())
	case CollectionClosed:
		return gateway.Export(d.store.ClosedTrades())
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownCollection, c)
	}
}

func (d *Desk) SetDefaultDir(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("empty folder path")
	}
	return d.state.SaveHandle(storage.HandleDefaultDir, path)
}

func (d *Desk) DefaultDir() (string, bool, error) {
	return d.state.GetHandle(storage.HandleDefaultDir)
}

// ClearDefaultDir forgets the saved folder; pushes fail until a new one is set.
func (d *Desk) ClearDefaultDir() error {
	if err := d.state.ClearHandle(storage.HandleDefaultDir); err != nil {
		return fmt.Errorf("clear default folder: %w", err)
	}
	d.logger.Info("default folder cleared")
	return nil
}

// Push writes the collection into the saved default folder and returns the
// written path.
func (d *Desk) Push(c Collection) (string, error) {
	dir, ok, err := d.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("read default folder: %w", err)
	}
	if !ok {
		return "", ErrNoDefaultDir
	}

	path, err := d.writeCollection(c, dir, c.FileName())
	if err != nil {
		d.reportError("push "+string(c), err)
		return "", err
	}
	d.logger.Info("collection pushed", "collection", c, "path", path)
	return path, nil
}

// Save writes the collection to an explicit file path.
func (d *Desk) Save(c Collection, path string) (string, error) {
	out, err := d.writeCollection(c, filepath.Dir(path), filepath.Base(path))
	if err != nil {
		d.reportError("save "+string(c), err)
		return "", err
	}
	return out, nil
}

func (d *Desk) reportError(op string, err error) {
	d.logger.Error("write collection failed", "op", op, "error", err)
	if d.notifier != nil {
		d.notifier.NotifyError(op, err)
	}
}

func (d *Desk) writeCollection(c Collection, dir, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch c {
	case CollectionSignals:
		return gateway.WriteFile(dir, name, d.store.Signals())
	case CollectionClosed:
		return gateway.WriteFile(dir, name, d.store.ClosedTrades())
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownCollection, c)
	}
}

// Drafting

func (d *Desk) Draft(ctx context.Context, text string) ([]signals.Signal, error) {
	if d.drafter == nil {
		return nil, ErrDraftingDisabled
	}
	d.mu.Lock()
	open := make([]string, 0)
	for _, s := range d.store.Signals() {
		open = append(open, s.Ticker)
	}
	d.mu.Unlock()
	return d.drafter.Draft(ctx, ai.DraftRequest{Text: text, Open: open})
}
