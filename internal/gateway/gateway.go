package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

// ErrMalformedImport wraps every reason an import is refused.
var ErrMalformedImport = errors.New("malformed import")

// Default file names for the two collections.
const (
	SignalsFile      = "signals.json"
	ClosedTradesFile = "closed_trades.json"
)

// Gateway converts between the JSON collection documents and typed records.
type Gateway struct {
	httpClient *http.Client
	validate   *validator.Validate
	logger     *logger.Logger
}

func New(log *logger.Logger) *Gateway {
	return &Gateway{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		validate:   validator.New(),
		logger:     log,
	}
}

// LoadReport describes how a collection load went.
type LoadReport struct {
	Source  string
	Records int
	Skipped int
	Err     error
}

// Check reports an error when rewriting the source from the loaded records
// would drop data: the source could not be read or parsed, or records were
// skipped. A missing file holds nothing to lose.
func (r LoadReport) Check() error {
	switch {
	case r.Err != nil && !errors.Is(r.Err, fs.ErrNotExist):
		return fmt.Errorf("%s did not load: %w", r.Source, r.Err)
	case r.Skipped > 0:
		return fmt.Errorf("%s: %d record(s) skipped", r.Source, r.Skipped)
	}
	return nil
}

// LoadSignals reads the open-signal collection from a file path or http(s)
// URL. It never fails: unreadable or malformed sources yield an empty
// collection and invalid records are skipped, both with a log line and in
// the report.
func (g *Gateway) LoadSignals(ctx context.Context, source string) ([]signals.Signal, LoadReport) {
	items, rep := g.loadItems(ctx, source)
	out := make([]signals.Signal, 0, len(items))
	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err != nil {
			g.logger.Warn("skipping record", "source", source, "index", i, "error", err)
			rep.Skipped++
			continue
		}
		s := rec.signal()
		if err := g.validate.Struct(s); err != nil {
			g.logger.Warn("skipping invalid signal", "source", source, "index", i, "error", err)
			rep.Skipped++
			continue
		}
		out = append(out, s)
	}
	rep.Records = len(out)
	return out, rep
}

// LoadClosedTrades is LoadSignals for the closed-trade collection. Closed
// trades missing close fields are kept; the rollups skip trades with no
// realized profit.
func (g *Gateway) LoadClosedTrades(ctx context.Context, source string) ([]signals.ClosedTrade, LoadReport) {
	items, rep := g.loadItems(ctx, source)
	out := make([]signals.ClosedTrade, 0, len(items))
	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err != nil {
			g.logger.Warn("skipping record", "source", source, "index", i, "error", err)
			rep.Skipped++
			continue
		}
		t := rec.closedTrade()
		if err := g.validate.Var(t.Ticker, "required"); err != nil {
			g.logger.Warn("skipping closed trade without ticker", "source", source, "index", i)
			rep.Skipped++
			continue
		}
		out = append(out, t)
	}
	rep.Records = len(out)
	return out, rep
}

func (g *Gateway) loadItems(ctx context.Context, source string) ([]json.RawMessage, LoadReport) {
	rep := LoadReport{Source: source}
	data, err := g.read(ctx, source)
	if err != nil {
		g.logger.Error("load collection", "source", source, "error", err)
		rep.Err = err
		return nil, rep
	}
	items, err := splitArray(data)
	if err != nil {
		g.logger.Error("load collection", "source", source, "error", err)
		rep.Err = err
		return nil, rep
	}
	g.logger.Info("collection loaded", "source", source, "records", len(items))
	return items, rep
}

func (g *Gateway) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collection source returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ImportSignals parses a replacement open-signal collection. Any malformed
// or invalid record rejects the whole document.
func (g *Gateway) ImportSignals(data []byte) ([]signals.Signal, error) {
	items, err := splitArray(data)
	if err != nil {
		return nil, err
	}
	out := make([]signals.Signal, 0, len(items))
	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
		s := rec.signal()
		if err := g.validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ImportClosedTrades parses a replacement closed-trade collection. Each
// record needs a ticker, close price and close date.
func (g *Gateway) ImportClosedTrades(data []byte) ([]signals.ClosedTrade, error) {
	items, err := splitArray(data)
	if err != nil {
		return nil, err
	}
	out := make([]signals.ClosedTrade, 0, len(items))
	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
		t := rec.closedTrade()
		if err := g.validate.Struct(t); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Export renders a collection as a 2-space indented JSON array.
func Export[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile exports records to dir/name, replacing the file atomically.
func WriteFile[T any](dir, name string, records []T) (string, error) {
	data, err := Export(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace %s: %w", name, err)
	}
	return path, nil
}
