package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/camuig/signal-desk/internal/signals"
)

// record is one loosely typed JSON object from a collection file.
type record map[string]json.RawMessage

// splitArray decodes the top level of a collection document. Anything other
// than a JSON array is malformed, including null.
func splitArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value must be an array", ErrMalformedImport)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return items, nil
}

func decodeRecord(raw json.RawMessage) (record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("record must be an object")
	}
	var r record
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r record) signal() signals.Signal {
	s := signals.Signal{
		ID:              r.str("id"),
		Ticker:          strings.ToUpper(strings.TrimSpace(r.str("ticker"))),
		Exchange:        r.str("exchange"),
		Name:            r.str("name"),
		BuyPrice:        r.num("buy_price"),
		BuyAmount:       r.num("buy_amount"),
		ExpectedProfit:  r.num("expected_profit"),
		MaxRisk:         r.num("max_risk"),
		TargetPrice:     r.num("target_price"),
		StopLoss:        r.num("stop_loss"),
		Action:          signals.Action(r.firstStr("action", "type", "side")),
		ConfidenceScore: r.num("confidence_score"),
		CreatedAt:       r.timestamp("created_at"),
		Notes:           r.str("notes"),
	}
	if s.Action == "" {
		s.Action = signals.ActionBuy
	}
	s.Action = signals.Action(strings.ToLower(string(s.Action)))
	return s
}

func (r record) closedTrade() signals.ClosedTrade {
	return signals.ClosedTrade{
		Signal:     r.signal(),
		ClosePrice: r.num("close_price"),
		ClosedAt:   r.timestamp("closed_at"),
		Profit:     r.num("profit"),
	}
}

// str reads a string field. Numbers are kept as their literal text; any
// other JSON type reads as empty.
func (r record) str(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (r record) firstStr(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.str(k)); v != "" {
			return v
		}
	}
	return ""
}

// num reads a number that may also arrive as a numeric string. Null, empty,
// non-numeric and non-finite values read as absent.
func (r record) num(key string) *float64 {
	raw, ok := r[key]
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil
		}
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp reads an ISO instant, a datetime-local value, a plain date or
// unix milliseconds. Unparseable values read as absent. Zone-less values are UTC.
func (r record) timestamp(key string) *time.Time {
	raw, ok := r[key]
	if !ok {
		return nil
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
