package ai

import (
	"strings"

	"github.com/camuig/signal-desk/internal/signals"
)

// DraftRequest is the free text to turn into signals, plus the tickers that
// already have an open signal.
type DraftRequest struct {
	Text string
	Open []string
}

type AIDecision struct {
	Action     string   `json:"action"` // BUY, SELL, HOLD
	Ticker     string   `json:"ticker"`
	Name       string   `json:"name"`
	Exchange   string   `json:"exchange"`
	BuyPrice   *float64 `json:"buy_price"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	Confidence *float64 `json:"confidence"` // 0-100
	Reasoning  string   `json:"reasoning"`
}

// ToSignal converts a decision into an unsaved signal draft. HOLD decisions
// and decisions without a ticker yield ok=false.
func (d AIDecision) ToSignal() (signals.Signal, bool) {
	action := strings.ToLower(strings.TrimSpace(d.Action))
	ticker := strings.ToUpper(strings.TrimSpace(d.Ticker))
	if ticker == "" || (action != "buy" && action != "sell") {
		return signals.Signal{}, false
	}

	s := signals.Signal{
		Ticker:      ticker,
		Name:        d.Name,
		Exchange:    d.Exchange,
		Action:      signals.Action(action),
		BuyPrice:    d.BuyPrice,
		StopLoss:    d.StopLoss,
		TargetPrice: d.TakeProfit,
		Notes:       strings.TrimSpace(d.Reasoning),
	}
	if d.Confidence != nil {
		c := *d.Confidence
		if c < 0 {
			c = 0
		}
		if c > 100 {
			c = 100
		}
		s.ConfidenceScore = signals.Float(c)
	}
	return s, true
}
