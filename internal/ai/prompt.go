package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an assistant on a trading desk. You turn an analyst's free-form
notes into structured trade signals.

Rules:
1. Emit one object per distinct ticker mentioned with a clear BUY or SELL intent.
2. Skip tickers listed as already open unless the notes explicitly say to SELL them.
3. Use prices only when the notes state them; otherwise leave them null.
4. Confidence is 0 to 100 and reflects how firm the notes are.
5. Put a short comma-separated list of tags (sector, thesis) first in reasoning.

Answer strictly in JSON (array of objects):
[
  {
    "action": "BUY",
    "ticker": "AAPL",
    "name": "Apple Inc.",
    "exchange": "NASDAQ",
    "buy_price": 180.0,
    "stop_loss": 170.0,
    "take_profit": 200.0,
    "confidence": 75,
    "reasoning": "tech, services growth"
  }
]

If there is nothing actionable return an empty array [].`

func BuildUserPrompt(req DraftRequest) string {
	var sb strings.Builder

	sb.WriteString("## Already open\n")
	if len(req.Open) > 0 {
		sb.WriteString(strings.Join(req.Open, ", "))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("None.\n\n")
	}

	sb.WriteString("## Notes\n")
	sb.WriteString(strings.TrimSpace(req.Text))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Extract the signals (%d tickers already open) and answer in JSON.", len(req.Open)))
	return sb.String()
}
