package broker

import (
	"fmt"
	"strings"
	"sync"
)

var instrumentCache sync.Map // ticker -> instrumentUID

// ResolveTickerToUID resolves a ticker to its instrument UID. An exact ticker
// match wins over the first search hit.
func (bc *BrokerClient) ResolveTickerToUID(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if cached, ok := instrumentCache.Load(ticker); ok {
		return cached.(string), nil
	}

	instruments := bc.Client.NewInstrumentsServiceClient()
	resp, err := instruments.FindInstrument(ticker)
	if err != nil {
		return "", fmt.Errorf("find instrument %s: %w", ticker, err)
	}

	found := resp.GetInstruments()
	for _, inst := range found {
		if strings.EqualFold(inst.GetTicker(), ticker) {
			instrumentCache.Store(ticker, inst.GetUid())
			return inst.GetUid(), nil
		}
	}
	if len(found) > 0 {
		instrumentCache.Store(ticker, found[0].GetUid())
		return found[0].GetUid(), nil
	}

	return "", fmt.Errorf("instrument not found: %s", ticker)
}
