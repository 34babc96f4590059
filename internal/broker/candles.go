package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/camuig/signal-desk/internal/marketdata"
)

// CandleSource serves the candle proxy from T-Invest instead of Finnhub.
type CandleSource struct {
	bc *BrokerClient
}

func NewCandleSource(bc *BrokerClient) *CandleSource {
	return &CandleSource{bc: bc}
}

var _ marketdata.CandleProvider = (*CandleSource)(nil)

// Candles resolves the ticker and returns exchange candles in the Finnhub
// {s, c, t} shape.
func (cs *CandleSource) Candles(ctx context.Context, req marketdata.CandleRequest) ([]byte, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, marketdata.ErrMissingSymbol
	}
	req = req.Resolve(time.Now())

	interval, err := intervalFor(req.Resolution)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uid, err := cs.bc.ResolveTickerToUID(req.Symbol)
	if err != nil {
		return nil, err
	}

	md := cs.bc.Client.NewMarketDataServiceClient()
	resp, err := md.GetCandles(
		uid,
		interval,
		time.Unix(req.From, 0), time.Unix(req.To, 0),
		pb.GetCandlesRequest_CANDLE_SOURCE_EXCHANGE,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("get candles %s: %w", req.Symbol, err)
	}

	cs.bc.Logger.Debug("tinkoff candles fetched", "ticker", req.Symbol, "count", len(resp.GetCandles()))
	return json.Marshal(toCandles(resp.GetCandles()))
}

func intervalFor(resolution string) (pb.CandleInterval, error) {
	switch strings.ToUpper(resolution) {
	case "1":
		return pb.CandleInterval_CANDLE_INTERVAL_1_MIN, nil
	case "5":
		return pb.CandleInterval_CANDLE_INTERVAL_5_MIN, nil
	case "15":
		return pb.CandleInterval_CANDLE_INTERVAL_15_MIN, nil
	case "60":
		return pb.CandleInterval_CANDLE_INTERVAL_HOUR, nil
	case "", "D":
		return pb.CandleInterval_CANDLE_INTERVAL_DAY, nil
	case "W":
		return pb.CandleInterval_CANDLE_INTERVAL_WEEK, nil
	case "M":
		return pb.CandleInterval_CANDLE_INTERVAL_MONTH, nil
	default:
		return pb.CandleInterval_CANDLE_INTERVAL_UNSPECIFIED, fmt.Errorf("unsupported resolution %q", resolution)
	}
}

func toCandles(candles []*pb.HistoricCandle) marketdata.Candles {
	out := marketdata.Candles{S: "no_data", C: []float64{}, T: []int64{}}
	for _, c := range candles {
		out.C = append(out.C, c.GetClose().ToFloat())
		out.T = append(out.T, c.GetTime().AsTime().Unix())
	}
	if len(out.C) > 0 {
		out.S = "ok"
	}
	return out
}
