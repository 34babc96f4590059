package broker

import (
	"testing"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestIntervalFor(t *testing.T) {
	cases := map[string]pb.CandleInterval{
		"":   pb.CandleInterval_CANDLE_INTERVAL_DAY,
		"D":  pb.CandleInterval_CANDLE_INTERVAL_DAY,
		"60": pb.CandleInterval_CANDLE_INTERVAL_HOUR,
		"15": pb.CandleInterval_CANDLE_INTERVAL_15_MIN,
		"w":  pb.CandleInterval_CANDLE_INTERVAL_WEEK,
	}
	for res, want := range cases {
		got, err := intervalFor(res)
		require.NoError(t, err, res)
		assert.Equal(t, want, got, res)
	}

	_, err := intervalFor("2h")
	assert.Error(t, err)
}

func TestToCandles(t *testing.T) {
	ts := time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)
	got := toCandles([]*pb.HistoricCandle{
		{Close: &pb.Quotation{Units: 101, Nano: 500000000}, Time: timestamppb.New(ts)},
		{Close: &pb.Quotation{Units: 99}, Time: timestamppb.New(ts.Add(24 * time.Hour))},
	})
	assert.Equal(t, "ok", got.S)
	assert.InDeltaSlice(t, []float64{101.5, 99}, got.C, 1e-9)
	assert.Equal(t, []int64{ts.Unix(), ts.Add(24 * time.Hour).Unix()}, got.T)

	empty := toCandles(nil)
	assert.Equal(t, "no_data", empty.S)
	assert.Empty(t, empty.C)
}
