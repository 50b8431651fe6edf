package data

import (
	"time"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// CandleToTicks expands a candle into an ordered sub-candle tick path:
// open, low, high, close for up candles and open, high, low, close for down
// candles, so the adverse extreme is always visited first.
func CandleToTicks(candle *eventmodels.Candle) []*eventmodels.Tick {
	prices := []float64{candle.Open, candle.High, candle.Low, candle.Close}
	if candle.IsUp() {
		prices = []float64{candle.Open, candle.Low, candle.High, candle.Close}
	}

	ticks := make([]*eventmodels.Tick, 0, len(prices))
	for i, price := range prices {
		ticks = append(ticks, &eventmodels.Tick{
			Symbol:    candle.Symbol,
			Timestamp: candle.Timestamp.Add(time.Duration(i) * time.Second),
			Price:     price,
		})
	}

	return ticks
}
