package backtest

import (
	"time"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// candleAggregator folds base candles into a rolling coarser candle:
// open=first, high=max, low=min, close=last, volume=sum. The window closes
// when the elapsed span, including the closing candle's own base interval,
// reaches the signal timeframe.
type candleAggregator struct {
	timeframe    time.Duration
	baseInterval time.Duration

	current     *eventmodels.Candle
	windowStart time.Time
}

func newCandleAggregator(timeframe, baseInterval time.Duration) *candleAggregator {
	return &candleAggregator{
		timeframe:    timeframe,
		baseInterval: baseInterval,
	}
}

// add folds one base candle into the open window and returns the frozen
// aggregate when the window closes, nil otherwise.
func (a *candleAggregator) add(candle *eventmodels.Candle) *eventmodels.Candle {
	if a.current == nil {
		a.current = candle.Copy()
		a.windowStart = candle.Timestamp
	} else {
		a.current.Merge(candle)
	}

	elapsed := candle.Timestamp.Add(a.baseInterval).Sub(a.windowStart)
	if elapsed >= a.timeframe {
		closed := a.current
		a.current = nil
		return closed
	}

	return nil
}
