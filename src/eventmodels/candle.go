package eventmodels

import (
	"fmt"
	"time"
)

// Candle is a single OHLCV bar. Candles coming from a provider are immutable;
// aggregated candles are mutated via Merge while their window is open and
// frozen once the window closes.
type Candle struct {
	Symbol    Instrument `json:"symbol"`
	Timestamp time.Time  `json:"timestamp"`
	Open      float64    `json:"open"`
	High      float64    `json:"high"`
	Low       float64    `json:"low"`
	Close     float64    `json:"close"`
	Volume    float64    `json:"volume"`
}

func (c *Candle) String() string {
	return fmt.Sprintf("%s [%s] o=%.2f h=%.2f l=%.2f c=%.2f v=%.0f", c.Symbol, c.Timestamp.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close, c.Volume)
}

func (c *Candle) IsUp() bool {
	return c.Close >= c.Open
}

// Merge folds another bar into c: open stays, high=max, low=min, close=last,
// volume accumulates. Used by the signal-timeframe aggregator.
func (c *Candle) Merge(other *Candle) {
	if other.High > c.High {
		c.High = other.High
	}

	if other.Low < c.Low {
		c.Low = other.Low
	}

	c.Close = other.Close
	c.Volume += other.Volume
}

// Copy returns a frozen snapshot of the candle.
func (c *Candle) Copy() *Candle {
	copied := *c
	return &copied
}

func NewCandle(symbol Instrument, timestamp time.Time, open, high, low, close, volume float64) *Candle {
	return &Candle{
		Symbol:    symbol,
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}
