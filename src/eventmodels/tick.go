package eventmodels

import "time"

// Tick is an ephemeral sub-candle price point. Ticks are derived from a
// candle, consumed by observers and discarded.
type Tick struct {
	Symbol    Instrument `json:"symbol"`
	Timestamp time.Time  `json:"timestamp"`
	Price     float64    `json:"price"`
	Bid       float64    `json:"bid,omitempty"`
	Ask       float64    `json:"ask,omitempty"`
}
