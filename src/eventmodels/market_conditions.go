package eventmodels

// MarketConditions is a latest-value cache of per-symbol market state,
// overwritten on every update. Volatility is annualized, e.g. 0.20 for 20%.
type MarketConditions struct {
	Symbol             Instrument `json:"symbol"`
	CurrentPrice       float64    `json:"current_price"`
	BidPrice           float64    `json:"bid_price"`
	AskPrice           float64    `json:"ask_price"`
	AverageDailyVolume float64    `json:"average_daily_volume"`
	CurrentVolume      float64    `json:"current_volume"`
	Volatility         float64    `json:"volatility"`
	LiquidityScore     float64    `json:"liquidity_score"`
}

func (m *MarketConditions) SpreadBps() float64 {
	if m.BidPrice <= 0 || m.AskPrice <= 0 {
		return 0
	}

	mid := (m.BidPrice + m.AskPrice) / 2.0
	if mid <= 0 {
		return 0
	}

	return (m.AskPrice - m.BidPrice) / mid * 10000.0
}
