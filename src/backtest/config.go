package backtest

import "time"

// BacktestConfig wires the orchestrator's bookkeeping and aggregation.
type BacktestConfig struct {
	InitialCash float64

	// PositionSizePct sizes opening orders to a fixed fraction of current
	// cash divided by price. Closing orders always use the full position.
	PositionSizePct float64

	// SignalTimeframe, when non-zero, aggregates base candles into this
	// coarser timeframe before invoking the strategy.
	SignalTimeframe time.Duration

	// BaseInterval is the interval of the candles arriving from playback.
	// The aggregation window closes when the elapsed span, including the
	// closing candle's own interval, reaches SignalTimeframe.
	BaseInterval time.Duration

	// IncludeUnrealizedPnL marks open positions to the latest close when
	// sampling the equity curve. When false, equity is cash only.
	IncludeUnrealizedPnL bool

	// Market-state estimates pushed to the execution simulator on each
	// candle.
	AverageDailyVolume float64
	Volatility         float64
	SpreadBps          float64
}

func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		InitialCash:          100_000,
		PositionSizePct:      0.10,
		BaseInterval:         time.Minute,
		IncludeUnrealizedPnL: true,
		AverageDailyVolume:   1_000_000,
		Volatility:           0.20,
		SpreadBps:            2.0,
	}
}
