package execution

import "time"

// SimulatorConfig controls the order-fill microstructure model.
type SimulatorConfig struct {
	// BaseLatency is the median simulated order round trip. The drawn latency
	// is BaseLatency scaled by a lognormal factor, clamped to [10ms, 5s].
	BaseLatency time.Duration

	// CommissionBps is charged on filled notional.
	CommissionBps float64

	// BaseSlippageBps is the slippage floor before volatility, size and
	// spread adjustments.
	BaseSlippageBps float64

	// ImpactFactor scales the square-root market impact law.
	ImpactFactor float64

	// MaxPositionSizePct caps order size as a fraction of average daily
	// volume. Orders above the cap are rejected.
	MaxPositionSizePct float64

	// PartialFillsEnabled splits under-filled orders into 1-5 slices with
	// increasing timestamps and per-slice price jitter.
	PartialFillsEnabled bool

	// Seed fixes the random source; 0 seeds from the wall clock.
	Seed int64
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		BaseLatency:         50 * time.Millisecond,
		CommissionBps:       1.0,
		BaseSlippageBps:     2.0,
		ImpactFactor:        0.1,
		MaxPositionSizePct:  0.10,
		PartialFillsEnabled: true,
	}
}
