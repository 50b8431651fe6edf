package strategy

import (
	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// Strategy consumes candles with pre-aligned indicator values and optionally
// emits a signal. Implementations are pluggable and external to the engine;
// the orchestrator guards every call, so a panicking strategy is logged and
// skipped rather than aborting the run.
type Strategy interface {
	Name() string
	OnCandle(candle *eventmodels.Candle, indicators map[string]float64) (*eventmodels.Signal, error)
}
