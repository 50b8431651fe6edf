package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// IndicatorEngine computes named indicator series over candle history. Each
// series is aligned with the input history: index i holds the indicator value
// as of candle i.
type IndicatorEngine interface {
	CalculateIndicators(history []*eventmodels.Candle) (map[string][]float64, error)
}

// SMAEngine computes a fast and slow simple moving average of closes plus a
// rolling standard deviation of closes ("volatility"). Values before a full
// window are backfilled with the first complete value's running mean.
type SMAEngine struct {
	FastPeriod int
	SlowPeriod int
}

func NewSMAEngine(fastPeriod, slowPeriod int) *SMAEngine {
	return &SMAEngine{
		FastPeriod: fastPeriod,
		SlowPeriod: slowPeriod,
	}
}

func (e *SMAEngine) CalculateIndicators(history []*eventmodels.Candle) (map[string][]float64, error) {
	if e.FastPeriod <= 0 || e.SlowPeriod <= 0 {
		return nil, fmt.Errorf("invalid sma periods: fast=%d slow=%d", e.FastPeriod, e.SlowPeriod)
	}

	closes := make([]float64, len(history))
	for i, candle := range history {
		closes[i] = candle.Close
	}

	fast, err := rollingMean(closes, e.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to compute fast sma: %w", err)
	}

	slow, err := rollingMean(closes, e.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to compute slow sma: %w", err)
	}

	volatility, err := rollingStdDev(closes, e.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to compute volatility: %w", err)
	}

	return map[string][]float64{
		"sma_fast":   fast,
		"sma_slow":   slow,
		"volatility": volatility,
	}, nil
}

func rollingMean(values []float64, period int) ([]float64, error) {
	result := make([]float64, len(values))

	for i := range values {
		window := windowOf(values, i, period)

		mean, err := stats.Mean(window)
		if err != nil {
			return nil, err
		}

		result[i] = mean
	}

	return result, nil
}

func rollingStdDev(values []float64, period int) ([]float64, error) {
	result := make([]float64, len(values))

	for i := range values {
		window := windowOf(values, i, period)
		if len(window) < 2 {
			result[i] = 0
			continue
		}

		sd, err := stats.StandardDeviation(window)
		if err != nil {
			return nil, err
		}

		result[i] = sd
	}

	return result, nil
}

func windowOf(values []float64, end, period int) []float64 {
	start := end - period + 1
	if start < 0 {
		start = 0
	}

	return values[start : end+1]
}
