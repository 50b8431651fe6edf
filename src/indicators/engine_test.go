package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

func candlesFromCloses(closes []float64) []*eventmodels.Candle {
	start := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

	candles := make([]*eventmodels.Candle, 0, len(closes))
	for i, close := range closes {
		candles = append(candles, eventmodels.NewCandle("AAPL", start.Add(time.Duration(i)*time.Minute), close, close, close, close, 100))
	}

	return candles
}

func TestSMAEngine(t *testing.T) {
	t.Run("full windows average exactly", func(t *testing.T) {
		engine := NewSMAEngine(2, 3)

		series, err := engine.CalculateIndicators(candlesFromCloses([]float64{10, 20, 30, 40}))
		require.NoError(t, err)

		fast := series["sma_fast"]
		require.Len(t, fast, 4)
		assert.InDelta(t, 25.0, fast[2], 1e-9)
		assert.InDelta(t, 35.0, fast[3], 1e-9)

		slow := series["sma_slow"]
		assert.InDelta(t, 30.0, slow[3], 1e-9)
	})

	t.Run("warmup values use the partial window", func(t *testing.T) {
		engine := NewSMAEngine(2, 3)

		series, err := engine.CalculateIndicators(candlesFromCloses([]float64{10, 20}))
		require.NoError(t, err)

		assert.InDelta(t, 10.0, series["sma_fast"][0], 1e-9)
		assert.InDelta(t, 15.0, series["sma_fast"][1], 1e-9)
	})

	t.Run("volatility is zero on a flat series", func(t *testing.T) {
		engine := NewSMAEngine(2, 3)

		series, err := engine.CalculateIndicators(candlesFromCloses([]float64{50, 50, 50, 50}))
		require.NoError(t, err)

		for _, value := range series["volatility"] {
			assert.InDelta(t, 0.0, value, 1e-9)
		}
	})

	t.Run("invalid periods fail", func(t *testing.T) {
		engine := NewSMAEngine(0, 3)

		_, err := engine.CalculateIndicators(candlesFromCloses([]float64{1, 2}))
		assert.Error(t, err)
	})
}
