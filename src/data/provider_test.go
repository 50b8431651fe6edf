package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

func TestCandleToTicks(t *testing.T) {
	timestamp := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

	t.Run("an up candle walks open low high close", func(t *testing.T) {
		candle := eventmodels.NewCandle("AAPL", timestamp, 100, 103, 99, 102, 500)

		ticks := CandleToTicks(candle)

		require.Len(t, ticks, 4)
		assert.Equal(t, []float64{100, 99, 103, 102}, []float64{ticks[0].Price, ticks[1].Price, ticks[2].Price, ticks[3].Price})

		for i := 1; i < len(ticks); i++ {
			assert.True(t, ticks[i].Timestamp.After(ticks[i-1].Timestamp))
		}
	})

	t.Run("a down candle walks open high low close", func(t *testing.T) {
		candle := eventmodels.NewCandle("AAPL", timestamp, 102, 103, 99, 100, 500)

		ticks := CandleToTicks(candle)

		require.Len(t, ticks, 4)
		assert.Equal(t, []float64{102, 103, 99, 100}, []float64{ticks[0].Price, ticks[1].Price, ticks[2].Price, ticks[3].Price})
	})
}

func TestCSVProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aapl.csv")

	contents := "time,open,high,low,close,volume\n" +
		"2021-01-04T14:30:00Z,100,101,99,100.5,1000\n" +
		"2021-01-04T14:31:00Z,100.5,102,100,101.5,1200\n" +
		"not-a-time,1,1,1,1,1\n" +
		"2021-01-04T14:32:00Z,101.5,103,101,102.5,900\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	provider := NewCSVProvider(map[eventmodels.Instrument]string{"AAPL": path})

	t.Run("loads rows and skips malformed timestamps", func(t *testing.T) {
		start := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

		candles, err := provider.GetCandles("AAPL", start, start.Add(time.Hour), time.Minute)
		require.NoError(t, err)

		require.Len(t, candles, 3)
		assert.Equal(t, 100.5, candles[0].Close)
		assert.Equal(t, eventmodels.Instrument("AAPL"), candles[0].Symbol)
	})

	t.Run("the requested range filters rows", func(t *testing.T) {
		start := time.Date(2021, time.January, 4, 14, 31, 0, 0, time.UTC)

		candles, err := provider.GetCandles("AAPL", start, start.Add(time.Minute), time.Minute)
		require.NoError(t, err)

		require.Len(t, candles, 1)
		assert.Equal(t, 101.5, candles[0].Close)
	})

	t.Run("an unregistered symbol fails", func(t *testing.T) {
		_, err := provider.GetCandles("GOOG", time.Time{}, time.Now(), time.Minute)
		assert.Error(t, err)
	})
}

func TestSyntheticProvider(t *testing.T) {
	start := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

	t.Run("candles chain open to close with the configured drift", func(t *testing.T) {
		provider := NewSyntheticProvider(100, 0.5)

		candles, err := provider.GetCandles("AAPL", start, start.Add(10*time.Minute), time.Minute)
		require.NoError(t, err)

		require.Len(t, candles, 10)
		assert.Equal(t, 100.0, candles[0].Open)
		assert.Equal(t, 100.5, candles[0].Close)

		for i := 1; i < len(candles); i++ {
			assert.Equal(t, candles[i-1].Close, candles[i].Open)
			assert.GreaterOrEqual(t, candles[i].High, candles[i].Low)
		}
	})

	t.Run("the same seed reproduces the same walk", func(t *testing.T) {
		first := &SyntheticProvider{StartPrice: 100, Drift: 0.1, Noise: 0.4, Volume: 100, Seed: 7}
		second := &SyntheticProvider{StartPrice: 100, Drift: 0.1, Noise: 0.4, Volume: 100, Seed: 7}

		a, err := first.GetCandles("AAPL", start, start.Add(20*time.Minute), time.Minute)
		require.NoError(t, err)
		b, err := second.GetCandles("AAPL", start, start.Add(20*time.Minute), time.Minute)
		require.NoError(t, err)

		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.Equal(t, a[i].Close, b[i].Close)
		}
	})
}
