package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// SyntheticProvider generates a deterministic candle walk, useful for demos
// and scenario tests. Drift is added per candle; Noise adds a seeded
// sinusoidal-plus-random wobble around the trend.
type SyntheticProvider struct {
	StartPrice float64
	Drift      float64
	Noise      float64
	Volume     float64
	Seed       int64
}

func NewSyntheticProvider(startPrice, drift float64) *SyntheticProvider {
	return &SyntheticProvider{
		StartPrice: startPrice,
		Drift:      drift,
		Volume:     10_000,
		Seed:       1,
	}
}

func (p *SyntheticProvider) GetCandles(symbol eventmodels.Instrument, start, end time.Time, interval time.Duration) ([]*eventmodels.Candle, error) {
	rng := rand.New(rand.NewSource(p.Seed))

	var candles []*eventmodels.Candle
	price := p.StartPrice

	for timestamp := start; timestamp.Before(end); timestamp = timestamp.Add(interval) {
		wobble := 0.0
		if p.Noise > 0 {
			wobble = math.Sin(float64(len(candles))/7.0)*p.Noise + (rng.Float64()-0.5)*p.Noise
		}

		open := price
		close := price + p.Drift + wobble
		high := math.Max(open, close) + math.Abs(wobble)/2
		low := math.Min(open, close) - math.Abs(wobble)/2

		candles = append(candles, eventmodels.NewCandle(symbol, timestamp, open, high, low, close, p.Volume))

		price = close
	}

	return candles, nil
}

func (p *SyntheticProvider) CandleToTicks(candle *eventmodels.Candle) []*eventmodels.Tick {
	return CandleToTicks(candle)
}
