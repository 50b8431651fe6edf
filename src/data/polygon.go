package data

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// PolygonProvider fetches aggregate bars from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
}

func NewPolygonProvider(apiKey string) *PolygonProvider {
	return &PolygonProvider{
		client: polygon.New(apiKey),
	}
}

func (p *PolygonProvider) GetCandles(symbol eventmodels.Instrument, start, end time.Time, interval time.Duration) ([]*eventmodels.Candle, error) {
	multiplier, timespan, err := intervalToTimespan(interval)
	if err != nil {
		return nil, err
	}

	log.Debugf("fetching polygon aggregate bars for %s [%d %s]", symbol, multiplier, timespan)

	params := polygonmodels.ListAggsParams{
		Ticker:     symbol.GetTicker(),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       polygonmodels.Millis(start),
		To:         polygonmodels.Millis(end),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := p.client.ListAggs(context.Background(), params)

	var candles []*eventmodels.Candle
	for iter.Next() {
		item := iter.Item()

		candles = append(candles, eventmodels.NewCandle(
			symbol,
			time.Time(item.Timestamp),
			item.Open,
			item.High,
			item.Low,
			item.Close,
			item.Volume,
		))
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list polygon aggs for %s: %w", symbol, err)
	}

	return candles, nil
}

func (p *PolygonProvider) CandleToTicks(candle *eventmodels.Candle) []*eventmodels.Tick {
	return CandleToTicks(candle)
}

func intervalToTimespan(interval time.Duration) (int, polygonmodels.Timespan, error) {
	switch {
	case interval < time.Minute:
		return int(interval / time.Second), polygonmodels.Second, nil
	case interval < time.Hour:
		return int(interval / time.Minute), polygonmodels.Minute, nil
	case interval < 24*time.Hour:
		return int(interval / time.Hour), polygonmodels.Hour, nil
	default:
		return int(interval / (24 * time.Hour)), polygonmodels.Day, nil
	}
}
