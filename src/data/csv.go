package data

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// CSVProvider loads candle history from one CSV file per symbol. Files use
// the time,open,high,low,close,volume header with RFC3339 timestamps.
type CSVProvider struct {
	filesBySymbol map[eventmodels.Instrument]string
}

func NewCSVProvider(filesBySymbol map[eventmodels.Instrument]string) *CSVProvider {
	return &CSVProvider{
		filesBySymbol: filesBySymbol,
	}
}

func (p *CSVProvider) GetCandles(symbol eventmodels.Instrument, start, end time.Time, interval time.Duration) ([]*eventmodels.Candle, error) {
	path, found := p.filesBySymbol[symbol]
	if !found {
		return nil, fmt.Errorf("no csv file registered for symbol %s", symbol)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var dtos []*eventmodels.CsvCandleDTO
	if err := gocsv.UnmarshalFile(f, &dtos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	candles := make([]*eventmodels.Candle, 0, len(dtos))
	for i, dto := range dtos {
		candle, err := dto.ToModel(symbol)
		if err != nil {
			log.Warnf("skipping row %d of %s: %v", i, path, err)
			continue
		}

		if candle.Timestamp.Before(start) || !candle.Timestamp.Before(end) {
			continue
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func (p *CSVProvider) CandleToTicks(candle *eventmodels.Candle) []*eventmodels.Tick {
	return CandleToTicks(candle)
}
