package eventmodels

import (
	"fmt"
	"time"
)

type CsvCandleDTO struct {
	Timestamp string  `csv:"time"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

func (dto *CsvCandleDTO) ToModel(symbol Instrument) (*Candle, error) {
	timestamp, err := time.Parse(time.RFC3339, dto.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candle timestamp %s: %w", dto.Timestamp, err)
	}

	return NewCandle(symbol, timestamp, dto.Open, dto.High, dto.Low, dto.Close, dto.Volume), nil
}
