package trades

import (
	"time"

	"github.com/google/uuid"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/execution"
)

type TradeDirection string

const (
	TradeDirectionLong  TradeDirection = "long"
	TradeDirectionShort TradeDirection = "short"
)

// TradeRecord tracks one trade from entry signal to exit execution. The
// record is mutable while open and frozen once the exit execution is
// recorded.
//
// MAE and MFE follow a fixed sign convention: MAEPct is always <= 0 (the
// worst adverse excursion) and MFEPct is always >= 0 (the best favorable
// excursion), regardless of direction.
type TradeRecord struct {
	ID        uuid.UUID              `json:"id"`
	Symbol    eventmodels.Instrument `json:"symbol"`
	Direction TradeDirection         `json:"direction"`

	EntryTime     time.Time `json:"entry_time"`
	EntryPrice    float64   `json:"entry_price"`
	EntryQuantity float64   `json:"entry_quantity"`
	ExitTime      time.Time `json:"exit_time"`
	ExitPrice     float64   `json:"exit_price"`
	ExitQuantity  float64   `json:"exit_quantity"`

	EntryExecution *execution.OrderExecution `json:"entry_execution,omitempty"`
	ExitExecution  *execution.OrderExecution `json:"exit_execution,omitempty"`

	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	Indicators map[string]float64 `json:"indicators,omitempty"`

	HighWaterMark float64 `json:"high_water_mark"`
	LowWaterMark  float64 `json:"low_water_mark"`

	GrossPnL   float64       `json:"gross_pnl"`
	TotalCosts float64       `json:"total_costs"`
	NetPnL     float64       `json:"net_pnl"`
	PnLPct     float64       `json:"pnl_pct"`
	MAEPct     float64       `json:"mae_pct"`
	MFEPct     float64       `json:"mfe_pct"`
	Duration   time.Duration `json:"duration"`

	IsOpen bool `json:"is_open"`
}

func (t *TradeRecord) resetWaterMarks(price float64) {
	t.HighWaterMark = price
	t.LowWaterMark = price
}

func (t *TradeRecord) extendWaterMarks(high, low float64) {
	if high > t.HighWaterMark {
		t.HighWaterMark = high
	}

	if low < t.LowWaterMark {
		t.LowWaterMark = low
	}
}
