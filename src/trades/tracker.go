package trades

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/eventpubsub"
	"github.com/jiaming2012/market-replay/src/execution"
)

// TradeTracker owns the lifecycle of every trade: created on an entry signal,
// enriched with the actual entry fill, extended with water marks while open,
// and frozen into the closed collection when the exit execution arrives.
//
// Operations referencing an unknown trade id log a warning and are no-ops.
// The tracker holds no locks and is intended for single-run use.
type TradeTracker struct {
	openTrades   map[uuid.UUID]*TradeRecord
	openBySymbol map[eventmodels.Instrument]uuid.UUID
	closedTrades []*TradeRecord
}

func NewTradeTracker() *TradeTracker {
	return &TradeTracker{
		openTrades:   make(map[uuid.UUID]*TradeRecord),
		openBySymbol: make(map[eventmodels.Instrument]uuid.UUID),
		closedTrades: make([]*TradeRecord, 0),
	}
}

// OnEntrySignal allocates a trade, snapshots the signal context and seeds the
// water marks at the signal's price. At most one trade per symbol may be open:
// a second entry signal while one is open is rejected and the existing trade's
// id is returned.
func (t *TradeTracker) OnEntrySignal(signal *eventmodels.Signal, direction TradeDirection, timestamp time.Time, price float64) uuid.UUID {
	if existingID, found := t.openBySymbol[signal.Symbol]; found {
		log.Warnf("OnEntrySignal: trade %s already open for %s, ignoring new entry signal", existingID, signal.Symbol)
		return existingID
	}

	trade := &TradeRecord{
		ID:         uuid.New(),
		Symbol:     signal.Symbol,
		Direction:  direction,
		EntryTime:  timestamp,
		EntryPrice: price,
		Confidence: signal.Confidence,
		Reason:     signal.Reason,
		Indicators: signal.Indicators,
		IsOpen:     true,
	}
	trade.resetWaterMarks(price)

	t.openTrades[trade.ID] = trade
	t.openBySymbol[signal.Symbol] = trade.ID

	return trade.ID
}

// OnEntryExecution overwrites the provisional entry with actual fill data and
// resets the water marks to the real fill price.
func (t *TradeTracker) OnEntryExecution(tradeID uuid.UUID, exec *execution.OrderExecution) {
	trade, found := t.openTrades[tradeID]
	if !found {
		log.Warnf("OnEntryExecution: unknown trade id %s", tradeID)
		return
	}

	trade.EntryExecution = exec
	trade.EntryPrice = exec.AvgFillPrice
	trade.EntryQuantity = exec.FilledQuantity
	trade.resetWaterMarks(exec.AvgFillPrice)
}

// OnPriceUpdate extends the running water marks, called once per candle while
// the trade is open.
func (t *TradeTracker) OnPriceUpdate(tradeID uuid.UUID, high, low float64) {
	trade, found := t.openTrades[tradeID]
	if !found {
		log.Warnf("OnPriceUpdate: unknown trade id %s", tradeID)
		return
	}

	trade.extendWaterMarks(high, low)
}

// OnCandle extends the water marks of the open trade for the candle's symbol,
// if any.
func (t *TradeTracker) OnCandle(candle *eventmodels.Candle) {
	tradeID, found := t.openBySymbol[candle.Symbol]
	if !found {
		return
	}

	t.OnPriceUpdate(tradeID, candle.High, candle.Low)
}

// OnExitExecution computes the trade's realized metrics, freezes the record
// and moves it to the closed collection.
func (t *TradeTracker) OnExitExecution(tradeID uuid.UUID, exec *execution.OrderExecution, timestamp time.Time) {
	trade, found := t.openTrades[tradeID]
	if !found {
		log.Warnf("OnExitExecution: unknown trade id %s", tradeID)
		return
	}

	trade.ExitExecution = exec
	trade.ExitTime = timestamp
	trade.ExitPrice = exec.AvgFillPrice
	trade.ExitQuantity = exec.FilledQuantity

	quantity := trade.EntryQuantity
	if quantity == 0 {
		quantity = exec.FilledQuantity
	}

	if trade.Direction == TradeDirectionShort {
		trade.GrossPnL = (trade.EntryPrice - trade.ExitPrice) * quantity
	} else {
		trade.GrossPnL = (trade.ExitPrice - trade.EntryPrice) * quantity
	}

	trade.TotalCosts = exec.FrictionCost()
	if trade.EntryExecution != nil {
		trade.TotalCosts += trade.EntryExecution.FrictionCost()
	}

	trade.NetPnL = trade.GrossPnL - trade.TotalCosts

	if notional := trade.EntryPrice * quantity; notional > 0 {
		trade.PnLPct = trade.NetPnL / notional * 100.0
	}

	if trade.EntryPrice > 0 {
		if trade.Direction == TradeDirectionShort {
			trade.MAEPct = (trade.EntryPrice - trade.HighWaterMark) / trade.EntryPrice * 100.0
			trade.MFEPct = (trade.EntryPrice - trade.LowWaterMark) / trade.EntryPrice * 100.0
		} else {
			trade.MAEPct = (trade.LowWaterMark - trade.EntryPrice) / trade.EntryPrice * 100.0
			trade.MFEPct = (trade.HighWaterMark - trade.EntryPrice) / trade.EntryPrice * 100.0
		}
	}

	trade.Duration = timestamp.Sub(trade.EntryTime)
	trade.IsOpen = false

	delete(t.openTrades, tradeID)
	if t.openBySymbol[trade.Symbol] == tradeID {
		delete(t.openBySymbol, trade.Symbol)
	}

	t.closedTrades = append(t.closedTrades, trade)

	eventpubsub.Publish(eventpubsub.TradeClosedEvent, trade)
}

// GetOpenTradeID returns the open trade for a symbol, if any.
func (t *TradeTracker) GetOpenTradeID(symbol eventmodels.Instrument) (uuid.UUID, bool) {
	tradeID, found := t.openBySymbol[symbol]
	return tradeID, found
}

func (t *TradeTracker) GetOpenTrades() []*TradeRecord {
	result := make([]*TradeRecord, 0, len(t.openTrades))
	for _, trade := range t.openTrades {
		result = append(result, trade)
	}

	return result
}

// GetAllTrades returns closed trades followed by still-open trades.
func (t *TradeTracker) GetAllTrades() []*TradeRecord {
	result := make([]*TradeRecord, 0, len(t.closedTrades)+len(t.openTrades))
	result = append(result, t.closedTrades...)
	result = append(result, t.GetOpenTrades()...)

	return result
}

func (t *TradeTracker) GetClosedTrades() []*TradeRecord {
	return t.closedTrades
}
