package trades

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/execution"
)

func fullFill(symbol eventmodels.Instrument, side execution.OrderSide, quantity, price, commission float64) *execution.OrderExecution {
	return &execution.OrderExecution{
		ID:                uuid.New(),
		Symbol:            symbol,
		Side:              side,
		Type:              execution.Market,
		Status:            execution.OrderStatusFilled,
		RequestedQuantity: quantity,
		FilledQuantity:    quantity,
		AvgFillPrice:      price,
		Commission:        commission,
		Fills:             []execution.Fill{{Quantity: quantity, Price: price}},
	}
}

func TestTradeLifecycle(t *testing.T) {
	symbol := eventmodels.Instrument("AAPL")
	entryTime := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)
	exitTime := entryTime.Add(40 * time.Minute)

	t.Run("a long round trip computes gross and net P&L exactly", func(t *testing.T) {
		tracker := NewTradeTracker()

		signal := eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.8, "test entry")
		tradeID := tracker.OnEntrySignal(signal, TradeDirectionLong, entryTime, 100.0)

		tracker.OnEntryExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 10, 100.0, 1.0))
		tracker.OnExitExecution(tradeID, fullFill(symbol, execution.OrderSideSell, 10, 110.0, 1.1), exitTime)

		closed := tracker.GetClosedTrades()
		require.Len(t, closed, 1)

		trade := closed[0]
		assert.Equal(t, (110.0-100.0)*10, trade.GrossPnL)
		assert.InDelta(t, trade.GrossPnL-trade.TotalCosts, trade.NetPnL, 1e-9)
		assert.Equal(t, 2.1, trade.TotalCosts)
		assert.Equal(t, 40*time.Minute, trade.Duration)
		assert.False(t, trade.IsOpen)
		assert.Empty(t, tracker.GetOpenTrades())
	})

	t.Run("a short round trip inverts the P&L sign", func(t *testing.T) {
		tracker := NewTradeTracker()

		signal := eventmodels.NewSignal(symbol, eventmodels.SignalTypeSell, 0.6, "short entry")
		tradeID := tracker.OnEntrySignal(signal, TradeDirectionShort, entryTime, 100.0)

		tracker.OnEntryExecution(tradeID, fullFill(symbol, execution.OrderSideSell, 10, 100.0, 0))
		tracker.OnExitExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 10, 90.0, 0), exitTime)

		closed := tracker.GetClosedTrades()
		require.Len(t, closed, 1)
		assert.Equal(t, (100.0-90.0)*10, closed[0].GrossPnL)
	})

	t.Run("a second entry signal while a trade is open is rejected", func(t *testing.T) {
		tracker := NewTradeTracker()

		first := tracker.OnEntrySignal(eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.8, "first entry"), TradeDirectionLong, entryTime, 100.0)
		tracker.OnEntryExecution(first, fullFill(symbol, execution.OrderSideBuy, 10, 100.0, 0))

		second := tracker.OnEntrySignal(eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.9, "second entry"), TradeDirectionLong, entryTime.Add(time.Minute), 101.0)

		assert.Equal(t, first, second)
		require.Len(t, tracker.GetOpenTrades(), 1)

		tracker.OnExitExecution(first, fullFill(symbol, execution.OrderSideSell, 10, 110.0, 0), exitTime)
		assert.Empty(t, tracker.GetOpenTrades())
		assert.Len(t, tracker.GetClosedTrades(), 1)
	})

	t.Run("the entry execution overwrites the signal snapshot", func(t *testing.T) {
		tracker := NewTradeTracker()

		signal := eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.8, "test entry")
		tradeID := tracker.OnEntrySignal(signal, TradeDirectionLong, entryTime, 100.0)

		tracker.OnEntryExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 8, 100.4, 0.5))

		open := tracker.GetOpenTrades()
		require.Len(t, open, 1)
		assert.Equal(t, 100.4, open[0].EntryPrice)
		assert.Equal(t, 8.0, open[0].EntryQuantity)
		assert.Equal(t, 100.4, open[0].HighWaterMark)
		assert.Equal(t, 100.4, open[0].LowWaterMark)
	})
}

func TestWaterMarksAndExcursions(t *testing.T) {
	symbol := eventmodels.Instrument("AAPL")
	entryTime := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

	setup := func(direction TradeDirection) (*TradeTracker, uuid.UUID) {
		tracker := NewTradeTracker()
		signal := eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.5, "excursions")
		tradeID := tracker.OnEntrySignal(signal, direction, entryTime, 100.0)
		tracker.OnEntryExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 10, 100.0, 0))
		return tracker, tradeID
	}

	t.Run("long MAE is the drawdown and MFE the runup", func(t *testing.T) {
		tracker, tradeID := setup(TradeDirectionLong)

		tracker.OnPriceUpdate(tradeID, 104.0, 97.0)
		tracker.OnPriceUpdate(tradeID, 110.0, 99.0)
		tracker.OnExitExecution(tradeID, fullFill(symbol, execution.OrderSideSell, 10, 105.0, 0), entryTime.Add(time.Hour))

		trade := tracker.GetClosedTrades()[0]
		assert.InDelta(t, -3.0, trade.MAEPct, 1e-9)
		assert.InDelta(t, 10.0, trade.MFEPct, 1e-9)
	})

	t.Run("short MAE and MFE flip sides", func(t *testing.T) {
		tracker, tradeID := setup(TradeDirectionShort)

		tracker.OnPriceUpdate(tradeID, 104.0, 97.0)
		tracker.OnExitExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 10, 98.0, 0), entryTime.Add(time.Hour))

		trade := tracker.GetClosedTrades()[0]
		assert.InDelta(t, -4.0, trade.MAEPct, 1e-9)
		assert.InDelta(t, 3.0, trade.MFEPct, 1e-9)
	})

	t.Run("candles extend the open trade for their symbol only", func(t *testing.T) {
		tracker, tradeID := setup(TradeDirectionLong)

		tracker.OnCandle(eventmodels.NewCandle(symbol, entryTime.Add(time.Minute), 100, 112, 95, 101, 100))
		tracker.OnCandle(eventmodels.NewCandle("GOOG", entryTime.Add(time.Minute), 100, 500, 1, 101, 100))

		open := tracker.openTrades[tradeID]
		assert.Equal(t, 112.0, open.HighWaterMark)
		assert.Equal(t, 95.0, open.LowWaterMark)
	})
}

func TestUnknownTradeIDsAreNoOps(t *testing.T) {
	tracker := NewTradeTracker()
	unknown := uuid.New()

	assert.NotPanics(t, func() {
		tracker.OnEntryExecution(unknown, fullFill("AAPL", execution.OrderSideBuy, 1, 100, 0))
		tracker.OnPriceUpdate(unknown, 101, 99)
		tracker.OnExitExecution(unknown, fullFill("AAPL", execution.OrderSideSell, 1, 101, 0), time.Now())
	})

	assert.Empty(t, tracker.GetAllTrades())
}

func TestTradeStatistics(t *testing.T) {
	symbol := eventmodels.Instrument("AAPL")
	entryTime := time.Date(2021, time.January, 4, 14, 30, 0, 0, time.UTC)

	tracker := NewTradeTracker()

	roundTrip := func(entryPrice, exitPrice float64) {
		signal := eventmodels.NewSignal(symbol, eventmodels.SignalTypeBuy, 0.5, "stats")
		tradeID := tracker.OnEntrySignal(signal, TradeDirectionLong, entryTime, entryPrice)
		tracker.OnEntryExecution(tradeID, fullFill(symbol, execution.OrderSideBuy, 10, entryPrice, 0))
		tracker.OnExitExecution(tradeID, fullFill(symbol, execution.OrderSideSell, 10, exitPrice, 0), entryTime.Add(30*time.Minute))
	}

	roundTrip(100, 110) // +100
	roundTrip(100, 95)  // -50
	roundTrip(100, 104) // +40

	stats := tracker.GetTradeStatistics()

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
	assert.InDelta(t, 2.0/3.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 90.0, stats.TotalNetPnL, 1e-9)
	assert.InDelta(t, 70.0, stats.AvgWin, 1e-9)
	assert.InDelta(t, -50.0, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 140.0/50.0, stats.ProfitFactor, 1e-9)
	assert.Equal(t, 30*time.Minute, stats.AvgDuration)

	t.Run("an empty tracker returns zeroed statistics", func(t *testing.T) {
		empty := NewTradeTracker()
		assert.Equal(t, TradeStatistics{}, empty.GetTradeStatistics())
	})
}
