package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountBookkeeping(t *testing.T) {
	t.Run("buys compute a weighted average cost", func(t *testing.T) {
		account := NewAccount(100_000)

		account.ApplyBuyFill("AAPL", 10, 100.0, 0)
		account.ApplyBuyFill("AAPL", 10, 110.0, 0)

		position := account.GetPosition("AAPL")
		assert.InDelta(t, (10*100.0+10*110.0)/20, position.AvgPrice, 1e-6)
		assert.InDelta(t, 20.0, position.Quantity, 1e-9)
		assert.InDelta(t, 100_000-10*100.0-10*110.0, account.Cash, 1e-9)
	})

	t.Run("a buy charges notional plus commission", func(t *testing.T) {
		account := NewAccount(10_000)

		account.ApplyBuyFill("AAPL", 10, 100.0, 2.5)

		assert.InDelta(t, 10_000-1_000-2.5, account.Cash, 1e-9)
	})

	t.Run("a sell credits notional minus commission and realizes P&L", func(t *testing.T) {
		account := NewAccount(10_000)

		account.ApplyBuyFill("AAPL", 10, 100.0, 0)
		realized := account.ApplySellFill("AAPL", 10, 110.0, 1.0)

		assert.InDelta(t, (110.0-100.0)*10-1.0, realized, 1e-9)
		assert.InDelta(t, 10_000+100.0-1.0, account.Cash, 1e-9)
	})

	t.Run("a full exit removes the position", func(t *testing.T) {
		account := NewAccount(10_000)

		account.ApplyBuyFill("AAPL", 10, 100.0, 0)
		account.ApplySellFill("AAPL", 10, 105.0, 0)

		assert.Empty(t, account.GetPositions())
	})

	t.Run("dust below epsilon is zeroed out", func(t *testing.T) {
		account := NewAccount(10_000)

		account.ApplyBuyFill("AAPL", 10, 100.0, 0)
		account.ApplySellFill("AAPL", 10-1e-12, 100.0, 0)

		assert.Empty(t, account.GetPositions())
	})
}
