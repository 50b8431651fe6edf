package backtest

import (
	"math"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// positionEpsilon zeroes out dust positions left behind by partial fills.
const positionEpsilon = 1e-9

// Position is a symbol's holding with its weighted average cost. Created on
// the first fill, mutated on each same-symbol fill, removed when quantity
// drops below positionEpsilon.
type Position struct {
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

type Account struct {
	Cash      float64
	positions map[eventmodels.Instrument]*Position
}

func NewAccount(cash float64) *Account {
	return &Account{
		Cash:      cash,
		positions: make(map[eventmodels.Instrument]*Position),
	}
}

func (a *Account) GetPosition(symbol eventmodels.Instrument) Position {
	position, found := a.positions[symbol]
	if !found {
		return Position{}
	}

	return *position
}

func (a *Account) GetPositions() map[eventmodels.Instrument]Position {
	result := make(map[eventmodels.Instrument]Position, len(a.positions))
	for symbol, position := range a.positions {
		result[symbol] = *position
	}

	return result
}

// ApplyBuyFill subtracts notional plus commission from cash and recomputes
// the position's weighted average cost.
func (a *Account) ApplyBuyFill(symbol eventmodels.Instrument, quantity, price, commission float64) {
	position, found := a.positions[symbol]
	if !found {
		position = &Position{}
		a.positions[symbol] = position
	}

	totalQuantity := position.Quantity + quantity
	if totalQuantity > 0 {
		position.AvgPrice = (position.AvgPrice*position.Quantity + price*quantity) / totalQuantity
	}
	position.Quantity = totalQuantity

	a.Cash -= quantity*price + commission
}

// ApplySellFill adds notional minus commission to cash, realizes P&L against
// the weighted average cost and zeroes the position below epsilon. Returns
// the realized P&L net of commission.
func (a *Account) ApplySellFill(symbol eventmodels.Instrument, quantity, price, commission float64) float64 {
	position, found := a.positions[symbol]
	if !found {
		position = &Position{}
		a.positions[symbol] = position
	}

	realized := (price-position.AvgPrice)*quantity - commission

	position.Quantity -= quantity
	if math.Abs(position.Quantity) < positionEpsilon {
		delete(a.positions, symbol)
	}

	a.Cash += quantity*price - commission

	return realized
}
