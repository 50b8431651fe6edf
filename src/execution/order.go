package execution

import (
	"time"

	"github.com/google/uuid"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

type OrderStatus string

const (
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
)

// OrderRequest describes an order submitted to the simulator. CurrentPrice is
// a caller-supplied fallback used when no market conditions have been pushed
// for the symbol.
type OrderRequest struct {
	Symbol       eventmodels.Instrument `json:"symbol"`
	Side         OrderSide              `json:"side"`
	Quantity     float64                `json:"quantity"`
	Type         OrderType              `json:"type"`
	LimitPrice   *float64               `json:"limit_price,omitempty"`
	CurrentPrice *float64               `json:"current_price,omitempty"`
}

// Fill is a single execution slice.
type Fill struct {
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderExecution is the immutable result of one SimulateOrder call. It is
// appended to an append-only history and never mutated afterwards.
type OrderExecution struct {
	ID                uuid.UUID              `json:"id"`
	Symbol            eventmodels.Instrument `json:"symbol"`
	Side              OrderSide              `json:"side"`
	Type              OrderType              `json:"type"`
	Status            OrderStatus            `json:"status"`
	RequestedQuantity float64                `json:"requested_quantity"`
	FilledQuantity    float64                `json:"filled_quantity"`
	AvgFillPrice      float64                `json:"avg_fill_price"`
	SlippageBps       float64                `json:"slippage_bps"`
	MarketImpactBps   float64                `json:"market_impact_bps"`
	Commission        float64                `json:"commission"`
	Latency           time.Duration          `json:"latency"`
	Fills             []Fill                 `json:"fills"`
	RejectReason      *string                `json:"reject_reason,omitempty"`
	CreateDate        time.Time              `json:"create_date"`
}

func (e *OrderExecution) IsFilled() bool {
	return e.Status == OrderStatusFilled
}

// FilledNotional is the cash value of the filled quantity.
func (e *OrderExecution) FilledNotional() float64 {
	return e.FilledQuantity * e.AvgFillPrice
}

// FrictionCost is the total simulated cost of the execution in currency:
// commission plus slippage and market impact applied to filled notional.
func (e *OrderExecution) FrictionCost() float64 {
	return e.Commission + (e.SlippageBps+e.MarketImpactBps)/10000.0*e.FilledNotional()
}

func (e *OrderExecution) reject(reason string) *OrderExecution {
	e.Status = OrderStatusRejected
	e.FilledQuantity = 0
	e.AvgFillPrice = 0
	e.RejectReason = &reason
	return e
}
