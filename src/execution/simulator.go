package execution

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

const (
	minLatency = 10 * time.Millisecond
	maxLatency = 5 * time.Second

	// tradingYearSeconds scales the latency window to a fraction of a
	// trading year for the price-drift model: 252 days of 6.5 hours.
	tradingYearSeconds = 252 * 6.5 * 3600

	// referenceVolatility normalizes volatility scaling: an annualized 20%.
	referenceVolatility = 0.20

	// fullFillThreshold: an order filled at 99% or better counts as filled.
	fullFillThreshold = 0.99

	defaultADV        = 1_000_000
	defaultVolatility = 0.20
)

// Simulator models realistic order execution: latency, price drift during the
// latency window, slippage, square-root market impact and partial fills. It
// holds no internal locks and is intended for single-run, single-goroutine
// use; concurrent backtests must use separate instances.
type Simulator struct {
	config     SimulatorConfig
	rng        *rand.Rand
	conditions map[eventmodels.Instrument]*eventmodels.MarketConditions
	history    []*OrderExecution
}

func NewSimulator(config SimulatorConfig) *Simulator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		config:     config,
		rng:        rand.New(rand.NewSource(seed)),
		conditions: make(map[eventmodels.Instrument]*eventmodels.MarketConditions),
		history:    make([]*OrderExecution, 0),
	}
}

// UpdateMarketConditions overwrites the latest-value cache for a symbol.
func (s *Simulator) UpdateMarketConditions(conditions *eventmodels.MarketConditions) {
	s.conditions[conditions.Symbol] = conditions
}

func (s *Simulator) GetMarketConditions(symbol eventmodels.Instrument) *eventmodels.MarketConditions {
	return s.conditions[symbol]
}

// GetExecutionHistory returns the append-only record of every simulated
// order, in submission order.
func (s *Simulator) GetExecutionHistory() []*OrderExecution {
	return s.history
}

// SimulateOrder runs the fill pipeline and always returns a result. Business
// rejections (bad quantity, ADV cap, unreachable limit) come back as
// rejected executions, never as errors.
func (s *Simulator) SimulateOrder(req OrderRequest) *OrderExecution {
	exec := &OrderExecution{
		ID:                uuid.New(),
		Symbol:            req.Symbol,
		Side:              req.Side,
		Type:              req.Type,
		RequestedQuantity: req.Quantity,
		CreateDate:        time.Now().UTC(),
	}

	defer func() {
		s.history = append(s.history, exec)
	}()

	conditions := s.resolveConditions(req)

	// 1. static validation
	if req.Quantity <= 0 {
		return exec.reject("quantity must be greater than 0")
	}

	if conditions.CurrentPrice <= 0 {
		return exec.reject("price must be greater than 0")
	}

	participation := req.Quantity / conditions.AverageDailyVolume
	if participation > s.config.MaxPositionSizePct {
		return exec.reject(fmt.Sprintf("order size %.1f%% of ADV exceeds maximum %.1f%% of ADV", participation*100, s.config.MaxPositionSizePct*100))
	}

	// 2. latency draw
	latency := s.drawLatency()
	exec.Latency = latency

	// 3. price drift during the latency window
	price := s.driftPrice(conditions.CurrentPrice, conditions.Volatility, latency)

	// 4. limit gating
	if req.Type == Limit {
		if req.LimitPrice == nil {
			return exec.reject("limit order requires a limit price")
		}

		limit := *req.LimitPrice
		bid, ask := s.resolveBidAsk(conditions, price)

		if req.Side == OrderSideBuy && limit < ask {
			return exec.reject("limit price not reached")
		}

		if req.Side == OrderSideSell && limit > bid {
			return exec.reject("limit price not reached")
		}
	}

	// 5 + 6. market impact and slippage
	impactBps := s.marketImpactBps(participation, conditions.Volatility)
	slippageBps := s.slippageBps(req, participation, conditions)

	exec.MarketImpactBps = impactBps
	exec.SlippageBps = slippageBps

	// 7. executed price, adverse by side
	totalBps := (slippageBps + impactBps) / 10000.0
	var executedPrice float64
	if req.Side == OrderSideBuy {
		executedPrice = price * (1 + totalBps)
	} else {
		executedPrice = price * (1 - totalBps)
	}

	// 8. fill rate
	fillRate := s.fillRate(req.Type, participation)
	filledQuantity := req.Quantity * fillRate

	if filledQuantity <= 0 {
		return exec.reject("no liquidity available")
	}

	// 9. fill slicing
	if s.config.PartialFillsEnabled && fillRate < 1.0 {
		exec.Fills = s.sliceFills(filledQuantity, executedPrice, conditions.Volatility, exec.CreateDate, latency)
	} else {
		exec.Fills = []Fill{{
			Quantity:  filledQuantity,
			Price:     executedPrice,
			Timestamp: exec.CreateDate.Add(latency),
		}}
	}

	exec.FilledQuantity, exec.AvgFillPrice = summarizeFills(exec.Fills)

	// 10. commission and status
	exec.Commission = exec.FilledNotional() * s.config.CommissionBps / 10000.0

	if exec.FilledQuantity < req.Quantity*fullFillThreshold {
		exec.Status = OrderStatusPartiallyFilled
	} else {
		exec.Status = OrderStatusFilled
	}

	return exec
}

// resolveConditions returns the cached market state for the order's symbol,
// falling back to the caller-supplied price and conservative defaults.
func (s *Simulator) resolveConditions(req OrderRequest) *eventmodels.MarketConditions {
	if conditions, found := s.conditions[req.Symbol]; found {
		return conditions
	}

	price := 0.0
	if req.CurrentPrice != nil {
		price = *req.CurrentPrice
	}

	log.Warnf("no market conditions for %s: using caller price %.2f with default ADV and volatility", req.Symbol, price)

	return &eventmodels.MarketConditions{
		Symbol:             req.Symbol,
		CurrentPrice:       price,
		AverageDailyVolume: defaultADV,
		Volatility:         defaultVolatility,
	}
}

// drawLatency samples base latency scaled by lognormal(0, 0.3), with a 1%
// chance of a 2x-5x spike, clamped to [minLatency, maxLatency].
func (s *Simulator) drawLatency() time.Duration {
	factor := math.Exp(s.rng.NormFloat64() * 0.3)

	if s.rng.Float64() < 0.01 {
		factor *= 2 + s.rng.Float64()*3
	}

	latency := time.Duration(float64(s.config.BaseLatency) * factor)

	if latency < minLatency {
		latency = minLatency
	}

	if latency > maxLatency {
		latency = maxLatency
	}

	return latency
}

// driftPrice applies zero-drift geometric brownian motion over the latency
// window, scaled to its fraction of a trading year.
func (s *Simulator) driftPrice(price, volatility float64, latency time.Duration) float64 {
	if volatility <= 0 {
		return price
	}

	dt := latency.Seconds() / tradingYearSeconds

	return price * math.Exp(-0.5*volatility*volatility*dt+volatility*math.Sqrt(dt)*s.rng.NormFloat64())
}

func (s *Simulator) resolveBidAsk(conditions *eventmodels.MarketConditions, price float64) (bid float64, ask float64) {
	bid = conditions.BidPrice
	ask = conditions.AskPrice

	if bid <= 0 || ask <= 0 {
		halfSpread := price * s.config.BaseSlippageBps / 10000.0 / 2.0
		bid = price - halfSpread
		ask = price + halfSpread
	}

	return bid, ask
}

// marketImpactBps follows the square-root law, scaled by volatility relative
// to the 20% reference.
func (s *Simulator) marketImpactBps(participation, volatility float64) float64 {
	if volatility <= 0 {
		volatility = defaultVolatility
	}

	return s.config.ImpactFactor * math.Sqrt(participation) * 10000.0 * (volatility / referenceVolatility)
}

// slippageBps is the base rate plus a volatility-scaled term, a size-scaled
// term, and for market orders half the bid/ask spread.
func (s *Simulator) slippageBps(req OrderRequest, participation float64, conditions *eventmodels.MarketConditions) float64 {
	volatility := conditions.Volatility
	if volatility <= 0 {
		volatility = defaultVolatility
	}

	bps := s.config.BaseSlippageBps
	bps += s.config.BaseSlippageBps * (volatility / referenceVolatility)
	bps += s.config.BaseSlippageBps * (participation / 0.01)

	if req.Type == Market {
		bps += conditions.SpreadBps() / 2.0
	}

	return bps
}

// fillRate degrades piecewise with participation: ~100% below 1% of ADV,
// down to a 50% floor above 10% of ADV. Limit orders pay a flat 10-point
// penalty with a 30% floor.
func (s *Simulator) fillRate(orderType OrderType, participation float64) float64 {
	var rate float64

	switch {
	case participation <= 0.01:
		rate = 1.0
	case participation <= 0.05:
		rate = 1.0 - (participation-0.01)/0.04*0.15 + s.fillNoise()
	case participation <= 0.10:
		rate = 0.85 - (participation-0.05)/0.05*0.20 + s.fillNoise()
	default:
		rate = math.Max(0.50, 0.65-(participation-0.10)*2.0+s.fillNoise())
	}

	if orderType == Limit {
		rate -= 0.10
		if rate < 0.30 {
			rate = 0.30
		}
	}

	if rate > 1.0 {
		rate = 1.0
	}

	if rate < 0 {
		rate = 0
	}

	return rate
}

func (s *Simulator) fillNoise() float64 {
	return (s.rng.Float64() - 0.5) * 0.04
}

// sliceFills splits a partial fill into 1-5 randomly sized slices with
// increasing timestamps and per-slice price jitter proportional to
// volatility.
func (s *Simulator) sliceFills(quantity, price, volatility float64, createDate time.Time, latency time.Duration) []Fill {
	if volatility <= 0 {
		volatility = defaultVolatility
	}

	numSlices := 1 + s.rng.Intn(5)

	weights := make([]float64, numSlices)
	total := 0.0
	for i := range weights {
		weights[i] = 0.2 + s.rng.Float64()
		total += weights[i]
	}

	fills := make([]Fill, 0, numSlices)
	timestamp := createDate.Add(latency)

	for i := 0; i < numSlices; i++ {
		jitter := 1 + s.rng.NormFloat64()*volatility*0.001

		fills = append(fills, Fill{
			Quantity:  quantity * weights[i] / total,
			Price:     price * jitter,
			Timestamp: timestamp,
		})

		timestamp = timestamp.Add(time.Duration(1+s.rng.Intn(int(latency/time.Millisecond)+1)) * time.Millisecond)
	}

	return fills
}

func summarizeFills(fills []Fill) (quantity float64, avgPrice float64) {
	notional := 0.0
	for _, fill := range fills {
		quantity += fill.Quantity
		notional += fill.Quantity * fill.Price
	}

	if quantity > 0 {
		avgPrice = notional / quantity
	}

	return quantity, avgPrice
}
