package backtest

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/eventpubsub"
	"github.com/jiaming2012/market-replay/src/execution"
	"github.com/jiaming2012/market-replay/src/indicators"
	"github.com/jiaming2012/market-replay/src/strategy"
	"github.com/jiaming2012/market-replay/src/trades"
)

// EquityPoint is one equity-curve sample.
type EquityPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Equity     float64   `json:"equity"`
	Cash       float64   `json:"cash"`
	MarginUsed float64   `json:"margin_used"`
}

// Orchestrator subscribes to playback candle events, feeds the strategy,
// converts signals into simulated orders and keeps cash, positions, the
// equity curve and the trade tracker in sync.
//
// It runs synchronously on the playback worker; only the fatal error is
// shared with other goroutines, so only fatalErr is guarded. A concurrent
// parameter sweep needs one orchestrator per run.
type Orchestrator struct {
	config   BacktestConfig
	sim      *execution.Simulator
	tracker  *trades.TradeTracker
	strat    strategy.Strategy
	features indicators.IndicatorEngine

	account     *Account
	equityCurve []EquityPoint
	lastPrices  map[eventmodels.Instrument]float64

	baseHistories map[eventmodels.Instrument][]*eventmodels.Candle
	aggHistories  map[eventmodels.Instrument][]*eventmodels.Candle
	aggregators   map[eventmodels.Instrument]*candleAggregator

	// fatalErr is written on the playback worker and polled by the runner
	// while playback is live.
	fatalMu  sync.Mutex
	fatalErr error
}

func NewOrchestrator(config BacktestConfig, sim *execution.Simulator, tracker *trades.TradeTracker, strat strategy.Strategy, features indicators.IndicatorEngine) *Orchestrator {
	return &Orchestrator{
		config:        config,
		sim:           sim,
		tracker:       tracker,
		strat:         strat,
		features:      features,
		account:       NewAccount(config.InitialCash),
		equityCurve:   make([]EquityPoint, 0),
		lastPrices:    make(map[eventmodels.Instrument]float64),
		baseHistories: make(map[eventmodels.Instrument][]*eventmodels.Candle),
		aggHistories:  make(map[eventmodels.Instrument][]*eventmodels.Candle),
		aggregators:   make(map[eventmodels.Instrument]*candleAggregator),
	}
}

// OnCandle implements playback.CandleObserver. Per base candle: push the
// latest price into the simulator's market state, sample the equity curve,
// extend open-trade water marks, then run aggregation and the strategy.
func (o *Orchestrator) OnCandle(candle *eventmodels.Candle) {
	if o.FatalErr() != nil {
		return
	}

	o.lastPrices[candle.Symbol] = candle.Close
	o.baseHistories[candle.Symbol] = append(o.baseHistories[candle.Symbol], candle)

	o.pushMarketConditions(candle)
	o.sampleEquity(candle.Timestamp)
	o.tracker.OnCandle(candle)

	if o.config.SignalTimeframe > 0 {
		aggregator, found := o.aggregators[candle.Symbol]
		if !found {
			aggregator = newCandleAggregator(o.config.SignalTimeframe, o.config.BaseInterval)
			o.aggregators[candle.Symbol] = aggregator
		}

		closed := aggregator.add(candle)
		if closed == nil {
			return
		}

		o.aggHistories[candle.Symbol] = append(o.aggHistories[candle.Symbol], closed)
		o.invokeStrategy(closed, o.aggHistories[candle.Symbol])
		return
	}

	o.invokeStrategy(candle, o.baseHistories[candle.Symbol])
}

// FatalErr reports a halted run, e.g. an accounting invariant violation. Safe
// to poll from the runner while playback is live.
func (o *Orchestrator) FatalErr() error {
	o.fatalMu.Lock()
	defer o.fatalMu.Unlock()

	return o.fatalErr
}

func (o *Orchestrator) setFatalErr(err error) {
	o.fatalMu.Lock()
	defer o.fatalMu.Unlock()

	o.fatalErr = err
}

func (o *Orchestrator) Account() *Account {
	return o.account
}

func (o *Orchestrator) EquityCurve() []EquityPoint {
	return o.equityCurve
}

func (o *Orchestrator) pushMarketConditions(candle *eventmodels.Candle) {
	halfSpread := candle.Close * o.config.SpreadBps / 10000.0 / 2.0

	o.sim.UpdateMarketConditions(&eventmodels.MarketConditions{
		Symbol:             candle.Symbol,
		CurrentPrice:       candle.Close,
		BidPrice:           candle.Close - halfSpread,
		AskPrice:           candle.Close + halfSpread,
		AverageDailyVolume: o.config.AverageDailyVolume,
		CurrentVolume:      candle.Volume,
		Volatility:         o.config.Volatility,
	})
}

func (o *Orchestrator) sampleEquity(timestamp time.Time) {
	equity := o.account.Cash
	marginUsed := 0.0

	for symbol, position := range o.account.GetPositions() {
		price, found := o.lastPrices[symbol]
		if !found {
			continue
		}

		marginUsed += position.Quantity * price

		if o.config.IncludeUnrealizedPnL {
			equity += position.Quantity * price
		}
	}

	point := EquityPoint{
		Timestamp:  timestamp,
		Equity:     equity,
		Cash:       o.account.Cash,
		MarginUsed: marginUsed,
	}

	o.equityCurve = append(o.equityCurve, point)

	eventpubsub.Publish(eventpubsub.EquityUpdateEvent, point)
}

// invokeStrategy calls the external strategy with fault isolation: a panic or
// error is logged and the simulation continues.
func (o *Orchestrator) invokeStrategy(candle *eventmodels.Candle, history []*eventmodels.Candle) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("strategy %s panicked on candle %s: %v", o.strat.Name(), candle, r)
		}
	}()

	indicatorValues, err := o.latestIndicators(history)
	if err != nil {
		log.Errorf("failed to compute indicators for %s: %v", candle.Symbol, err)
		return
	}

	signal, err := o.strat.OnCandle(candle, indicatorValues)
	if err != nil {
		log.Errorf("strategy %s returned an error on candle %s: %v", o.strat.Name(), candle, err)
		return
	}

	if signal == nil || !signal.Type.IsActionable() {
		return
	}

	o.handleSignal(signal, candle)
}

// latestIndicators recomputes the indicator series over the given history and
// aligns the last value of each series with the current candle.
func (o *Orchestrator) latestIndicators(history []*eventmodels.Candle) (map[string]float64, error) {
	if o.features == nil {
		return map[string]float64{}, nil
	}

	series, err := o.features.CalculateIndicators(history)
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(series))
	for name, values := range series {
		if len(values) > 0 {
			result[name] = values[len(values)-1]
		}
	}

	return result, nil
}

// handleSignal sizes the order, submits it to the execution simulator and
// applies the fill to cash, position and trade tracking.
func (o *Orchestrator) handleSignal(signal *eventmodels.Signal, candle *eventmodels.Candle) {
	price := candle.Close
	if price <= 0 {
		log.Warnf("skipping signal for %s: no positive price", signal.Symbol)
		return
	}

	var side execution.OrderSide
	var quantity float64

	switch signal.Type {
	case eventmodels.SignalTypeBuy:
		side = execution.OrderSideBuy
		quantity = o.account.Cash * o.config.PositionSizePct / price
	case eventmodels.SignalTypeSell, eventmodels.SignalTypeClose:
		side = execution.OrderSideSell
		quantity = o.account.GetPosition(signal.Symbol).Quantity
	default:
		return
	}

	if quantity <= 0 {
		log.Debugf("skipping %s signal for %s: computed quantity %.4f", signal.Type, signal.Symbol, quantity)
		return
	}

	request := execution.OrderRequest{
		Symbol:       signal.Symbol,
		Side:         side,
		Quantity:     quantity,
		Type:         execution.Market,
		CurrentPrice: &price,
	}

	eventpubsub.Publish(eventpubsub.OrderCreatedEvent, request)

	exec := o.sim.SimulateOrder(request)

	if exec.Status == execution.OrderStatusRejected {
		reason := ""
		if exec.RejectReason != nil {
			reason = *exec.RejectReason
		}
		log.Warnf("order rejected for %s: %s", signal.Symbol, reason)

		eventpubsub.Publish(eventpubsub.OrderRejectedEvent, exec)
		return
	}

	eventpubsub.Publish(eventpubsub.OrderFilledEvent, exec)

	if side == execution.OrderSideBuy {
		o.applyEntry(signal, candle, exec)
	} else {
		o.applyExit(signal, candle, exec)
	}
}

func (o *Orchestrator) applyEntry(signal *eventmodels.Signal, candle *eventmodels.Candle, exec *execution.OrderExecution) {
	o.account.ApplyBuyFill(exec.Symbol, exec.FilledQuantity, exec.AvgFillPrice, exec.Commission)

	tradeID := o.tracker.OnEntrySignal(signal, trades.TradeDirectionLong, candle.Timestamp, candle.Close)
	o.tracker.OnEntryExecution(tradeID, exec)
}

func (o *Orchestrator) applyExit(signal *eventmodels.Signal, candle *eventmodels.Candle, exec *execution.OrderExecution) {
	cashBefore := o.account.Cash

	realized := o.account.ApplySellFill(exec.Symbol, exec.FilledQuantity, exec.AvgFillPrice, exec.Commission)

	// A sell fill that moves no cash means the P&L accounting is broken:
	// halt the run rather than keep producing corrupt results.
	if exec.FilledQuantity > 0 && exec.AvgFillPrice > 0 && o.account.Cash == cashBefore {
		err := NewInvariantViolationError("sell fill of %.4f %s @ %.4f did not change cash (%.2f)", exec.FilledQuantity, exec.Symbol, exec.AvgFillPrice, cashBefore)
		o.setFatalErr(err)
		log.Errorf("%v", err)
		return
	}

	log.Debugf("realized %.2f on %s exit", realized, exec.Symbol)

	tradeID, found := o.tracker.GetOpenTradeID(exec.Symbol)
	if !found {
		log.Warnf("no open trade tracked for %s exit", exec.Symbol)
		return
	}

	o.tracker.OnExitExecution(tradeID, exec, candle.Timestamp)
}
