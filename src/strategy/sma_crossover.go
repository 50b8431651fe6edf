package strategy

import (
	"fmt"

	"github.com/jiaming2012/market-replay/src/eventmodels"
)

// SMACrossover is the reference strategy: buy on a golden cross of the fast
// moving average over the slow one, close on the death cross.
type SMACrossover struct {
	FastKey string
	SlowKey string

	prevFast float64
	prevSlow float64
	primed   bool
	inTrade  bool
}

func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		FastKey: "sma_fast",
		SlowKey: "sma_slow",
	}
}

func (s *SMACrossover) Name() string {
	return "sma_crossover"
}

func (s *SMACrossover) OnCandle(candle *eventmodels.Candle, indicators map[string]float64) (*eventmodels.Signal, error) {
	fast, fastOk := indicators[s.FastKey]
	slow, slowOk := indicators[s.SlowKey]
	if !fastOk || !slowOk {
		return nil, nil
	}

	defer func() {
		s.prevFast = fast
		s.prevSlow = slow
		s.primed = true
	}()

	if !s.primed {
		return nil, nil
	}

	crossedUp := s.prevFast <= s.prevSlow && fast > slow
	crossedDown := s.prevFast >= s.prevSlow && fast < slow

	if crossedUp && !s.inTrade {
		s.inTrade = true
		signal := eventmodels.NewSignal(candle.Symbol, eventmodels.SignalTypeBuy, 0.7, fmt.Sprintf("golden cross: fast %.2f over slow %.2f", fast, slow))
		signal.Indicators = map[string]float64{s.FastKey: fast, s.SlowKey: slow}
		signal.Candle = candle
		return signal, nil
	}

	if crossedDown && s.inTrade {
		s.inTrade = false
		signal := eventmodels.NewSignal(candle.Symbol, eventmodels.SignalTypeClose, 0.7, fmt.Sprintf("death cross: fast %.2f under slow %.2f", fast, slow))
		signal.Indicators = map[string]float64{s.FastKey: fast, s.SlowKey: slow}
		signal.Candle = candle
		return signal, nil
	}

	return nil, nil
}
