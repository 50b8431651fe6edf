package eventmodels

type SignalType string

const (
	SignalTypeBuy   SignalType = "buy"
	SignalTypeSell  SignalType = "sell"
	SignalTypeClose SignalType = "close"
	SignalTypeHold  SignalType = "hold"
)

func (t SignalType) IsActionable() bool {
	return t == SignalTypeBuy || t == SignalTypeSell || t == SignalTypeClose
}

// Signal is the strategy's verdict for a single candle.
type Signal struct {
	Symbol     Instrument         `json:"symbol"`
	Type       SignalType         `json:"type"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Candle     *Candle            `json:"candle,omitempty"`
}

func NewSignal(symbol Instrument, signalType SignalType, confidence float64, reason string) *Signal {
	return &Signal{
		Symbol:     symbol,
		Type:       signalType,
		Confidence: confidence,
		Reason:     reason,
	}
}
