package eventpubsub

const (
	OrderCreatedEvent         = "OrderCreatedEvent"
	OrderFilledEvent          = "OrderFilledEvent"
	OrderRejectedEvent        = "OrderRejectedEvent"
	TradeClosedEvent          = "TradeClosedEvent"
	EquityUpdateEvent         = "EquityUpdateEvent"
	PlaybackStateChangedEvent = "PlaybackStateChangedEvent"
	Error                     = "DefaultError"
)
