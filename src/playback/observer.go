package playback

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/eventpubsub"
)

// TickObserver receives the sub-candle tick expansion of every candle as the
// cursor passes over it.
type TickObserver interface {
	OnTick(tick *eventmodels.Tick)
}

// CandleObserver receives every candle as the cursor passes over it.
type CandleObserver interface {
	OnCandle(candle *eventmodels.Candle)
}

// StateObserver receives playback state transitions.
type StateObserver interface {
	OnStateChange(change StateChange)
}

// dispatch runs an observer callback with fault isolation: a panicking
// observer is logged, published on the error topic and skipped, it never
// aborts the step.
func dispatch(context string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("playback: observer callback panicked [%s]: %v", context, r)
			log.Error(err)
			eventpubsub.Publish(eventpubsub.Error, err)
		}
	}()

	fn()
}
