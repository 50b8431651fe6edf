package playback

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/eventpubsub"
)

// loopJoinTimeout bounds how long Pause and Stop wait for the playback
// goroutine to acknowledge cancellation. A non-responsive loop is abandoned
// with a warning, never awaited indefinitely.
const loopJoinTimeout = 2 * time.Second

var (
	ErrNegativeSpeed    = fmt.Errorf("playback speed must not be negative")
	ErrStepWhilePlaying = fmt.Errorf("cannot step while playback is active: pause first")
	ErrLoadWhilePlaying = fmt.Errorf("cannot load data while playback is active: stop first")
	ErrPauseNotPlaying  = fmt.Errorf("pause is only legal while playing")
	ErrNoDataLoaded     = fmt.Errorf("no candle data loaded")
)

// DataFeed supplies candle history and the candle-to-tick expansion. The
// concrete implementations live in src/data.
type DataFeed interface {
	GetCandles(symbol eventmodels.Instrument, start, end time.Time, interval time.Duration) ([]*eventmodels.Candle, error)
	CandleToTicks(candle *eventmodels.Candle) []*eventmodels.Tick
}

// Engine replays candle history candle by candle. One step processes every
// symbol's current candle, in fixed symbol order, before any cursor advances.
// A single lock guards state transitions and cursor mutation; the background
// loop checks cancellation once per step, so an in-flight step always
// completes before the loop exits.
type Engine struct {
	mu    sync.Mutex
	state State

	feed     DataFeed
	symbols  []eventmodels.Instrument
	start    time.Time
	end      time.Time
	interval time.Duration

	histories map[eventmodels.Instrument][]*eventmodels.Candle
	cursors   map[eventmodels.Instrument]int

	speed            float64
	candlesProcessed int

	cancelCh chan struct{}
	doneCh   chan struct{}

	tickObservers   []TickObserver
	candleObservers []CandleObserver
	stateObservers  []StateObserver
}

func NewEngine(feed DataFeed, symbols []eventmodels.Instrument, start, end time.Time, interval time.Duration) *Engine {
	sorted := make([]eventmodels.Instrument, len(symbols))
	copy(sorted, symbols)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &Engine{
		state:     StateStopped,
		feed:      feed,
		symbols:   sorted,
		start:     start,
		end:       end,
		interval:  interval,
		histories: make(map[eventmodels.Instrument][]*eventmodels.Candle),
		cursors:   make(map[eventmodels.Instrument]int),
	}
}

func (e *Engine) RegisterTickObserver(observer TickObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickObservers = append(e.tickObservers, observer)
}

func (e *Engine) RegisterCandleObserver(observer CandleObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.candleObservers = append(e.candleObservers, observer)
}

func (e *Engine) RegisterStateObserver(observer StateObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stateObservers = append(e.stateObservers, observer)
}

// LoadData fetches the full candle history for every symbol and resets all
// cursors to zero.
func (e *Engine) LoadData() error {
	e.mu.Lock()
	if e.state == StatePlaying {
		e.mu.Unlock()
		return ErrLoadWhilePlaying
	}
	e.mu.Unlock()

	histories := make(map[eventmodels.Instrument][]*eventmodels.Candle)
	for _, symbol := range e.symbols {
		candles, err := e.feed.GetCandles(symbol, e.start, e.end, e.interval)
		if err != nil {
			return fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
		}

		if len(candles) == 0 {
			log.Warnf("no candles returned for %s between %s and %s", symbol, e.start, e.end)
		}

		histories[symbol] = candles
	}

	e.mu.Lock()
	e.histories = histories
	for _, symbol := range e.symbols {
		e.cursors[symbol] = 0
	}
	e.candlesProcessed = 0
	e.mu.Unlock()

	return nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

func (e *Engine) CandlesProcessed() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.candlesProcessed
}

// Cursor returns the playback cursor for a symbol. The cursor is always
// within [0, len(history)]; a cursor equal to len(history) means exhausted.
func (e *Engine) Cursor(symbol eventmodels.Instrument) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cursors[symbol]
}

// SetSpeed controls the inter-step delay: 0 is unthrottled, a positive
// multiplier sleeps 1/mult seconds between steps.
func (e *Engine) SetSpeed(multiplier float64) error {
	if multiplier < 0 {
		return ErrNegativeSpeed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.speed = multiplier
	return nil
}

// Play starts the background playback loop. Calling Play while already
// playing is a no-op; playing from stopped resets every cursor first.
func (e *Engine) Play() error {
	e.mu.Lock()

	if e.state == StatePlaying {
		e.mu.Unlock()
		return nil
	}

	if len(e.histories) == 0 {
		e.mu.Unlock()
		return ErrNoDataLoaded
	}

	if e.state == StateStopped {
		for _, symbol := range e.symbols {
			e.cursors[symbol] = 0
		}
		e.candlesProcessed = 0
	}

	change := e.setStateLocked(StatePlaying)

	cancelCh := make(chan struct{})
	doneCh := make(chan struct{})
	e.cancelCh = cancelCh
	e.doneCh = doneCh

	e.mu.Unlock()

	e.notifyStateChange(change)

	go e.runLoop(cancelCh, doneCh)

	return nil
}

// Pause signals cancellation and waits, up to loopJoinTimeout, for the loop
// to exit. The engine is paused regardless of whether the wait succeeded.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.mu.Unlock()
		return ErrPauseNotPlaying
	}

	cancelCh := e.cancelCh
	doneCh := e.doneCh
	e.cancelCh = nil
	e.doneCh = nil
	e.mu.Unlock()

	e.cancelAndJoin(cancelCh, doneCh)

	e.mu.Lock()
	change := e.setStateLocked(StatePaused)
	e.mu.Unlock()

	e.notifyStateChange(change)

	return nil
}

// Stop cancels any active loop, resets every cursor to zero and transitions
// to stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancelCh := e.cancelCh
	doneCh := e.doneCh
	e.cancelCh = nil
	e.doneCh = nil
	e.mu.Unlock()

	e.cancelAndJoin(cancelCh, doneCh)

	e.mu.Lock()
	for _, symbol := range e.symbols {
		e.cursors[symbol] = 0
	}
	change := e.setStateLocked(StateStopped)
	e.mu.Unlock()

	e.notifyStateChange(change)
}

// StepForward synchronously advances playback by up to n steps, clamped to
// the end of each symbol's history. Each step emits the current candle and
// its tick expansion before the cursors advance.
func (e *Engine) StepForward(n int) error {
	e.mu.Lock()
	if e.state == StatePlaying {
		e.mu.Unlock()
		return ErrStepWhilePlaying
	}

	change := e.setStateLocked(StateStepping)
	e.mu.Unlock()
	e.notifyStateChange(change)

	for i := 0; i < n; i++ {
		if !e.stepOnce() {
			break
		}
	}

	e.mu.Lock()
	change = e.setStateLocked(StatePaused)
	e.mu.Unlock()
	e.notifyStateChange(change)

	return nil
}

// StepBackward rewinds every symbol's cursor by up to n, clamped to zero.
// Rewinding emits nothing.
func (e *Engine) StepBackward(n int) error {
	e.mu.Lock()
	if e.state == StatePlaying {
		e.mu.Unlock()
		return ErrStepWhilePlaying
	}

	change := e.setStateLocked(StateStepping)

	for _, symbol := range e.symbols {
		cursor := e.cursors[symbol] - n
		if cursor < 0 {
			cursor = 0
		}
		e.cursors[symbol] = cursor
	}

	e.mu.Unlock()
	e.notifyStateChange(change)

	e.mu.Lock()
	change = e.setStateLocked(StatePaused)
	e.mu.Unlock()
	e.notifyStateChange(change)

	return nil
}

// SeekToTimestamp pauses any active playback, then positions each symbol's
// cursor at the first candle with timestamp >= t, or the last valid index if
// no candle qualifies.
func (e *Engine) SeekToTimestamp(t time.Time) error {
	if e.State() == StatePlaying {
		if err := e.Pause(); err != nil {
			return fmt.Errorf("failed to pause before seek: %w", err)
		}
	}

	e.mu.Lock()
	change := e.setStateLocked(StateSeeking)

	for _, symbol := range e.symbols {
		history := e.histories[symbol]
		if len(history) == 0 {
			e.cursors[symbol] = 0
			continue
		}

		cursor := sort.Search(len(history), func(i int) bool {
			return !history[i].Timestamp.Before(t)
		})

		if cursor >= len(history) {
			cursor = len(history) - 1
		}

		e.cursors[symbol] = cursor
	}

	e.mu.Unlock()
	e.notifyStateChange(change)

	e.mu.Lock()
	change = e.setStateLocked(StatePaused)
	e.mu.Unlock()
	e.notifyStateChange(change)

	return nil
}

func (e *Engine) runLoop(cancelCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-cancelCh:
			return
		default:
		}

		if !e.stepOnce() {
			e.mu.Lock()
			change := e.setStateLocked(StateStopped)
			e.mu.Unlock()

			e.notifyStateChange(change)

			log.Infof("playback complete: all %d symbols exhausted after %d candles", len(e.symbols), e.CandlesProcessed())
			return
		}

		if delay := e.stepDelay(); delay > 0 {
			select {
			case <-cancelCh:
				return
			case <-time.After(delay):
			}
		}
	}
}

// stepOnce processes the current candle of every symbol and then advances the
// cursors. It returns false when every cursor is exhausted.
func (e *Engine) stepOnce() bool {
	e.mu.Lock()

	type emission struct {
		candle *eventmodels.Candle
		symbol eventmodels.Instrument
	}

	var batch []emission
	for _, symbol := range e.symbols {
		cursor := e.cursors[symbol]
		if cursor < len(e.histories[symbol]) {
			batch = append(batch, emission{candle: e.histories[symbol][cursor], symbol: symbol})
		}
	}

	if len(batch) == 0 {
		e.mu.Unlock()
		return false
	}

	tickObservers := e.tickObservers
	candleObservers := e.candleObservers
	e.mu.Unlock()

	for _, item := range batch {
		candle := item.candle

		for _, observer := range candleObservers {
			o := observer
			dispatch(fmt.Sprintf("candle observer [%s]", candle.Symbol), func() {
				o.OnCandle(candle)
			})
		}

		ticks := e.feed.CandleToTicks(candle)
		for _, tick := range ticks {
			for _, observer := range tickObservers {
				o := observer
				t := tick
				dispatch(fmt.Sprintf("tick observer [%s]", t.Symbol), func() {
					o.OnTick(t)
				})
			}
		}
	}

	e.mu.Lock()
	for _, item := range batch {
		if e.cursors[item.symbol] < len(e.histories[item.symbol]) {
			e.cursors[item.symbol]++
		}
	}
	e.candlesProcessed += len(batch)
	e.mu.Unlock()

	return true
}

func (e *Engine) stepDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speed <= 0 {
		return 0
	}

	return time.Duration(float64(time.Second) / e.speed)
}

func (e *Engine) cancelAndJoin(cancelCh, doneCh chan struct{}) {
	if cancelCh == nil {
		return
	}

	close(cancelCh)

	select {
	case <-doneCh:
	case <-time.After(loopJoinTimeout):
		log.Warnf("playback loop did not exit within %s: abandoning worker", loopJoinTimeout)
	}
}

// setStateLocked records a transition and returns it so the caller can notify
// observers after releasing the lock.
func (e *Engine) setStateLocked(to State) *StateChange {
	if e.state == to {
		return nil
	}

	change := &StateChange{From: e.state, To: to}
	e.state = to

	return change
}

func (e *Engine) notifyStateChange(change *StateChange) {
	if change == nil {
		return
	}

	e.mu.Lock()
	observers := e.stateObservers
	e.mu.Unlock()

	for _, observer := range observers {
		o := observer
		dispatch(fmt.Sprintf("state observer [%s -> %s]", change.From, change.To), func() {
			o.OnStateChange(*change)
		})
	}

	eventpubsub.Publish(eventpubsub.PlaybackStateChangedEvent, *change)
}
