package trigger

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/owlbox/owlcap/pkg/logger"
)

// DefaultDebounce is the minimum gap between accepted button events.
// Matches the bounce window of the usual momentary push buttons.
const DefaultDebounce = 300 * time.Millisecond

// edgePoll bounds each WaitForEdge call so the watch loop can notice
// Close without a hardware edge.
const edgePoll = 500 * time.Millisecond

// GPIOButton is a Source backed by a BCM pin wired to a push button
// pulling the line low.
type GPIOButton struct {
	pin     gpio.PinIO
	events  chan time.Time
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewGPIOButton initializes the host GPIO drivers and starts watching
// the given BCM pin for falling edges. debounce <= 0 uses
// DefaultDebounce.
func NewGPIOButton(bcmPin int, debounce time.Duration) (*GPIOButton, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio host init failed: %w", err)
	}

	name := fmt.Sprintf("GPIO%d", bcmPin)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("cannot configure %s for input: %w", name, err)
	}

	b := &GPIOButton{
		pin: pin,
		// Cap 1: a press during an in-flight capture is remembered,
		// anything beyond that is dropped.
		events:  make(chan time.Time, 1),
		limiter: rate.NewLimiter(rate.Every(debounce), 1),
		done:    make(chan struct{}),
	}

	b.wg.Add(1)
	go b.watch()

	logger.Info("Watching for button presses", "pin", name, "debounce", debounce)
	return b, nil
}

// Events returns the accepted trigger firings.
func (b *GPIOButton) Events() <-chan time.Time { return b.events }

// Close stops the watch loop and releases the pin.
func (b *GPIOButton) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.pin.Halt()
		b.wg.Wait()
		close(b.events)
	})
	return err
}

// watch turns debounced falling edges into events. The rate limiter is
// the debounce guard: one token per window, so contact bounce inside
// the window is ignored.
func (b *GPIOButton) watch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		default:
		}

		if !b.pin.WaitForEdge(edgePoll) {
			continue
		}
		if !b.limiter.Allow() {
			logger.Debug("Edge ignored by debounce guard", "pin", b.pin.Name())
			continue
		}

		select {
		case b.events <- time.Now():
		default:
			logger.Debug("Trigger dropped, capture already pending", "pin", b.pin.Name())
		}
	}
}
