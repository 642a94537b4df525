package quiz

import (
	"sync"
	"time"
)

// Scheduler drives the one-second countdown ticks of a session. The engine
// never touches the wall clock directly so tests can substitute a manual
// implementation and advance time deterministically.
type Scheduler interface {
	// EverySecond invokes fn once per second until the returned cancel
	// function is called. Cancel is safe to call more than once.
	EverySecond(fn func()) (cancel func())
}

// TickerScheduler is the production Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// NewTickerScheduler creates a Scheduler that fires on real wall-clock seconds.
func NewTickerScheduler() TickerScheduler { return TickerScheduler{} }

func (TickerScheduler) EverySecond(fn func()) func() {
	ticker := time.NewTicker(time.Second)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
