// Package sched provides the two scheduling primitives the runtime is built
// on: fixed-rate intervals and restartable debounce timers. Both are owned by
// exactly one component and guarantee the callback stops firing once Stop has
// been called.
package sched

import (
	"sync"
	"time"
)

// Interval invokes a callback at a fixed rate until stopped.
type Interval struct {
	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewInterval starts a ticker that calls fn every d until Stop is called.
// fn runs on a dedicated goroutine; overlapping invocations cannot happen.
func NewInterval(d time.Duration, fn func()) *Interval {
	iv := &Interval{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-iv.stop:
				return
			case <-ticker.C:
				iv.mu.Lock()
				stopped := iv.stopped
				iv.mu.Unlock()
				if stopped {
					return
				}
				fn()
			}
		}
	}()

	return iv
}

// Stop cancels the interval. After Stop, fn is never invoked again.
func (iv *Interval) Stop() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if iv.stopped {
		return
	}
	iv.stopped = true
	close(iv.stop)
}
