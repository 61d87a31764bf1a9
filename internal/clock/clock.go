// Package clock abstracts wall time and one-shot timers so the reminder
// scheduler and gesture commits can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer (false if it already fired or was stopped).
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real uses the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is deterministic and test-friendly. Timers only fire from Advance or
// Set, on the calling goroutine, in deadline order.
type Fake struct {
	mu     sync.Mutex
	t      time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *Fake
	seq     int
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{t: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ft := &fakeTimer{c: c, seq: c.seq, at: c.t.Add(d), f: f}
	c.timers = append(c.timers, ft)
	return ft
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns how many timers are armed.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Deadlines returns the fire times of armed timers in order.
func (c *Fake) Deadlines() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Time
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.at)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *Fake) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Set moves the clock to t and runs every timer due at or before t.
func (c *Fake) Set(t time.Time) {
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, ft := range c.timers {
			if ft.stopped || ft.fired || ft.at.After(t) {
				continue
			}
			if next == nil || ft.at.Before(next.at) || (ft.at.Equal(next.at) && ft.seq < next.seq) {
				next = ft
			}
		}
		if next == nil {
			c.t = t
			c.compact()
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(c.t) {
			c.t = next.at
		}
		c.mu.Unlock()
		// Callbacks may schedule or stop timers, so run without the lock.
		next.f()
	}
}

// compact drops finished timers (must hold lock)
func (c *Fake) compact() {
	live := c.timers[:0]
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired {
			live = append(live, ft)
		}
	}
	c.timers = live
}
