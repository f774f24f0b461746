package vtest

import (
	"sort"
	"sync"
	"time"
)

// Clock is a manual clock. Callbacks registered with AfterFunc run
// synchronously inside Advance, in due order.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*fakeTimer
}

type fakeTimer struct {
	id      int
	due     time.Time
	fn      func()
	stopped bool
}

// NewClock returns a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run once the clock has advanced by d.
// The returned func cancels it and reports whether it was still pending.
func (c *Clock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{id: c.nextID, due: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		c.remove(t)
		return true
	}
}

// Advance moves the clock forward by d and runs every timer that came
// due, including timers scheduled by callbacks within the window.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.nextDue(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		t.stopped = true
		c.remove(t)
		if t.due.After(c.now) {
			c.now = t.due
		}
		c.mu.Unlock()

		t.fn()
	}
}

// Pending returns the number of scheduled, unfired timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Clock) nextDue(target time.Time) *fakeTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due.Equal(c.timers[j].due) {
			return c.timers[i].id < c.timers[j].id
		}
		return c.timers[i].due.Before(c.timers[j].due)
	})
	if len(c.timers) == 0 || c.timers[0].due.After(target) {
		return nil
	}
	return c.timers[0]
}

func (c *Clock) remove(t *fakeTimer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}
