package app

import (
	"sync"
	"time"
)

// CountdownConfig configures a Countdown.
type CountdownConfig struct {
	Seconds   int
	Interval  time.Duration // defaults to one second
	Scheduler Scheduler     // defaults to TickerScheduler
	// Guard is held around every scheduled tick. Owners that share state with the
	// callbacks pass their own lock; it defaults to a private mutex.
	Guard    sync.Locker
	OnTick   func(remaining int)
	OnExpire func()
	// AfterTick runs after Guard is released, once per scheduled tick.
	AfterTick func()
}

// Countdown is a start/stop/dispose-able second counter.
// Exported methods take the guard; the lowercase variants expect it held.
type Countdown struct {
	initial   int
	remaining int
	interval  time.Duration
	sched     Scheduler
	guard     sync.Locker

	onTick    func(int)
	onExpire  func()
	afterTick func()

	active   bool
	expired  bool
	disposed bool
	gen      uint64
	cancel   func()
}

func NewCountdown(cfg CountdownConfig) *Countdown {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	var sched Scheduler = TickerScheduler{}
	if cfg.Scheduler != nil {
		sched = cfg.Scheduler
	}
	var guard sync.Locker = &sync.Mutex{}
	if cfg.Guard != nil {
		guard = cfg.Guard
	}
	seconds := cfg.Seconds
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		initial:   seconds,
		remaining: seconds,
		interval:  interval,
		sched:     sched,
		guard:     guard,
		onTick:    cfg.OnTick,
		onExpire:  cfg.OnExpire,
		afterTick: cfg.AfterTick,
	}
}

// Start activates the countdown, resuming from the preserved remaining value.
func (c *Countdown) Start() {
	c.guard.Lock()
	defer c.guard.Unlock()
	c.startLocked()
}

// Stop suspends ticking without resetting the remaining value.
func (c *Countdown) Stop() {
	c.guard.Lock()
	defer c.guard.Unlock()
	c.stopLocked()
}

// Reset stops the countdown and restores the initial value.
func (c *Countdown) Reset() {
	c.guard.Lock()
	defer c.guard.Unlock()
	c.stopLocked()
	c.remaining = c.initial
	c.expired = false
}

// Dispose stops the countdown permanently.
func (c *Countdown) Dispose() {
	c.guard.Lock()
	defer c.guard.Unlock()
	c.disposeLocked()
}

// Tick advances the countdown by one step if it is active.
func (c *Countdown) Tick() {
	c.guard.Lock()
	c.tickLocked(c.gen)
	c.guard.Unlock()
}

func (c *Countdown) Remaining() int {
	c.guard.Lock()
	defer c.guard.Unlock()
	return c.remaining
}

func (c *Countdown) Active() bool {
	c.guard.Lock()
	defer c.guard.Unlock()
	return c.active
}

func (c *Countdown) startLocked() {
	if c.disposed || c.active || c.remaining <= 0 {
		return
	}
	c.active = true
	c.gen++
	gen := c.gen
	c.cancel = c.sched.Every(c.interval, func() { c.fire(gen) })
}

func (c *Countdown) stopLocked() {
	if !c.active {
		return
	}
	c.active = false
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) disposeLocked() {
	c.stopLocked()
	c.disposed = true
}

func (c *Countdown) fire(gen uint64) {
	c.guard.Lock()
	fired := c.tickLocked(gen)
	c.guard.Unlock()
	if fired && c.afterTick != nil {
		c.afterTick()
	}
}

// tickLocked ignores ticks from a previous activation so a stopped countdown
// never calls back, even if its scheduler had a tick in flight.
func (c *Countdown) tickLocked(gen uint64) bool {
	if !c.active || c.disposed || gen != c.gen {
		return false
	}

	prev := c.remaining
	next := prev - 1
	if prev > 0 && c.onTick != nil {
		if next < 0 {
			c.onTick(0)
		} else {
			c.onTick(next)
		}
	}

	if prev <= 1 {
		c.remaining = 0
		c.stopLocked()
		if !c.expired {
			c.expired = true
			if c.onExpire != nil {
				c.onExpire()
			}
		}
		return true
	}

	c.remaining = next
	return true
}
