package flourish

import "math"

// MinRepeatInterval is the shortest period a repeating trigger will run at.
const MinRepeatInterval = 1.0 / 15

// ImpulseCounter is the only signal passed from a trigger to a driver. Any
// number of increments between two frames reads as a single change.
type ImpulseCounter struct {
	n uint64
}

// Increment records one accepted trigger.
func (c *ImpulseCounter) Increment() { c.n++ }

// Count returns the number of increments so far.
func (c *ImpulseCounter) Count() uint64 { return c.n }

// ChangeTrigger turns changes of an observed value into impulses. A change is
// accepted when the enable predicate holds for the new value and the cooldown
// since the last acceptance has elapsed. Rejected changes are dropped, never
// queued.
//
// With a delay, the check runs when the delay expires and is made against the
// value observed at that moment, compared with the value that preceded the
// change. Rapid toggling inside the delay window can therefore skip a change
// or accept it twice.
type ChangeTrigger[V comparable] struct {
	Counter  ImpulseCounter
	Cooldown float64
	Delay    float64
	Enabled  func(V) bool

	current    V
	lastAccept float64
	accepted   bool
	pending    []*Timer
}

// NewChangeTrigger returns a trigger that starts out observing initial.
func NewChangeTrigger[V comparable](initial V, cooldown, delay float64) *ChangeTrigger[V] {
	return &ChangeTrigger[V]{
		Cooldown: math.Max(0, cooldown),
		Delay:    math.Max(0, delay),
		current:  initial,
	}
}

// Value returns the most recently observed value.
func (t *ChangeTrigger[V]) Value() V {
	return t.current
}

// Observe feeds a new value seen at time now. It reports whether an impulse
// was emitted immediately; delayed checks report through the counter later.
func (t *ChangeTrigger[V]) Observe(v V, now float64) bool {
	if v == t.current {
		return false
	}
	prev := t.current
	t.current = v
	if t.Delay <= 0 {
		return t.apply(prev, v, now)
	}
	t.pending = append(t.pending, newTimer(now, t.Delay, 0, func(fireNow float64) {
		t.apply(prev, t.current, fireNow)
	}))
	return false
}

// Tick fires any delayed checks that are due.
func (t *ChangeTrigger[V]) Tick(now float64) {
	if len(t.pending) == 0 {
		return
	}
	live := t.pending[:0]
	for _, tm := range t.pending {
		tm.poll(now)
		if tm.Active() {
			live = append(live, tm)
		}
	}
	clear(t.pending[len(live):])
	t.pending = live
}

// Pending returns the number of delayed checks not yet fired.
func (t *ChangeTrigger[V]) Pending() int {
	return len(t.pending)
}

// Cancel drops every scheduled delayed check.
func (t *ChangeTrigger[V]) Cancel() {
	for _, tm := range t.pending {
		tm.Cancel()
	}
	clear(t.pending)
	t.pending = t.pending[:0]
}

func (t *ChangeTrigger[V]) apply(prev, v V, now float64) bool {
	if v == prev {
		return false
	}
	if t.Enabled != nil && !t.Enabled(v) {
		return false
	}
	if t.accepted && now-t.lastAccept < t.Cooldown {
		return false
	}
	t.accepted = true
	t.lastAccept = now
	t.Counter.Increment()
	return true
}

// RepeatTrigger emits an impulse every interval seconds while active. The
// first impulse comes one interval after activation, or after Delay when a
// delay is set. Intervals at or below zero disable the trigger; positive
// intervals are raised to MinRepeatInterval.
type RepeatTrigger struct {
	Counter ImpulseCounter
	Delay   float64

	interval float64
	active   bool
	timer    *Timer
}

// NewRepeatTrigger returns an inactive repeating trigger.
func NewRepeatTrigger(interval, delay float64) *RepeatTrigger {
	return &RepeatTrigger{interval: interval, Delay: math.Max(0, delay)}
}

// Interval returns the effective period.
func (r *RepeatTrigger) Interval() float64 {
	return math.Max(MinRepeatInterval, r.interval)
}

// Enabled reports whether the trigger is active with a usable interval.
func (r *RepeatTrigger) Enabled() bool {
	return r.active && r.interval > 0
}

// Running reports whether a timer is currently scheduled.
func (r *RepeatTrigger) Running() bool {
	return r.timer.Active()
}

// SetActive starts or pauses the trigger at time now. Pausing cancels the
// pending firing immediately.
func (r *RepeatTrigger) SetActive(active bool, now float64) {
	if r.active == active {
		return
	}
	r.active = active
	if r.Enabled() {
		r.resume(now)
	} else {
		r.pause()
	}
}

// SetInterval changes the period and restarts the schedule when enabled.
func (r *RepeatTrigger) SetInterval(interval, now float64) {
	if interval == r.interval {
		return
	}
	r.interval = interval
	if r.Enabled() {
		r.resume(now)
	} else {
		r.pause()
	}
}

// Tick fires the timer when due.
func (r *RepeatTrigger) Tick(now float64) {
	r.timer.poll(now)
}

// Cancel stops the trigger without changing its active flag.
func (r *RepeatTrigger) Cancel() {
	r.pause()
}

func (r *RepeatTrigger) resume(now float64) {
	r.pause()
	first := r.Interval()
	if r.Delay > 0 {
		first = r.Delay
	}
	r.timer = newTimer(now, first, r.Interval(), r.fire)
}

func (r *RepeatTrigger) pause() {
	r.timer.Cancel()
	r.timer = nil
}

func (r *RepeatTrigger) fire(float64) {
	r.Counter.Increment()
}
