package flourish

// Timer is a cancellable callback scheduled against scene time. Timers do not
// run on their own: their owner polls them from the per-frame update, so a
// timer whose owner left the tree can never fire.
type Timer struct {
	deadline float64
	period   float64
	fn       func(now float64)
	active   bool
}

// newTimer returns a timer that fires once at now+delay, or every period
// seconds after that when period > 0.
func newTimer(now, delay, period float64, fn func(now float64)) *Timer {
	return &Timer{
		deadline: now + delay,
		period:   period,
		fn:       fn,
		active:   true,
	}
}

// Cancel stops the timer. Safe to call more than once and on nil.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.active = false
	t.fn = nil
}

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool {
	return t != nil && t.active
}

// Deadline returns the next scheduled firing time.
func (t *Timer) Deadline() float64 {
	return t.deadline
}

// poll fires the timer if now has reached its deadline. Periodic timers
// advance their deadline by whole periods so firings do not drift with the
// frame rate; at most one firing happens per poll.
func (t *Timer) poll(now float64) {
	if !t.Active() || now < t.deadline {
		return
	}
	fn := t.fn
	if t.period > 0 {
		t.deadline += t.period
		if t.deadline <= now {
			t.deadline = now + t.period
		}
	} else {
		t.Cancel()
	}
	fn(now)
}
