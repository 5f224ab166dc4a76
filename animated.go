package flourish

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// minCurveDuration keeps tweens from dividing by zero.
const minCurveDuration = 1e-3

// Curve is a fixed-length progress curve from 0 to 1.
type Curve struct {
	// Duration is in seconds.
	Duration float64
	// Ease shapes the progress. Nil is linear.
	Ease ease.TweenFunc
}

func (c Curve) tween(from, to float64) *gween.Tween {
	d := c.Duration
	if d < minCurveDuration || !isFinite(d) {
		d = minCurveDuration
	}
	fn := c.Ease
	if fn == nil {
		fn = ease.Linear
	}
	return gween.New(float32(from), float32(to), float32(d), fn)
}

// curvePlayer replays a Curve from the start on every impulse.
type curvePlayer struct {
	curve    Curve
	tween    *gween.Tween
	progress float64
	playing  bool
}

func (c *curvePlayer) Impulse() {
	c.tween = c.curve.tween(0, 1)
	c.progress = 0
	c.playing = true
}

func (c *curvePlayer) Step(dt float64) bool {
	if !c.playing {
		return true
	}
	v, done := c.tween.Update(float32(dt))
	c.progress = float64(v)
	if done {
		c.playing = false
		c.progress = 0
	}
	return done
}

func (c *curvePlayer) Finite() bool { return isFinite(c.progress) }

func (c *curvePlayer) Reset() {
	c.tween = nil
	c.progress = 0
	c.playing = false
}

// Playing reports whether the curve is between its start and end.
func (c *curvePlayer) Playing() bool { return c.playing }

// Progress returns the eased progress, or 0 when the curve is not playing.
func (c *curvePlayer) Progress() float64 { return c.progress }

// Animate returns an animated change effect that plays curve on every
// accepted change and hands the eased progress to present while it plays.
func Animate(name string, curve Curve, present func(p *Presentation, progress float64)) ChangeEffect {
	return Animated(name, func(EffectContext) EffectRuntime {
		return &curveRuntime{curvePlayer: curvePlayer{curve: curve}, present: present}
	})
}

type curveRuntime struct {
	curvePlayer
	present func(p *Presentation, progress float64)
}

func (r *curveRuntime) Present(p *Presentation) {
	if r.playing && r.present != nil {
		r.present(p, r.progress)
	}
}

// tweenValue eases a value toward a target that may change at any time.
// Retargeting starts a new tween from wherever the value is.
type tweenValue struct {
	curve  Curve
	tween  *gween.Tween
	value  float64
	target float64
}

// SetTarget starts easing toward to. It reports whether anything changed.
func (t *tweenValue) SetTarget(to float64) bool {
	if to == t.target && t.tween == nil {
		return false
	}
	t.target = to
	t.tween = t.curve.tween(t.value, to)
	return true
}

func (t *tweenValue) Step(dt float64) bool {
	if t.tween == nil {
		return true
	}
	v, done := t.tween.Update(float32(dt))
	t.value = float64(v)
	if done {
		t.value = t.target
		t.tween = nil
	}
	return done
}

func (t *tweenValue) Finite() bool { return isFinite(t.value) }

// Reset jumps to the target.
func (t *tweenValue) Reset() {
	t.value = t.target
	t.tween = nil
}

// Value returns the current value.
func (t *tweenValue) Value() float64 { return t.value }
