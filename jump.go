package flourish

import "math"

// jumpSettle is the displacement and velocity below which a jump lands.
const jumpSettle = 0.04

// hangtimeHeight is the jump height above which time slows near the peak.
const hangtimeHeight = 32

// jumpSubstep is the longest interval integrated in one go. The launch
// velocity comes from the closed-form peak, which the integrator only
// matches at fine steps.
const jumpSubstep = 1.0 / 120

// Jump makes the node jump vertically by height points on every change and
// squash against the ground when it lands. A change that arrives while the
// node is falling from high up is buffered and fires on landing.
func Jump(height float64) ChangeEffect {
	height = clampNonNegative(height)
	return Simulated("jump", func(EffectContext) EffectRuntime {
		return newJumpRuntime(height)
	})
}

// jumpSpring is underdamped so the first overshoot can serve as the peak.
var jumpSpring = NewSpring(1.0/3, 100, 1)

type jumpRuntime struct {
	height   float64
	launch   float64
	disp     float64
	vel      float64
	buffered bool
}

func newJumpRuntime(height float64) *jumpRuntime {
	peakTime := jumpSpring.PeakTime(0, 1)
	peak := jumpSpring.Value(0, 1, peakTime)
	r := &jumpRuntime{height: height}
	if peak != 0 {
		r.launch = -(height / peak)
	}
	return r
}

func (r *jumpRuntime) Impulse() {
	switch {
	case r.disp > -10:
		r.vel = Clamp(-2*r.launch, -r.launch, 2*r.launch)
	case r.vel < 0:
		r.buffered = true
	}
}

func (r *jumpRuntime) Step(dt float64) bool {
	n := max(1, int(math.Ceil(dt/jumpSubstep-1e-9)))
	h := dt / float64(n)
	for range n {
		r.substep(h)
	}
	if math.Abs(r.disp) < jumpSettle && math.Abs(r.vel) < jumpSettle {
		r.disp, r.vel = 0, 0
		return true
	}
	return false
}

func (r *jumpRuntime) substep(dt float64) {
	speed := 1.0
	if r.height > hangtimeHeight {
		speed = 1 - 0.8*Clamp01(-r.disp/r.height)
	}
	x, v := jumpSpring.Step(r.disp, r.vel, 0, dt*speed)
	if r.disp < 0 && x >= 0 && r.buffered {
		v -= r.launch
		r.buffered = false
	}
	r.disp, r.vel = x, v
}

func (r *jumpRuntime) Finite() bool { return isFinite(r.disp) && isFinite(r.vel) }

func (r *jumpRuntime) Reset() {
	r.disp, r.vel = 0, 0
	r.buffered = false
}

// Displacement returns the current vertical offset; negative is up.
func (r *jumpRuntime) Displacement() float64 { return r.disp }

func (r *jumpRuntime) Present(p *Presentation) {
	if r.disp == 0 {
		return
	}
	p.Transform(SquishOffset(r.disp, p.Width, p.Height))
}
