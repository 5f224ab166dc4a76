package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpinRate sets how fast a spin starts, how fast it may get, and how much
// every further change adds. Velocities are in degrees per second.
type SpinRate struct {
	Initial    float64
	Maximum    float64
	Additional float64
}

var (
	SpinRateDefault = SpinRate{Initial: 360, Maximum: 720, Additional: 360}
	SpinRateFast    = SpinRate{Initial: 900, Maximum: 1440, Additional: 900}
)

// Spin thresholds in degrees and degrees per second.
const (
	spinFreeVelocity = 240
	spinRestVelocity = 10
	spinSettle       = 0.04
	maxSpinBoost     = 0.98
)

// spinLight sits above and to the left of the screen.
var spinLight = mgl64.Vec3{-0.5, -1, 0}

// SpinConfig configures a Spin effect. The zero value spins about the
// vertical axis through the center at the default rate.
type SpinConfig struct {
	// Axis defaults to (0, 1, 0).
	Axis mgl64.Vec3
	// Anchor is a unit point in the node's box. Nil selects the center.
	Anchor *Vec2
	// AnchorZ moves the pivot off the screen plane.
	AnchorZ float64
	// Perspective defaults to 1/6. Negative values disable it.
	Perspective float64
	// Boost shortens the free spin, which keeps 0.99-Boost of its velocity
	// every sixtieth of a second. It is clamped to [0, maxSpinBoost].
	Boost float64
	// Rate defaults to SpinRateDefault.
	Rate SpinRate
}

func (c SpinConfig) withDefaults() SpinConfig {
	if c.Axis.Len() == 0 {
		c.Axis = mgl64.Vec3{0, 1, 0}
	}
	if c.Anchor == nil {
		c.Anchor = &Vec2{0.5, 0.5}
	}
	switch {
	case c.Perspective == 0:
		c.Perspective = 1.0 / 6
	case c.Perspective < 0:
		c.Perspective = 0
	}
	if c.Rate == (SpinRate{}) {
		c.Rate = SpinRateDefault
	}
	c.Boost = Clamp(0, c.Boost, maxSpinBoost)
	return c
}

// Spin turns the node about an axis on every change. Fast spins coast
// freely and then spring onto the next full turn. The node is shaded as it
// turns away from the light.
func Spin(cfg SpinConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Simulated("spin", func(EffectContext) EffectRuntime {
		return &spinRuntime{cfg: cfg}
	})
}

var spinSpring = NewSpring(0.5, 7, 1)

type spinRuntime struct {
	cfg    SpinConfig
	angle  float64
	vel    float64
	target float64
}

func (r *spinRuntime) Impulse() {
	if r.vel <= spinRestVelocity {
		r.vel = r.cfg.Rate.Initial
	} else {
		r.vel += r.cfg.Rate.Additional
	}
	r.vel = math.Min(r.vel, r.cfg.Rate.Maximum)
}

func (r *spinRuntime) Step(dt float64) bool {
	var x, v float64
	if math.Abs(r.vel) > spinFreeVelocity {
		x = r.angle + r.vel*dt
		v = r.vel * math.Pow(0.99-r.cfg.Boost, dt*60)
		r.target = math.Ceil(r.angle/360) * 360
	} else {
		x, v = spinSpring.Step(r.angle, r.vel, r.target, dt)
	}
	r.angle, r.vel = x, v
	if math.Abs(x-r.target) < spinSettle && math.Abs(v) < spinSettle {
		// Keep the resting angle small; whole turns look the same.
		r.angle = 0
		r.target = 0
		r.vel = 0
		return true
	}
	return false
}

func (r *spinRuntime) Finite() bool {
	return isFinite(r.angle) && isFinite(r.vel) && isFinite(r.target)
}

func (r *spinRuntime) Reset() {
	r.angle, r.vel, r.target = 0, 0, 0
}

// transform returns the 3D placement for the current angle.
func (r *spinRuntime) transform() Transform3D {
	return Transform3D{
		TRS: NewTRS(
			mgl64.Vec3{0, 0, r.cfg.AnchorZ},
			degToRad(r.angle),
			r.cfg.Axis,
			mgl64.Vec3{1, 1, 1},
		),
		AnchorX:     r.cfg.Anchor.X,
		AnchorY:     r.cfg.Anchor.Y,
		AnchorZ:     r.cfg.AnchorZ,
		Perspective: r.cfg.Perspective,
	}
}

func (r *spinRuntime) Present(p *Presentation) {
	if r.angle == 0 {
		return
	}
	t := r.transform()
	p.Apply(t)
	p.Brightness += t.Shading(spinLight)
}
