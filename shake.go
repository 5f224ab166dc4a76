package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// oscillationSettle is the displacement and velocity below which a shake or
// wiggle with no phases left comes to rest.
const oscillationSettle = 0.01

// Shake moves the node back and forth on every change, tilting it slightly
// toward the direction of travel.
func Shake(rate Rate) ChangeEffect {
	phase := rate.phaseLength(0.8, 0.3)
	return Simulated("shake", func(ctx EffectContext) EffectRuntime {
		return &oscillationRuntime{kind: oscillateShake, phase: phase, extra: 0}
	})
}

// Wiggle rocks the node about its center on every change. Driven by a
// repeating condition it wiggles for a few more phases.
func Wiggle(rate Rate) ChangeEffect {
	phase := rate.phaseLength(0.8, 0.3)
	return Simulated("wiggle", func(ctx EffectContext) EffectRuntime {
		r := &oscillationRuntime{kind: oscillateWiggle, phase: phase}
		if ctx.Conditional {
			r.extra = 4
		}
		return r
	})
}

type oscillationKind uint8

const (
	oscillateShake oscillationKind = iota
	oscillateWiggle
)

// oscillationRuntime follows 16*sin(2*pi*count) with second-order dynamics
// while count runs down by two per phase.
type oscillationRuntime struct {
	kind  oscillationKind
	phase float64
	extra float64
	count float64
	dyn   Dynamics[Scalar]
	init  bool
}

func (r *oscillationRuntime) dynamics() *Dynamics[Scalar] {
	if !r.init {
		r.dyn = *NewDynamics(NewSecondOrderDynamics(3, 0.85, -0.2), Scalar(0))
		r.init = true
	}
	return &r.dyn
}

func (r *oscillationRuntime) target() float64 {
	return 16 * math.Sin(2*math.Pi*r.count)
}

func (r *oscillationRuntime) Impulse() {
	r.count += 2
	if r.count > 3 {
		r.count = 2 + math.Mod(r.count, 1)
	}
	r.count += r.extra
}

func (r *oscillationRuntime) Step(dt float64) bool {
	d := r.dynamics()
	d.Update(Scalar(r.target()), dt)
	r.count = math.Max(0, r.count-2*dt/r.phase)
	if r.count == 0 &&
		math.Abs(float64(d.State.Value)) < oscillationSettle &&
		math.Abs(float64(d.State.Velocity)) < oscillationSettle {
		d.Reset(0)
		return true
	}
	return false
}

func (r *oscillationRuntime) Finite() bool {
	if !r.init {
		return isFinite(r.count)
	}
	return isFinite(r.count) && vectorFinite(r.dyn.State.Value) && vectorFinite(r.dyn.State.Velocity)
}

func (r *oscillationRuntime) Reset() {
	r.count = 0
	r.dynamics().Reset(0)
}

// Displacement returns the current offset in points.
func (r *oscillationRuntime) Displacement() float64 {
	if !r.init {
		return 0
	}
	return float64(r.dyn.State.Value)
}

func (r *oscillationRuntime) transform() Transform3D {
	d := r.Displacement()
	t := NewTransform3D()
	switch r.kind {
	case oscillateShake:
		t.TRS = NewTRS(mgl64.Vec3{d, 0, -20}, degToRad(d/2), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 1})
		t.AnchorZ = -20
		t.Perspective = 1.0 / 6
	default:
		t.TRS = NewTRS(mgl64.Vec3{}, degToRad(d/2), mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 1, 1})
	}
	return t
}

func (r *oscillationRuntime) Present(p *Presentation) {
	if r.Displacement() == 0 {
		return
	}
	p.Apply(r.transform())
}
