package flourish

import "math"

// SecondOrderDynamics holds the coefficients of a second-order system that
// follows a moving target with a configurable frequency, damping, and
// initial response.
type SecondOrderDynamics struct {
	K1, K2, K3 float64
}

// NewSecondOrderDynamics derives coefficients from the natural frequency f in
// hertz, the damping ratio zeta, and the initial response r. Negative r
// anticipates the motion, r above 1 overshoots it. Frequencies at or below
// zero are clamped to a small positive value.
func NewSecondOrderDynamics(f, zeta, r float64) SecondOrderDynamics {
	f = math.Max(f, 1e-3)
	return SecondOrderDynamics{
		K1: zeta / (math.Pi * f),
		K2: 1 / math.Pow(2*math.Pi*f, 2),
		K3: r * zeta / (2 * math.Pi * f),
	}
}

// DefaultDynamics uses f=1, zeta=0.5, r=2.
func DefaultDynamics() SecondOrderDynamics {
	return NewSecondOrderDynamics(1, 0.5, 2)
}

// StableK2 returns K2 raised just enough to keep a step of dt stable.
func (d SecondOrderDynamics) StableK2(dt float64) float64 {
	return math.Max(d.K2, 1.1*(dt*dt/4+dt*d.K1/2))
}

// DynamicsState is the evolving part of a second-order system.
type DynamicsState[V Vector[V]] struct {
	Value          V
	Velocity       V
	PreviousTarget V
}

// StepDynamics advances state toward target by dt and returns the new state.
// A non-positive dt returns st unchanged.
func StepDynamics[V Vector[V]](d SecondOrderDynamics, st DynamicsState[V], target V, dt float64) DynamicsState[V] {
	if dt <= 0 {
		return st
	}
	targetVelocity := target.Sub(st.PreviousTarget).Scale(1 / dt)
	k2 := d.StableK2(dt)
	value := st.Value.Add(st.Velocity.Scale(dt))
	accel := target.Add(targetVelocity.Scale(d.K3)).Sub(value).Sub(st.Velocity.Scale(d.K1)).Scale(1 / k2)
	return DynamicsState[V]{
		Value:          value,
		Velocity:       st.Velocity.Add(accel.Scale(dt)),
		PreviousTarget: target,
	}
}

// Dynamics is a stateful second-order follower.
type Dynamics[V Vector[V]] struct {
	SecondOrderDynamics
	State DynamicsState[V]
}

// NewDynamics returns a follower resting at x0.
func NewDynamics[V Vector[V]](coeffs SecondOrderDynamics, x0 V) *Dynamics[V] {
	var zero V
	return &Dynamics[V]{
		SecondOrderDynamics: coeffs,
		State:               DynamicsState[V]{Value: x0, Velocity: zero, PreviousTarget: x0},
	}
}

// Update advances toward target and returns the new value.
func (d *Dynamics[V]) Update(target V, dt float64) V {
	d.State = StepDynamics(d.SecondOrderDynamics, d.State, target, dt)
	return d.State.Value
}

// Reset places the follower at rest on x.
func (d *Dynamics[V]) Reset(x V) {
	d.State = DynamicsState[V]{Value: x, Velocity: x.Sub(x), PreviousTarget: x}
}
