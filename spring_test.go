package flourish

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewSpringClamps(t *testing.T) {
	s := NewSpring(-1, 0, 0)
	if s.Zeta != 0 {
		t.Errorf("Zeta = %v, want 0", s.Zeta)
	}
	if s.Stiffness != minSpringParam {
		t.Errorf("Stiffness = %v, want %v", s.Stiffness, minSpringParam)
	}
	if s.Mass != 1 {
		t.Errorf("Mass = %v, want 1", s.Mass)
	}
	if s := NewSpring(1, 5, -2); s.Mass != minSpringParam {
		t.Errorf("negative mass = %v, want %v", s.Mass, minSpringParam)
	}
}

func TestSpringDampingCoefficient(t *testing.T) {
	// Critical damping for k=100, m=1 is 2*sqrt(k*m) = 20.
	s := NewSpring(1, 100, 1)
	if got := s.DampingCoefficient(); !approx(got, 20, 1e-9) {
		t.Errorf("DampingCoefficient = %v, want 20", got)
	}
}

func TestSpringStepSettles(t *testing.T) {
	for _, zeta := range []float64{0.3, 1, 2} {
		s := NewSpring(zeta, 100, 1)
		x, v := 1.0, 0.0
		for range 600 {
			x, v = s.Step(x, v, 0, 1.0/60)
		}
		if math.Abs(x) > 1e-3 || math.Abs(v) > 1e-3 {
			t.Errorf("zeta %v: x=%v v=%v after 10s, want rest", zeta, x, v)
		}
	}
}

func TestSpringStepFixedPoint(t *testing.T) {
	s := NewSpring(1.0/3, 100, 1)
	for _, dt := range []float64{0, 1.0 / 120, 1.0 / 60, 0.1, 1} {
		for _, x := range []float64{0, 5, -37.5} {
			if gx, gv := s.Step(x, 0, x, dt); gx != x || gv != 0 {
				t.Errorf("Step(%v, 0, %v, %v) = (%v, %v)", x, x, dt, gx, gv)
			}
		}
	}
}

// unitStep drives a spring from 0 toward 1 at 60 Hz for 10s and returns its
// overshoot and the first time it reached 90%.
func unitStep(s Spring) (overshoot, t90 float64) {
	x, v := 0.0, 0.0
	highest := 0.0
	t90 = -1
	for i := 1; i <= 600; i++ {
		x, v = s.Step(x, v, 1, 1.0/60)
		highest = math.Max(highest, x)
		if t90 < 0 && x >= 0.9 {
			t90 = float64(i) / 60
		}
	}
	return highest - 1, t90
}

func TestSpringUnitStepResponse(t *testing.T) {
	critical, criticalT90 := unitStep(NewSpring(1, 100, 1))
	if critical > 1e-6 {
		t.Errorf("critically damped overshoot = %v, want ~0", critical)
	}
	if under, _ := unitStep(NewSpring(1.0/3, 100, 1)); under < 0.1 {
		t.Errorf("zeta 1/3 overshoot = %v, want a visible overshoot", under)
	}
	_, overT90 := unitStep(NewSpring(2, 100, 1))
	if criticalT90 < 0 || overT90 <= criticalT90 {
		t.Errorf("90%% reached at %vs overdamped, %vs critical", overT90, criticalT90)
	}
}

func TestSpringUnderdampedOvershoots(t *testing.T) {
	s := NewSpring(0.2, 100, 1)
	x, v := 1.0, 0.0
	lowest := x
	for range 120 {
		x, v = s.Step(x, v, 0, 1.0/60)
		lowest = math.Min(lowest, x)
	}
	if lowest >= 0 {
		t.Errorf("underdamped spring never crossed its target, lowest %v", lowest)
	}
}

func TestStepSpringMatchesScalar(t *testing.T) {
	s := NewSpring(0.5, 40, 2)
	x, v := 3.0, -1.0
	vx, vv := Scalar(3), Scalar(-1)
	for range 30 {
		x, v = s.Step(x, v, 1, 1.0/60)
		vx, vv = StepSpring(s, vx, vv, Scalar(1), 1.0/60)
	}
	if !approx(float64(vx), x, epsilon) || !approx(float64(vv), v, epsilon) {
		t.Errorf("generic step (%v, %v) != scalar (%v, %v)", vx, vv, x, v)
	}
}

func TestStepSpringTRS(t *testing.T) {
	s := NewSpring(1, 100, 1)
	x := NewTRS(mgl64.Vec3{10, 0, 0}, 0, mgl64.Vec3{}, mgl64.Vec3{2, 2, 2})
	var v TRS
	for range 600 {
		x, v = StepSpring(s, x, v, IdentityTRS, 1.0/60)
	}
	if d := x.Sub(IdentityTRS).MagnitudeSquared(); d > 1e-6 {
		t.Errorf("TRS distance from identity = %v after settling", d)
	}
}

func TestSpringValueAtRest(t *testing.T) {
	s := NewSpring(0.5, 100, 1)
	if got := s.Value(0, 0, 1); got != 0 {
		t.Errorf("Value(0, 0) = %v, want 0", got)
	}
}

func TestSpringValueDecays(t *testing.T) {
	for _, zeta := range []float64{0.3, 1, 2} {
		s := NewSpring(zeta, 100, 1)
		if got := s.Value(0, 1, 10); math.Abs(got) > 1e-6 {
			t.Errorf("zeta %v: Value after 10s = %v, want ~0", zeta, got)
		}
	}
}

func TestSpringPeakTime(t *testing.T) {
	s := NewSpring(1.0/3, 100, 1)
	if got := s.PeakTime(0, 0); got != 0 {
		t.Errorf("PeakTime at rest = %v, want 0", got)
	}
	if got := NewSpring(1, 100, 1).PeakTime(0, 1); got != 0 {
		t.Errorf("critically damped PeakTime = %v, want 0", got)
	}
	if got, want := s.PeakTime(1, 0), math.Pi/s.omega1(); got != want {
		t.Errorf("PeakTime(1, 0) = %v, want %v", got, want)
	}

	// The peak of a launch is an extreme of the trajectory.
	pt := s.PeakTime(0, 1)
	if pt <= 0 || pt > 3 {
		t.Fatalf("PeakTime(0, 1) = %v", pt)
	}
	peak := math.Abs(s.Value(0, 1, pt))
	for _, dt := range []float64{-0.03, 0.03} {
		if other := math.Abs(s.Value(0, 1, pt+dt)); other > peak*1.01 {
			t.Errorf("|Value| at %v = %v exceeds peak %v", pt+dt, other, peak)
		}
	}
}

// ---- Second-order dynamics -------------------------------------------------

func TestSecondOrderDynamicsCoefficients(t *testing.T) {
	d := NewSecondOrderDynamics(1, 0.5, 2)
	if !approx(d.K1, 0.5/math.Pi, epsilon) {
		t.Errorf("K1 = %v", d.K1)
	}
	if !approx(d.K2, 1/(4*math.Pi*math.Pi), epsilon) {
		t.Errorf("K2 = %v", d.K2)
	}
	if !approx(d.K3, 2*0.5/(2*math.Pi), epsilon) {
		t.Errorf("K3 = %v", d.K3)
	}
	if DefaultDynamics() != d {
		t.Error("DefaultDynamics should be f=1 zeta=0.5 r=2")
	}
	if z := NewSecondOrderDynamics(0, 1, 0); math.IsInf(z.K1, 0) || math.IsNaN(z.K1) {
		t.Error("zero frequency should be clamped")
	}
}

func TestStableK2(t *testing.T) {
	d := NewSecondOrderDynamics(20, 0.1, 0)
	if got := d.StableK2(1.0 / 60); got < d.K2 {
		t.Errorf("StableK2 = %v below K2 %v", got, d.K2)
	}
	big := d.StableK2(1)
	if want := 1.1 * (0.25 + d.K1/2); !approx(big, want, epsilon) {
		t.Errorf("StableK2(1) = %v, want %v", big, want)
	}
}

func TestStableK2KeepsDynamicsBounded(t *testing.T) {
	for _, f := range []float64{1, 2.5, 5, 10} {
		for _, zeta := range []float64{0.1, 0.5, 1, 2} {
			for _, r := range []float64{-2, 0, 2} {
				for _, dt := range []float64{1.0 / 120, 1.0 / 60, 1.0 / 30, 1.0 / 15} {
					d := NewDynamics(NewSecondOrderDynamics(f, zeta, r), Scalar(0))
					var v Scalar
					for range int(math.Round(10 / dt)) {
						v = d.Update(1, dt)
						if math.Abs(float64(v)) > 10 {
							t.Fatalf("f=%v zeta=%v r=%v dt=%v: diverged to %v", f, zeta, r, dt, v)
						}
					}
					if math.Abs(float64(v)-1) > 0.05 {
						t.Errorf("f=%v zeta=%v r=%v dt=%v: ended at %v, want 1", f, zeta, r, dt, v)
					}
				}
			}
		}
	}
}

func TestDynamicsFollowsTarget(t *testing.T) {
	d := NewDynamics(NewSecondOrderDynamics(2, 1, 0), Scalar(0))
	var v Scalar
	for range 600 {
		v = d.Update(10, 1.0/60)
	}
	if !approx(float64(v), 10, 1e-3) {
		t.Errorf("value = %v after 10s, want 10", v)
	}
}

func TestDynamicsAnticipation(t *testing.T) {
	d := NewDynamics(NewSecondOrderDynamics(2, 1, -1), Scalar(0))
	d.Update(10, 1.0/60)
	v := d.Update(10, 1.0/60)
	if v >= 0 {
		t.Errorf("negative response should start away from the target, got %v", v)
	}
}

func TestStepDynamicsIgnoresNonPositiveDt(t *testing.T) {
	st := DynamicsState[Scalar]{Value: 3, Velocity: 1, PreviousTarget: 2}
	if got := StepDynamics(DefaultDynamics(), st, 5, 0); got != st {
		t.Errorf("dt=0 changed state: %+v", got)
	}
}

func TestDynamicsReset(t *testing.T) {
	d := NewDynamics(DefaultDynamics(), Scalar(0))
	d.Update(5, 1.0/60)
	d.Reset(2)
	want := DynamicsState[Scalar]{Value: 2, PreviousTarget: 2}
	if d.State != want {
		t.Errorf("State = %+v, want %+v", d.State, want)
	}
}

// ---- Vector types ----------------------------------------------------------

func TestTRSArithmetic(t *testing.T) {
	a := NewTRS(mgl64.Vec3{1, 2, 3}, 0, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
	b := a.Add(a).Sub(a)
	if b.Sub(a).MagnitudeSquared() > epsilon {
		t.Errorf("a+a-a = %+v, want %+v", b, a)
	}
	half := a.Scale(0.5)
	if half.Translation != (mgl64.Vec3{0.5, 1, 1.5}) {
		t.Errorf("Scale translation = %v", half.Translation)
	}
}

func TestTRSMatrix(t *testing.T) {
	trs := NewTRS(mgl64.Vec3{10, 20, 0}, math.Pi/2, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{2, 2, 1})
	p := trs.Matrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	// Scale to (2,0), rotate to (0,2), translate to (10,22).
	if !approx(p[0], 10, 1e-9) || !approx(p[1], 22, 1e-9) {
		t.Errorf("point = %v, want (10, 22)", p)
	}
}

func TestTRSZeroAxisIsIdentityRotation(t *testing.T) {
	trs := NewTRS(mgl64.Vec3{}, 1, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
	if trs.Rotation != mgl64.QuatIdent() {
		t.Errorf("Rotation = %v, want identity", trs.Rotation)
	}
}

func TestTRSUnnormalizedRotation(t *testing.T) {
	// A scaled quaternion still describes a pure rotation.
	trs := IdentityTRS
	trs.Rotation = trs.Rotation.Scale(3)
	if !trs.Matrix().ApproxEqualThreshold(mgl64.Ident4(), 1e-9) {
		t.Errorf("Matrix = %v, want identity", trs.Matrix())
	}
}

func TestVectorFinite(t *testing.T) {
	if !vectorFinite(Scalar(3)) {
		t.Error("3 should be finite")
	}
	if vectorFinite(Scalar(math.NaN())) {
		t.Error("NaN should not be finite")
	}
	trs := IdentityTRS
	trs.Translation[0] = math.Inf(1)
	if vectorFinite(trs) {
		t.Error("infinite translation should not be finite")
	}
}
