package flourish

import "math"

// minSpringParam keeps stiffness and mass strictly positive.
const minSpringParam = 1e-6

// Spring is a damped harmonic oscillator described by its damping ratio,
// stiffness, and mass. Zeta below 1 oscillates, 1 is critically damped, and
// above 1 is overdamped.
type Spring struct {
	Zeta      float64
	Stiffness float64
	Mass      float64
}

// NewSpring returns a spring with out-of-range parameters clamped: stiffness
// and mass are kept positive and zeta non-negative. A mass of zero selects 1.
func NewSpring(zeta, stiffness, mass float64) Spring {
	if mass == 0 {
		mass = 1
	}
	return Spring{
		Zeta:      math.Max(0, zeta),
		Stiffness: math.Max(minSpringParam, stiffness),
		Mass:      math.Max(minSpringParam, mass),
	}
}

// Response is the undamped period of the spring in seconds.
func (s Spring) Response() float64 {
	return 2 * math.Pi / math.Sqrt(s.Stiffness/s.Mass)
}

// DampingCoefficient is the linear drag applied to velocity.
func (s Spring) DampingCoefficient() float64 {
	return 4 * math.Pi * s.Zeta * s.Mass / s.Response()
}

func (s Spring) delta() float64 {
	return math.Sqrt(s.Stiffness*s.Mass) * s.Zeta / s.Mass
}

func (s Spring) omega0() float64 { return math.Sqrt(s.Stiffness / s.Mass) }

func (s Spring) omega1() float64 {
	w0, d := s.omega0(), s.delta()
	return math.Sqrt(w0*w0 - d*d)
}

func (s Spring) omega2() float64 {
	w0, d := s.omega0(), s.delta()
	return math.Sqrt(d*d - w0*w0)
}

func (s Spring) period() float64 {
	return 2 * math.Pi * math.Sqrt(s.Stiffness/s.Mass)
}

// Step advances a scalar spring by dt with semi-implicit Euler integration.
func (s Spring) Step(x, v, target, dt float64) (float64, float64) {
	force := -s.Stiffness*(x-target) - s.DampingCoefficient()*v
	v += force / s.Mass * dt
	return x + v*dt, v
}

// StepSpring is Step for any Vector type.
func StepSpring[V Vector[V]](s Spring, x, v, target V, dt float64) (V, V) {
	spring := x.Sub(target).Scale(-s.Stiffness)
	damping := v.Scale(-s.DampingCoefficient())
	accel := spring.Add(damping).Scale(1 / s.Mass)
	nv := v.Add(accel.Scale(dt))
	return x.Add(nv.Scale(dt)), nv
}

// Value evaluates the closed-form trajectory of a scalar spring released at
// x0 with velocity v0, t seconds later, settling toward zero.
func (s Spring) Value(x0, v0, t float64) float64 {
	return float64(SpringValue(s, Scalar(x0), Scalar(v0), t))
}

// SpringValue is Value for any Vector type. The motion is treated as one
// dimensional along the direction of x0, or of v0 when x0 is zero.
func SpringValue[V Vector[V]](s Spring, x0, v0 V, t float64) V {
	m := math.Sqrt(x0.MagnitudeSquared())
	v := math.Sqrt(v0.MagnitudeSquared())
	var unit V
	switch {
	case m == 0 && v == 0:
		return x0
	case m == 0:
		unit = v0.Scale(1 / v)
	default:
		unit = x0.Scale(1 / m)
	}
	d := s.delta()
	e := math.Exp(-d * t)
	var disp float64
	switch {
	case s.Zeta < 1:
		w1 := s.omega1()
		disp = -e * (m*math.Cos(w1*t) + ((d*m+v)/w1)*math.Sin(w1*t))
	case s.Zeta == 1:
		disp = -e * (m + (d*m+v)*t)
	default:
		w2 := s.omega2()
		disp = -e * (m*math.Cosh(w2*t) + ((d*m+v)/w2)*math.Sinh(w2*t))
	}
	return x0.Add(unit.Scale(disp))
}

// PeakTime returns the time at which the closed-form trajectory from (x0, v0)
// reaches its first extreme, clamped to [0, 3] seconds. Springs that are not
// underdamped report 0 when released with a velocity.
func (s Spring) PeakTime(x0, v0 float64) float64 {
	if x0 == 0 && v0 == 0 {
		return 0
	}
	if s.Zeta >= 1 {
		return 0
	}
	w1 := s.omega1()
	if v0 == 0 {
		return math.Pi / w1
	}
	d := s.delta()
	m := math.Abs(x0)
	v := math.Abs(v0)
	derivative := func(t float64) float64 {
		return math.Exp(-d*t) * (-w1*v*math.Cos(w1*t) + (v*d+m*(w1*w1+d*d))*math.Sin(w1*t)) / w1
	}
	return Clamp(0, secant(derivative, 0, s.period()/(math.Pi*s.Stiffness)), 3)
}

// secant approximates a root of f starting from x0 and x1.
func secant(f func(float64) float64, x0, x1 float64) float64 {
	const (
		tolerance     = 0.01
		maxIterations = 64
	)
	xn := x1
	for i := 0; i < maxIterations; i++ {
		f0, f1 := f(x0), f(x1)
		if f1 == f0 {
			return x1
		}
		xn = x1 - f1*(x1-x0)/(f1-f0)
		x0, x1 = x1, xn
		if math.Abs(f(xn)) <= tolerance {
			break
		}
	}
	return xn
}
