package flourish

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// continuousSettle is the distance and speed below which a ContinuousSpring
// rests.
const continuousSettle = 1e-3

// ContinuousSpring follows a target that may change at any time, with the
// response and damping of an interactive spring. Response is the period in
// seconds.
type ContinuousSpring struct {
	Response float64
	Damping  float64

	value, vel, target float64

	spring   harmonica.Spring
	springDt float64
	springW  float64
	springZ  float64
}

// NewContinuousSpring returns a spring resting at value.
func NewContinuousSpring(value, response, damping float64) *ContinuousSpring {
	return &ContinuousSpring{Response: response, Damping: damping, value: value, target: value}
}

// SetTarget moves the rest point.
func (s *ContinuousSpring) SetTarget(target float64) { s.target = target }

// Value returns the current position.
func (s *ContinuousSpring) Value() float64 { return s.value }

// Target returns the rest point.
func (s *ContinuousSpring) Target() float64 { return s.target }

// Step advances by dt and reports whether the spring is at rest.
func (s *ContinuousSpring) Step(dt float64) bool {
	if dt > 0 {
		w := 2 * math.Pi / math.Max(s.Response, minCurveDuration)
		if dt != s.springDt || w != s.springW || s.Damping != s.springZ {
			s.spring = harmonica.NewSpring(dt, w, s.Damping)
			s.springDt, s.springW, s.springZ = dt, w, s.Damping
		}
		s.value, s.vel = s.spring.Update(s.value, s.vel, s.target)
	}
	if math.Abs(s.value-s.target) < continuousSettle && math.Abs(s.vel) < continuousSettle {
		s.value, s.vel = s.target, 0
		return true
	}
	return false
}

// Finite reports whether the state is made of real numbers.
func (s *ContinuousSpring) Finite() bool { return isFinite(s.value) && isFinite(s.vel) }

// Reset jumps to the target.
func (s *ContinuousSpring) Reset() {
	s.value, s.vel = s.target, 0
}

// Push-down spring parameters.
const (
	pushDownScale           = 0.95
	pushDownPressResponse   = 0.2
	pushDownReleaseResponse = 0.3
	pushDownDamping         = 0.4
)

// PushDown shrinks the node slightly while its condition holds, like a
// pressed button.
func PushDown() ConditionalEffect {
	return Continuous("push-down", func(EffectContext) ContinuousRuntime {
		return &pushDownRuntime{spring: NewContinuousSpring(1, pushDownReleaseResponse, pushDownDamping)}
	})
}

type pushDownRuntime struct {
	spring *ContinuousSpring
}

func (r *pushDownRuntime) SetActive(active bool) {
	if active {
		r.spring.Response = pushDownPressResponse
		r.spring.SetTarget(pushDownScale)
	} else {
		r.spring.Response = pushDownReleaseResponse
		r.spring.SetTarget(1)
	}
}

func (r *pushDownRuntime) Impulse()             {}
func (r *pushDownRuntime) Step(dt float64) bool { return r.spring.Step(dt) }
func (r *pushDownRuntime) Finite() bool         { return r.spring.Finite() }
func (r *pushDownRuntime) Reset()               { r.spring.Reset() }

func (r *pushDownRuntime) Present(p *Presentation) {
	s := r.spring.Value()
	if s == 1 {
		return
	}
	t := NewTransform3D()
	t.TRS.Scale3 = mgl64.Vec3{s, s, 1}
	t.Perspective = 0
	p.Apply(t)
}
