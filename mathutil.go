package flourish

import (
	"math"

	"github.com/tanema/gween/ease"
)

// DefaultRubberCoefficient is the elasticity used by RubberClamp when the
// caller passes a coefficient of zero.
const DefaultRubberCoefficient = 0.55

// Clamp returns v limited to the closed range [lo, hi].
func Clamp(lo, v, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(0, v, 1)
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MapRange maps v from [inMin, inMax] onto [outMin, outMax] without clamping.
// A degenerate input range maps everything to outMin.
func MapRange(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)/(inMax-inMin)*(outMax-outMin)
}

// RubberClamp returns value unchanged inside [lo, hi]. Outside the range it
// returns a value that keeps moving with diminishing returns, approaching
// lo-(hi-lo) or hi+(hi-lo) but never reaching it. coeff <= 0 selects
// DefaultRubberCoefficient.
func RubberClamp(lo, value, hi, coeff float64) float64 {
	if coeff <= 0 {
		coeff = DefaultRubberCoefficient
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	clamped := Clamp(lo, value, hi)
	delta := math.Abs(clamped - value)
	if delta == 0 {
		return value
	}
	rng := hi - lo
	if rng == 0 {
		return clamped
	}
	sign := 1.0
	if clamped > value {
		sign = -1
	}
	return clamped + sign*(1-1/(delta*coeff/rng+1))*rng
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// --- Easing ---

// EaseFn maps normalized progress in [0, 1] to eased progress.
type EaseFn func(t float64) float64

// EaseLinear is the identity curve.
func EaseLinear(t float64) float64 { return t }

// EaseOutCubic decelerates toward the end.
func EaseOutCubic(t float64) float64 {
	t--
	return t*t*t + 1
}

// EaseInCubic accelerates from rest.
func EaseInCubic(t float64) float64 { return t * t * t }

// EaseInOutCubic accelerates then decelerates.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	f := 2*t - 2
	return 0.5*f*f*f + 1
}

// EaseInOutQuart is a steeper in-out curve.
func EaseInOutQuart(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	f := t - 1
	return 1 - 8*f*f*f*f
}

// EaseFunc adapts one of gween's easing functions to a unit curve.
func EaseFunc(fn ease.TweenFunc) EaseFn {
	return func(t float64) float64 {
		return float64(fn(float32(Clamp01(t)), 0, 1, 1))
	}
}

// Tween returns fn as a gween easing function.
func (fn EaseFn) Tween() ease.TweenFunc {
	return func(t, b, c, d float32) float32 {
		if d <= 0 {
			return b + c
		}
		return b + c*float32(fn(float64(t/d)))
	}
}

// EaseInOut is the standard ease-in-out timing curve.
var EaseInOut = CubicBezier(0.42, 0, 0.58, 1)

// CubicBezier returns a timing curve through (0,0), (x1,y1), (x2,y2), (1,1).
// The x control values are clamped to [0, 1] so the curve stays a function.
func CubicBezier(x1, y1, x2, y2 float64) EaseFn {
	x1 = Clamp01(x1)
	x2 = Clamp01(x2)
	if x1 == y1 && x2 == y2 {
		return EaseLinear
	}
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return bezierComponent(bezierSolveX(t, x1, x2), y1, y2)
	}
}

func bezierComponent(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

// bezierSolveX finds the curve parameter whose x equals x by bisection.
func bezierSolveX(x, x1, x2 float64) float64 {
	const (
		epsilon       = 1e-7
		maxIterations = 10
	)
	lo, hi := 0.0, 1.0
	t := x
	for i := 0; i < maxIterations; i++ {
		cx := bezierComponent(t, x1, x2) - x
		if math.Abs(cx) < epsilon {
			return t
		}
		if cx > 0 {
			hi = t
		} else {
			lo = t
		}
		t = (lo + hi) / 2
	}
	return t
}
