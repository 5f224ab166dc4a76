package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is the set of operations an integrator needs from a value type.
// Scalar and TRS implement it so the same springs and dynamics can drive a
// single offset or a whole 3D transform.
type Vector[V any] interface {
	Add(V) V
	Sub(V) V
	Scale(float64) V
	MagnitudeSquared() float64
}

// Scalar is a float64 that satisfies Vector.
type Scalar float64

func (s Scalar) Add(o Scalar) Scalar       { return s + o }
func (s Scalar) Sub(o Scalar) Scalar       { return s - o }
func (s Scalar) Scale(f float64) Scalar    { return Scalar(float64(s) * f) }
func (s Scalar) MagnitudeSquared() float64 { return float64(s) * float64(s) }

// TRS is a translation, rotation, and scale triple. Rotation is stored as a
// quaternion and only normalized when converted to a matrix, so a TRS can be
// added, subtracted, and scaled like any other vector.
type TRS struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
	Scale3      mgl64.Vec3
}

// IdentityTRS leaves geometry untouched.
var IdentityTRS = TRS{
	Rotation: mgl64.QuatIdent(),
	Scale3:   mgl64.Vec3{1, 1, 1},
}

// NewTRS builds a TRS from a translation, a rotation angle in radians about
// axis, and a scale. A zero axis yields the identity rotation.
func NewTRS(translation mgl64.Vec3, angle float64, axis mgl64.Vec3, scale mgl64.Vec3) TRS {
	rot := mgl64.QuatIdent()
	if axis.Len() > 0 {
		rot = mgl64.QuatRotate(angle, axis.Normalize())
	}
	return TRS{Translation: translation, Rotation: rot, Scale3: scale}
}

func (t TRS) Add(o TRS) TRS {
	return TRS{
		Translation: t.Translation.Add(o.Translation),
		Rotation:    t.Rotation.Add(o.Rotation),
		Scale3:      t.Scale3.Add(o.Scale3),
	}
}

func (t TRS) Sub(o TRS) TRS {
	return TRS{
		Translation: t.Translation.Sub(o.Translation),
		Rotation:    t.Rotation.Sub(o.Rotation),
		Scale3:      t.Scale3.Sub(o.Scale3),
	}
}

func (t TRS) Scale(f float64) TRS {
	return TRS{
		Translation: t.Translation.Mul(f),
		Rotation:    t.Rotation.Scale(f),
		Scale3:      t.Scale3.Mul(f),
	}
}

func (t TRS) MagnitudeSquared() float64 {
	return t.Translation.Dot(t.Translation) +
		t.Rotation.W*t.Rotation.W + t.Rotation.V.Dot(t.Rotation.V) +
		t.Scale3.Dot(t.Scale3)
}

// Matrix returns translation * rotation * scale.
func (t TRS) Matrix() mgl64.Mat4 {
	tr := mgl64.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	rot := t.Rotation.Normalize().Mat4()
	sc := mgl64.Scale3D(t.Scale3[0], t.Scale3[1], t.Scale3[2])
	return tr.Mul4(rot).Mul4(sc)
}

// ViewNormal is the surface normal (0, 0, 1) carried through the transform.
func (t TRS) ViewNormal() mgl64.Vec3 {
	return t.Matrix().Mul4x1(mgl64.Vec4{0, 0, 1, 0}).Vec3()
}

// vectorFinite reports whether v has a finite magnitude.
func vectorFinite[V Vector[V]](v V) bool {
	m := v.MagnitudeSquared()
	return !math.IsNaN(m) && !math.IsInf(m, 0)
}
