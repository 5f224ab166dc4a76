package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultLight is the light direction used for shading: straight down the
// screen.
var DefaultLight = mgl64.Vec3{0, -1, 0}

// shadingStrength scales the light term into a brightness offset.
const shadingStrength = 0.2

// Transform3D places a TRS in a node's box. The anchor is given in unit
// coordinates of the node's size plus a depth; rotation and scale happen
// about it. Perspective is the strength of the depth divide, where 0 is
// orthographic and 1 matches a camera 100 units from the screen.
type Transform3D struct {
	TRS         TRS
	AnchorX     float64
	AnchorY     float64
	AnchorZ     float64
	Perspective float64
}

// NewTransform3D returns an identity transform anchored at the center with
// unit perspective.
func NewTransform3D() Transform3D {
	return Transform3D{TRS: IdentityTRS, AnchorX: 0.5, AnchorY: 0.5, Perspective: 1}
}

// PerspectiveMatrix returns the identity with -p/100 in row 3, column 2.
// Points with positive z are magnified after the divide.
func PerspectiveMatrix(p float64) mgl64.Mat4 {
	m := mgl64.Ident4()
	m.Set(3, 2, -p/100)
	return m
}

// Matrix composes
//
//	offset(anchor) * perspective * translation * rotation * scale * offset(anchor)^-1
//
// for a box of size w by h.
func (t Transform3D) Matrix(w, h float64) mgl64.Mat4 {
	ax, ay, az := w*t.AnchorX, h*t.AnchorY, t.AnchorZ
	offset := mgl64.Translate3D(ax, ay, az)
	inverse := mgl64.Translate3D(-ax, -ay, -az)
	return offset.Mul4(PerspectiveMatrix(t.Perspective)).Mul4(t.TRS.Matrix()).Mul4(inverse)
}

// Shading returns the brightness offset for the transformed surface lit
// from light. The normal is flipped when the surface faces away from the
// screen, so back faces are lit like front faces.
func (t Transform3D) Shading(light mgl64.Vec3) float64 {
	return ShadingFor(t.TRS.ViewNormal(), light)
}

// ShadingFor computes the brightness term for a view-space normal.
func ShadingFor(normal, light mgl64.Vec3) float64 {
	if normal.Dot(mgl64.Vec3{0, 0, 1}) >= 0 {
		return light.Dot(normal) * shadingStrength
	}
	return light.Dot(normal.Mul(-1)) * shadingStrength
}

// Project maps the local point (x, y, 0) through m and divides by w. Points
// at or behind the camera plane come back unchanged with ok false.
func Project(m mgl64.Mat4, x, y float64) (px, py float64, ok bool) {
	v := m.Mul4x1(mgl64.Vec4{x, y, 0, 1})
	if v[3] <= 1e-9 || !isFinite(v[0]) || !isFinite(v[1]) {
		return x, y, false
	}
	return v[0] / v[3], v[1] / v[3], true
}

// ProjectQuad projects the corners of a w by h box, clockwise from the
// top-left.
func ProjectQuad(m mgl64.Mat4, w, h float64) (quad [4]Vec2, ok bool) {
	corners := [4]Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}}
	ok = true
	for i, c := range corners {
		x, y, good := Project(m, c.X, c.Y)
		quad[i] = Vec2{x, y}
		ok = ok && good
	}
	return quad, ok
}

// affineFit returns the affine matrix that agrees with m at the box corners
// (0, 0), (w, 0), and (0, h). It is exact when m is affine.
func affineFit(m mgl64.Mat4, w, h float64) [6]float64 {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	x0, y0, ok0 := Project(m, 0, 0)
	x1, y1, ok1 := Project(m, w, 0)
	x2, y2, ok2 := Project(m, 0, h)
	if !ok0 || !ok1 || !ok2 {
		return identityTransform
	}
	return [6]float64{
		(x1 - x0) / w, (y1 - y0) / w,
		(x2 - x0) / h, (y2 - y0) / h,
		x0, y0,
	}
}

// SquishOffset returns the transform for a jump displacement d on a w by h
// box. Negative displacements lift the box; positive ones squash it against
// its bottom edge while keeping its area. Squashing past 20% of the height
// is rubber-banded.
func SquishOffset(d, w, h float64) mgl64.Mat4 {
	if d <= 0 || h <= 0 || w <= 0 {
		return mgl64.Translate3D(0, math.Min(d, 0), 0)
	}
	area := w * h
	newH := RubberClamp(0.8*h, h-d/3, h, DefaultRubberCoefficient)
	newW := area / newH
	sx, sy := newW/w, newH/h
	// Scale about the bottom center.
	return mgl64.Translate3D(w/2, h, 0).
		Mul4(mgl64.Scale3D(sx, sy, 1)).
		Mul4(mgl64.Translate3D(-w/2, -h, 0))
}
