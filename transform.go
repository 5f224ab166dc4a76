package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Affine matrices are stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform returns the node's local matrix: the pivot moved to
// the origin, then scale, rotation, and finally the position.
func computeLocalTransform(n *Node) [6]float64 {
	sin, cos := math.Sincos(n.Rotation)
	a, b := cos*n.ScaleX, sin*n.ScaleX
	c, d := -sin*n.ScaleY, cos*n.ScaleY
	return [6]float64{a, b, c, d, n.X - a*n.PivotX - c*n.PivotY, n.Y - b*n.PivotX - d*n.PivotY}
}

func affineMat3(m [6]float64) mgl64.Mat3 {
	return mgl64.Mat3{m[0], m[1], 0, m[2], m[3], 0, m[4], m[5], 1}
}

func mat3Affine(m mgl64.Mat3) [6]float64 {
	return [6]float64{m[0], m[1], m[3], m[4], m[6], m[7]}
}

// multiplyAffine returns parent * child.
func multiplyAffine(parent, child [6]float64) [6]float64 {
	return mat3Affine(affineMat3(parent).Mul3(affineMat3(child)))
}

// invertAffine returns the inverse of m, or the identity when m collapses
// the plane.
func invertAffine(m [6]float64) [6]float64 {
	if math.Abs(m[0]*m[3]-m[1]*m[2]) < 1e-12 {
		return identityTransform
	}
	return mat3Affine(affineMat3(m).Inv())
}

func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// affineGeoM converts an affine matrix to an ebiten.GeoM.
func affineGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// translateAffine returns m with a local translation by (x, y) appended.
func translateAffine(m [6]float64, x, y float64) [6]float64 {
	return multiplyAffine(m, [6]float64{1, 0, 0, 1, x, y})
}

// worldAABB returns the axis-aligned bounds of a w*h rectangle at the local
// origin carried through m.
func worldAABB(m [6]float64, w, h float64) Rect {
	x0, y0 := transformPoint(m, 0, 0)
	x1, y1 := transformPoint(m, w, 0)
	x2, y2 := transformPoint(m, w, h)
	x3, y3 := transformPoint(m, 0, h)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// updateWorldTransform recomputes world transforms for a subtree, including
// each node's current effect transform. Used by Update so that bounds are
// valid before effects read them.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentAlpha float64) {
	local := computeLocalTransform(n)
	n.worldTransform = multiplyAffine(parentTransform, local)
	n.worldAlpha = parentAlpha * n.Alpha
	childTransform := n.worldTransform
	if len(n.effects) > 0 {
		childTransform = multiplyAffine(n.worldTransform, n.effectAffine())
	}
	for _, child := range n.children {
		updateWorldTransform(child, childTransform, n.worldAlpha)
	}
}

// --- Transform property setters ---

// SetPosition sets the node's local X and Y.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
}

// SetScale sets the node's ScaleX and ScaleY.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
}

// SetRotation sets the node's rotation (in radians).
func (n *Node) SetRotation(r float64) {
	n.Rotation = r
}

// SetPivot sets the node's PivotX and PivotY.
func (n *Node) SetPivot(px, py float64) {
	n.PivotX = px
	n.PivotY = py
}

// SetAlpha sets the node's alpha.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.worldTransform, lx, ly)
}

// WorldBounds returns the node's layout rectangle in world space as of the
// last update or draw.
func (n *Node) WorldBounds() Rect {
	sz := n.Size()
	return worldAABB(n.worldTransform, sz.X, sz.Y)
}
