package flourish

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func affineNear(a, b [6]float64) bool {
	for i := range a {
		if !approx(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}

func TestComputeLocalTransform(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *Node)
		want  [6]float64
	}{
		{"identity", func(*Node) {}, identityTransform},
		{"translate", func(n *Node) { n.SetPosition(10, 20) }, [6]float64{1, 0, 0, 1, 10, 20}},
		{"scale", func(n *Node) { n.SetScale(2, 3) }, [6]float64{2, 0, 0, 3, 0, 0}},
		{"quarter turn", func(n *Node) { n.SetRotation(math.Pi / 2) }, [6]float64{0, 1, -1, 0, 0, 0}},
		{"pivot", func(n *Node) {
			n.SetPosition(100, 200)
			n.SetPivot(16, 16)
		}, [6]float64{1, 0, 0, 1, 84, 184}},
		{"scaled pivot", func(n *Node) {
			n.SetPivot(10, 0)
			n.SetScale(2, 1)
		}, [6]float64{2, 0, 0, 1, -20, 0}},
		{"turned pivot", func(n *Node) {
			n.SetPivot(10, 0)
			n.SetRotation(math.Pi / 2)
		}, [6]float64{0, 1, -1, 0, 0, -10}},
		{"scale then turn", func(n *Node) {
			n.SetPosition(50, 100)
			n.SetScale(2, 2)
			n.SetRotation(math.Pi / 2)
		}, [6]float64{0, 2, -2, 0, 50, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewContainer(tt.name)
			tt.setup(n)
			if got := computeLocalTransform(n); !affineNear(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffineInverseRoundTrip(t *testing.T) {
	rng := NewSeededRand(7)
	for i := range 20 {
		n := NewContainer("")
		n.SetPosition(rng.Range(-100, 100), rng.Range(-100, 100))
		n.SetScale(rng.Range(0.5, 3)*rng.Sign(), rng.Range(0.5, 3))
		n.SetRotation(rng.Range(-math.Pi, math.Pi))
		n.SetPivot(rng.Range(0, 20), rng.Range(0, 20))
		m := computeLocalTransform(n)
		if got := multiplyAffine(m, invertAffine(m)); !affineNear(got, identityTransform) {
			t.Errorf("case %d: m * inverse(m) = %v", i, got)
		}
		if got := multiplyAffine(identityTransform, m); got != m {
			t.Errorf("case %d: identity should not change the product", i)
		}
	}
}

func TestInvertAffineSingular(t *testing.T) {
	for _, m := range [][6]float64{
		{0, 0, 0, 1, 10, 20},
		{0, 0, 0, 0, 50, 100},
		{1, 2, 2, 4, 0, 0},
	} {
		if got := invertAffine(m); got != identityTransform {
			t.Errorf("invertAffine(%v) = %v, want identity", m, got)
		}
	}
}

func TestAffineGeoMAgreesWithTransformPoint(t *testing.T) {
	m := [6]float64{0.5, 2, -1, 3, 7, -4}
	g := affineGeoM(m)
	for _, p := range []Vec2{{0, 0}, {1, 0}, {3, -2}} {
		gx, gy := g.Apply(p.X, p.Y)
		x, y := transformPoint(m, p.X, p.Y)
		if !approx(gx, x, epsilon) || !approx(gy, y, epsilon) {
			t.Errorf("%v: GeoM (%v, %v), transformPoint (%v, %v)", p, gx, gy, x, y)
		}
	}
	moved := translateAffine(m, 1, 0)
	x, y := transformPoint(moved, 0, 0)
	if !approx(x, 7.5, epsilon) || !approx(y, -2, epsilon) {
		t.Errorf("translateAffine origin = (%v, %v), want (7.5, -2)", x, y)
	}
}

func TestWorldAABB(t *testing.T) {
	r := worldAABB([6]float64{0, 1, -1, 0, 100, 0}, 40, 20)
	want := Rect{X: 80, Y: 0, Width: 20, Height: 40}
	if !approx(r.X, want.X, epsilon) || !approx(r.Y, want.Y, epsilon) ||
		!approx(r.Width, want.Width, epsilon) || !approx(r.Height, want.Height, epsilon) {
		t.Errorf("worldAABB = %+v, want %+v", r, want)
	}
}

func TestWorldTransformChain(t *testing.T) {
	nodes := make([]*Node, 6)
	for i := range nodes {
		nodes[i] = NewContainer("")
		nodes[i].X = 10
		nodes[i].Alpha = 0.5
		if i > 0 {
			nodes[i-1].AddChild(nodes[i])
		}
	}
	updateWorldTransform(nodes[0], identityTransform, 1)

	leaf := nodes[len(nodes)-1]
	if !approx(leaf.worldTransform[4], 60, epsilon) {
		t.Errorf("leaf tx = %v, want 60", leaf.worldTransform[4])
	}
	if !approx(leaf.worldAlpha, math.Pow(0.5, 6), epsilon) {
		t.Errorf("leaf alpha = %v", leaf.worldAlpha)
	}

	nodes[0].SetPosition(-40, 0)
	updateWorldTransform(nodes[0], identityTransform, 1)
	if !approx(leaf.worldTransform[4], 10, epsilon) {
		t.Errorf("leaf tx after moving root = %v, want 10", leaf.worldTransform[4])
	}
}

func TestLocalWorldConversion(t *testing.T) {
	parent := NewContainer("parent")
	child := NewRect("child", 8, 4, ColorWhite)
	parent.AddChild(child)
	parent.SetPosition(100, 50)
	child.SetPosition(10, 20)
	child.SetScale(2, 3)
	child.SetRotation(math.Pi / 6)
	updateWorldTransform(parent, identityTransform, 1)

	lx, ly := child.WorldToLocal(150, 80)
	wx, wy := child.LocalToWorld(lx, ly)
	if !approx(wx, 150, 1e-9) || !approx(wy, 80, 1e-9) {
		t.Errorf("round trip = (%v, %v), want (150, 80)", wx, wy)
	}
	if ox, oy := child.LocalToWorld(0, 0); !approx(ox, 110, epsilon) || !approx(oy, 70, epsilon) {
		t.Errorf("origin = (%v, %v), want (110, 70)", ox, oy)
	}
	if b := child.WorldBounds(); b.Width <= 16 || b.Height <= 12 {
		t.Errorf("turned bounds %+v should exceed the scaled size", b)
	}

	flat := NewContainer("flat")
	flat.SetScale(0, 0)
	updateWorldTransform(flat, identityTransform, 1)
	if x, y := flat.WorldToLocal(100, 200); x != 100 || y != 200 {
		t.Errorf("degenerate WorldToLocal = (%v, %v), want the input", x, y)
	}
}

// nudgeRuntime presents a fixed horizontal offset.
type nudgeRuntime struct {
	nopRuntime
	dx float64
}

func (r nudgeRuntime) Present(p *Presentation) {
	p.Transform(mgl64.Translate3D(r.dx, 0, 0))
}

func TestEffectTransformCarriesChildren(t *testing.T) {
	parent := NewRect("parent", 100, 50, ColorWhite)
	child := NewContainer("child")
	parent.AddChild(child)
	parent.X = 10
	child.X = 1

	ApplyChangeEffect(parent, Simulated("nudge", func(EffectContext) EffectRuntime {
		return nudgeRuntime{dx: 5}
	}), 0)
	parent.updatePresentation()
	updateWorldTransform(parent, identityTransform, 1)

	// The node's own transform is untouched; its children ride the effect.
	if !approx(parent.worldTransform[4], 10, epsilon) {
		t.Errorf("parent tx = %v, want 10", parent.worldTransform[4])
	}
	if !approx(child.worldTransform[4], 16, epsilon) {
		t.Errorf("child tx = %v, want 16", child.worldTransform[4])
	}
}

func BenchmarkUpdateWorldTransform(b *testing.B) {
	root := NewContainer("root")
	for i := range 100 {
		row := NewContainer("")
		row.Y = float64(i)
		root.AddChild(row)
		for j := range 100 {
			cell := NewContainer("")
			cell.X = float64(j)
			row.AddChild(cell)
		}
	}
	updateWorldTransform(root, identityTransform, 1)
	b.ReportAllocs()
	for b.Loop() {
		updateWorldTransform(root, identityTransform, 1)
	}
}
