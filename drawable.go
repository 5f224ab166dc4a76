package flourish

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Drawable is anything that can paint itself. Node content, particle looks,
// and effect overlays all go through this one interface.
type Drawable interface {
	Size() Vec2
	Draw(dst *ebiten.Image, op *DrawOptions)
}

// DrawOptions carries the state a Drawable paints with. GeoM maps the
// drawable's local coordinates, with (0, 0) at its top left corner, onto dst.
type DrawOptions struct {
	GeoM  ebiten.GeoM
	Tint  Color
	Blend BlendMode
}

// DrawFunc adapts a function to Drawable.
type DrawFunc struct {
	W, H float64
	Fn   func(dst *ebiten.Image, op *DrawOptions)
}

func (d DrawFunc) Size() Vec2 { return Vec2{d.W, d.H} }

func (d DrawFunc) Draw(dst *ebiten.Image, op *DrawOptions) {
	if d.Fn != nil {
		d.Fn(dst, op)
	}
}

// ImageDrawable paints an image.
type ImageDrawable struct {
	Image *ebiten.Image
}

func (d ImageDrawable) Size() Vec2 {
	if d.Image == nil {
		return Vec2{}
	}
	b := d.Image.Bounds()
	return Vec2{float64(b.Dx()), float64(b.Dy())}
}

func (d ImageDrawable) Draw(dst *ebiten.Image, o *DrawOptions) {
	if d.Image == nil {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM = o.GeoM
	op.Filter = ebiten.FilterLinear
	op.Blend = o.Blend.EbitenBlend()
	applyTint(&op.ColorScale, o.Tint)
	dst.DrawImage(d.Image, &op)
}

// Shape selects the outline of a ShapeDrawable.
type Shape uint8

const (
	ShapeRect        Shape = iota // axis-aligned rectangle
	ShapeRoundedRect              // rectangle with Radius corners
	ShapeCapsule                  // rounded rect with fully round ends
	ShapeEllipse                  // ellipse inscribed in the bounds
)

// arcSegments is the number of segments used per quarter circle.
const arcSegments = 8

// ShapeDrawable is a solid or stroked vector shape.
type ShapeDrawable struct {
	Shape       Shape
	Width       float64
	Height      float64
	Radius      float64
	Color       Color
	StrokeWidth float64 // zero fills the shape

	verts   []ebiten.Vertex
	inds    []uint16
	scratch []ebiten.Vertex
}

// NewShape returns a filled shape.
func NewShape(shape Shape, w, h float64, c Color) *ShapeDrawable {
	return &ShapeDrawable{Shape: shape, Width: w, Height: h, Color: c}
}

// Outline returns a stroked copy of d.
func (d *ShapeDrawable) Outline(width float64) *ShapeDrawable {
	return &ShapeDrawable{
		Shape:       d.Shape,
		Width:       d.Width,
		Height:      d.Height,
		Radius:      d.Radius,
		Color:       d.Color,
		StrokeWidth: width,
	}
}

func (d *ShapeDrawable) Size() Vec2 { return Vec2{d.Width, d.Height} }

func (d *ShapeDrawable) Draw(dst *ebiten.Image, o *DrawOptions) {
	if d.verts == nil {
		d.build()
	}
	if len(d.inds) == 0 {
		return
	}
	if cap(d.scratch) < len(d.verts) {
		d.scratch = make([]ebiten.Vertex, len(d.verts))
	}
	out := d.scratch[:len(d.verts)]
	t := o.Tint
	c := Color{d.Color.R * t.R, d.Color.G * t.G, d.Color.B * t.B, d.Color.A * t.A}
	transformVertices(d.verts, out, o.GeoM, c)
	var op ebiten.DrawTrianglesOptions
	op.AntiAlias = true
	op.Blend = o.Blend.EbitenBlend()
	dst.DrawTriangles(out, d.inds, whitePixel(), &op)
}

// build tessellates the outline once. Changing fields after the first Draw
// requires Invalidate.
func (d *ShapeDrawable) build() {
	pts := shapeOutline(d.Shape, d.Width, d.Height, d.Radius)
	if d.StrokeWidth <= 0 {
		d.verts, d.inds = buildPolygonFan(pts)
		return
	}
	var path vector.Path
	for i, p := range pts {
		if i == 0 {
			path.MoveTo(float32(p.X), float32(p.Y))
		} else {
			path.LineTo(float32(p.X), float32(p.Y))
		}
	}
	path.Close()
	d.verts, d.inds = path.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width:    float32(d.StrokeWidth),
		LineJoin: vector.LineJoinRound,
	})
	if d.verts == nil {
		d.verts = []ebiten.Vertex{}
	}
}

// Invalidate forces the outline to be rebuilt on the next Draw.
func (d *ShapeDrawable) Invalidate() {
	d.verts = nil
	d.inds = nil
}

// shapeOutline returns the convex outline of a shape, clockwise from the
// top-left.
func shapeOutline(shape Shape, w, h, radius float64) []Vec2 {
	switch shape {
	case ShapeEllipse:
		n := arcSegments * 4
		pts := make([]Vec2, n)
		for i := range pts {
			a := float64(i) / float64(n) * 2 * math.Pi
			pts[i] = Vec2{w/2 + math.Cos(a)*w/2, h/2 + math.Sin(a)*h/2}
		}
		return pts
	case ShapeCapsule:
		radius = math.Min(w, h) / 2
	case ShapeRoundedRect:
		radius = Clamp(0, radius, math.Min(w, h)/2)
	default:
		radius = 0
	}
	if radius <= 0 {
		return []Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}}
	}
	corners := [4]struct{ cx, cy, start float64 }{
		{w - radius, radius, -math.Pi / 2},
		{w - radius, h - radius, 0},
		{radius, h - radius, math.Pi / 2},
		{radius, radius, math.Pi},
	}
	pts := make([]Vec2, 0, 4*(arcSegments+1))
	for _, c := range corners {
		for i := 0; i <= arcSegments; i++ {
			a := c.start + float64(i)/arcSegments*math.Pi/2
			pts = append(pts, Vec2{c.cx + math.Cos(a)*radius, c.cy + math.Sin(a)*radius})
		}
	}
	return pts
}

// buildPolygonFan triangulates a convex polygon as a fan around its first
// point.
func buildPolygonFan(points []Vec2) ([]ebiten.Vertex, []uint16) {
	n := len(points)
	if n < 3 {
		return []ebiten.Vertex{}, nil
	}
	verts := make([]ebiten.Vertex, n)
	inds := make([]uint16, 0, (n-2)*3)
	for i, p := range points {
		verts[i] = ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	for i := 1; i < n-1; i++ {
		inds = append(inds, 0, uint16(i), uint16(i+1))
	}
	return verts, inds
}

// transformVertices maps src through geo and tints it, writing into dst.
// Colors are premultiplied by the tint alpha.
func transformVertices(src, dst []ebiten.Vertex, geo ebiten.GeoM, tint Color) {
	cr := float32(tint.R)
	cg := float32(tint.G)
	cb := float32(tint.B)
	ca := float32(tint.A)
	for i := range src {
		s := &src[i]
		x, y := geo.Apply(float64(s.DstX), float64(s.DstY))
		dst[i] = ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   0.5,
			SrcY:   0.5,
			ColorR: s.ColorR * cr * ca,
			ColorG: s.ColorG * cg * ca,
			ColorB: s.ColorB * cb * ca,
			ColorA: s.ColorA * ca,
		}
	}
}

// applyTint scales a ColorScale by a straight-alpha tint.
func applyTint(cs *ebiten.ColorScale, tint Color) {
	cs.Scale(float32(tint.R*tint.A), float32(tint.G*tint.A), float32(tint.B*tint.A), float32(tint.A))
}

// whitePixelImage backs untextured triangles. No sync.Once: drawing happens
// on the game goroutine only.
var whitePixelImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// drawCentered draws d with its center at the origin of local, then through
// op's GeoM.
func drawCentered(d Drawable, dst *ebiten.Image, local ebiten.GeoM, op *DrawOptions) {
	sz := d.Size()
	var g ebiten.GeoM
	g.Translate(-sz.X/2, -sz.Y/2)
	g.Concat(local)
	g.Concat(op.GeoM)
	sub := *op
	sub.GeoM = g
	d.Draw(dst, &sub)
}
