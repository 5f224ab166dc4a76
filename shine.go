package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// shineStops is the number of gradient stops across the band.
const shineStops = 16

// ShineConfig configures a Shine effect. The zero value sweeps along the
// node's diagonal in one second.
type ShineConfig struct {
	// Duration defaults to 1 second.
	Duration float64
	// Angle of the sweep in radians. Nil selects the box diagonal.
	Angle *float64
	Color Color
}

func (c ShineConfig) withDefaults() ShineConfig {
	if c.Duration <= 0 || !isFinite(c.Duration) {
		c.Duration = 1
	}
	if c.Color == (Color{}) {
		c.Color = ColorWhite
	}
	return c
}

// Shine sweeps a highlight across the node on every change.
func Shine(cfg ShineConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Animated("shine", func(EffectContext) EffectRuntime {
		return &shineRuntime{
			curvePlayer: curvePlayer{curve: Curve{Duration: cfg.Duration, Ease: EaseInOut.Tween()}},
			cfg:         cfg,
		}
	}).Cooldown(cfg.Duration * 0.5)
}

// ShineBand describes the highlight at one point of the sweep in the node's
// local space. The band is centered at (CX, CY), Width across and Height
// along, rotated by Angle.
type ShineBand struct {
	CX, CY        float64
	Width, Height float64
	Angle         float64
	// Peak is the opacity at the band's brightest stop before Opacity.
	Peak    float64
	Opacity float64
}

// ShineBandAt places the band for a w by h node at the given fraction of
// the sweep.
func ShineBandAt(fraction, w, h float64, angle *float64) ShineBand {
	a := math.Atan2(h, w)
	if angle != nil {
		a = *angle
	}
	cos, sin := math.Abs(math.Cos(a)), math.Abs(math.Sin(a))
	bw := w*cos + h*sin
	bh := w*sin + h*cos
	u := -bw + fraction*2*bw
	return ShineBand{
		CX:      w/2 + u*math.Cos(a),
		CY:      h/2 + u*math.Sin(a),
		Width:   2 * bw,
		Height:  bh,
		Angle:   a,
		Peak:    0.8 * math.Sin(fraction),
		Opacity: 1 - math.Pow(fraction, 8),
	}
}

type shineRuntime struct {
	curvePlayer
	cfg   ShineConfig
	w, h  float64
	verts []ebiten.Vertex
	inds  []uint16
	poly  []shineVertex
	clip  []shineVertex
}

func (r *shineRuntime) Present(p *Presentation) {
	if !r.playing {
		return
	}
	r.w, r.h = p.Width, p.Height
	p.Front(r, 0, 0)
}

func (r *shineRuntime) Size() Vec2 { return Vec2{r.w, r.h} }

// shineVertex is a band point in node space with its gradient opacity.
type shineVertex struct {
	x, y, a float64
}

// Draw paints the band as one quad per pair of gradient stops, each clipped
// to the node box.
func (r *shineRuntime) Draw(dst *ebiten.Image, op *DrawOptions) {
	b := ShineBandAt(r.progress, r.w, r.h, r.cfg.Angle)
	if b.Opacity <= 0 || b.Peak <= 0 {
		return
	}
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	cos, sin := math.Cos(b.Angle), math.Sin(b.Angle)
	at := func(u, v, alpha float64) shineVertex {
		return shineVertex{
			x: b.CX + u*cos - v*sin,
			y: b.CY + u*sin + v*cos,
			a: alpha,
		}
	}
	stop := func(i int) float64 {
		s := float64(i) * 0.2
		return math.Pow(math.Sin(s), 2) * b.Peak
	}
	for i := 0; i < shineStops-1; i++ {
		u0 := -b.Width/2 + b.Width*float64(i)/(shineStops-1)
		u1 := -b.Width/2 + b.Width*float64(i+1)/(shineStops-1)
		a0, a1 := stop(i), stop(i+1)
		r.poly = append(r.poly[:0],
			at(u0, -b.Height/2, a0), at(u1, -b.Height/2, a1),
			at(u1, b.Height/2, a1), at(u0, b.Height/2, a0),
		)
		r.clip = clipPolygon(r.clip[:0], r.poly, r.w, r.h)
		r.appendFan(r.clip, op, b.Opacity)
	}
	if len(r.inds) == 0 {
		return
	}
	var top ebiten.DrawTrianglesOptions
	top.AntiAlias = true
	top.Blend = op.Blend.EbitenBlend()
	dst.DrawTriangles(r.verts, r.inds, whitePixel(), &top)
}

func (r *shineRuntime) appendFan(poly []shineVertex, op *DrawOptions, opacity float64) {
	if len(poly) < 3 {
		return
	}
	base := uint16(len(r.verts))
	t := op.Tint
	c := r.cfg.Color
	for _, p := range poly {
		x, y := op.GeoM.Apply(p.x, p.y)
		a := float32(Clamp01(p.a * opacity * c.A * t.A))
		r.verts = append(r.verts, ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: float32(c.R*t.R) * a,
			ColorG: float32(c.G*t.G) * a,
			ColorB: float32(c.B*t.B) * a,
			ColorA: a,
		})
	}
	for i := 1; i < len(poly)-1; i++ {
		r.inds = append(r.inds, base, base+uint16(i), base+uint16(i+1))
	}
}

// clipPolygon clips a convex polygon to [0, w] x [0, h], interpolating
// opacity along cut edges. The result is appended to out.
func clipPolygon(out, poly []shineVertex, w, h float64) []shineVertex {
	planes := [4]func(v shineVertex) float64{
		func(v shineVertex) float64 { return v.x },
		func(v shineVertex) float64 { return w - v.x },
		func(v shineVertex) float64 { return v.y },
		func(v shineVertex) float64 { return h - v.y },
	}
	cur := append([]shineVertex(nil), poly...)
	for _, dist := range planes {
		if len(cur) == 0 {
			break
		}
		next := make([]shineVertex, 0, len(cur)+1)
		for i, a := range cur {
			b := cur[(i+1)%len(cur)]
			da, db := dist(a), dist(b)
			if da >= 0 {
				next = append(next, a)
			}
			if (da >= 0) != (db >= 0) {
				t := da / (da - db)
				next = append(next, shineVertex{
					x: Lerp(a.x, b.x, t),
					y: Lerp(a.y, b.y, t),
					a: Lerp(a.a, b.a, t),
				})
			}
		}
		cur = next
	}
	return append(out, cur...)
}
