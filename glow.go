package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Glow limits.
const (
	DefaultGlowRadius = 16
	MaxGlowRadius     = 100
	glowSettle        = 0.01
	glowMaxAmount     = 1.5
	glowActiveAmount  = 0.7
	glowRings         = 3
)

// glowShadows are the halo layers as (opacity divisor, radius factor).
var glowShadows = [4][2]float64{{1.2, 0.25}, {4, 0.5}, {8, 1}, {16, 2}}

// glowRamp shapes the glow amount into brightness.
var glowRamp = CubicBezier(0.3, 0, 0.7, 1)

// GlowConfig configures a glow. The zero value glows white with the default
// radius.
type GlowConfig struct {
	Color Color
	// Radius is the spread of the widest halo layer at full glow. Zero
	// selects DefaultGlowRadius; it is capped at MaxGlowRadius.
	Radius float64
}

func (c GlowConfig) withDefaults() GlowConfig {
	if c.Color == (Color{}) {
		c.Color = ColorWhite
	}
	if c.Radius <= 0 || !isFinite(c.Radius) {
		c.Radius = DefaultGlowRadius
	}
	c.Radius = math.Min(c.Radius, MaxGlowRadius)
	return c
}

// Glow brightens the node and surrounds it with a halo that flares up on
// every change and fades out.
func Glow(cfg GlowConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Simulated("glow", func(EffectContext) EffectRuntime {
		return &glowRuntime{halo: glowHalo{cfg: cfg}}
	})
}

// GlowWhile keeps the node glowing while its condition holds.
func GlowWhile(cfg GlowConfig) ConditionalEffect {
	cfg = cfg.withDefaults()
	return Continuous("glow", func(EffectContext) ContinuousRuntime {
		return &continuousGlow{
			halo: glowHalo{cfg: cfg},
			tw:   tweenValue{curve: Curve{Duration: 0.25, Ease: EaseInOut.Tween()}},
		}
	})
}

var glowSpring = NewSpring(0.75, 15, 1)

type glowRuntime struct {
	halo glowHalo
	glow float64
	vel  float64
}

func (r *glowRuntime) Impulse() {
	if r.vel <= 0.05 {
		r.vel = 5
	} else {
		r.vel += 1.5
	}
	r.vel = math.Min(r.vel, 5)
}

func (r *glowRuntime) Step(dt float64) bool {
	r.glow, r.vel = glowSpring.Step(r.glow, r.vel, 0, dt)
	if math.Abs(r.glow) < glowSettle && math.Abs(r.vel) < glowSettle {
		r.glow, r.vel = 0, 0
		return true
	}
	return false
}

func (r *glowRuntime) Finite() bool { return isFinite(r.glow) && isFinite(r.vel) }

func (r *glowRuntime) Reset() { r.glow, r.vel = 0, 0 }

func (r *glowRuntime) Present(p *Presentation) { r.halo.present(p, r.glow) }

type continuousGlow struct {
	halo glowHalo
	tw   tweenValue
}

func (r *continuousGlow) SetActive(active bool) {
	if active {
		r.tw.SetTarget(glowActiveAmount)
	} else {
		r.tw.SetTarget(0)
	}
}

func (r *continuousGlow) Impulse()                {}
func (r *continuousGlow) Step(dt float64) bool    { return r.tw.Step(dt) }
func (r *continuousGlow) Finite() bool            { return r.tw.Finite() }
func (r *continuousGlow) Reset()                  { r.tw.Reset() }
func (r *continuousGlow) Present(p *Presentation) { r.halo.present(p, r.tw.Value()) }

// glowHalo paints soft rings around the node box for a glow amount.
type glowHalo struct {
	cfg    GlowConfig
	amount float64
	w, h   float64
	ring   ShapeDrawable
}

func (g *glowHalo) present(p *Presentation, glow float64) {
	amount := math.Min(glow, glowMaxAmount)
	if amount <= 0 {
		return
	}
	g.amount, g.w, g.h = amount, p.Width, p.Height
	p.Brightness += glowRamp(math.Abs(amount)) * 0.25
	e := g.spread()
	p.Behind(g, -e, -e)
}

// spread is how far the widest ring reaches past the box.
func (g *glowHalo) spread() float64 {
	return g.amount * g.cfg.Radius * glowShadows[len(glowShadows)-1][1]
}

func (g *glowHalo) Size() Vec2 {
	e := g.spread()
	return Vec2{g.w + 2*e, g.h + 2*e}
}

// Draw paints the halo layers widest first. Each layer is approximated by a
// few concentric rounded rectangles sharing its opacity.
func (g *glowHalo) Draw(dst *ebiten.Image, op *DrawOptions) {
	outer := g.spread()
	alpha := math.Sqrt(g.amount)
	for i := len(glowShadows) - 1; i >= 0; i-- {
		s := glowShadows[i]
		radius := g.amount * g.cfg.Radius * s[1]
		c := g.cfg.Color.WithAlpha(g.cfg.Color.A * alpha / s[0] / glowRings)
		for k := glowRings; k >= 1; k-- {
			e := radius * float64(k) / glowRings
			g.ring.Shape = ShapeRoundedRect
			g.ring.Width = g.w + 2*e
			g.ring.Height = g.h + 2*e
			g.ring.Radius = e
			g.ring.Color = c
			g.ring.Invalidate()
			var local ebiten.GeoM
			local.Translate(outer-e, outer-e)
			local.Concat(op.GeoM)
			sub := *op
			sub.GeoM = local
			g.ring.Draw(dst, &sub)
		}
	}
}
