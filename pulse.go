package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// PulseMode selects whether pulse rings are filled or stroked.
type PulseMode uint8

const (
	PulseFill   PulseMode = iota // filled rings behind the node, 4 s each
	PulseStroke                  // outlined rings in front of the node, 2 s each
)

// pulseInterval separates the rings of one change.
const pulseInterval = 0.2

// PulseConfig configures a Pulse effect. The zero value emits one filled
// white rectangle per change.
type PulseConfig struct {
	Shape  Shape
	Radius float64 // corner radius for ShapeRoundedRect
	Color  Color
	Mode   PulseMode
	// Count is the number of rings per change, at least 1.
	Count int
	// Layer routes the rings. Zero is LocalLayer.
	Layer ParticleLayer
}

func (c PulseConfig) withDefaults() PulseConfig {
	if c.Color == (Color{}) {
		c.Color = ColorWhite
	}
	c.Count = max(1, c.Count)
	return c
}

func (c PulseConfig) duration() float64 {
	if c.Mode == PulseStroke {
		return 2
	}
	return 4
}

// Pulse sends copies of a shape outward from the node on every change. A
// change arriving while the rings of an earlier one are still being queued
// is absorbed by the cooldown.
func Pulse(cfg PulseConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Animated("pulse", func(EffectContext) EffectRuntime {
		return &pulseRuntime{cfg: cfg}
	}).Cooldown(float64(cfg.Count-1) * pulseInterval)
}

// Beat maps linear progress onto a curve that lingers at both ends.
func Beat(x, intensity, frequency float64) float64 {
	v := math.Atan(math.Sin(x*math.Pi*frequency) * intensity)
	return (v + math.Pi/2) / math.Pi
}

// PulseRing is the geometry of one ring at a given progress, relative to a
// w by h node box.
type PulseRing struct {
	// Inset shrinks the shape on every side; negative values grow it.
	Inset     float64
	LineWidth float64
	Opacity   float64
}

// PulseRingAt computes a ring's geometry. asin is clamped at its domain edge
// so late progress yields a fully transparent ring.
func PulseRingAt(mode PulseMode, progress, w, h float64) PulseRing {
	inset := math.Min(w, h) * 2
	x := Beat(progress, 5, 0.5)
	fade := math.Asin(math.Min(1, math.Pi*progress/2))
	r := PulseRing{Inset: (x - 0.5) * -inset}
	if mode == PulseStroke {
		r.LineWidth = math.Max(1, inset/25) * math.Sin(math.Pi*x)
		r.Opacity = 1 - fade
	} else {
		r.Opacity = 0.33 - fade
	}
	return r
}

type pulseItem struct {
	tween    *gween.Tween
	progress float64
}

type pulseRuntime struct {
	cfg     PulseConfig
	items   []pulseItem
	pending int
	wait    float64

	w, h  float64
	shape ShapeDrawable
}

func (r *pulseRuntime) emit() {
	c := Curve{Duration: r.cfg.duration(), Ease: ease.Linear}
	r.items = append(r.items, pulseItem{tween: c.tween(0, 1)})
	r.pending--
	r.wait = pulseInterval
}

func (r *pulseRuntime) Impulse() {
	idle := r.pending == 0
	r.pending += r.cfg.Count
	if idle {
		r.emit()
	}
}

func (r *pulseRuntime) Step(dt float64) bool {
	live := r.items[:0]
	for _, it := range r.items {
		v, done := it.tween.Update(float32(dt))
		if done {
			continue
		}
		it.progress = float64(v)
		live = append(live, it)
	}
	clear(r.items[len(live):])
	r.items = live

	if r.pending > 0 {
		r.wait -= dt
		for r.wait <= 0 && r.pending > 0 {
			r.emit()
		}
	}
	return len(r.items) == 0 && r.pending == 0
}

func (r *pulseRuntime) Finite() bool {
	for _, it := range r.items {
		if !isFinite(it.progress) {
			return false
		}
	}
	return true
}

func (r *pulseRuntime) Reset() {
	clear(r.items)
	r.items = r.items[:0]
	r.pending = 0
	r.wait = 0
}

// Rings returns the number of rings on screen.
func (r *pulseRuntime) Rings() int { return len(r.items) }

func (r *pulseRuntime) Present(p *Presentation) {
	if len(r.items) == 0 {
		return
	}
	r.w, r.h = p.Width, p.Height
	place := OverlayBehind
	if r.cfg.Mode == PulseStroke {
		place = OverlayFront
	}
	p.Particles(r.cfg.Layer, place, r, 0, 0)
}

func (r *pulseRuntime) Size() Vec2 { return Vec2{r.w, r.h} }

func (r *pulseRuntime) Draw(dst *ebiten.Image, op *DrawOptions) {
	for _, it := range r.items {
		ring := PulseRingAt(r.cfg.Mode, it.progress, r.w, r.h)
		if ring.Opacity <= 0 {
			continue
		}
		inset := ring.Inset
		if r.cfg.Mode == PulseStroke {
			if ring.LineWidth <= 0 {
				continue
			}
			// Keep the stroke inside the shape's border.
			inset += ring.LineWidth / 2
		}
		w, h := r.w-2*inset, r.h-2*inset
		if w <= 0 || h <= 0 {
			continue
		}
		r.shape.Shape = r.cfg.Shape
		r.shape.Width, r.shape.Height = w, h
		r.shape.Radius = r.cfg.Radius
		r.shape.Color = r.cfg.Color.WithAlpha(r.cfg.Color.A * Clamp01(ring.Opacity))
		r.shape.StrokeWidth = ring.LineWidth
		r.shape.Invalidate()

		var g ebiten.GeoM
		g.Translate(inset, inset)
		g.Concat(op.GeoM)
		sub := *op
		sub.GeoM = g
		r.shape.Draw(dst, &sub)
	}
}
