package flourish

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultAnimatedCooldown is the cooldown of animated change effects unless
// overridden with ChangeEffect.Cooldown.
const DefaultAnimatedCooldown = 0.33

// EffectKind tells how a change effect reacts to an impulse.
type EffectKind uint8

const (
	// EffectAnimated replays a fixed-length curve from the start on every
	// accepted impulse.
	EffectAnimated EffectKind = iota
	// EffectSimulated feeds impulses into a physics state that keeps
	// integrating until it settles.
	EffectSimulated
)

func (k EffectKind) String() string {
	if k == EffectSimulated {
		return "simulated"
	}
	return "animated"
}

// EffectContext is handed to an effect factory when an instance is created.
type EffectContext struct {
	Node *Node
	// Slot numbers the effects attached to Node in attach order.
	Slot uint32
	// Seed is stable for a given node ID and slot.
	Seed uint64
	// Conditional is set when the effect is driven by a repeating condition
	// rather than by value changes.
	Conditional bool
}

// Rand returns a generator seeded from the context.
func (c EffectContext) Rand() *SeededRand {
	return NewSeededRand(c.Seed)
}

// EffectRuntime is the per-instance state of an effect: a Simulation the
// driver steps, plus a way to turn the current state into visual output.
type EffectRuntime interface {
	Simulation
	// Present contributes the current state to the node's presentation.
	// It is called once per frame, after the driver tick, whether or not
	// the driver is running.
	Present(p *Presentation)
}

// ContinuousRuntime is an EffectRuntime whose target follows a condition
// instead of reacting to impulses.
type ContinuousRuntime interface {
	EffectRuntime
	SetActive(active bool)
}

// runtimeCloser is implemented by runtimes that hold shared resources.
type runtimeCloser interface {
	Close()
}

// ChangeEffect reacts to changes of an observed value.
type ChangeEffect struct {
	name     string
	kind     EffectKind
	cooldown float64
	delay    float64
	build    func(ctx EffectContext) EffectRuntime
}

// Animated returns a change effect with curve semantics and the default
// animated cooldown.
func Animated(name string, build func(ctx EffectContext) EffectRuntime) ChangeEffect {
	return ChangeEffect{name: name, kind: EffectAnimated, cooldown: DefaultAnimatedCooldown, build: build}
}

// Simulated returns a change effect driven by an integrator. Simulated
// effects have no cooldown: every accepted change kicks the simulation.
func Simulated(name string, build func(ctx EffectContext) EffectRuntime) ChangeEffect {
	return ChangeEffect{name: name, kind: EffectSimulated, build: build}
}

// Delay returns a copy of e that re-checks changes after d seconds.
// Negative values are clamped to zero.
func (e ChangeEffect) Delay(d float64) ChangeEffect {
	e.delay = clampNonNegative(d)
	return e
}

// Cooldown returns a copy of e with the given cooldown in seconds.
func (e ChangeEffect) Cooldown(c float64) ChangeEffect {
	e.cooldown = clampNonNegative(c)
	return e
}

// Named returns a copy of e with a different name.
func (e ChangeEffect) Named(name string) ChangeEffect {
	e.name = name
	return e
}

// Name returns the effect's name.
func (e ChangeEffect) Name() string { return e.name }

// Kind returns whether the effect is animated or simulated.
func (e ChangeEffect) Kind() EffectKind { return e.kind }

// Timing returns the effect's cooldown and delay in seconds.
func (e ChangeEffect) Timing() (cooldown, delay float64) { return e.cooldown, e.delay }

// ConditionalEffect is driven by a boolean condition. It either tracks the
// condition continuously or repeats a change effect while the condition
// holds.
type ConditionalEffect struct {
	name       string
	continuous func(ctx EffectContext) ContinuousRuntime
	repeat     ChangeEffect
	interval   float64
}

// Continuous returns a conditional effect whose state follows the condition
// as a 0/1 target.
func Continuous(name string, build func(ctx EffectContext) ContinuousRuntime) ConditionalEffect {
	return ConditionalEffect{name: name, continuous: build}
}

// Repeat returns a conditional effect that fires effect every interval
// seconds while the condition holds. An interval of zero or less disables
// it; short positive intervals are raised to MinRepeatInterval.
func Repeat(effect ChangeEffect, interval float64) ConditionalEffect {
	return ConditionalEffect{name: effect.name, repeat: effect, interval: interval}
}

// Name returns the effect's name.
func (c ConditionalEffect) Name() string { return c.name }

// Repeating reports whether c wraps a change effect.
func (c ConditionalEffect) Repeating() bool { return c.continuous == nil }

// Interval returns the repeat interval as configured.
func (c ConditionalEffect) Interval() float64 { return c.interval }

// ParticleLayer selects where particle output paints.
type ParticleLayer struct {
	name string
}

// LocalLayer paints particles with the emitting node.
var LocalLayer = ParticleLayer{}

// NamedLayer paints particles into the nearest ancestor that declared a sink
// with the same name, falling back to local painting when there is none.
func NamedLayer(name string) ParticleLayer {
	return ParticleLayer{name: name}
}

// Name returns the layer name, empty for LocalLayer.
func (l ParticleLayer) Name() string { return l.name }

// IsLocal reports whether l is LocalLayer.
func (l ParticleLayer) IsLocal() bool { return l.name == "" }

// OverlayPlacement decides where an overlay paints relative to its node.
type OverlayPlacement uint8

const (
	OverlayBehind OverlayPlacement = iota // below the node's content
	OverlayFront                          // above the node's content
)

// Overlay is extra content an effect paints alongside its node. X and Y
// place the drawable's top-left corner in node-local coordinates.
//
// Plain overlays follow the node's effect transform. Particle overlays are
// anchored to the node's layout box instead, and may be redirected to a
// named particle layer.
type Overlay struct {
	Content   Drawable
	X, Y      float64
	Placement OverlayPlacement
	Particle  bool
	Layer     ParticleLayer
	BlendMode BlendMode
	// Alpha multiplies the node's alpha for this overlay.
	Alpha float64

	slot uint32
}

// Presentation collects what the effects on one node contribute to a frame.
// Effects compose in attach order: each later effect wraps the earlier ones.
type Presentation struct {
	// Width and Height are the node's layout size.
	Width, Height float64
	// Matrix maps node-local points (z = 0) to node-local output, including
	// any perspective.
	Matrix mgl64.Mat4
	// Brightness scales the content color by 1 + Brightness.
	Brightness float64
	// Alpha multiplies the node's alpha.
	Alpha float64

	Overlays []Overlay

	slot uint32
}

func (p *Presentation) reset(w, h float64) {
	p.Width = w
	p.Height = h
	p.Matrix = mgl64.Ident4()
	p.Brightness = 0
	p.Alpha = 1
	clear(p.Overlays)
	p.Overlays = p.Overlays[:0]
}

// Transform wraps the current matrix with m.
func (p *Presentation) Transform(m mgl64.Mat4) {
	p.Matrix = m.Mul4(p.Matrix)
}

// Apply wraps the current matrix with t at the node's size.
func (p *Presentation) Apply(t Transform3D) {
	p.Transform(t.Matrix(p.Width, p.Height))
}

// AddOverlay appends an overlay. A zero Alpha is read as 1.
func (p *Presentation) AddOverlay(o Overlay) {
	if o.Content == nil {
		return
	}
	if o.Alpha == 0 {
		o.Alpha = 1
	}
	o.slot = p.slot
	p.Overlays = append(p.Overlays, o)
}

// Behind paints d below the node with its top-left at (x, y).
func (p *Presentation) Behind(d Drawable, x, y float64) {
	p.AddOverlay(Overlay{Content: d, X: x, Y: y, Placement: OverlayBehind})
}

// Front paints d above the node with its top-left at (x, y).
func (p *Presentation) Front(d Drawable, x, y float64) {
	p.AddOverlay(Overlay{Content: d, X: x, Y: y, Placement: OverlayFront})
}

// Particles paints particle output d through layer with its top-left at
// (x, y).
func (p *Presentation) Particles(layer ParticleLayer, place OverlayPlacement, d Drawable, x, y float64) {
	p.AddOverlay(Overlay{Content: d, X: x, Y: y, Placement: place, Particle: true, Layer: layer})
}

// Affine reports whether the matrix keeps w = 1 for every z = 0 point.
func (p *Presentation) Affine() bool {
	return math.Abs(p.Matrix.At(3, 0)) < 1e-12 &&
		math.Abs(p.Matrix.At(3, 1)) < 1e-12 &&
		math.Abs(p.Matrix.At(3, 3)-1) < 1e-12
}

func clampNonNegative(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	return v
}
