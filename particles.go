package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// ParticleSettle is the progress and velocity tolerance below which a
// particle is retired.
const ParticleSettle = 0.04

// Range is a closed interval of float64 values.
type Range struct {
	Min, Max float64
}

// Random returns a value in [Min, Max] drawn from rng.
func (r Range) Random(rng *SeededRand) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return rng.Range(r.Min, r.Max)
}

// ParticleRecord is the simulated state of one particle. Progress runs from
// 0 toward Target on its own spring.
type ParticleRecord struct {
	// ID is the spawn order within the system.
	ID uint64
	// Seed is derived from the system seed and ID.
	Seed uint64
	// Spawn is the ordinal of the Spawn call that created the record,
	// starting at 1.
	Spawn    uint64
	Progress float64
	Velocity float64
	Target   float64
}

// ParticleSystem spawns, advances, and retires particle records. Records
// stay in spawn order.
type ParticleSystem struct {
	Spring Spring

	seed    uint64
	nextID  uint64
	spawns  uint64
	records []ParticleRecord
}

// NewParticleSystem returns an empty system whose records are seeded from
// seed.
func NewParticleSystem(spring Spring, seed uint64) *ParticleSystem {
	return &ParticleSystem{Spring: spring, seed: seed}
}

// Spawn adds n records starting at progress 0 with the given velocity.
func (ps *ParticleSystem) Spawn(n int, velocity float64) {
	if n <= 0 {
		return
	}
	ps.spawns++
	for range n {
		id := ps.nextID
		ps.nextID++
		ps.records = append(ps.records, ParticleRecord{
			ID:       id,
			Seed:     SeedFor(ps.seed, id),
			Spawn:    ps.spawns,
			Velocity: velocity,
			Target:   1,
		})
	}
}

// Step advances every record by dt and retires the ones that settled or
// went non-finite. It reports whether the system is empty.
func (ps *ParticleSystem) Step(dt float64) bool {
	live := ps.records[:0]
	for _, r := range ps.records {
		r.Progress, r.Velocity = ps.Spring.Step(r.Progress, r.Velocity, r.Target, dt)
		if !isFinite(r.Progress) || !isFinite(r.Velocity) {
			continue
		}
		if math.Abs(r.Progress-r.Target) < ParticleSettle && math.Abs(r.Velocity) < ParticleSettle {
			continue
		}
		live = append(live, r)
	}
	clear(ps.records[len(live):])
	ps.records = live
	return len(ps.records) == 0
}

// Live returns the live records. The returned slice MUST NOT be mutated by
// the caller.
func (ps *ParticleSystem) Live() []ParticleRecord {
	return ps.records
}

// Len returns the number of live records.
func (ps *ParticleSystem) Len() int {
	return len(ps.records)
}

// Spawns returns how many Spawn calls created records.
func (ps *ParticleSystem) Spawns() uint64 {
	return ps.spawns
}

// Reset drops every record.
func (ps *ParticleSystem) Reset() {
	clear(ps.records)
	ps.records = ps.records[:0]
}

// ParticlePlacement is where and how one particle paints. X and Y offset
// the particle from the effect origin, then the offset is turned by
// Rotation about the origin. Spin turns the particle's look about its own
// center. Angles are in radians.
type ParticlePlacement struct {
	X, Y       float64
	Rotation   float64
	Spin       float64
	Scale      float64
	Opacity    float64
	Brightness float64
	// Look indexes the palette, modulo its length.
	Look int
}

// geoM returns the transform placing a look centered on the particle,
// relative to the origin.
func (pl ParticlePlacement) geoM() ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(pl.Scale, pl.Scale)
	g.Rotate(pl.Spin)
	g.Translate(pl.X, pl.Y)
	g.Rotate(pl.Rotation)
	return g
}

// Palette is a fixed set of particle looks, resolved once per effect.
type Palette []Drawable

// Look returns the drawable for index i, cycling through the palette.
func (p Palette) Look(i int) Drawable {
	if len(p) == 0 {
		return nil
	}
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// maxLookSize returns the largest width and height in the palette.
func (p Palette) maxLookSize() Vec2 {
	var sz Vec2
	for _, d := range p {
		s := d.Size()
		sz.X = math.Max(sz.X, s.X)
		sz.Y = math.Max(sz.Y, s.Y)
	}
	return sz
}

// DotPalette returns round particles in a few shades of c.
func DotPalette(c Color, size float64) Palette {
	return Palette{
		NewShape(ShapeEllipse, size, size, c),
		NewShape(ShapeEllipse, size*0.75, size*0.75, c.Brightened(0.15)),
		NewShape(ShapeRoundedRect, size*0.8, size*0.8, c.Brightened(-0.1)),
	}
}

// drawParticle paints one placed particle. origin is the effect origin in
// the coordinates op.GeoM maps from.
func drawParticle(dst *ebiten.Image, look Drawable, pl ParticlePlacement, origin Vec2, op *DrawOptions) {
	if look == nil || pl.Opacity <= 0 || pl.Scale == 0 {
		return
	}
	local := pl.geoM()
	local.Translate(origin.X, origin.Y)
	sub := *op
	sub.Tint = op.Tint.WithAlpha(Clamp01(pl.Opacity))
	if pl.Brightness != 0 {
		f := math.Max(0, 1+pl.Brightness)
		sub.Tint.R *= f
		sub.Tint.G *= f
		sub.Tint.B *= f
	}
	drawCentered(look, dst, local, &sub)
}

// particleCounter is implemented by runtimes that own particles, for debug
// stats.
type particleCounter interface {
	LiveParticles() int
}

// particleRuntime is the shared state of the particle effects: a system
// stepped by the driver, emitting a fixed count per impulse.
type particleRuntime struct {
	sys        *ParticleSystem
	perImpulse int
	velocity   float64
	palette    Palette
	layer      ParticleLayer
	origin     Vec2 // unit point in the node's box
}

func (r *particleRuntime) Impulse() {
	r.sys.Spawn(r.perImpulse, r.velocity)
}

func (r *particleRuntime) Step(dt float64) bool {
	return r.sys.Step(dt)
}

// Finite always holds: non-finite records are dropped by Step.
func (r *particleRuntime) Finite() bool { return true }

func (r *particleRuntime) Reset() { r.sys.Reset() }

func (r *particleRuntime) LiveParticles() int { return r.sys.Len() }

// originIn resolves the unit origin against a box.
func (r *particleRuntime) originIn(w, h float64) Vec2 {
	return Vec2{w * r.origin.X, h * r.origin.Y}
}
