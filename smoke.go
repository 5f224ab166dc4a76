package flourish

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/hajimehoshi/ebiten/v2"
)

// Smoke emitter constants, in points and seconds.
const (
	smokeLifetime    = 1.5
	smokeSliceHeight = 100
	smokeLookSize    = 256
	smokeDrift       = 16
	smokeMaxBirths   = 8 // per frame
)

// SmokeConfig configures a Smoke effect. The zero value emits gray puffs on
// the local layer.
type SmokeConfig struct {
	// Palette holds the puff looks, sized for a 750 point wide node. Nil
	// selects SmokePalette.
	Palette Palette
	Layer   ParticleLayer
}

// SmokePalette returns soft gray puffs.
func SmokePalette() Palette {
	gray := Color{0.55, 0.55, 0.55, 0.6}
	return Palette{
		NewShape(ShapeEllipse, smokeLookSize, smokeLookSize, gray),
		NewShape(ShapeEllipse, smokeLookSize, smokeLookSize*0.8, gray.Brightened(0.1).WithAlpha(0.4)),
		NewShape(ShapeEllipse, smokeLookSize*0.9, smokeLookSize, gray.Brightened(-0.1)),
	}
}

// Smoke makes the node smoke while its condition holds. Puffs rise from the
// top of the node, drift with noise, and fade. Puffs already in the air
// finish when the condition clears.
func Smoke(cfg SmokeConfig) ConditionalEffect {
	if len(cfg.Palette) == 0 {
		cfg.Palette = SmokePalette()
	}
	return Continuous("smoke", func(ctx EffectContext) ContinuousRuntime {
		return &smokeRuntime{
			particleRuntime: particleRuntime{
				sys:     NewParticleSystem(NewSpring(1, 9, 1), ctx.Seed),
				palette: cfg.Palette,
				layer:   cfg.Layer,
			},
			noise: perlin.NewPerlin(2, 2, 3, int64(ctx.Seed)),
		}
	})
}

// SmokeBirthRate returns puffs per second for a node of width w.
func SmokeBirthRate(w float64) float64 {
	return math.Max(10, w/5)
}

// SmokePlacement places a puff at progress for a w by h node. noise adds a
// sideways drift; it may be nil.
func SmokePlacement(progress float64, seed uint64, w, h float64, noise *perlin.Perlin) ParticlePlacement {
	rng := NewSeededRand(seed)
	scale := w / 750
	inset := smokeLookSize * scale / 2.25
	slice := Rect{X: 0, Y: 0, Width: w, Height: math.Min(smokeSliceHeight, h)}
	ex, ey := slice.X+inset, slice.Y+inset
	ew, eh := slice.Width-2*inset, slice.Height-2*inset
	x0, y0 := slice.Center().X, slice.Center().Y
	if ew > 0 {
		x0 = ex + rng.Float64()*ew
	}
	if eh > 0 {
		y0 = ey + rng.Float64()*eh
	}
	angle := -math.Pi/2 + rng.Range(-0.1*math.Pi, 0.1*math.Pi)
	speed := math.Min(175, w*0.75) + rng.Range(-10, 10)
	spin := rng.Range(-math.Pi, math.Pi)
	alpha := Clamp01(1 - rng.Float64())
	scale0 := scale + rng.Range(-w/1000, w/1000)
	lane := rng.Float64() * 64

	t := progress * smokeLifetime
	drift := 0.0
	if noise != nil {
		drift = noise.Noise2D(lane, t) * smokeDrift
	}
	return ParticlePlacement{
		X:       x0 + math.Cos(angle)*speed*t + drift,
		Y:       y0 + math.Sin(angle)*speed*t,
		Spin:    spin * t,
		Scale:   math.Max(0, scale0-w/2000*t),
		Opacity: alpha - t,
	}
}

type smokeRuntime struct {
	particleRuntime
	noise  *perlin.Perlin
	active bool
	carry  float64
	w, h   float64
}

func (r *smokeRuntime) SetActive(active bool) {
	r.active = active
	if !active {
		r.carry = 0
	}
}

func (r *smokeRuntime) Impulse() {}

func (r *smokeRuntime) Step(dt float64) bool {
	if r.active {
		r.carry += SmokeBirthRate(r.w) * dt
		n := math.Min(math.Floor(r.carry), smokeMaxBirths)
		r.carry -= math.Floor(r.carry)
		r.sys.Spawn(int(n), 0)
	}
	empty := r.sys.Step(dt)
	return empty && !r.active
}

func (r *smokeRuntime) Reset() {
	r.sys.Reset()
	r.carry = 0
}

func (r *smokeRuntime) Present(p *Presentation) {
	r.w, r.h = p.Width, p.Height
	if r.sys.Len() == 0 {
		return
	}
	p.Particles(r.layer, OverlayBehind, r, 0, 0)
}

func (r *smokeRuntime) Size() Vec2 { return Vec2{r.w, r.h} }

func (r *smokeRuntime) Draw(dst *ebiten.Image, op *DrawOptions) {
	for _, rec := range r.sys.Live() {
		pl := SmokePlacement(rec.Progress, rec.Seed, r.w, r.h, r.noise)
		pl.Look = int(rec.ID)
		drawParticle(dst, r.palette.Look(pl.Look), pl, Vec2{}, op)
	}
}
