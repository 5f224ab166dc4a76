package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// RiseConfig configures a Rise effect. The zero value raises white dots from
// the center of the node.
type RiseConfig struct {
	// Palette holds the particle looks; the n-th change shows look n-1.
	// Nil selects a white DotPalette.
	Palette Palette
	// Origin is a unit point in the node's box. Nil selects the center.
	Origin *Vec2
	// Layer routes the particles. Zero is LocalLayer.
	Layer ParticleLayer
	// Velocity is the initial progress velocity of each particle.
	Velocity float64
}

func (c RiseConfig) withDefaults() RiseConfig {
	if len(c.Palette) == 0 {
		c.Palette = DotPalette(ColorWhite, 12)
	}
	if c.Origin == nil {
		c.Origin = &Vec2{0.5, 0.5}
	}
	return c
}

// Rise floats one particle up and away from the origin on every change,
// swaying sideways as it goes. Particles paint in front of the node.
func Rise(cfg RiseConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Simulated("rise", func(ctx EffectContext) EffectRuntime {
		return &riseRuntime{particleRuntime: particleRuntime{
			sys:        NewParticleSystem(NewSpring(1, 30, 1), ctx.Seed),
			perImpulse: 1,
			velocity:   cfg.Velocity,
			palette:    cfg.Palette,
			layer:      cfg.Layer,
			origin:     *cfg.Origin,
		}}
	})
}

// RisePlacement places the particle spawned by the given change at progress.
// change counts from 1.
func RisePlacement(progress float64, seed uint64, change uint64) ParticlePlacement {
	rng := NewSeededRand(seed)
	angle := rng.Range(-10, 10)
	xr := rng.Range(-20, 20)
	yr := rng.Range(0, 10)
	p := progress
	look := 0
	if change > 0 {
		look = int(change - 1)
	}
	return ParticlePlacement{
		X:        p * math.Sin(p*1.4*math.Pi) * xr,
		Y:        p*-50 - yr,
		Rotation: degToRad(-angle * (1 - p)),
		Spin:     degToRad(angle),
		Scale:    1 + 0.2*p,
		Opacity:  1 - math.Pow(1-2*p, 4),
		Look:     look,
	}
}

type riseRuntime struct {
	particleRuntime
	w, h float64
}

func (r *riseRuntime) Present(p *Presentation) {
	if r.sys.Len() == 0 {
		return
	}
	r.w, r.h = p.Width, p.Height
	p.Particles(r.layer, OverlayFront, r, 0, 0)
}

func (r *riseRuntime) Size() Vec2 { return Vec2{r.w, r.h} }

func (r *riseRuntime) Draw(dst *ebiten.Image, op *DrawOptions) {
	origin := r.originIn(r.w, r.h)
	for _, rec := range r.sys.Live() {
		pl := RisePlacement(rec.Progress, rec.Seed, rec.Spawn)
		drawParticle(dst, r.palette.Look(pl.Look), pl, origin, op)
	}
}
