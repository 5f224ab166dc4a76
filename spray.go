package flourish

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// SprayCount is the number of particles one spray impulse emits.
const SprayCount = 11

// sprayLanes is the width of the random draw per burst. Only the first
// SprayCount lanes are painted, but all of them are drawn so the sequence
// stays stable.
const sprayLanes = 16

// Canvas insets around the node that sprayed particles may reach.
const (
	sprayInsetTop    = 320
	sprayInsetLeft   = 160
	sprayInsetBottom = 40
	sprayInsetRight  = 160
)

// SprayConfig configures a Spray effect. The zero value sprays white dots
// from the center of the node.
type SprayConfig struct {
	// Palette holds the particle looks. Nil selects a white DotPalette.
	Palette Palette
	// Origin is a unit point in the node's box. Nil selects the center.
	Origin *Vec2
	// Layer routes the particles. Zero is LocalLayer.
	Layer ParticleLayer
	// Velocity is the initial progress velocity of each burst.
	Velocity float64
}

func (c SprayConfig) withDefaults() SprayConfig {
	if len(c.Palette) == 0 {
		c.Palette = DotPalette(ColorWhite, 12)
	}
	if c.Origin == nil {
		c.Origin = &Vec2{0.5, 0.5}
	}
	return c
}

// Spray emits a fan of particles in different shades and sizes moving up
// from the origin on every change. Particles paint behind the node.
func Spray(cfg SprayConfig) ChangeEffect {
	cfg = cfg.withDefaults()
	return Simulated("spray", func(ctx EffectContext) EffectRuntime {
		return &sprayRuntime{
			particleRuntime: particleRuntime{
				sys:        NewParticleSystem(NewSpring(1, 30, 1), ctx.Seed),
				perImpulse: 1,
				velocity:   cfg.Velocity,
				palette:    cfg.Palette,
				layer:      cfg.Layer,
				origin:     *cfg.Origin,
			},
			lookSize: cfg.Palette.maxLookSize(),
		}
	})
}

// SprayPlacements lays out one burst at the given progress. The result only
// depends on its arguments. symW and symH are the clamped particle size the
// spread is measured in.
func SprayPlacements(progress float64, seed uint64, symW, symH float64) [SprayCount]ParticlePlacement {
	rng := NewSeededRand(seed)
	offset := rng.IntN(11)
	var value2, brightness [sprayLanes]float64
	for i := range value2 {
		value2[i] = rng.Float64() + float64(i%5)/5
	}
	for i := range brightness {
		brightness[i] = rng.Range(-0.1, 0.1)
	}

	p := progress
	inset := math.Cos(p) * p * -symH * 2.5
	fade := (1 - math.Pow(p, 8)) * math.Pow(math.Max(0, p), 0.25)

	var out [SprayCount]ParticlePlacement
	for i := range out {
		value := float64(i) / 10
		angle := value*45 - 22.5
		out[i] = ParticlePlacement{
			X:          (value - 0.5) * math.Sin(p*math.Pi) * symW * -2,
			Y:          inset - value2[i]*p*symH*2.5,
			Rotation:   degToRad(p*-angle - angle*0.25),
			Spin:       degToRad(math.Sqrt(math.Max(0, 2*p))*angle - angle*0.25),
			Scale:      math.Abs(math.Sin((p*0.75+value2[i])*math.Pi)) * fade,
			Opacity:    1,
			Brightness: brightness[i],
			Look:       i + offset,
		}
	}
	return out
}

type sprayRuntime struct {
	particleRuntime
	lookSize Vec2
	w, h     float64
}

func (r *sprayRuntime) Present(p *Presentation) {
	if r.sys.Len() == 0 {
		return
	}
	r.w, r.h = p.Width, p.Height
	p.Particles(r.layer, OverlayBehind, r, 0, 0)
}

func (r *sprayRuntime) Size() Vec2 { return Vec2{r.w, r.h} }

func (r *sprayRuntime) Draw(dst *ebiten.Image, op *DrawOptions) {
	canvasW := r.w + sprayInsetLeft + sprayInsetRight
	canvasH := r.h + sprayInsetTop + sprayInsetBottom
	symW := Clamp(0, r.lookSize.X, canvasW/6)
	symH := Clamp(0, r.lookSize.Y, canvasH/8)
	origin := r.originIn(r.w, r.h)
	routed := !r.layer.IsLocal()
	for _, rec := range r.sys.Live() {
		for _, pl := range SprayPlacements(rec.Progress, rec.Seed, symW, symH) {
			if routed {
				pl.Opacity *= Clamp01(rec.Progress * 4)
			}
			drawParticle(dst, r.palette.Look(pl.Look), pl, origin, op)
		}
	}
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
