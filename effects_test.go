package flourish

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

// runUntilSettled steps sim at 60 Hz and returns the number of steps it took
// to settle, or -1 after limit steps.
func runUntilSettled(sim Simulation, limit int) int {
	for i := 1; i <= limit; i++ {
		if sim.Step(1.0 / 60) {
			return i
		}
	}
	return -1
}

func newRuntime(t *testing.T, e ChangeEffect) EffectRuntime {
	t.Helper()
	rt := e.build(EffectContext{Seed: 1})
	if rt == nil {
		t.Fatalf("%s: nil runtime", e.Name())
	}
	return rt
}

func TestEffectBuilders(t *testing.T) {
	tests := []struct {
		effect   ChangeEffect
		name     string
		kind     EffectKind
		cooldown float64
	}{
		{Spray(SprayConfig{}), "spray", EffectSimulated, 0},
		{Rise(RiseConfig{}), "rise", EffectSimulated, 0},
		{Jump(20), "jump", EffectSimulated, 0},
		{Spin(SpinConfig{}), "spin", EffectSimulated, 0},
		{Shake(RateDefault), "shake", EffectSimulated, 0},
		{Wiggle(RateFast), "wiggle", EffectSimulated, 0},
		{Glow(GlowConfig{}), "glow", EffectSimulated, 0},
		{Pulse(PulseConfig{Count: 3}), "pulse", EffectAnimated, 0.4},
		{Shine(ShineConfig{}), "shine", EffectAnimated, 0.5},
		{Animate("fade", Curve{}, nil), "fade", EffectAnimated, DefaultAnimatedCooldown},
	}
	for _, tt := range tests {
		if tt.effect.Name() != tt.name {
			t.Errorf("Name = %q, want %q", tt.effect.Name(), tt.name)
		}
		if tt.effect.Kind() != tt.kind {
			t.Errorf("%s: Kind = %v, want %v", tt.name, tt.effect.Kind(), tt.kind)
		}
		if c, _ := tt.effect.Timing(); !approx(c, tt.cooldown, 1e-12) {
			t.Errorf("%s: cooldown = %v, want %v", tt.name, c, tt.cooldown)
		}
	}
}

func TestChangeEffectModifiers(t *testing.T) {
	e := Shake(RateDefault).Delay(0.5).Cooldown(-1).Named("nudge")
	c, d := e.Timing()
	if c != 0 || d != 0.5 || e.Name() != "nudge" {
		t.Errorf("cooldown/delay/name = %v/%v/%q", c, d, e.Name())
	}
	base := Shake(RateDefault)
	if _, d := base.Timing(); d != 0 {
		t.Error("modifiers should return copies")
	}
}

func TestConditionalEffectBuilders(t *testing.T) {
	r := Repeat(Wiggle(RateDefault), 0.5)
	if !r.Repeating() || r.Interval() != 0.5 || r.Name() != "wiggle" {
		t.Errorf("Repeat = %+v", r)
	}
	for _, c := range []ConditionalEffect{GlowWhile(GlowConfig{}), PushDown(), Smoke(SmokeConfig{})} {
		if c.Repeating() {
			t.Errorf("%s should be continuous", c.Name())
		}
	}
}

// ---- Jump ------------------------------------------------------------------

func TestJumpReachesHeightAndLands(t *testing.T) {
	for _, height := range []float64{16, 64} {
		r := newJumpRuntime(height)
		r.Impulse()
		if r.vel >= 0 {
			t.Fatalf("height %v: launch velocity %v, want upward", height, r.vel)
		}
		lowest := 0.0
		steps := 0
		for !r.Step(1.0 / 60) {
			lowest = math.Min(lowest, r.Displacement())
			steps++
			if steps > 600 {
				t.Fatalf("height %v: jump never landed", height)
			}
		}
		if lowest > -0.85*height || lowest < -1.05*height {
			t.Errorf("height %v: apex %v", height, lowest)
		}
		if r.Displacement() != 0 {
			t.Errorf("height %v: landed at %v, want 0", height, r.Displacement())
		}
	}
}

func TestJumpApexAcrossFrameRates(t *testing.T) {
	for _, dt := range []float64{1.0 / 30, 1.0 / 60, 1.0 / 120} {
		r := newJumpRuntime(100)
		r.Impulse()
		lowest := 0.0
		for steps := 0; !r.Step(dt); steps++ {
			lowest = math.Min(lowest, r.Displacement())
			if steps > 2400 {
				t.Fatalf("dt %v: jump never landed", dt)
			}
		}
		if lowest > -95 || lowest < -105 {
			t.Errorf("dt %v: apex %v, want within 5%% of -100", dt, lowest)
		}
		if r.Displacement() != 0 {
			t.Errorf("dt %v: landed at %v", dt, r.Displacement())
		}
	}
}

func TestJumpZeroHeightStaysPut(t *testing.T) {
	r := newJumpRuntime(0)
	r.Impulse()
	if n := runUntilSettled(r, 10); n != 1 {
		t.Errorf("zero-height jump settled after %d steps, want 1", n)
	}
}

func TestJumpPresentLiftsAndSquishes(t *testing.T) {
	r := newJumpRuntime(32)
	var p Presentation
	p.reset(40, 20)
	r.Present(&p)
	if p.Matrix != mgl64.Ident4() {
		t.Error("resting jump should leave the matrix alone")
	}

	r.disp = -10
	p.reset(40, 20)
	r.Present(&p)
	if y := p.Matrix.At(1, 3); y != -10 {
		t.Errorf("lift = %v, want -10", y)
	}

	r.disp = 6
	p.reset(40, 20)
	r.Present(&p)
	// Squashed about the bottom center: shorter, wider, bottom fixed.
	_, by, _ := Project(p.Matrix, 20, 20)
	_, ty, _ := Project(p.Matrix, 20, 0)
	lx, _, _ := Project(p.Matrix, 0, 10)
	if !approx(by, 20, 1e-9) || ty <= 0 || lx >= 0 {
		t.Errorf("squish bottom=%v top=%v left=%v", by, ty, lx)
	}
}

func TestSquishOffsetKeepsArea(t *testing.T) {
	m := SquishOffset(30, 40, 20)
	sx, sy := m.At(0, 0), m.At(1, 1)
	if !approx(sx*sy, 1, 1e-9) {
		t.Errorf("scale %v x %v changes area", sx, sy)
	}
	// Past 20% the squash is rubber-banded and never reaches 40%.
	if sy <= 0.6 || sy >= 0.8 {
		t.Errorf("vertical scale %v outside (0.6, 0.8)", sy)
	}
}

// ---- Spin ------------------------------------------------------------------

func TestSpinCoastsAndSettles(t *testing.T) {
	r := newRuntime(t, Spin(SpinConfig{})).(*spinRuntime)
	r.Impulse()
	if r.vel != SpinRateDefault.Initial {
		t.Errorf("vel = %v, want %v", r.vel, SpinRateDefault.Initial)
	}
	r.Impulse()
	if r.vel != SpinRateDefault.Maximum {
		t.Errorf("vel after second kick = %v, want capped %v", r.vel, SpinRateDefault.Maximum)
	}
	r.Reset()
	r.Impulse()
	highest := 0.0
	steps := 0
	for !r.Step(1.0 / 60) {
		highest = math.Max(highest, r.angle)
		steps++
		if steps > 1200 {
			t.Fatal("spin never settled")
		}
	}
	if highest < 360 {
		t.Errorf("spin peaked at %v degrees, want a full turn", highest)
	}
	if r.angle != 0 || r.vel != 0 {
		t.Errorf("settled at angle %v vel %v", r.angle, r.vel)
	}
}

func TestSpinPresentShades(t *testing.T) {
	r := newRuntime(t, Spin(SpinConfig{})).(*spinRuntime)
	var p Presentation
	p.reset(100, 50)
	r.Present(&p)
	if p.Brightness != 0 || p.Matrix != mgl64.Ident4() {
		t.Error("resting spin should not contribute")
	}
	r.angle = 60
	r.Present(&p)
	if p.Brightness == 0 {
		t.Error("turned spin should shade the node")
	}
	if p.Affine() {
		t.Error("spin about the vertical axis should add perspective")
	}
}

func TestSpinConfigDefaults(t *testing.T) {
	c := SpinConfig{Perspective: -1}.withDefaults()
	if c.Perspective != 0 {
		t.Errorf("negative perspective = %v, want 0", c.Perspective)
	}
	if c.Axis != (mgl64.Vec3{0, 1, 0}) || *c.Anchor != (Vec2{0.5, 0.5}) {
		t.Errorf("defaults = %+v", c)
	}
	if (SpinConfig{}).withDefaults().Perspective != 1.0/6 {
		t.Error("zero perspective should select 1/6")
	}
	if b := (SpinConfig{Boost: 1.5}).withDefaults().Boost; b != maxSpinBoost {
		t.Errorf("Boost = %v, want clamped to %v", b, maxSpinBoost)
	}
	if b := (SpinConfig{Boost: -1}).withDefaults().Boost; b != 0 {
		t.Errorf("negative Boost = %v, want 0", b)
	}
}

func TestSpinCoastIndependentOfFrameRate(t *testing.T) {
	coast := func(cfg SpinConfig, dt, d float64) float64 {
		r := newRuntime(t, Spin(cfg)).(*spinRuntime)
		r.vel = 720
		for range int(math.Round(d / dt)) {
			r.Step(dt)
		}
		return r.vel
	}
	// Both boosts keep the spin above the free velocity for 1/15s.
	for _, boost := range []float64{0, 0.2} {
		cfg := SpinConfig{Boost: boost}
		fast, slow := coast(cfg, 1.0/120, 1.0/15), coast(cfg, 1.0/30, 1.0/15)
		if !approx(fast, slow, 1e-6*fast) {
			t.Errorf("boost %v: velocity %v at 120 Hz, %v at 30 Hz", boost, fast, slow)
		}
	}
	if v := coast(SpinConfig{Boost: 5}, 1.0/30, 1.0/30); v <= 0 {
		t.Errorf("oversized boost reversed the spin: %v", v)
	}
}

// ---- Shake and wiggle ------------------------------------------------------

func TestShakeMovesAndSettles(t *testing.T) {
	for _, rate := range []Rate{RateDefault, RateFast} {
		r := newRuntime(t, Shake(rate)).(*oscillationRuntime)
		r.Impulse()
		moved := false
		steps := 0
		for !r.Step(1.0 / 60) {
			if r.Displacement() != 0 {
				moved = true
			}
			steps++
			if steps > 600 {
				t.Fatal("shake never settled")
			}
		}
		if !moved {
			t.Error("shake never moved")
		}
		if r.Displacement() != 0 {
			t.Errorf("settled at %v", r.Displacement())
		}
	}
}

func TestShakeRapidKicksBounded(t *testing.T) {
	r := newRuntime(t, Shake(RateDefault)).(*oscillationRuntime)
	for range 10 {
		r.Impulse()
	}
	if r.count > 3 {
		t.Errorf("count = %v after rapid kicks, want at most 3", r.count)
	}
}

func TestWiggleConditionalExtraPhases(t *testing.T) {
	plain := Wiggle(RateDefault).build(EffectContext{}).(*oscillationRuntime)
	repeated := Wiggle(RateDefault).build(EffectContext{Conditional: true}).(*oscillationRuntime)
	if plain.extra != 0 || repeated.extra != 4 {
		t.Errorf("extra = %v/%v, want 0/4", plain.extra, repeated.extra)
	}
}

func TestWigglePresentRotatesInPlane(t *testing.T) {
	r := newRuntime(t, Wiggle(RateDefault)).(*oscillationRuntime)
	r.Impulse()
	for range 5 {
		r.Step(1.0 / 60)
	}
	var p Presentation
	p.reset(40, 40)
	r.Present(&p)
	if !p.Affine() {
		t.Error("wiggle should stay affine")
	}
	// The center is the pivot.
	cx, cy, _ := Project(p.Matrix, 20, 20)
	if !approx(cx, 20, 1e-9) || !approx(cy, 20, 1e-9) {
		t.Errorf("center moved to (%v, %v)", cx, cy)
	}
}

func TestRepeatWiggleThroughScene(t *testing.T) {
	s := NewScene()
	clock := &ManualClock{}
	s.SetClock(clock)
	n := NewRect("n", 40, 40, ColorWhite)
	s.Root().AddChild(n)
	b := ApplyConditionalEffect(n, Repeat(Wiggle(RateFast), 1), true)

	kicksAt := func(frame int) int {
		clock.Set(float64(frame) * 0.125)
		s.Update()
		return b.Instance().Driver().Kicks()
	}
	for f := 0; f < 8; f++ {
		if k := kicksAt(f); k != 0 {
			t.Fatalf("kicked at frame %d before the first interval", f)
		}
	}
	if k := kicksAt(8); k != 1 {
		t.Errorf("kicks at 1s = %d, want 1", k)
	}
	for f := 9; f <= 16; f++ {
		kicksAt(f)
	}
	if k := b.Instance().Driver().Kicks(); k != 2 {
		t.Errorf("kicks at 2s = %d, want 2", k)
	}

	b.SetCondition(false)
	for f := 17; f <= 40; f++ {
		kicksAt(f)
	}
	if k := b.Instance().Driver().Kicks(); k != 2 {
		t.Errorf("kicks after clearing = %d, want 2", k)
	}
	if b.Repeater().Running() {
		t.Error("repeater should stop with the condition")
	}
}

func TestRepeatEveryTwoSecondsThroughScene(t *testing.T) {
	s := NewScene()
	clock := &ManualClock{}
	s.SetClock(clock)
	n := NewRect("n", 40, 40, ColorWhite)
	s.Root().AddChild(n)
	b := ApplyConditionalEffect(n, Repeat(Wiggle(RateFast), 2), true)

	var firedAt []float64
	kicks := 0
	for f := 0; f <= 300; f++ {
		now := float64(f) / 60
		if f == 294 {
			b.SetCondition(false)
		}
		clock.Set(now)
		s.Update()
		if k := b.Instance().Driver().Kicks(); k != kicks {
			kicks = k
			firedAt = append(firedAt, now)
		}
	}
	if len(firedAt) != 2 || firedAt[0] != 2 || firedAt[1] != 4 {
		t.Errorf("fired at %v, want [2 4]", firedAt)
	}
	if b.Repeater().Running() {
		t.Error("repeat timer should be cancelled once the condition clears")
	}
}

// ---- Glow ------------------------------------------------------------------

func TestGlowFlaresAndFades(t *testing.T) {
	r := newRuntime(t, Glow(GlowConfig{})).(*glowRuntime)
	r.Impulse()
	if r.vel != 5 {
		t.Errorf("vel = %v, want 5", r.vel)
	}
	r.Step(1.0 / 60)
	r.Step(1.0 / 60)

	var p Presentation
	p.reset(100, 40)
	r.Present(&p)
	if p.Brightness <= 0 {
		t.Error("glow should brighten the node")
	}
	if len(p.Overlays) != 1 || p.Overlays[0].Placement != OverlayBehind {
		t.Fatalf("overlays = %+v", p.Overlays)
	}
	o := p.Overlays[0]
	sz := o.Content.Size()
	if o.X >= 0 || !approx(sz.X, 100-2*o.X, 1e-9) || !approx(sz.Y, 40-2*o.Y, 1e-9) {
		t.Errorf("halo at (%v, %v) size %v", o.X, o.Y, sz)
	}

	if runUntilSettled(r, 600) < 0 {
		t.Fatal("glow never faded")
	}
	p.reset(100, 40)
	r.Present(&p)
	if len(p.Overlays) != 0 || p.Brightness != 0 {
		t.Error("faded glow should not contribute")
	}
}

func TestGlowConfigDefaults(t *testing.T) {
	c := GlowConfig{Radius: 500}.withDefaults()
	if c.Radius != MaxGlowRadius || c.Color != ColorWhite {
		t.Errorf("config = %+v", c)
	}
	if c := (GlowConfig{Radius: math.NaN()}).withDefaults(); c.Radius != DefaultGlowRadius {
		t.Errorf("NaN radius = %v", c.Radius)
	}
}

func TestGlowWhileTracksCondition(t *testing.T) {
	eff := GlowWhile(GlowConfig{})
	r := eff.continuous(EffectContext{}).(*continuousGlow)
	r.SetActive(true)
	if runUntilSettled(r, 60) < 0 {
		t.Fatal("glow never reached its target")
	}
	if r.tw.Value() != glowActiveAmount {
		t.Errorf("value = %v, want %v", r.tw.Value(), glowActiveAmount)
	}
	var p Presentation
	p.reset(10, 10)
	r.Present(&p)
	want := glowRamp(glowActiveAmount) * 0.25
	if !approx(p.Brightness, want, 1e-9) {
		t.Errorf("Brightness = %v, want %v", p.Brightness, want)
	}

	r.SetActive(false)
	runUntilSettled(r, 60)
	if r.tw.Value() != 0 {
		t.Errorf("value = %v after release, want 0", r.tw.Value())
	}
}

// ---- Pulse -----------------------------------------------------------------

func TestPulseQueuesRings(t *testing.T) {
	r := newRuntime(t, Pulse(PulseConfig{Count: 3})).(*pulseRuntime)
	r.Impulse()
	if r.Rings() != 1 {
		t.Fatalf("Rings = %d after impulse, want 1", r.Rings())
	}
	r.Step(0.125)
	r.Step(0.125)
	if r.Rings() != 2 {
		t.Errorf("Rings = %d after 0.25s, want 2", r.Rings())
	}
	r.Step(0.125)
	r.Step(0.125)
	if r.Rings() != 3 || r.pending != 0 {
		t.Errorf("Rings = %d pending = %d after 0.5s", r.Rings(), r.pending)
	}

	steps := 4
	for !r.Step(0.125) {
		steps++
		if steps > 100 {
			t.Fatal("pulse never finished")
		}
	}
	if steps < 32 || steps > 40 {
		t.Errorf("pulse finished after %d steps, want about 4.5s", steps)
	}
}

func TestPulseStrokePlacement(t *testing.T) {
	r := newRuntime(t, Pulse(PulseConfig{Mode: PulseStroke, Layer: NamedLayer("rings")})).(*pulseRuntime)
	var p Presentation
	p.reset(50, 50)
	r.Present(&p)
	if len(p.Overlays) != 0 {
		t.Fatal("idle pulse should present nothing")
	}
	r.Impulse()
	r.Present(&p)
	if len(p.Overlays) != 1 {
		t.Fatalf("overlays = %d, want 1", len(p.Overlays))
	}
	o := p.Overlays[0]
	if o.Placement != OverlayFront || !o.Particle || o.Layer.Name() != "rings" {
		t.Errorf("overlay = %+v", o)
	}
}

func TestPulseRingAt(t *testing.T) {
	start := PulseRingAt(PulseStroke, 0, 100, 50)
	if start.Inset != 0 || start.Opacity != 1 {
		t.Errorf("stroke start = %+v", start)
	}
	if want := math.Max(1, 100.0/25); !approx(start.LineWidth, want, 1e-9) {
		t.Errorf("LineWidth = %v, want %v", start.LineWidth, want)
	}
	if fill := PulseRingAt(PulseFill, 0, 100, 50); fill.Opacity != 0.33 || fill.LineWidth != 0 {
		t.Errorf("fill start = %+v", fill)
	}
	end := PulseRingAt(PulseFill, 1, 100, 50)
	if end.Inset >= 0 {
		t.Errorf("ring should grow past the node, inset %v", end.Inset)
	}
	if end.Opacity > 0 {
		t.Errorf("late ring opacity = %v, want transparent", end.Opacity)
	}
}

func TestBeat(t *testing.T) {
	if got := Beat(0, 5, 0.5); got != 0.5 {
		t.Errorf("Beat(0) = %v, want 0.5", got)
	}
	if a, b := Beat(0.2, 5, 0.5), Beat(0.8, 5, 0.5); a >= b {
		t.Errorf("Beat should rise over the first half period: %v >= %v", a, b)
	}
}

// ---- Shine -----------------------------------------------------------------

func TestShineBandAt(t *testing.T) {
	mid := ShineBandAt(0.5, 100, 100, nil)
	if !approx(mid.CX, 50, 1e-9) || !approx(mid.CY, 50, 1e-9) {
		t.Errorf("mid band at (%v, %v), want center", mid.CX, mid.CY)
	}
	if !approx(mid.Angle, math.Pi/4, 1e-12) {
		t.Errorf("default angle = %v, want the diagonal", mid.Angle)
	}

	flat := 0.0
	start := ShineBandAt(0, 80, 20, &flat)
	if start.CX != -40 || start.CY != 10 || start.Width != 160 || start.Height != 20 {
		t.Errorf("start band = %+v", start)
	}
	if start.Peak != 0 || start.Opacity != 1 {
		t.Errorf("start peak/opacity = %v/%v", start.Peak, start.Opacity)
	}
	end := ShineBandAt(1, 80, 20, &flat)
	if end.CX != 120 || end.Opacity != 0 {
		t.Errorf("end band = %+v", end)
	}
}

func TestClipPolygon(t *testing.T) {
	poly := []shineVertex{{-10, 0, 0}, {10, 0, 1}, {10, 10, 1}, {-10, 10, 0}}
	got := clipPolygon(nil, poly, 20, 10)
	want := []shineVertex{{0, 0, 0.5}, {10, 0, 1}, {10, 10, 1}, {0, 10, 0.5}}
	if len(got) != len(want) {
		t.Fatalf("clipped = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, got[i], want[i])
		}
	}

	outside := []shineVertex{{30, 0, 1}, {40, 0, 1}, {40, 5, 1}}
	if got := clipPolygon(nil, outside, 20, 10); len(got) != 0 {
		t.Errorf("outside polygon clipped to %v", got)
	}

	prefix := []shineVertex{{1, 1, 1}}
	if got := clipPolygon(prefix, poly, 20, 10); len(got) != 5 || got[0] != prefix[0] {
		t.Errorf("clipPolygon should append to out, got %v", got)
	}
}

func TestShinePlaysOnce(t *testing.T) {
	r := newRuntime(t, Shine(ShineConfig{Duration: 0.5})).(*shineRuntime)
	var p Presentation
	p.reset(80, 20)
	r.Present(&p)
	if len(p.Overlays) != 0 {
		t.Fatal("idle shine should present nothing")
	}
	r.Impulse()
	r.Step(0.25)
	r.Present(&p)
	if len(p.Overlays) != 1 || p.Overlays[0].Placement != OverlayFront || p.Overlays[0].Particle {
		t.Errorf("overlays = %+v", p.Overlays)
	}
	if !r.Step(0.25) || r.Playing() {
		t.Error("shine should finish after its duration")
	}
}

// ---- Push-down -------------------------------------------------------------

func TestPushDownFollowsCondition(t *testing.T) {
	r := PushDown().continuous(EffectContext{}).(*pushDownRuntime)
	var p Presentation
	p.reset(100, 100)
	r.Present(&p)
	if p.Matrix != mgl64.Ident4() {
		t.Error("released push-down should not transform")
	}

	r.SetActive(true)
	if runUntilSettled(r, 600) < 0 {
		t.Fatal("push-down never settled")
	}
	if r.spring.Value() != pushDownScale {
		t.Errorf("pressed scale = %v, want %v", r.spring.Value(), pushDownScale)
	}
	p.reset(100, 100)
	r.Present(&p)
	x, y, _ := Project(p.Matrix, 0, 0)
	if !approx(x, 2.5, 1e-9) || !approx(y, 2.5, 1e-9) {
		t.Errorf("corner at (%v, %v), want (2.5, 2.5)", x, y)
	}

	r.SetActive(false)
	runUntilSettled(r, 600)
	if r.spring.Value() != 1 {
		t.Errorf("released scale = %v, want 1", r.spring.Value())
	}
}

func TestContinuousSpring(t *testing.T) {
	s := NewContinuousSpring(0, 0.5, 1)
	if !s.Step(1.0 / 60) {
		t.Error("spring at its target should be at rest")
	}
	s.SetTarget(10)
	if s.Step(1.0 / 60) {
		t.Error("spring away from its target should not rest")
	}
	if s.Value() <= 0 {
		t.Errorf("value = %v, want moving toward 10", s.Value())
	}
	s.Reset()
	if s.Value() != 10 || s.Target() != 10 {
		t.Errorf("Reset left value %v", s.Value())
	}
	if !s.Step(0) {
		t.Error("reset spring should rest")
	}
}

// ---- Smoke -----------------------------------------------------------------

func TestSmokeBirthRate(t *testing.T) {
	if SmokeBirthRate(20) != 10 || SmokeBirthRate(500) != 100 {
		t.Errorf("rates = %v/%v", SmokeBirthRate(20), SmokeBirthRate(500))
	}
}

func TestSmokePlacement(t *testing.T) {
	a := SmokePlacement(0, 5, 300, 200, nil)
	b := SmokePlacement(0, 5, 300, 200, nil)
	if a != b {
		t.Error("placement should depend only on its arguments")
	}
	if a.X < 0 || a.X > 300 || a.Y < 0 || a.Y > smokeSliceHeight {
		t.Errorf("birth at (%v, %v), want in the top slice", a.X, a.Y)
	}
	later := SmokePlacement(0.5, 5, 300, 200, nil)
	if later.Y >= a.Y {
		t.Errorf("puff should rise: y %v -> %v", a.Y, later.Y)
	}
	if later.Opacity >= a.Opacity {
		t.Errorf("puff should fade: %v -> %v", a.Opacity, later.Opacity)
	}
}

func TestSmokeThroughScene(t *testing.T) {
	s := NewScene()
	clock := &ManualClock{}
	s.SetClock(clock)
	n := NewRect("n", 100, 40, ColorWhite)
	s.Root().AddChild(n)
	b := ApplyConditionalEffect(n, Smoke(SmokeConfig{}), true)
	rt := b.Instance().Runtime().(*smokeRuntime)

	for range 60 {
		s.Update()
		clock.Advance(1.0 / 60)
	}
	if rt.LiveParticles() == 0 {
		t.Fatal("active smoke should have puffs")
	}
	if len(n.Presentation().Overlays) != 1 {
		t.Errorf("overlays = %d, want 1", len(n.Presentation().Overlays))
	}

	b.SetCondition(false)
	for range 600 {
		s.Update()
		clock.Advance(1.0 / 60)
	}
	if rt.LiveParticles() != 0 {
		t.Errorf("LiveParticles = %d after the condition cleared", rt.LiveParticles())
	}
	if b.Instance().Driver().State() != DriverIdle {
		t.Error("driver should idle once the last puff is gone")
	}
}

// ---- Animated curves -------------------------------------------------------

func TestCurvePlayer(t *testing.T) {
	c := &curvePlayer{curve: Curve{Duration: 0.5}}
	if !c.Step(0.1) {
		t.Error("idle player should report settled")
	}
	c.Impulse()
	c.Step(0.25)
	if !c.Playing() || !approx(c.Progress(), 0.5, 1e-6) {
		t.Errorf("progress = %v playing = %v", c.Progress(), c.Playing())
	}
	c.Impulse()
	if c.Progress() != 0 {
		t.Error("a new impulse should restart the curve")
	}
	c.Step(0.25)
	if !c.Step(0.25) || c.Playing() || c.Progress() != 0 {
		t.Error("finished curve should stop at rest")
	}
}

func TestCurveTweenGuards(t *testing.T) {
	tw := Curve{Duration: 0}.tween(0, 1)
	if _, done := tw.Update(0.01); !done {
		t.Error("zero duration should finish immediately")
	}
	tw = Curve{Duration: 1, Ease: ease.InQuad}.tween(0, 1)
	if v, _ := tw.Update(0.5); !approx(float64(v), 0.25, 1e-6) {
		t.Errorf("InQuad at half = %v, want 0.25", v)
	}
}

func TestAnimateCooldownThroughScene(t *testing.T) {
	s := NewScene()
	clock := &ManualClock{}
	s.SetClock(clock)
	n := NewRect("n", 40, 40, ColorWhite)
	s.Root().AddChild(n)

	var seen []float64
	fade := Animate("fade", Curve{Duration: 0.25}, func(p *Presentation, progress float64) {
		p.Alpha *= 1 - progress
		seen = append(seen, progress)
	})
	b := ApplyChangeEffect(n, fade, 0)

	s.Update()
	b.Set(1)
	clock.Set(0.0625)
	s.Update()
	if len(seen) != 1 || n.Presentation().Alpha >= 1 {
		t.Fatalf("seen = %v alpha = %v", seen, n.Presentation().Alpha)
	}

	b.Set(2) // inside the cooldown
	clock.Set(0.125)
	s.Update()
	b.Set(3)
	clock.Set(0.5)
	s.Update()
	if k := b.Instance().Driver().Kicks(); k != 2 {
		t.Errorf("Kicks = %d, want 2", k)
	}
}

func TestTweenValueRetarget(t *testing.T) {
	tv := tweenValue{curve: Curve{Duration: 0.25}}
	if tv.SetTarget(0) {
		t.Error("setting the current target should be a no-op")
	}
	tv.SetTarget(1)
	tv.Step(0.125)
	if !approx(tv.Value(), 0.5, 1e-6) {
		t.Fatalf("value = %v, want 0.5", tv.Value())
	}
	tv.SetTarget(0)
	if !tv.Step(0.25) || tv.Value() != 0 {
		t.Errorf("value = %v after retarget, want 0", tv.Value())
	}
	tv.SetTarget(1)
	tv.Reset()
	if tv.Value() != 1 {
		t.Errorf("Reset value = %v, want 1", tv.Value())
	}
}
