package flourish

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication happens when a command is submitted.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint.
var ColorWhite = Color{1, 1, 1, 1}

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// Brightened adds b to every color channel, clamped to [0, 1].
func (c Color) Brightened(b float64) Color {
	return Color{Clamp01(c.R + b), Clamp01(c.G + b), Clamp01(c.B + b), c.A}
}

// RGBA implements color.Color with premultiplied 16-bit channels.
func (c Color) RGBA() (r, g, b, a uint32) {
	al := Clamp01(c.A)
	r = uint32(Clamp01(c.R)*al*0xffff + 0.5)
	g = uint32(Clamp01(c.G)*al*0xffff + 0.5)
	b = uint32(Clamp01(c.B)*al*0xffff + 0.5)
	a = uint32(al*0xffff + 0.5)
	return
}

var _ color.Color = Color{}

// Vec2 is a 2D vector used for positions, offsets, and sizes.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v*f.
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Rect is an axis-aligned rectangle. The origin is the top-left with Y
// increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Intersection returns the overlap of r and other. Disjoint rectangles yield
// a zero-size rectangle.
func (r Rect) Intersection(other Rect) Rect {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.X+r.Width, other.X+other.Width)
	y1 := math.Min(r.Y+r.Height, other.Y+other.Height)
	if x1 < x0 || y1 < y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// BlendMode selects a compositing operation.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                     // additive / lighter
	BlendScreen                  // screen (1 - (1-src)*(1-dst); only brightens)
	BlendBelow                   // destination-over (draw behind existing content)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendBelow:
		return ebiten.BlendDestinationOver
	default:
		return ebiten.BlendSourceOver
	}
}

// Rate selects how quickly a change effect plays.
type Rate struct {
	kind    rateKind
	seconds float64
}

type rateKind uint8

const (
	rateDefault rateKind = iota
	rateFast
	rateCustom
)

var (
	RateDefault = Rate{kind: rateDefault} // the effect's standard speed
	RateFast    = Rate{kind: rateFast}    // a quicker variant
)

// RatePhase sets an explicit phase length in seconds. Non-positive values
// fall back to RateDefault.
func RatePhase(seconds float64) Rate {
	if seconds <= 0 || !isFinite(seconds) {
		return RateDefault
	}
	return Rate{kind: rateCustom, seconds: seconds}
}

// phaseLength resolves the rate against an effect's defaults.
func (r Rate) phaseLength(def, fast float64) float64 {
	switch r.kind {
	case rateFast:
		return fast
	case rateCustom:
		return r.seconds
	default:
		return def
	}
}
