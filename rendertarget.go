package flourish

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// projectedGrid is the number of cells per side used to approximate a
// perspective quad with affine triangles.
const projectedGrid = 4

// renderTexturePool keeps offscreen images keyed by power-of-two size.
// Acquire and Release do not allocate once warm.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared image of at least w by h pixels.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)
	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. It is cleared on the next Acquire.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	key := poolKey(b.Dx(), b.Dy())
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// drawProjected paints cmd's content through its perspective matrix. The
// content is rendered flat into a pooled image, which is then mapped onto a
// grid of projected points. The image is released after the frame.
func (s *Scene) drawProjected(dst *ebiten.Image, cmd *RenderCommand) {
	sz := cmd.Content.Size()
	w := int(math.Ceil(sz.X))
	h := int(math.Ceil(sz.Y))
	if w <= 0 || h <= 0 {
		return
	}
	rt := s.rtPool.Acquire(w, h)
	s.rtDeferred = append(s.rtDeferred, rt)
	cmd.Content.Draw(rt, &DrawOptions{Tint: ColorWhite})

	verts, inds := projectedMesh(s.meshVerts[:0], s.meshInds[:0], cmd.Matrix, cmd.Transform, sz.X, sz.Y, cmd.Color)
	s.meshVerts, s.meshInds = verts, inds
	if len(inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.AntiAlias = true
	op.Blend = cmd.BlendMode.EbitenBlend()
	dst.DrawTriangles(verts, inds, rt, &op)
}

// projectedMesh builds a grid mesh covering a w by h box. Each grid point is
// projected through m, then carried to the screen by world. Source
// coordinates address the unprojected box.
func projectedMesh(verts []ebiten.Vertex, inds []uint16, m mgl64.Mat4, world [6]float64, w, h float64, tint Color) ([]ebiten.Vertex, []uint16) {
	cr := float32(tint.R * tint.A)
	cg := float32(tint.G * tint.A)
	cb := float32(tint.B * tint.A)
	ca := float32(tint.A)
	const n = projectedGrid
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			u := w * float64(i) / n
			v := h * float64(j) / n
			px, py, ok := Project(m, u, v)
			if !ok {
				return verts[:0], inds[:0]
			}
			sx, sy := transformPoint(world, px, py)
			verts = append(verts, ebiten.Vertex{
				DstX: float32(sx), DstY: float32(sy),
				SrcX: float32(u), SrcY: float32(v),
				ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
			})
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := uint16(j*(n+1) + i)
			b := a + 1
			c := a + n + 1
			d := c + 1
			inds = append(inds, a, b, d, a, d, c)
		}
	}
	return verts, inds
}

// releaseDeferred returns the frame's offscreen images to the pool.
func (s *Scene) releaseDeferred() {
	for _, img := range s.rtDeferred {
		s.rtPool.Release(img)
	}
	clear(s.rtDeferred)
	s.rtDeferred = s.rtDeferred[:0]
}
