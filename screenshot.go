package flourish

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// screenshotEncoder favors speed: captures are taken mid-animation and
// should not stall the frame.
var screenshotEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Screenshot queues a capture of the next drawn frame. The PNG is written
// under ScreenshotDir and named after the scene time, so captures of an
// effect in flight sort by how far it had run.
func (s *Scene) Screenshot(label string) {
	s.screenshotQueue = append(s.screenshotQueue, label)
}

// flushScreenshots writes the finished frame once per queued label.
func (s *Scene) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}
	defer func() { s.screenshotQueue = s.screenshotQueue[:0] }()

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		logf("screenshot: %v", err)
		return
	}
	b := screen.Bounds()
	pix := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pix)
	img := unpremultiply(pix, b.Dx(), b.Dy())

	for i, label := range s.screenshotQueue {
		path := filepath.Join(s.ScreenshotDir, screenshotName(s.last, s.frames, i, label))
		if err := writePNG(path, img); err != nil {
			logf("screenshot: %v", err)
		}
	}
}

// screenshotName is t<milliseconds>_f<frame>_<index>_<label>.png.
func screenshotName(now float64, frame uint64, index int, label string) string {
	return fmt.Sprintf("t%09d_f%06d_%02d_%s.png", int64(now*1000), frame, index, sanitizeLabel(label))
}

// unpremultiply converts ebiten's premultiplied RGBA pixels to straight
// alpha in a new image.
func unpremultiply(pix []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	for px := img.Pix; len(px) >= 4; px = px[4:] {
		a := uint16(px[3])
		if a == 0 || a == 0xff {
			continue
		}
		for c := range 3 {
			px[c] = uint8(min(uint16(px[c])*0xff/a, 0xff))
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := screenshotEncoder.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps letters, digits, '-' and '.', replacing anything else
// with '_'. Blank labels become "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
