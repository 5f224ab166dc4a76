package flourish

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	for in, want := range map[string]string{
		"after-like":   "after-like",
		"frame.01":     "frame.01",
		"spin at apex": "spin_at_apex",
		"path/to\\it":  "path_to_it",
		"wow!?":        "wow__",
		"   ":          "unlabeled",
		"":             "unlabeled",
		"  Glow2  ":    "Glow2",
	} {
		if got := sanitizeLabel(in); got != want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScreenshotName(t *testing.T) {
	got := screenshotName(1.25, 75, 1, "jump apex")
	if want := "t000001250_f000075_01_jump_apex.png"; got != want {
		t.Errorf("screenshotName = %q, want %q", got, want)
	}
}

func TestScreenshotQueue(t *testing.T) {
	s := NewScene()
	if s.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", s.ScreenshotDir)
	}
	for _, l := range []string{"before", "during", "after"} {
		s.Screenshot(l)
	}
	if got := s.screenshotQueue; len(got) != 3 || got[0] != "before" || got[2] != "after" {
		t.Errorf("queue = %v", got)
	}
}

func TestUnpremultiply(t *testing.T) {
	pix := []byte{
		0, 0, 0, 0,
		255, 128, 0, 255,
		64, 32, 0, 128,
	}
	img := unpremultiply(pix, 3, 1)
	want := []byte{
		0, 0, 0, 0,
		255, 128, 0, 255,
		127, 63, 0, 128,
	}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("Pix = %v, want %v", img.Pix, want)
		}
	}
	if pix[8] != 64 {
		t.Error("source pixels were modified")
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	src := unpremultiply([]byte{255, 0, 0, 255, 0, 0, 0, 0}, 2, 1)
	if err := writePNG(path, src); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if err := writePNG(filepath.Join(t.TempDir(), "missing", "x.png"), src); err == nil {
		t.Error("writing into a missing directory should fail")
	}
}
