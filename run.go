package flourish

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// ShowFPS prints frame and tick rates in the top-left corner.
	ShowFPS bool
	// ExitWhenScriptDone ends Run one frame after an attached TestRunner
	// finishes, so its last screenshot is still written.
	ExitWhenScriptDone bool
}

// SetUpdateFunc registers a callback run by Run before every Scene.Update.
// Returning ebiten.Termination ends the loop cleanly.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// Run opens a window and drives scene until it is closed or the update
// callback returns an error. A clean termination returns nil.
func Run(scene *Scene, cfg RunConfig) error {
	if scene == nil {
		return errors.New("run: nil scene")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("run: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(&runGame{scene: scene, cfg: cfg})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// runGame adapts a Scene to ebiten.Game.
type runGame struct {
	scene   *Scene
	cfg     RunConfig
	exiting bool
}

func (g *runGame) Update() error {
	if g.exiting {
		return ebiten.Termination
	}
	if fn := g.scene.updateFunc; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	g.scene.Update()
	if r := g.scene.testRunner; g.cfg.ExitWhenScriptDone && r != nil && r.Done() {
		g.exiting = true
	}
	return nil
}

func (g *runGame) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
	if g.cfg.ShowFPS {
		drawFPS(screen)
	}
}

func (g *runGame) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

var (
	fpsBounds   = image.Rect(0, 0, 100, 32)
	fpsBackdrop = color.RGBA{0, 0, 0, 128}
)

// drawFPS paints a small readout over a translucent backdrop.
func drawFPS(screen *ebiten.Image) {
	sub := screen.SubImage(screen.Bounds().Intersect(fpsBounds)).(*ebiten.Image)
	sub.Fill(fpsBackdrop)
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}
