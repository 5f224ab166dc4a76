package flourish

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, every impulse an effect receives is forwarded to it.
type EntityStore interface {
	EmitEvent(event ImpulseEvent)
}

// ImpulseEvent describes one impulse delivered to an effect instance.
type ImpulseEvent struct {
	NodeID   uint32
	NodeName string
	Effect   string
	Slot     uint32
	// Time is the scene clock reading of the frame the impulse landed in.
	Time float64
	// Kicks is the instance's impulse count including this one.
	Kicks int
}

const defaultCommandCap = 256

// Scene owns the node tree, the clock that drives effects, and the render
// buffers.
type Scene struct {
	// ClearColor fills the screen before painting. A zero alpha leaves the
	// screen as ebiten hands it over.
	ClearColor Color

	// ScreenshotDir receives captures queued with Screenshot.
	ScreenshotDir string

	root    *Node
	clock   Clock
	store   EntityStore
	debug   bool
	started bool
	last    float64
	frames  uint64

	// Render state
	commands     []RenderCommand
	resolveBuf   []RenderCommand
	layerEntries []layerEntry
	sinkStack    []sinkRef
	treeOrder    int

	// Offscreen state for perspective content
	rtPool     renderTexturePool
	rtDeferred []*ebiten.Image
	meshVerts  []ebiten.Vertex
	meshInds   []uint16

	screenshotQueue []string
	testRunner      *TestRunner
	updateFunc      func() error
}

// NewScene creates a scene with a pre-created root container, driven by the
// system clock.
func NewScene() *Scene {
	return &Scene{
		ScreenshotDir: "screenshots",
		root:          NewContainer("root"),
		clock:         NewSystemClock(),
		commands:      make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// SetClock replaces the scene's clock. The next Update starts a fresh frame
// interval.
func (s *Scene) SetClock(c Clock) {
	if c == nil {
		c = NewSystemClock()
	}
	s.clock = c
	s.started = false
}

// Clock returns the scene's clock.
func (s *Scene) Clock() Clock {
	return s.clock
}

// Frames returns the number of updates run so far.
func (s *Scene) Frames() uint64 {
	return s.frames
}

// Update advances every effect in the tree by the time elapsed since the
// previous update. Nodes outside the tree are not visited, so their timers
// and simulations stay frozen.
func (s *Scene) Update() {
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	now := s.clock.Now()
	dt := 0.0
	if s.started {
		dt = now - s.last
	}
	s.started = true
	s.last = now
	s.frames++

	s.updateNode(s.root, now, dt)
	updateWorldTransform(s.root, identityTransform, 1)
}

// updateNode runs callbacks and effect ticks for a subtree, then composes
// each node's presentation.
func (s *Scene) updateNode(n *Node, now, dt float64) {
	if n.disposed {
		return
	}
	if n.OnUpdate != nil {
		n.OnUpdate(dt)
	}
	for i := 0; i < len(n.effects); i++ {
		inst := n.effects[i]
		if inst.tick(now, dt) && s.store != nil {
			s.store.EmitEvent(ImpulseEvent{
				NodeID:   n.ID,
				NodeName: n.Name,
				Effect:   inst.name,
				Slot:     inst.slot,
				Time:     now,
				Kicks:    inst.driver.Kicks(),
			})
		}
	}
	n.updatePresentation()
	for _, child := range n.children {
		s.updateNode(child, now, dt)
	}
}

// Draw lays out the tree, resolves particle layers, and paints onto screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor)
	}
	s.buildCommands()

	if s.debug {
		stats.layoutTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		stats.layerEntries = len(s.layerEntries)
		t0 = time.Now()
	}

	s.submit(screen)
	s.releaseDeferred()
	s.flushScreenshots(screen)

	if s.debug {
		stats.paintTime = time.Since(t0)
		countRunning(s.root, &stats.runningDrivers, &stats.liveParticles)
		s.debugLog(stats)
	}
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and effect count warnings are printed, and
// per-frame stats are logged.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool
