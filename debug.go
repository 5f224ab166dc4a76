package flourish

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// logOutput receives every diagnostic line. Feedback playback logs from its
// own goroutines, so writes are serialized.
var (
	logMu     sync.Mutex
	logOutput io.Writer = os.Stderr
)

// SetLogOutput redirects diagnostics and returns the previous writer.
// Passing nil discards output.
func SetLogOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOutput
	if w == nil {
		w = io.Discard
	}
	logOutput = w
	return prev
}

// logf writes one prefixed diagnostic line.
func logf(format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	_, _ = fmt.Fprintf(logOutput, "[flourish] "+format+"\n", args...)
}

// debugStats holds per-frame timing and simulation counts.
// Only populated when Scene.debug is true.
type debugStats struct {
	layoutTime     time.Duration
	paintTime      time.Duration
	commandCount   int
	layerEntries   int
	runningDrivers int
	liveParticles  int
}

// debugLog prints frame stats.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	total := stats.layoutTime + stats.paintTime
	logf("layout: %v | paint: %v | total: %v",
		stats.layoutTime, stats.paintTime, total)
	logf("commands: %d | layer entries: %d | running drivers: %d | live particles: %d",
		stats.commandCount, stats.layerEntries, stats.runningDrivers, stats.liveParticles)
}

// debugCheckDisposed panics when a disposed node is used in a tree operation.
// Callers skip it outside debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("flourish debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logf("warning: tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Name)
	}
}

const debugMaxEffects = 16

// debugCheckEffectCount warns when a node carries an unusual number of effects.
func debugCheckEffectCount(n *Node) {
	if len(n.effects) > debugMaxEffects {
		logf("warning: node %q has %d effects (threshold %d)", n.Name, len(n.effects), debugMaxEffects)
	}
}

// countRunning walks the tree and totals running drivers and live particles.
func countRunning(n *Node, drivers, particles *int) {
	for _, inst := range n.effects {
		if inst.driver != nil && inst.driver.State() == DriverRunning {
			*drivers++
		}
		if pc, ok := inst.runtime.(particleCounter); ok {
			*particles += pc.LiveParticles()
		}
	}
	for _, c := range n.children {
		countRunning(c, drivers, particles)
	}
}
