package flourish

// MaxFrameStep bounds a single simulation step. Frames that took longer, for
// example after the window was backgrounded, are simulated as this long.
const MaxFrameStep = 1.0 / 30

// Simulation is the mutable state of one effect instance as seen by its
// driver.
type Simulation interface {
	// Impulse applies one kick. It is called at most once per frame no matter
	// how many triggers were accepted since the previous frame.
	Impulse()
	// Step advances the state by dt seconds and reports whether it has come
	// to rest. Implementations snap to their rest value when they settle.
	Step(dt float64) bool
	// Finite reports whether every state value is a real number.
	Finite() bool
	// Reset returns the state to rest.
	Reset()
}

// DriverState is the scheduling state of a Driver.
type DriverState uint8

const (
	DriverIdle    DriverState = iota // at rest; ticks cost nothing
	DriverRunning                    // stepping every frame
)

func (s DriverState) String() string {
	if s == DriverRunning {
		return "running"
	}
	return "idle"
}

// Driver steps a Simulation once per frame while it is unsettled and stops
// touching it once it comes to rest.
type Driver struct {
	sim     Simulation
	counter *ImpulseCounter
	seen    uint64
	state   DriverState
	ticks   int
	kicks   int
	resets  int
}

// NewDriver returns an idle driver watching counter. A nil counter means the
// driver is only ever started through Wake.
func NewDriver(sim Simulation, counter *ImpulseCounter) *Driver {
	d := &Driver{sim: sim, counter: counter}
	if counter != nil {
		d.seen = counter.Count()
	}
	return d
}

// State returns the current scheduling state.
func (d *Driver) State() DriverState { return d.state }

// Ticks returns how many steps the driver has run.
func (d *Driver) Ticks() int { return d.ticks }

// Kicks returns how many impulses the driver has delivered.
func (d *Driver) Kicks() int { return d.kicks }

// Resets returns how many times a non-finite state was discarded.
func (d *Driver) Resets() int { return d.resets }

// Wake moves the driver to Running, for state changes that do not come from
// the impulse counter.
func (d *Driver) Wake() {
	d.state = DriverRunning
}

// Tick observes the impulse counter and, while running, advances the
// simulation by dt clamped to [0, MaxFrameStep].
func (d *Driver) Tick(dt float64) {
	if d.counter != nil {
		if c := d.counter.Count(); c != d.seen {
			d.seen = c
			d.sim.Impulse()
			d.kicks++
			d.state = DriverRunning
		}
	}
	if d.state == DriverIdle {
		return
	}
	if !isFinite(dt) {
		dt = 0
	}
	settled := d.sim.Step(Clamp(0, dt, MaxFrameStep))
	d.ticks++
	if !d.sim.Finite() {
		d.sim.Reset()
		d.resets++
		d.state = DriverIdle
		if globalDebug {
			logf("simulation produced a non-finite value; reset to rest")
		}
		return
	}
	if settled {
		d.state = DriverIdle
	}
}

// Stop resets the simulation and idles the driver.
func (d *Driver) Stop() {
	d.sim.Reset()
	d.state = DriverIdle
}
