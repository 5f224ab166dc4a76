package flourish

import (
	"encoding/json"
	"errors"
	"fmt"
)

// testStep is one scripted action. Only the fields its Action uses are read.
type testStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Target  string  `json:"target,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Active  bool    `json:"active,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
}

type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner plays a JSON script against a scene, one step per Update. It
// drives named bindings so an effect sequence can be reproduced frame for
// frame and captured with screenshots.
//
// Supported actions:
//
//	{"action": "change", "target": "likes"}              fire a change
//	{"action": "set", "target": "likes", "value": 3}     set a value
//	{"action": "condition", "target": "busy", "active": true}
//	{"action": "wait", "frames": 10}
//	{"action": "advance", "seconds": 0.5}                needs a ManualClock
//	{"action": "screenshot", "label": "after-like"}
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool

	changes    map[string]func()
	values     map[string]func(float64)
	conditions map[string]*ConditionalBinding
}

var errNoTestSteps = errors.New("parse test script: no steps")

// LoadTestScript parses a JSON test script and returns a runner. Unknown
// actions are rejected up front.
func LoadTestScript(data []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errNoTestSteps
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "change", "set", "condition":
			if st.Target == "" {
				return nil, fmt.Errorf("parse test script: step %d: %s needs a target", i, st.Action)
			}
		case "wait", "advance", "screenshot":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{
		steps:      script.Steps,
		changes:    make(map[string]func()),
		values:     make(map[string]func(float64)),
		conditions: make(map[string]*ConditionalBinding),
	}, nil
}

// BindChange names a function that fires a change, usually by bumping a
// ChangeBinding's value.
func (r *TestRunner) BindChange(name string, fn func()) {
	r.changes[name] = fn
}

// BindValue names a function that sets a value from a script number.
func (r *TestRunner) BindValue(name string, fn func(v float64)) {
	r.values[name] = fn
}

// BindCondition names a conditional binding for condition steps.
func (r *TestRunner) BindCondition(name string, b *ConditionalBinding) {
	r.conditions[name] = b
}

// SetTestRunner attaches a test runner that will be stepped every frame.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether all steps in the script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step runs the next action. It is called at the start of Scene.Update, so
// values set here are observed by the same frame's effect tick.
func (r *TestRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "change":
		if fn, ok := r.changes[st.Target]; ok {
			fn()
		} else {
			logf("test runner: no change bound to %q", st.Target)
		}
	case "set":
		if fn, ok := r.values[st.Target]; ok {
			fn(st.Value)
		} else {
			logf("test runner: no value bound to %q", st.Target)
		}
	case "condition":
		if b, ok := r.conditions[st.Target]; ok {
			b.SetCondition(st.Active)
		} else {
			logf("test runner: no condition bound to %q", st.Target)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "advance":
		if c, ok := s.clock.(*ManualClock); ok {
			c.Advance(st.Seconds)
		} else {
			logf("test runner: advance needs a ManualClock")
		}
	case "screenshot":
		s.Screenshot(st.Label)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
