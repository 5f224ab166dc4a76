package flourish

import "github.com/go-gl/mathgl/mgl64"

// instanceSource feeds impulses to an instance. Sources are polled from
// Scene.Update with the scene time.
type instanceSource interface {
	tick(now float64)
	cancel()
}

// EffectInstance is the state of one effect on one node. It is created when
// the effect is attached and lives until it is detached or the node is
// disposed.
type EffectInstance struct {
	name     string
	node     *Node
	slot     uint32
	source   instanceSource
	driver   *Driver
	runtime  EffectRuntime
	detached bool
}

// Name returns the name of the effect the instance was created from.
func (e *EffectInstance) Name() string { return e.name }

// Node returns the owning node.
func (e *EffectInstance) Node() *Node { return e.node }

// Slot returns the attach-order slot on the owning node.
func (e *EffectInstance) Slot() uint32 { return e.slot }

// Driver returns the instance's simulation driver.
func (e *EffectInstance) Driver() *Driver { return e.driver }

// Runtime returns the effect state.
func (e *EffectInstance) Runtime() EffectRuntime { return e.runtime }

// Detached reports whether the instance has been torn down.
func (e *EffectInstance) Detached() bool { return e.detached }

// Detach removes the instance from its node and tears it down.
func (e *EffectInstance) Detach() {
	if e.detached {
		return
	}
	e.teardown()
	n := e.node
	if n == nil {
		return
	}
	for i, inst := range n.effects {
		if inst == e {
			copy(n.effects[i:], n.effects[i+1:])
			n.effects[len(n.effects)-1] = nil
			n.effects = n.effects[:len(n.effects)-1]
			break
		}
	}
}

// teardown invalidates every scheduled callback and releases shared
// resources. The runtime is reset so nothing keeps painting.
func (e *EffectInstance) teardown() {
	if e.detached {
		return
	}
	e.detached = true
	e.source.cancel()
	e.driver.Stop()
	if c, ok := e.runtime.(runtimeCloser); ok {
		c.Close()
	}
}

// tick polls the source and steps the driver. It reports whether an impulse
// was delivered this frame.
func (e *EffectInstance) tick(now, dt float64) bool {
	kicks := e.driver.Kicks()
	e.source.tick(now)
	e.driver.Tick(dt)
	return e.driver.Kicks() != kicks
}

// attachEffect creates an instance on n. counter may be nil for effects that
// are only woken explicitly.
func (n *Node) attachEffect(name string, conditional bool, build func(EffectContext) EffectRuntime, counter *ImpulseCounter, src instanceSource) *EffectInstance {
	if globalDebug {
		debugCheckDisposed(n, "attach effect")
	}
	slot := n.nextSlot
	n.nextSlot++
	ctx := EffectContext{
		Node:        n,
		Slot:        slot,
		Seed:        SeedFor(uint64(n.ID), uint64(slot)),
		Conditional: conditional,
	}
	var rt EffectRuntime = nopRuntime{}
	if build != nil {
		if r := build(ctx); r != nil {
			rt = r
		}
	}
	inst := &EffectInstance{
		name:    name,
		node:    n,
		slot:    slot,
		source:  src,
		runtime: rt,
		driver:  NewDriver(rt, counter),
	}
	n.effects = append(n.effects, inst)
	if globalDebug {
		debugCheckEffectCount(n)
	}
	return inst
}

// Presentation returns what the node's effects produced on the last update.
// The returned value MUST NOT be mutated by the caller.
func (n *Node) Presentation() *Presentation {
	return &n.present
}

// updatePresentation composes the node's effects in attach order.
func (n *Node) updatePresentation() {
	sz := n.Size()
	p := &n.present
	p.reset(sz.X, sz.Y)
	for _, inst := range n.effects {
		p.slot = inst.slot
		inst.runtime.Present(p)
	}
	for i := 0; i < 16; i++ {
		if !isFinite(p.Matrix[i]) {
			p.Matrix = mgl64.Ident4()
			break
		}
	}
	if !isFinite(p.Brightness) {
		p.Brightness = 0
	}
	if !isFinite(p.Alpha) {
		p.Alpha = 1
	}
	p.Alpha = Clamp01(p.Alpha)
}

// effectAffine is the affine part of the node's effect matrix, inherited by
// its children.
func (n *Node) effectAffine() [6]float64 {
	if len(n.effects) == 0 {
		return identityTransform
	}
	return affineFit(n.present.Matrix, n.present.Width, n.present.Height)
}

// nopRuntime stands in for a missing factory.
type nopRuntime struct{}

func (nopRuntime) Impulse()              {}
func (nopRuntime) Step(float64) bool     { return true }
func (nopRuntime) Finite() bool          { return true }
func (nopRuntime) Reset()                {}
func (nopRuntime) Present(*Presentation) {}

// --- Change bindings ---

// ChangeBinding connects a change effect to a value. Values passed to Set are
// observed on the next Scene.Update, stamped with the scene time.
type ChangeBinding[V comparable] struct {
	inst    *EffectInstance
	trigger *ChangeTrigger[V]
	queue   []V
	get     func() V
	enabled bool
	accept  func(V) bool
}

// ApplyChangeEffect attaches effect to n, observing values that start at
// initial.
func ApplyChangeEffect[V comparable](n *Node, effect ChangeEffect, initial V) *ChangeBinding[V] {
	b := &ChangeBinding[V]{
		trigger: NewChangeTrigger(initial, effect.cooldown, effect.delay),
		enabled: true,
	}
	b.trigger.Enabled = b.accepts
	b.inst = n.attachEffect(effect.name, false, effect.build, &b.trigger.Counter, b)
	return b
}

// ObserveChangeEffect attaches effect to n and polls get once per update
// instead of waiting for Set.
func ObserveChangeEffect[V comparable](n *Node, effect ChangeEffect, get func() V) *ChangeBinding[V] {
	b := ApplyChangeEffect(n, effect, get())
	b.get = get
	return b
}

// Set records a new value.
func (b *ChangeBinding[V]) Set(v V) {
	b.queue = append(b.queue, v)
}

// Value returns the most recent value, including ones not yet observed.
func (b *ChangeBinding[V]) Value() V {
	if len(b.queue) > 0 {
		return b.queue[len(b.queue)-1]
	}
	return b.trigger.Value()
}

// SetEnabled turns acceptance on or off without detaching. Changes seen
// while disabled are dropped.
func (b *ChangeBinding[V]) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// SetPredicate restricts acceptance to values for which fn holds.
func (b *ChangeBinding[V]) SetPredicate(fn func(V) bool) {
	b.accept = fn
}

// Trigger returns the underlying trigger.
func (b *ChangeBinding[V]) Trigger() *ChangeTrigger[V] { return b.trigger }

// Instance returns the effect instance.
func (b *ChangeBinding[V]) Instance() *EffectInstance { return b.inst }

// Detach removes the effect from its node.
func (b *ChangeBinding[V]) Detach() { b.inst.Detach() }

func (b *ChangeBinding[V]) accepts(v V) bool {
	return b.enabled && (b.accept == nil || b.accept(v))
}

func (b *ChangeBinding[V]) tick(now float64) {
	if b.get != nil {
		b.queue = append(b.queue, b.get())
	}
	for _, v := range b.queue {
		b.trigger.Observe(v, now)
	}
	clear(b.queue)
	b.queue = b.queue[:0]
	b.trigger.Tick(now)
}

func (b *ChangeBinding[V]) cancel() {
	b.trigger.Cancel()
	b.queue = nil
	b.get = nil
}

// --- Conditional bindings ---

// ConditionalBinding connects a conditional effect to a boolean.
type ConditionalBinding struct {
	inst      *EffectInstance
	condition bool
	dirty     bool
	repeat    *RepeatTrigger
	cont      ContinuousRuntime
}

// ApplyConditionalEffect attaches effect to n with the given starting
// condition.
func ApplyConditionalEffect(n *Node, effect ConditionalEffect, condition bool) *ConditionalBinding {
	b := &ConditionalBinding{condition: condition, dirty: true}
	if effect.Repeating() {
		_, delay := effect.repeat.Timing()
		b.repeat = NewRepeatTrigger(effect.interval, delay)
		b.inst = n.attachEffect(effect.name, true, effect.repeat.build, &b.repeat.Counter, b)
		return b
	}
	build := func(ctx EffectContext) EffectRuntime {
		b.cont = effect.continuous(ctx)
		if b.cont == nil {
			return nil
		}
		return b.cont
	}
	b.inst = n.attachEffect(effect.name, false, build, nil, b)
	return b
}

// SetCondition updates the condition. The effect reacts on the next update.
func (b *ConditionalBinding) SetCondition(condition bool) {
	if condition == b.condition {
		return
	}
	b.condition = condition
	b.dirty = true
}

// Condition returns the current condition.
func (b *ConditionalBinding) Condition() bool { return b.condition }

// Repeater returns the repeat trigger, or nil for continuous effects.
func (b *ConditionalBinding) Repeater() *RepeatTrigger { return b.repeat }

// Instance returns the effect instance.
func (b *ConditionalBinding) Instance() *EffectInstance { return b.inst }

// Detach removes the effect from its node.
func (b *ConditionalBinding) Detach() { b.inst.Detach() }

func (b *ConditionalBinding) tick(now float64) {
	if b.dirty {
		b.dirty = false
		switch {
		case b.repeat != nil:
			b.repeat.SetActive(b.condition, now)
		case b.cont != nil:
			b.cont.SetActive(b.condition)
			b.inst.driver.Wake()
		}
	}
	if b.repeat != nil {
		b.repeat.Tick(now)
	}
}

func (b *ConditionalBinding) cancel() {
	if b.repeat != nil {
		b.repeat.Cancel()
	}
}
