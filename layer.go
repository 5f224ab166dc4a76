package flourish

import "slices"

// WrapInParticleLayer declares a particle layer named name on n. Particle
// effects anywhere below n that target NamedLayer(name) paint here, above
// n's subtree and outside any clipping between them and n. The nearest
// declaring ancestor wins. Declaring the same name twice is a no-op.
func (n *Node) WrapInParticleLayer(name string) {
	if name == "" || slices.Contains(n.sinks, name) {
		return
	}
	n.sinks = append(n.sinks, name)
}

// RemoveParticleLayer drops the layer declaration. Sources below fall back
// to the next declaring ancestor or to local painting.
func (n *Node) RemoveParticleLayer(name string) {
	n.sinks = slices.DeleteFunc(n.sinks, func(s string) bool { return s == name })
}

// ParticleLayers returns the layer names declared on n. The returned slice
// MUST NOT be mutated by the caller.
func (n *Node) ParticleLayers() []string {
	return n.sinks
}
