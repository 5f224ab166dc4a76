package flourish

import (
	"cmp"
	"slices"
)

// Node IDs are handed out on the main goroutine only. Zero marks a disposed
// node.
var lastNodeID uint32

func nextNodeID() uint32 {
	lastNodeID++
	return lastNodeID
}

// Node is the scene graph element effects attach to. A single flat struct is
// used for every kind of node; what it paints is decided by Content.
type Node struct {
	ID     uint32
	Name   string
	Parent *Node

	children       []*Node
	sortedChildren []*Node
	childrenSorted bool

	// Local transform. Rotation is in radians about the pivot.
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	PivotX   float64
	PivotY   float64

	// Width and Height are the layout size. Effects use them as their
	// bounds and anchor. Zero falls back to the size of Content.
	Width, Height float64

	worldTransform [6]float64
	worldAlpha     float64

	Alpha   float64
	Visible bool

	// ClipChildren restricts descendants to this node's bounds. Particle
	// output escapes it only through a named particle layer declared above.
	ClipChildren bool

	// ZIndex orders siblings for painting; ties keep insertion order.
	ZIndex int

	Content   Drawable
	Color     Color
	BlendMode BlendMode
	UserData  any

	// OnUpdate is called once per Scene.Update with the frame delta.
	OnUpdate func(dt float64)

	effects  []*EffectInstance
	present  Presentation
	nextSlot uint32
	sinks    []string

	disposed bool
}

func newNode(name string, content Drawable) *Node {
	return &Node{
		ID:             nextNodeID(),
		Name:           name,
		Content:        content,
		ScaleX:         1,
		ScaleY:         1,
		Alpha:          1,
		Color:          ColorWhite,
		Visible:        true,
		childrenSorted: true,
	}
}

// NewContainer creates a node with no visual content.
func NewContainer(name string) *Node {
	return newNode(name, nil)
}

// NewNode creates a node that paints content and takes its size.
func NewNode(name string, content Drawable) *Node {
	n := newNode(name, content)
	if content != nil {
		sz := content.Size()
		n.Width, n.Height = sz.X, sz.Y
	}
	return n
}

// NewRect creates a node painting a filled rectangle of the given size.
func NewRect(name string, w, h float64, c Color) *Node {
	return NewNode(name, NewShape(ShapeRect, w, h, c))
}

// Size returns the node's layout size, falling back to its content size.
func (n *Node) Size() Vec2 {
	if n.Width > 0 || n.Height > 0 || n.Content == nil {
		return Vec2{n.Width, n.Height}
	}
	return n.Content.Size()
}

// SetSize sets the layout size.
func (n *Node) SetSize(w, h float64) {
	n.Width = w
	n.Height = h
}

// --- Tree manipulation ---

// AddChild appends child, taking it from its previous parent if it has one.
// A nil child or one that is an ancestor of n panics.
func (n *Node) AddChild(child *Node) {
	n.insertChild(child, -1, "AddChild")
}

// AddChildAt inserts child before the child currently at index. The index is
// taken after child has left its previous parent.
func (n *Node) AddChildAt(child *Node, index int) {
	n.insertChild(child, index, "AddChildAt")
}

// insertChild adopts child at index, or at the end when index is negative.
func (n *Node) insertChild(child *Node, index int, op string) {
	if child == nil {
		panic("flourish: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, op+" (parent)")
		debugCheckDisposed(child, op+" (child)")
	}
	if isAncestor(child, n) {
		panic("flourish: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.detachChild(child)
	}
	if index < 0 {
		index = len(n.children)
	}
	if index > len(n.children) {
		panic("flourish: child index out of range")
	}
	n.children = slices.Insert(n.children, index, child)
	child.Parent = n
	n.childrenSorted = false
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child. Its effects stay attached and resume ticking
// once it is back in a scene. Removing another node's child panics.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("flourish: child's parent is not this node")
	}
	n.detachChild(child)
}

// RemoveChildAt detaches and returns the child at index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("flourish: child index out of range")
	}
	child := n.children[index]
	n.removeAt(index)
	return child
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren orphans every child without disposing them.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.Parent = nil
	}
	n.children = slices.Delete(n.children, 0, len(n.children))
	n.childrenSorted = false
}

// Children returns the child list in insertion order. Callers must not
// modify it.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.ZIndex == z {
		return
	}
	n.ZIndex = z
	if n.Parent != nil {
		n.Parent.childrenSorted = false
	}
}

// Effects returns the effect instances attached to this node, in attachment
// order. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Effects() []*EffectInstance {
	return n.effects
}

// --- Disposal ---

// Dispose removes this node from its parent, tears down every attached
// effect, and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, inst := range n.effects {
		inst.teardown()
	}
	n.effects = nil
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.sortedChildren = nil
	n.sinks = nil
	n.Parent = nil
	n.Content = nil
	n.UserData = nil
	n.OnUpdate = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func (n *Node) detachChild(child *Node) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.removeAt(i)
	}
}

// removeAt drops the child at i and clears its parent link. slices.Delete
// zeroes the vacated tail slot so the backing array holds no stale pointer.
func (n *Node) removeAt(i int) {
	n.children[i].Parent = nil
	n.children = slices.Delete(n.children, i, i+1)
	n.childrenSorted = false
}

// sortedChildList returns children in paint order: ascending ZIndex, ties in
// insertion order. The order is cached until the children or a ZIndex change.
func (n *Node) sortedChildList() []*Node {
	if n.childrenSorted && n.sortedChildren != nil {
		return n.sortedChildren
	}
	n.sortedChildren = append(n.sortedChildren[:0], n.children...)
	slices.SortStableFunc(n.sortedChildren, func(a, b *Node) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	n.childrenSorted = true
	return n.sortedChildren
}
