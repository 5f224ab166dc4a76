package flourish

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// CommandType identifies the kind of render command.
type CommandType uint8

const (
	CommandContent   CommandType = iota // node content through an affine transform
	CommandProjected                    // node content through a perspective matrix
	CommandOverlay                      // effect overlay or particle output
	CommandLayer                        // particle layer sink, expanded after traversal
)

// RenderCommand is a single draw instruction emitted during scene traversal.
type RenderCommand struct {
	Type CommandType
	// Node owns the content. For redirected particle output it is the
	// emitting node.
	Node *Node
	// Sink is the node whose particle layer painted this command, or nil.
	Sink      *Node
	Content   Drawable
	Transform [6]float64
	// Matrix is the node's effect matrix, for CommandProjected only.
	Matrix    mgl64.Mat4
	Color     Color
	BlendMode BlendMode
	// Clip bounds the command in screen space when Clipped is set.
	Clip    Rect
	Clipped bool

	layerName string
	treeOrder int
}

// layerKey orders particle layer entries: by emitting node, then by effect
// slot.
type layerKey struct {
	node uint32
	slot uint32
}

func compareLayerKeys(a, b layerKey) int {
	if c := cmp.Compare(a.node, b.node); c != 0 {
		return c
	}
	return cmp.Compare(a.slot, b.slot)
}

// layerEntry is particle output published for a named sink during layout.
type layerEntry struct {
	key       layerKey
	name      string
	sink      *Node
	source    *Node
	content   Drawable
	// local places the output in the sink's local space.
	local     [6]float64
	tint      Color
	blendMode BlendMode
}

// sinkRef is one particle layer declared by a node on the current path.
type sinkRef struct {
	name string
	node *Node
}

// buildCommands lays out the tree and produces the frame's command list.
// Layout runs first and publishes particle output for named layers; sinks
// are resolved once the whole tree has been visited.
func (s *Scene) buildCommands() {
	s.commands = s.commands[:0]
	clear(s.layerEntries)
	s.layerEntries = s.layerEntries[:0]
	s.sinkStack = s.sinkStack[:0]
	s.treeOrder = 0

	updateWorldTransform(s.root, identityTransform, 1)
	s.traverse(s.root, Rect{}, false)
	s.resolveLayers()
}

// traverse walks the tree depth-first in ZIndex order, emitting commands
// for each visible node: behind overlays, content, front overlays, then the
// children, then any particle layers the node declared.
func (s *Scene) traverse(n *Node, clip Rect, clipped bool) {
	if !n.Visible || n.disposed {
		return
	}
	for _, name := range n.sinks {
		s.sinkStack = append(s.sinkStack, sinkRef{name: name, node: n})
	}

	p := &n.present
	alpha := n.worldAlpha * p.Alpha
	effectWorld := n.worldTransform
	if len(n.effects) > 0 {
		effectWorld = multiplyAffine(n.worldTransform, n.effectAffine())
	}

	s.emitOverlays(n, OverlayBehind, effectWorld, alpha, clip, clipped)

	if n.Content != nil && alpha > 0 {
		tint := n.Color.WithAlpha(alpha)
		if p.Brightness != 0 {
			f := math.Max(0, 1+p.Brightness)
			tint.R *= f
			tint.G *= f
			tint.B *= f
		}
		cmd := RenderCommand{
			Type:      CommandContent,
			Node:      n,
			Content:   n.Content,
			Transform: effectWorld,
			Color:     tint,
			BlendMode: n.BlendMode,
			Clip:      clip,
			Clipped:   clipped,
		}
		if len(n.effects) > 0 && !p.Affine() {
			cmd.Type = CommandProjected
			cmd.Transform = n.worldTransform
			cmd.Matrix = p.Matrix
		}
		s.emit(cmd)
	}

	s.emitOverlays(n, OverlayFront, effectWorld, alpha, clip, clipped)

	if len(n.children) > 0 {
		childClip, childClipped := clip, clipped
		if n.ClipChildren {
			b := n.WorldBounds()
			if clipped {
				b = b.Intersection(clip)
			}
			childClip, childClipped = b, true
		}
		for _, child := range n.sortedChildList() {
			s.traverse(child, childClip, childClipped)
		}
	}

	for _, name := range n.sinks {
		s.emit(RenderCommand{
			Type:      CommandLayer,
			Node:      n,
			Clip:      clip,
			Clipped:   clipped,
			layerName: name,
		})
	}
	s.sinkStack = s.sinkStack[:len(s.sinkStack)-len(n.sinks)]
}

// emitOverlays emits the node's overlays for one placement. Particle output
// aimed at a named layer with a sink on the current path is published to
// that sink instead of painting here.
func (s *Scene) emitOverlays(n *Node, place OverlayPlacement, effectWorld [6]float64, alpha float64, clip Rect, clipped bool) {
	for i := range n.present.Overlays {
		o := &n.present.Overlays[i]
		if o.Placement != place {
			continue
		}
		tint := ColorWhite.WithAlpha(alpha * o.Alpha)
		if o.Particle {
			if sink := s.findSink(o.Layer); sink != nil {
				local := translateAffine(n.worldTransform, o.X, o.Y)
				s.layerEntries = append(s.layerEntries, layerEntry{
					key:       layerKey{node: n.ID, slot: o.slot},
					name:      o.Layer.name,
					sink:      sink,
					source:    n,
					content:   o.Content,
					local:     multiplyAffine(invertAffine(sink.worldTransform), local),
					tint:      tint,
					blendMode: o.BlendMode,
				})
				continue
			}
		}
		world := effectWorld
		if o.Particle {
			world = n.worldTransform
		}
		s.emit(RenderCommand{
			Type:      CommandOverlay,
			Node:      n,
			Content:   o.Content,
			Transform: translateAffine(world, o.X, o.Y),
			Color:     tint,
			BlendMode: o.BlendMode,
			Clip:      clip,
			Clipped:   clipped,
		})
	}
}

// findSink returns the nearest node on the current path that declared a
// particle layer with l's name, or nil.
func (s *Scene) findSink(l ParticleLayer) *Node {
	if l.IsLocal() {
		return nil
	}
	for i := len(s.sinkStack) - 1; i >= 0; i-- {
		if s.sinkStack[i].name == l.name {
			return s.sinkStack[i].node
		}
	}
	return nil
}

func (s *Scene) emit(cmd RenderCommand) {
	s.treeOrder++
	cmd.treeOrder = s.treeOrder
	s.commands = append(s.commands, cmd)
}

// resolveLayers replaces every layer placeholder with the entries published
// for it. Entries keep their source's placement, resolved through the
// sink's local space, and take the sink's clip and paint order.
func (s *Scene) resolveLayers() {
	hasLayer := false
	for i := range s.commands {
		if s.commands[i].Type == CommandLayer {
			hasLayer = true
			break
		}
	}
	if !hasLayer {
		return
	}
	slices.SortStableFunc(s.layerEntries, func(a, b layerEntry) int {
		return compareLayerKeys(a.key, b.key)
	})
	out := s.resolveBuf[:0]
	for _, cmd := range s.commands {
		if cmd.Type != CommandLayer {
			out = append(out, cmd)
			continue
		}
		sink := cmd.Node
		for i := range s.layerEntries {
			e := &s.layerEntries[i]
			if e.sink != sink || e.name != cmd.layerName {
				continue
			}
			out = append(out, RenderCommand{
				Type:      CommandOverlay,
				Node:      e.source,
				Sink:      sink,
				Content:   e.content,
				Transform: multiplyAffine(sink.worldTransform, e.local),
				Color:     e.tint,
				BlendMode: e.blendMode,
				Clip:      cmd.Clip,
				Clipped:   cmd.Clipped,
				treeOrder: cmd.treeOrder,
			})
		}
	}
	s.resolveBuf = s.commands
	s.commands = out
}

// submit paints the command list onto target in order.
func (s *Scene) submit(target *ebiten.Image) {
	bounds := target.Bounds()
	for i := range s.commands {
		cmd := &s.commands[i]
		if cmd.Content == nil {
			continue
		}
		dst := target
		if cmd.Clipped {
			r := clipRect(cmd.Clip).Intersect(bounds)
			if r.Empty() {
				continue
			}
			dst = target.SubImage(r).(*ebiten.Image)
		}
		switch cmd.Type {
		case CommandProjected:
			s.drawProjected(dst, cmd)
		default:
			cmd.Content.Draw(dst, &DrawOptions{
				GeoM:  affineGeoM(cmd.Transform),
				Tint:  cmd.Color,
				Blend: cmd.BlendMode,
			})
		}
	}
}

// clipRect rounds a screen-space rectangle outward to whole pixels.
func clipRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}
