package stagehand

// nodeIDCounter is a plain counter (no atomic — stagehand is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph element. A single flat struct is used for all node
// kinds to avoid interface dispatch on the hot path.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64

	// Computed (unexported, updated during traversal)
	worldTransform [6]float64
	transformDirty bool

	// Visibility & interaction
	Visible      bool
	Interactable bool

	// HitArea is the node's hit-test region in local coordinates.
	// A zero-size area makes the node unhittable.
	HitArea Rect

	// Text is the display string for KindUI label nodes.
	Text string

	// Metadata
	UserData any

	disposed bool
}

func newNode(name string, kind NodeKind) *Node {
	return &Node{
		ID:             nextNodeID(),
		Name:           name,
		Kind:           kind,
		ScaleX:         1,
		ScaleY:         1,
		worldTransform: identityTransform,
		transformDirty: true,
		Visible:        true,
	}
}

// NewContainer creates a 2D group node with no hit area of its own.
func NewContainer(name string) *Node {
	return newNode(name, Kind2D)
}

// NewArea creates an interactable 2D node with the given local hit region.
func NewArea(name string, hit Rect) *Node {
	n := newNode(name, Kind2D)
	n.HitArea = hit
	n.Interactable = true
	return n
}

// NewLabel creates a screen-space UI node holding display text.
func NewLabel(name, text string) *Node {
	n := newNode(name, KindUI)
	n.Text = text
	return n
}

// AddChild appends child to n. A child already parented elsewhere is
// reparented.
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	child.transformDirty = true
	n.children = append(n.children, child)
}

// RemoveChild detaches child from n. No-op if child is not a child of n.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Children returns the node's children. The returned slice MUST NOT be mutated.
func (n *Node) Children() []*Node {
	return n.children
}

// Find returns the first descendant (depth-first) with the given name,
// or nil if none matches.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Dispose detaches the node from its parent and marks it and all
// descendants disposed.
func (n *Node) Dispose() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	n.markDisposed()
}

func (n *Node) markDisposed() {
	n.disposed = true
	for _, c := range n.children {
		c.markDisposed()
	}
}

// IsDisposed reports whether Dispose was called on this node or an ancestor.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// containsLocal tests whether (lx, ly) falls inside the node's hit area.
func (n *Node) containsLocal(lx, ly float64) bool {
	if n.HitArea.Width == 0 && n.HitArea.Height == 0 {
		return false
	}
	return n.HitArea.Contains(lx, ly)
}
