package stagehand

const defaultDragDeadZone = 4.0 // pixels

// PointerContext carries pointer event data for down/up/move/enter/leave
// and click handlers.
type PointerContext struct {
	Node      *Node
	GlobalX   float64 // world-space position
	GlobalY   float64
	LocalX    float64 // position in the hit node's local space
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
}

// DragContext carries drag event data.
type DragContext struct {
	Node      *Node
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	StartX    float64
	StartY    float64
	DeltaX    float64
	DeltaY    float64
	Button    MouseButton
	Modifiers KeyModifiers
}

// --- Handler registry ---

type pointerHandler struct {
	id uint32
	fn func(PointerContext)
}

type dragHandler struct {
	id uint32
	fn func(DragContext)
}

type handlerRegistry struct {
	pointerDown  []pointerHandler
	pointerUp    []pointerHandler
	pointerMove  []pointerHandler
	pointerEnter []pointerHandler
	pointerLeave []pointerHandler
	click        []pointerHandler
	dragStart    []dragHandler
	drag         []dragHandler
	dragEnd      []dragHandler
	nextID       uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventPointerDown:
		h.reg.pointerDown = removePointerHandler(h.reg.pointerDown, h.id)
	case EventPointerUp:
		h.reg.pointerUp = removePointerHandler(h.reg.pointerUp, h.id)
	case EventPointerMove:
		h.reg.pointerMove = removePointerHandler(h.reg.pointerMove, h.id)
	case EventPointerEnter:
		h.reg.pointerEnter = removePointerHandler(h.reg.pointerEnter, h.id)
	case EventPointerLeave:
		h.reg.pointerLeave = removePointerHandler(h.reg.pointerLeave, h.id)
	case EventClick:
		h.reg.click = removePointerHandler(h.reg.click, h.id)
	case EventDragStart:
		h.reg.dragStart = removeDragHandler(h.reg.dragStart, h.id)
	case EventDrag:
		h.reg.drag = removeDragHandler(h.reg.drag, h.id)
	case EventDragEnd:
		h.reg.dragEnd = removeDragHandler(h.reg.dragEnd, h.id)
	}
}

func removePointerHandler(s []pointerHandler, id uint32) []pointerHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = pointerHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

func removeDragHandler(s []dragHandler, id uint32) []dragHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = dragHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

// --- Pointer state ---

type pointerState struct {
	down      bool
	startX    float64
	startY    float64
	lastX     float64
	lastY     float64
	hitNode   *Node
	hoverNode *Node // last node the pointer was hovering over (for enter/leave)
	dragging  bool
	button    MouseButton // button captured at press time
}

// frameStepper is advanced once at the start of every Update.
type frameStepper interface {
	step(*Scene)
}

// --- Scene ---

// Scene owns the node tree, viewport, camera, input state, and the synthetic
// event queue. All methods must be called from the host engine's update
// goroutine; completion and frame channels may be observed from anywhere.
type Scene struct {
	root     *Node
	viewport Viewport
	camera   *Camera
	debug    bool

	frame        uint64
	frameWaiters []chan struct{}

	queue             []queuedEvent
	consumedSynthetic bool

	handlers     handlerRegistry
	taps         []EventTap
	pointer      pointerState
	dragDeadZone float64
	hitBuf       []*Node

	steppers []frameStepper
}

// NewScene creates a scene with a pre-created 2D root container and the
// given viewport size in pixels.
func NewScene(width, height float64) *Scene {
	root := NewContainer("root")
	root.Interactable = true
	return &Scene{
		root:         root,
		viewport:     Viewport{Width: width, Height: height},
		dragDeadZone: defaultDragDeadZone,
	}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// SetRoot replaces the scene's root node. Use this to drive a UI-only
// tree (KindUI root); world-space conversions then report ErrSceneNot2D.
func (s *Scene) SetRoot(n *Node) {
	s.root = n
}

// Viewport returns the scene's viewport.
func (s *Scene) Viewport() Viewport {
	return s.viewport
}

// SetViewport resizes the scene's viewport.
func (s *Scene) SetViewport(width, height float64) {
	s.viewport = Viewport{Width: width, Height: height}
	if s.camera != nil {
		s.camera.Viewport = s.viewport.Rect()
		s.camera.MarkDirty()
	}
}

// NewCamera creates the scene camera with the given viewport rectangle.
// A scene without a camera treats screen and world coordinates as equal.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	s.camera = newCamera(viewport)
	return s.camera
}

// Camera returns the scene camera, or nil if none was created.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Frame returns the number of completed Update calls.
func (s *Scene) Frame() uint64 {
	return s.frame
}

// SetDragDeadZone sets the minimum movement in pixels before a drag starts.
func (s *Scene) SetDragDeadZone(pixels float64) {
	s.dragDeadZone = pixels
}

// Update advances the scene by one frame: refreshes world transforms, steps
// attached runners, consumes at most one queued synthetic event, and signals
// frame waiters.
func (s *Scene) Update() {
	updateWorldTransform(s.root, identityTransform, false)

	for _, st := range s.steppers {
		st.step(s)
	}

	s.consumedSynthetic = s.drainOne()

	s.frame++
	for _, w := range s.frameWaiters {
		close(w)
	}
	s.frameWaiters = s.frameWaiters[:0]
}

// ConsumedSynthetic reports whether the last Update consumed a synthetic
// event. Hosts use this to skip real mouse input for the frame.
func (s *Scene) ConsumedSynthetic() bool {
	return s.consumedSynthetic
}

// NextFrame returns a channel closed at the end of the next Update call.
func (s *Scene) NextFrame() <-chan struct{} {
	ch := make(chan struct{})
	s.frameWaiters = append(s.frameWaiters, ch)
	return ch
}

// drainOne pops one synthetic event from the queue and dispatches it.
// Returns true if an event was consumed.
func (s *Scene) drainOne() bool {
	if len(s.queue) == 0 {
		return false
	}
	qe := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue[len(s.queue)-1] = queuedEvent{}
	s.queue = s.queue[:len(s.queue)-1]

	s.FeedPointer(qe.ev)
	if qe.done != nil {
		close(qe.done)
	}
	return true
}

// Pending returns the number of queued synthetic events.
func (s *Scene) Pending() int {
	return len(s.queue)
}

func (s *Scene) enqueue(events []PointerEvent) <-chan struct{} {
	done := make(chan struct{})
	for i, ev := range events {
		qe := queuedEvent{ev: ev}
		if i == len(events)-1 {
			qe.done = done
		}
		s.queue = append(s.queue, qe)
	}
	return done
}

func (s *Scene) addStepper(st frameStepper) {
	s.steppers = append(s.steppers, st)
}

// --- Event taps ---

// Tap registers an observer for every raw pointer event and mark the
// scene dispatches.
func (s *Scene) Tap(fn EventTap) {
	s.taps = append(s.taps, fn)
}

func (s *Scene) emitTap(t EventType, pos Vec2, button MouseButton, node, label string) {
	if len(s.taps) == 0 {
		return
	}
	ev := TapEvent{Frame: s.frame, Type: t, Pos: pos, Button: button, Node: node, Label: label}
	for _, tap := range s.taps {
		tap(ev)
	}
}

// Mark emits a labeled marker to event taps. Markers let recorded sessions
// carry named checkpoints without touching the node tree.
func (s *Scene) Mark(label string) {
	s.debugLog("mark %q at frame %d", label, s.frame)
	s.emitTap(EventMark, Vec2{}, MouseButtonLeft, "", label)
}

// --- Scene-level event registration ---

func (s *Scene) addPointerHandler(event EventType, list *[]pointerHandler, fn func(PointerContext)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	*list = append(*list, pointerHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: event}
}

func (s *Scene) addDragHandler(event EventType, list *[]dragHandler, fn func(DragContext)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	*list = append(*list, dragHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: event}
}

// OnPointerDown registers a scene-level callback for pointer down events.
func (s *Scene) OnPointerDown(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventPointerDown, &s.handlers.pointerDown, fn)
}

// OnPointerUp registers a scene-level callback for pointer up events.
func (s *Scene) OnPointerUp(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventPointerUp, &s.handlers.pointerUp, fn)
}

// OnPointerMove registers a scene-level callback for pointer move events.
func (s *Scene) OnPointerMove(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventPointerMove, &s.handlers.pointerMove, fn)
}

// OnPointerEnter registers a scene-level callback fired when the pointer
// moves over a new node (or from nil to a node).
func (s *Scene) OnPointerEnter(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventPointerEnter, &s.handlers.pointerEnter, fn)
}

// OnPointerLeave registers a scene-level callback fired when the pointer
// leaves a node.
func (s *Scene) OnPointerLeave(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventPointerLeave, &s.handlers.pointerLeave, fn)
}

// OnClick registers a scene-level callback for click events (press then
// release over the same node).
func (s *Scene) OnClick(fn func(PointerContext)) CallbackHandle {
	return s.addPointerHandler(EventClick, &s.handlers.click, fn)
}

// OnDragStart registers a scene-level callback for drag start events.
func (s *Scene) OnDragStart(fn func(DragContext)) CallbackHandle {
	return s.addDragHandler(EventDragStart, &s.handlers.dragStart, fn)
}

// OnDrag registers a scene-level callback for drag events.
func (s *Scene) OnDrag(fn func(DragContext)) CallbackHandle {
	return s.addDragHandler(EventDrag, &s.handlers.drag, fn)
}

// OnDragEnd registers a scene-level callback for drag end events.
func (s *Scene) OnDragEnd(fn func(DragContext)) CallbackHandle {
	return s.addDragHandler(EventDragEnd, &s.handlers.dragEnd, fn)
}

// --- Hit testing ---

// collectInteractable walks the tree in paint order, appending interactable
// nodes to buf. Skips Visible=false or Interactable=false subtrees.
func (s *Scene) collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Interactable {
		return buf
	}
	if n.HitArea.Width > 0 || n.HitArea.Height > 0 {
		buf = append(buf, n)
	}
	for _, child := range n.children {
		buf = s.collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY).
// Returns nil if nothing is hit.
func (s *Scene) hitTest(worldX, worldY float64) *Node {
	s.hitBuf = s.collectInteractable(s.root, s.hitBuf[:0])

	// Iterate backward (reverse paint order): topmost visual node first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if n.containsLocal(lx, ly) {
			return n
		}
	}
	return nil
}

// --- Input processing ---

// FeedPointer is the input submission entry point. The descriptor is
// dispatched immediately: converted screen to world through the camera,
// run through the pointer state machine, and delivered to handlers and
// taps. No queuing, retry, or backpressure.
func (s *Scene) FeedPointer(ev PointerEvent) {
	wx, wy := ev.Pos.X, ev.Pos.Y
	if s.camera != nil {
		wx, wy = s.camera.ScreenToWorld(wx, wy)
	}

	ps := &s.pointer

	// Raw event type for taps and the debug log: edges are down/up,
	// everything else is a move.
	raw := EventPointerMove
	if ev.Pressed && !ps.down {
		raw = EventPointerDown
	} else if !ev.Pressed && ps.down {
		raw = EventPointerUp
	}

	// Determine target node.
	target := s.hitTest(wx, wy)

	var nodeName string
	if target != nil {
		nodeName = target.Name
	}
	s.debugLog("%s (%.1f, %.1f) button=%s node=%q", raw, ev.Pos.X, ev.Pos.Y, ev.Button, nodeName)
	s.emitTap(raw, ev.Pos, ev.Button, nodeName, "")

	// Hover enter/leave when the hovered node changes.
	if target != ps.hoverNode {
		if ps.hoverNode != nil {
			s.firePointer(s.handlers.pointerLeave, ps.hoverNode, wx, wy, ev.Button, ev.Modifiers)
		}
		if target != nil {
			s.firePointer(s.handlers.pointerEnter, target, wx, wy, ev.Button, ev.Modifiers)
		}
		ps.hoverNode = target
	}

	switch raw {
	case EventPointerDown:
		// Capture button for the duration of this interaction.
		ps.down = true
		ps.button = ev.Button
		ps.startX = wx
		ps.startY = wy
		ps.lastX = wx
		ps.lastY = wy
		ps.hitNode = target
		ps.dragging = false

		s.firePointer(s.handlers.pointerDown, target, wx, wy, ps.button, ev.Modifiers)

	case EventPointerUp:
		// Use the button captured at press time.
		if ps.dragging {
			s.fireDrag(s.handlers.dragEnd, ps.hitNode, wx, wy, ps.startX, ps.startY,
				wx-ps.lastX, wy-ps.lastY, ps.button, ev.Modifiers)
		} else if ps.hitNode != nil && ps.hitNode == target {
			s.firePointer(s.handlers.click, target, wx, wy, ps.button, ev.Modifiers)
		}
		s.firePointer(s.handlers.pointerUp, target, wx, wy, ps.button, ev.Modifiers)

		ps.down = false
		ps.hitNode = nil
		ps.dragging = false

	default:
		if ps.down {
			// Held and possibly moved.
			if wx != ps.lastX || wy != ps.lastY {
				if !ps.dragging {
					dx := wx - ps.startX
					dy := wy - ps.startY
					if dx*dx+dy*dy > s.dragDeadZone*s.dragDeadZone {
						ps.dragging = true
						s.fireDrag(s.handlers.dragStart, ps.hitNode, wx, wy, ps.startX, ps.startY,
							wx-ps.startX, wy-ps.startY, ps.button, ev.Modifiers)
					}
				}
				if ps.dragging {
					s.fireDrag(s.handlers.drag, ps.hitNode, wx, wy, ps.startX, ps.startY,
						wx-ps.lastX, wy-ps.lastY, ps.button, ev.Modifiers)
				}
			}
			ps.lastX = wx
			ps.lastY = wy
		} else {
			// Hover move.
			if wx != ps.lastX || wy != ps.lastY {
				s.firePointer(s.handlers.pointerMove, target, wx, wy, ev.Button, ev.Modifiers)
				ps.lastX = wx
				ps.lastY = wy
			}
		}
	}
}

func (s *Scene) firePointer(handlers []pointerHandler, node *Node, wx, wy float64, button MouseButton, mods KeyModifiers) {
	var lx, ly float64
	if node != nil {
		lx, ly = node.WorldToLocal(wx, wy)
	}
	ctx := PointerContext{
		Node:    node,
		GlobalX: wx, GlobalY: wy, LocalX: lx, LocalY: ly,
		Button: button, Modifiers: mods,
	}
	for _, h := range handlers {
		h.fn(ctx)
	}
}

func (s *Scene) fireDrag(handlers []dragHandler, node *Node, wx, wy, startX, startY, deltaX, deltaY float64, button MouseButton, mods KeyModifiers) {
	var lx, ly float64
	if node != nil {
		lx, ly = node.WorldToLocal(wx, wy)
	}
	ctx := DragContext{
		Node:    node,
		GlobalX: wx, GlobalY: wy, LocalX: lx, LocalY: ly,
		StartX: startX, StartY: startY, DeltaX: deltaX, DeltaY: deltaY,
		Button: button, Modifiers: mods,
	}
	for _, h := range handlers {
		h.fn(ctx)
	}
}
