package stagehand

// Vec2 is a 2D vector used for positions, offsets, and sizes throughout
// the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// NodeKind distinguishes the coordinate space a Node lives in.
type NodeKind uint8

const (
	// Kind2D nodes live in world space and carry a full affine transform.
	Kind2D NodeKind = iota
	// KindUI nodes live in screen space (labels, buttons, overlays). They
	// have a position but no world transform of consequence.
	KindUI
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// Mask returns the single-bit ButtonMask for this button.
func (b MouseButton) Mask() ButtonMask {
	return 1 << b
}

// String returns a short lowercase name ("left", "right", "middle").
func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonRight:
		return "right"
	case MouseButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// ButtonMask is a bitmask of currently held mouse buttons.
type ButtonMask uint8

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// EventType identifies a kind of interaction event.
type EventType uint8

const (
	EventPointerDown  EventType = iota // fires when a pointer button is pressed
	EventPointerUp                     // fires when a pointer button is released
	EventPointerMove                   // fires when the pointer moves
	EventClick                         // fires on press then release over the same node
	EventDragStart                     // fires when movement exceeds the drag dead zone
	EventDrag                          // fires each frame while dragging
	EventDragEnd                       // fires when the pointer is released after dragging
	EventPointerEnter                  // fires when the pointer enters a node's bounds
	EventPointerLeave                  // fires when the pointer leaves a node's bounds
	EventMark                          // synthetic marker emitted by Scene.Mark
)

// String returns a stable lowercase name, used by the recorder and debug log.
func (t EventType) String() string {
	switch t {
	case EventPointerDown:
		return "down"
	case EventPointerUp:
		return "up"
	case EventPointerMove:
		return "move"
	case EventClick:
		return "click"
	case EventDragStart:
		return "dragstart"
	case EventDrag:
		return "drag"
	case EventDragEnd:
		return "dragend"
	case EventPointerEnter:
		return "enter"
	case EventPointerLeave:
		return "leave"
	case EventMark:
		return "mark"
	default:
		return "unknown"
	}
}
