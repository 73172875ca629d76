package stagehand

// PointerEvent is a transient descriptor for a single pointer input.
// Events are constructed fresh per dispatch and handed to the scene;
// they have no lifecycle beyond the call.
type PointerEvent struct {
	// Pos is the screen-space position in pixels.
	Pos Vec2
	// Pressed reports whether a button is held at this position.
	Pressed bool
	// Button is the button this event concerns. Only meaningful while
	// Pressed, or on the release edge.
	Button MouseButton
	// Mask holds the buttons down at dispatch time.
	Mask ButtonMask
	// Modifiers holds the keyboard modifier state at dispatch time.
	Modifiers KeyModifiers
}

// newPointerEvent builds a descriptor with a mask consistent with the
// pressed flag.
func newPointerEvent(pos Vec2, pressed bool, button MouseButton) PointerEvent {
	var mask ButtonMask
	if pressed {
		mask = button.Mask()
	}
	return PointerEvent{Pos: pos, Pressed: pressed, Button: button, Mask: mask}
}

// queuedEvent is a synthetic event awaiting its frame. done is non-nil only
// on the final event of a sequence and is closed when that event is consumed.
type queuedEvent struct {
	ev   PointerEvent
	done chan struct{}
}

// TapEvent is delivered to registered event taps for every raw pointer
// event the scene dispatches, plus marks. Derived events (click, drag)
// go to handlers only.
type TapEvent struct {
	Frame  uint64
	Type   EventType
	Pos    Vec2 // screen-space position
	Button MouseButton
	Node   string // name of the hit node, "" if none
	Label  string // mark label (EventMark only)
}

// EventTap observes dispatched events. Taps must not mutate the scene.
type EventTap func(TapEvent)
