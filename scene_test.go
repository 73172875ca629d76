package stagehand

import "testing"

func newTestScene() (*Scene, *Node) {
	s := NewScene(640, 480)
	area := NewArea("button", Rect{Width: 100, Height: 100})
	s.Root().AddChild(area)
	updateWorldTransform(s.root, identityTransform, false)
	return s, area
}

func TestFeedPointer_Click(t *testing.T) {
	s, area := newTestScene()

	var clicked bool
	s.OnClick(func(ctx PointerContext) {
		clicked = true
		if ctx.Node != area {
			t.Error("expected click on the area node")
		}
	})

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonLeft))
	if clicked {
		t.Error("click should not fire on press")
	}
	s.FeedPointer(newPointerEvent(Vec2{50, 50}, false, MouseButtonLeft))
	if !clicked {
		t.Error("click should fire on release over the same node")
	}
}

func TestFeedPointer_NoClickWhenReleasedElsewhere(t *testing.T) {
	s, _ := newTestScene()

	var clicked bool
	s.OnClick(func(PointerContext) { clicked = true })

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{300, 300}, false, MouseButtonLeft))
	if clicked {
		t.Error("click must not fire when press and release hit different nodes")
	}
}

func TestFeedPointer_ButtonCapturedAtPress(t *testing.T) {
	s, _ := newTestScene()

	var upButton MouseButton
	s.OnPointerUp(func(ctx PointerContext) { upButton = ctx.Button })

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonRight))
	s.FeedPointer(newPointerEvent(Vec2{50, 50}, false, MouseButtonLeft))
	if upButton != MouseButtonRight {
		t.Errorf("release should carry the button captured at press, got %s", upButton)
	}
}

func TestHoverEnterLeave(t *testing.T) {
	s, area := newTestScene()

	var events []string
	s.OnPointerEnter(func(ctx PointerContext) {
		events = append(events, "enter")
		if ctx.Node != area {
			t.Error("enter should reference the hovered node")
		}
	})
	s.OnPointerLeave(func(PointerContext) { events = append(events, "leave") })

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, false, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{300, 300}, false, MouseButtonLeft))

	if len(events) != 2 || events[0] != "enter" || events[1] != "leave" {
		t.Errorf("expected [enter leave], got %v", events)
	}
}

func TestDragHandlers(t *testing.T) {
	s, _ := newTestScene()

	var events []string
	s.OnDragStart(func(DragContext) { events = append(events, "dragstart") })
	s.OnDrag(func(DragContext) { events = append(events, "drag") })
	s.OnDragEnd(func(ctx DragContext) {
		events = append(events, "dragend")
		if ctx.StartX != 10 || ctx.StartY != 10 {
			t.Errorf("expected drag start (10, 10), got (%v, %v)", ctx.StartX, ctx.StartY)
		}
	})

	s.FeedPointer(newPointerEvent(Vec2{10, 10}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{60, 60}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{90, 90}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{90, 90}, false, MouseButtonLeft))

	if len(events) < 3 {
		t.Fatalf("expected at least 3 drag events, got %v", events)
	}
	if events[0] != "dragstart" {
		t.Errorf("first event should be dragstart, got %s", events[0])
	}
	if events[len(events)-1] != "dragend" {
		t.Errorf("last event should be dragend, got %s", events[len(events)-1])
	}
}

func TestDragDeadZone(t *testing.T) {
	s, _ := newTestScene()
	s.SetDragDeadZone(50)

	var started bool
	s.OnDragStart(func(DragContext) { started = true })

	s.FeedPointer(newPointerEvent(Vec2{10, 10}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{15, 15}, true, MouseButtonLeft))
	if started {
		t.Error("movement inside the dead zone must not start a drag")
	}

	s.FeedPointer(newPointerEvent(Vec2{100, 100}, true, MouseButtonLeft))
	if !started {
		t.Error("movement past the dead zone should start a drag")
	}
}

func TestCallbackHandle_Remove(t *testing.T) {
	s, _ := newTestScene()

	var fired bool
	handle := s.OnClick(func(PointerContext) { fired = true })
	handle.Remove()

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonLeft))
	s.FeedPointer(newPointerEvent(Vec2{50, 50}, false, MouseButtonLeft))
	if fired {
		t.Error("removed handler should not fire")
	}
}

func TestHitTest_Topmost(t *testing.T) {
	s, _ := newTestScene()
	top := NewArea("top", Rect{Width: 100, Height: 100})
	s.Root().AddChild(top)
	updateWorldTransform(s.root, identityTransform, false)

	var hit *Node
	s.OnPointerDown(func(ctx PointerContext) { hit = ctx.Node })

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonLeft))
	if hit != top {
		t.Errorf("expected topmost node %q, got %v", top.Name, hit)
	}
}

func TestHitTest_SkipsInvisible(t *testing.T) {
	s, area := newTestScene()
	area.Visible = false

	var hit *Node
	s.OnPointerDown(func(ctx PointerContext) { hit = ctx.Node })

	s.FeedPointer(newPointerEvent(Vec2{50, 50}, true, MouseButtonLeft))
	if hit != nil {
		t.Errorf("invisible node should not be hit, got %v", hit)
	}
}

func TestFeedPointer_CameraConversion(t *testing.T) {
	s := NewScene(640, 480)
	cam := s.NewCamera(Rect{Width: 640, Height: 480})
	cam.X = 320
	cam.Y = 240
	cam.Zoom = 2.0
	cam.MarkDirty()

	area := NewArea("s", Rect{Width: 50, Height: 50})
	area.SetPosition(295, 215)
	s.Root().AddChild(area)
	updateWorldTransform(s.root, identityTransform, false)

	var hit *Node
	s.OnPointerDown(func(ctx PointerContext) { hit = ctx.Node })

	// Screen center maps to world (320, 240) with the camera centered there.
	s.FeedPointer(newPointerEvent(Vec2{320, 240}, true, MouseButtonLeft))
	if hit != area {
		t.Errorf("expected hit via camera transform, got %v", hit)
	}
}

func TestNextFrame(t *testing.T) {
	s := NewScene(100, 100)
	ch := s.NextFrame()

	select {
	case <-ch:
		t.Fatal("frame channel closed before Update")
	default:
	}

	s.Update()

	select {
	case <-ch:
	default:
		t.Fatal("frame channel should close after Update")
	}
	if s.Frame() != 1 {
		t.Errorf("expected frame 1, got %d", s.Frame())
	}
}

func TestUpdate_ConsumesOneQueuedEventPerFrame(t *testing.T) {
	s, _ := newTestScene()
	sim := NewSimulator(s)

	sim.Click(Vec2{50, 50}, MouseButtonLeft)
	if s.Pending() != 3 {
		t.Fatalf("expected 3 queued events, got %d", s.Pending())
	}

	s.Update()
	if s.Pending() != 2 {
		t.Fatalf("expected 2 events after one frame, got %d", s.Pending())
	}
	if !s.ConsumedSynthetic() {
		t.Error("frame should report a consumed synthetic event")
	}

	s.Update()
	s.Update()
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Pending())
	}

	s.Update()
	if s.ConsumedSynthetic() {
		t.Error("frame with empty queue should not report synthetic consumption")
	}
}
