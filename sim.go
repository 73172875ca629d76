package stagehand

import (
	"errors"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ErrSceneNot2D is returned by world-space conversions when the active
// scene root is not a 2D node.
var ErrSceneNot2D = errors.New("stagehand: active scene root is not a 2D node")

// minDragFrames is the smallest drag sequence: move, press, move, release.
const minDragFrames = 4

// Simulator synthesizes mouse input into a Scene. Immediate methods
// (MoveTo, PressAt, ReleaseAt) dispatch on the spot; sequence methods
// (Click, Drag) enqueue events consumed one per frame, guaranteeing the
// host processes a full update cycle between each injected event.
//
// Sequences run to completion or are fire-and-forgotten; there is no
// cancellation.
type Simulator struct {
	scene *Scene

	// DragEase shapes the intermediate positions of DragOver paths.
	DragEase ease.TweenFunc

	held       bool
	heldButton MouseButton
}

// NewSimulator creates a Simulator bound to the given scene.
func NewSimulator(s *Scene) *Simulator {
	return &Simulator{scene: s, DragEase: ease.Linear}
}

// Scene returns the scene this simulator feeds.
func (sim *Simulator) Scene() *Scene {
	return sim.scene
}

// --- Coordinate helpers ---

// PixelsAtPercent converts normalized screen fractions (0.0–1.0 per axis)
// to pixel coordinates using the scene's viewport size.
func (sim *Simulator) PixelsAtPercent(fx, fy float64) Vec2 {
	return sim.scene.viewport.PixelsAtPercent(fx, fy)
}

// WorldToScreen converts a point in the scene root's 2D space to viewport
// pixel coordinates, applying the root's world transform and the camera
// view transform. Returns ErrSceneNot2D when the scene root is not a 2D
// node; that is the only conversion that can fail.
func (sim *Simulator) WorldToScreen(p Vec2) (Vec2, error) {
	root := sim.scene.root
	if root == nil || root.Kind != Kind2D {
		return Vec2{}, ErrSceneNot2D
	}
	updateWorldTransform(root, identityTransform, false)
	wx, wy := root.LocalToWorld(p.X, p.Y)
	if cam := sim.scene.camera; cam != nil {
		sx, sy := cam.WorldToScreen(wx, wy)
		return Vec2{X: sx, Y: sy}, nil
	}
	return Vec2{X: wx, Y: wy}, nil
}

// --- Immediate dispatch ---

// MoveTo dispatches a single pointer motion to pos, preserving the held
// button state from previous PressAt calls.
func (sim *Simulator) MoveTo(pos Vec2) {
	sim.scene.FeedPointer(newPointerEvent(pos, sim.held, sim.heldButton))
}

// PressAt dispatches a button press at pos.
func (sim *Simulator) PressAt(pos Vec2, button MouseButton) {
	sim.held = true
	sim.heldButton = button
	sim.scene.FeedPointer(newPointerEvent(pos, true, button))
}

// ReleaseAt dispatches a release of the held button at pos.
func (sim *Simulator) ReleaseAt(pos Vec2) {
	button := sim.heldButton
	sim.held = false
	sim.scene.FeedPointer(newPointerEvent(pos, false, button))
}

// --- Sequences ---

// Click queues a full click at pos: motion, press, release, each consumed
// on its own frame. The returned channel closes when the release has been
// processed.
func (sim *Simulator) Click(pos Vec2, button MouseButton) <-chan struct{} {
	return sim.scene.enqueue([]PointerEvent{
		newPointerEvent(pos, false, button),
		newPointerEvent(pos, true, button),
		newPointerEvent(pos, false, button),
	})
}

// ClickPercent is Click at a normalized viewport position.
func (sim *Simulator) ClickPercent(fx, fy float64, button MouseButton) <-chan struct{} {
	return sim.Click(sim.PixelsAtPercent(fx, fy), button)
}

// ClickAsync queues a click and discards the completion signal. Failures in
// the underlying sequence are not observable from this path.
func (sim *Simulator) ClickAsync(pos Vec2, button MouseButton) {
	sim.Click(pos, button)
}

// ClickPercentAsync is ClickAsync at a normalized viewport position.
func (sim *Simulator) ClickPercentAsync(fx, fy float64, button MouseButton) {
	sim.ClickAsync(sim.PixelsAtPercent(fx, fy), button)
}

// Drag queues the minimal drag sequence: motion to from, press, motion to
// to, release. Each event is consumed on its own frame.
func (sim *Simulator) Drag(from, to Vec2, button MouseButton) <-chan struct{} {
	return sim.DragOver(from, to, button, minDragFrames)
}

// DragPercent is Drag between normalized viewport positions.
func (sim *Simulator) DragPercent(fx0, fy0, fx1, fy1 float64, button MouseButton) <-chan struct{} {
	return sim.Drag(sim.PixelsAtPercent(fx0, fy0), sim.PixelsAtPercent(fx1, fy1), button)
}

// DragOver queues a drag stretched over the given number of frames.
// Frames below the minimum are clamped to 4 (move, press, move, release);
// larger values insert intermediate held motions along an eased path from
// from to to, shaped by DragEase.
func (sim *Simulator) DragOver(from, to Vec2, button MouseButton, frames int) <-chan struct{} {
	if frames < minDragFrames {
		frames = minDragFrames
	}

	events := make([]PointerEvent, 0, frames)
	events = append(events,
		newPointerEvent(from, false, button),
		newPointerEvent(from, true, button),
	)

	easeFn := sim.DragEase
	if easeFn == nil {
		easeFn = ease.Linear
	}

	// frames-3 held motions, the last landing exactly on to.
	steps := frames - 3
	tween := gween.New(0, 1, float32(steps), easeFn)
	for i := 1; i < steps; i++ {
		t, _ := tween.Update(1)
		pos := Vec2{
			X: from.X + (to.X-from.X)*float64(t),
			Y: from.Y + (to.Y-from.Y)*float64(t),
		}
		events = append(events, newPointerEvent(pos, true, button))
	}
	events = append(events,
		newPointerEvent(to, true, button),
		newPointerEvent(to, false, button),
	)

	return sim.scene.enqueue(events)
}

// DragAsync queues a drag and discards the completion signal.
func (sim *Simulator) DragAsync(from, to Vec2, button MouseButton) {
	sim.Drag(from, to, button)
}

// DragPercentAsync is DragAsync between normalized viewport positions.
func (sim *Simulator) DragPercentAsync(fx0, fy0, fx1, fy1 float64, button MouseButton) {
	sim.DragAsync(sim.PixelsAtPercent(fx0, fy0), sim.PixelsAtPercent(fx1, fy1), button)
}
