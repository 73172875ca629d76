package stagehand

import (
	"encoding/json"
	"fmt"
)

// Step is a single action in a test script.
//
// Actions: "move", "click", "drag", "wait", "mark". Coordinates are pixels
// unless Percent is set, in which case they are normalized [0,1] viewport
// fractions. Button defaults to the left button.
type Step struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Percent bool    `json:"percent,omitempty"`
	Button  string  `json:"button,omitempty"`
}

// Script is the top-level structure for a test script.
type Script struct {
	Steps []Step `json:"steps"`
}

// LoadScript parses a JSON test script.
func LoadScript(jsonData []byte) (*Script, error) {
	var script Script
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	return &script, nil
}

// parseButton maps a script button name to a MouseButton. Unknown or empty
// names mean the left button.
func parseButton(name string) MouseButton {
	switch name {
	case "right":
		return MouseButtonRight
	case "middle":
		return MouseButtonMiddle
	default:
		return MouseButtonLeft
	}
}

// resolvePoint converts step coordinates to pixels.
func resolvePoint(sim *Simulator, x, y float64, percent bool) Vec2 {
	if percent {
		return sim.PixelsAtPercent(x, y)
	}
	return Vec2{X: x, Y: y}
}

// executeStep applies one step through the simulator. For sequence steps it
// returns the completion channel; for immediate steps it returns nil.
func executeStep(sim *Simulator, st Step) <-chan struct{} {
	switch st.Action {
	case "move":
		return sim.scene.enqueue([]PointerEvent{
			newPointerEvent(resolvePoint(sim, st.X, st.Y, st.Percent), sim.held, sim.heldButton),
		})
	case "click":
		return sim.Click(resolvePoint(sim, st.X, st.Y, st.Percent), parseButton(st.Button))
	case "drag":
		frames := st.Frames
		if frames < minDragFrames {
			frames = minDragFrames
		}
		from := resolvePoint(sim, st.FromX, st.FromY, st.Percent)
		to := resolvePoint(sim, st.ToX, st.ToY, st.Percent)
		return sim.DragOver(from, to, parseButton(st.Button), frames)
	case "mark":
		sim.scene.Mark(st.Label)
	}
	return nil
}

// Runner sequences script steps across frames. Attach to a Scene via
// SetRunner; the scene steps it once per Update, before the synthetic
// queue drains.
type Runner struct {
	sim       *Simulator
	steps     []Step
	cursor    int
	waitCount int
	done      bool
}

// NewRunner creates a Runner for the given script.
func NewRunner(script *Script) *Runner {
	return &Runner{steps: script.Steps}
}

// SetRunner attaches a script runner to the scene.
func (s *Scene) SetRunner(r *Runner) {
	s.addStepper(r)
}

// Done reports whether all steps in the script have been executed and
// their injected events consumed.
func (r *Runner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *Runner) step(s *Scene) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if s.Pending() > 0 {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	if r.sim == nil {
		r.sim = NewSimulator(s)
	}

	st := r.steps[r.cursor]
	r.cursor++
	s.debugLog("runner step %d: %s", r.cursor, st.Action)

	if st.Action == "wait" {
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
		return
	}
	executeStep(r.sim, st)

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 && s.Pending() == 0 {
		r.done = true
	}
}
