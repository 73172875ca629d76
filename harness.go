package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// HarnessConfig configures Run.
type HarnessConfig struct {
	Title  string
	Width  int
	Height int

	// Scene is the scene under test. Required.
	Scene *Scene

	// Update runs after the scene's own update each frame. Optional.
	Update func() error

	// Draw renders the host game. Optional; stagehand draws nothing itself.
	Draw func(screen *ebiten.Image)
}

// Harness adapts a Scene to ebiten.Game. Each engine tick advances the
// scene one frame; real mouse input passes through to the scene unless a
// synthetic event claimed the frame.
type Harness struct {
	cfg HarnessConfig
}

// NewHarness wraps the config in a runnable game.
func NewHarness(cfg HarnessConfig) *Harness {
	return &Harness{cfg: cfg}
}

// Update implements ebiten.Game.
func (h *Harness) Update() error {
	s := h.cfg.Scene
	s.Update()

	// Synthetic input replaces the real mouse for the frame, identical to
	// how injected events shadow hardware input during scripted runs.
	if !s.ConsumedSynthetic() {
		s.FeedPointer(readMouse())
	}

	if h.cfg.Update != nil {
		return h.cfg.Update()
	}
	return nil
}

// Draw implements ebiten.Game.
func (h *Harness) Draw(screen *ebiten.Image) {
	if h.cfg.Draw != nil {
		h.cfg.Draw(screen)
	}
}

// Layout implements ebiten.Game and keeps the scene viewport in sync with
// the window size.
func (h *Harness) Layout(outsideWidth, outsideHeight int) (int, int) {
	vp := h.cfg.Scene.Viewport()
	if vp.Width != float64(h.cfg.Width) || vp.Height != float64(h.cfg.Height) {
		h.cfg.Scene.SetViewport(float64(h.cfg.Width), float64(h.cfg.Height))
	}
	return h.cfg.Width, h.cfg.Height
}

// Run opens a window and drives the harness until the window closes or
// Update returns an error.
func Run(cfg HarnessConfig) error {
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	return ebiten.RunGame(NewHarness(cfg))
}

// RunHeadless advances the scene the given number of frames without a
// display, for CI runs where no window can open.
func RunHeadless(s *Scene, frames int) {
	for i := 0; i < frames; i++ {
		s.Update()
	}
}

// readMouse samples the hardware mouse into a pointer event descriptor.
func readMouse() PointerEvent {
	mx, my := ebiten.CursorPosition()

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)

	if left || right || middle {
		pressed = true
		if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
	}

	ev := newPointerEvent(Vec2{X: float64(mx), Y: float64(my)}, pressed, button)
	ev.Modifiers = readModifiers()
	return ev
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}
