// Package stagehand is a test-automation toolkit for [Ebitengine] scene code.
//
// Stagehand synthesizes mouse input into a running scene one event per
// frame, converts normalized screen percentages and 2D world positions to
// pixel coordinates, runs JSON test scripts, records sessions to SQLite,
// and accepts remote control over a websocket.
//
// # Quick start
//
// Build a [Scene] mirroring your game's interactive regions, then drive it
// with a [Simulator]:
//
//	scene := stagehand.NewScene(640, 480)
//	button := stagehand.NewArea("play", stagehand.Rect{Width: 120, Height: 40})
//	scene.Root().AddChild(button)
//
//	sim := stagehand.NewSimulator(scene)
//	done := sim.ClickPercent(0.5, 0.5, stagehand.MouseButtonLeft)
//	// ... pump scene.Update() from the game loop ...
//	<-done
//
// [Run] wires a scene into a window and game loop for you; for full
// control, implement [ebiten.Game] yourself and call [Scene.Update] each
// tick.
//
// # Sequences and frames
//
// Click and drag sequences queue one event per frame, so the host always
// completes a full update cycle between injected events. Sequence methods
// return a channel closed on completion; the *Async variants discard it,
// and with it any visibility into failures.
//
// # Scripts, recording, remote control
//
// [LoadScript] parses a JSON step list run by a [Runner] attached to the
// scene. [Recorder] persists every dispatched event to SQLite, grouped
// into sessions, and can reconstruct a replayable script from a recorded
// run. [RemoteServer] exposes the same step vocabulary over a websocket
// for driving a live instance from another process.
//
// [Ebitengine]: https://ebitengine.org
package stagehand
