package render

import (
	"errors"
	"testing"

	"mesh-explorer-be/pkg/protocol"
)

func TestEngineLifecycle(t *testing.T) {
	e := NewEngine(nil)
	if e.State() != ViewEmpty {
		t.Fatalf("initial state = %v, want empty", e.State())
	}

	e.SetMesh(testMesh())
	if e.State() != ViewReady {
		t.Fatalf("state after mesh = %v, want ready", e.State())
	}
	if e.Scene() == nil {
		t.Fatal("no scene built")
	}
	if e.Camera().Distance <= 0 {
		t.Error("camera not fitted")
	}

	e.Teardown()
	if e.State() != ViewEmpty {
		t.Errorf("state after teardown = %v, want empty", e.State())
	}
	if e.Scene() != nil {
		t.Error("scene survived teardown")
	}
	e.Teardown() // idempotent
}

func TestEngineBadMesh(t *testing.T) {
	e := NewEngine(nil)
	e.SetMesh(&protocol.SurfaceMesh{})
	if e.State() != ViewBadMesh {
		t.Errorf("state = %v, want bad mesh", e.State())
	}
	if e.Scene() != nil {
		t.Error("bad mesh must not produce a scene")
	}
}

func TestEngineLoadError(t *testing.T) {
	e := NewEngine(nil)
	e.SetLoadError(errors.New("fetch failed"))
	if e.State() != ViewLoadFailed {
		t.Errorf("state = %v, want load failed", e.State())
	}
	if e.LoadError() != "fetch failed" {
		t.Errorf("load error = %q", e.LoadError())
	}
}

func TestEngineRebuildReleasesPreviousScene(t *testing.T) {
	e := NewEngine(nil)
	e.SetMesh(testMesh())
	old := e.Scene()

	e.SetSegmentResult(&protocol.SegmentResult{
		Segments: []protocol.Segment{{ID: 0, Type: protocol.SegmentStraight, FaceIDs: []int{0}}},
	})

	if !old.Released() {
		t.Error("previous scene not released on rebuild")
	}
	if e.Scene() == old {
		t.Error("rebuild returned the same scene")
	}
}

func TestEngineOpacityUpdatesInPlace(t *testing.T) {
	e := NewEngine(nil)
	e.SetMesh(testMesh())
	scene := e.Scene()

	e.SetOpacity(0.3)
	if e.Scene() != scene {
		t.Fatal("opacity change must not rebuild the scene")
	}
	if scene.Surface.Opacity != 0.3 {
		t.Errorf("opacity = %v, want 0.3", scene.Surface.Opacity)
	}

	e.SetOpacity(7)
	if scene.Surface.Opacity != 1 {
		t.Errorf("opacity not clamped: %v", scene.Surface.Opacity)
	}
	e.SetOpacity(-2)
	if scene.Surface.Opacity != 0 {
		t.Errorf("opacity not clamped: %v", scene.Surface.Opacity)
	}
}

func TestEngineHighlightRebuild(t *testing.T) {
	e := NewEngine(nil)
	e.SetMesh(testMesh())
	e.SetSegmentResult(&protocol.SegmentResult{
		Segments: []protocol.Segment{{ID: 3, Type: protocol.SegmentArc, FaceIDs: []int{1}}},
	})

	e.SetHighlights([]int{3})
	if got := e.Scene().Surface.FaceColors[1]; got != HighlightColor {
		t.Errorf("highlighted face = %v, want highlight color", got)
	}

	e.SetHighlights(nil)
	if got := e.Scene().Surface.FaceColors[1]; got != colorArc {
		t.Errorf("cleared highlight face = %v, want type color", got)
	}
}

func TestEngineToggleRotation(t *testing.T) {
	e := NewEngine(nil)
	if !e.ToggleRotation() {
		t.Fatal("first toggle should start rotation")
	}
	if !e.IsRotating() {
		t.Fatal("rotation not running")
	}
	if e.ToggleRotation() {
		t.Fatal("second toggle should stop rotation")
	}
	if e.IsRotating() {
		t.Fatal("rotation still running")
	}
}
