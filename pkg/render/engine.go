package render

import (
	"errors"
	"sync"

	"mesh-explorer-be/pkg/protocol"
)

// ViewState is the render engine's externally visible condition.
type ViewState string

const (
	ViewEmpty      ViewState = "empty"       // nothing loaded yet
	ViewReady      ViewState = "ready"       // scene built
	ViewBadMesh    ViewState = "bad_mesh"    // empty or malformed mesh
	ViewLoadFailed ViewState = "load_failed" // fetch failed; see LoadError
)

// Engine converts a raw mesh and a segmentation result into a colored scene
// and owns camera manipulation and the auto-rotation animation. Exactly one
// scene is live per engine instance; every rebuild releases the previous
// scene's buffers first.
type Engine struct {
	mu sync.Mutex

	mesh       *protocol.SurfaceMesh
	result     *protocol.SegmentResult
	highlights map[int]bool
	opacity    float64

	scene    *Scene
	state    ViewState
	loadErr  string
	camera   *Camera
	animator *Animator
}

// NewEngine creates an engine with an optional clock for the rotation
// animation; nil means wall time.
func NewEngine(clock Clock) *Engine {
	camera := NewCamera()
	return &Engine{
		opacity:  defaultOpacity,
		state:    ViewEmpty,
		camera:   camera,
		animator: NewAnimator(camera, clock),
	}
}

// SetMesh installs the surface mesh and rebuilds the scene.
func (e *Engine) SetMesh(mesh *protocol.SurfaceMesh) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mesh = mesh
	e.loadErr = ""
	e.rebuildLocked(true)
}

// SetSegmentResult installs a segmentation result and rebuilds colors.
// A nil result clears the previous segmentation.
func (e *Engine) SetSegmentResult(result *protocol.SegmentResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = result
	e.rebuildLocked(false)
}

// SetHighlights replaces the highlight set and rebuilds colors. Ids not
// present in the current result are ignored during coloring.
func (e *Engine) SetHighlights(ids []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	e.highlights = set
	e.rebuildLocked(false)
}

// SetOpacity updates surface opacity in place; no rebuild.
func (e *Engine) SetOpacity(opacity float64) {
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opacity = opacity
	if e.scene != nil && e.scene.Surface != nil {
		e.scene.Surface.Opacity = opacity
	}
}

// SetLoadError records a mesh fetch failure as a distinct view state.
func (e *Engine) SetLoadError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Release()
	e.scene = nil
	e.state = ViewLoadFailed
	if err != nil {
		e.loadErr = err.Error()
	}
}

func (e *Engine) rebuildLocked(fitCamera bool) {
	// Release before constructing so detached geometry never accumulates.
	e.scene.Release()
	e.scene = nil

	if e.mesh == nil {
		e.state = ViewEmpty
		return
	}

	scene, err := BuildScene(e.mesh, e.result, e.highlights, e.opacity)
	if err != nil {
		if errors.Is(err, ErrEmptyMesh) {
			e.state = ViewBadMesh
		} else {
			e.state = ViewLoadFailed
			e.loadErr = err.Error()
		}
		return
	}
	e.scene = scene
	e.state = ViewReady
	if fitCamera {
		e.camera.Fit(scene.Bounds)
	}
}

// Scene returns the live scene, or nil when none is built.
func (e *Engine) Scene() *Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

// State returns the current view state.
func (e *Engine) State() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LoadError returns the message of the last load failure.
func (e *Engine) LoadError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Camera returns the engine's camera for the view layer.
func (e *Engine) Camera() *Camera {
	return e.camera
}

// ZoomIn dollies toward the scene.
func (e *Engine) ZoomIn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera.ZoomIn()
}

// ZoomOut dollies away from the scene.
func (e *Engine) ZoomOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera.ZoomOut()
}

// ResetCamera refits the camera to the current scene bounds.
func (e *Engine) ResetCamera() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene != nil {
		e.camera.Fit(e.scene.Bounds)
	}
}

// ToggleRotation flips the auto-rotation flag, starting or stopping the
// animation loop, and returns the new flag value.
func (e *Engine) ToggleRotation() bool {
	if e.animator.Running() {
		e.animator.Stop()
		return false
	}
	e.animator.Start()
	return true
}

// IsRotating reports whether the auto-rotation loop is active.
func (e *Engine) IsRotating() bool {
	return e.animator.Running()
}

// Animator exposes the rotation task, mainly so tests can drive ticks with
// a virtual elapsed time.
func (e *Engine) Animator() *Animator {
	return e.animator
}

// Teardown stops the animation and releases the scene. Used on session
// switch and unmount; safe to call repeatedly.
func (e *Engine) Teardown() {
	e.animator.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Release()
	e.scene = nil
	e.mesh = nil
	e.result = nil
	e.highlights = nil
	e.state = ViewEmpty
}
