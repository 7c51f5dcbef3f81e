package render

import (
	"math"
	"sync"
	"time"
)

const (
	rotationRate = 8.0 // degrees per second of azimuth
	bobAmplitude = 3.0 // degrees of elevation
	bobPeriod    = 12 * time.Second
	tickInterval = time.Second / 60
)

// Clock abstracts wall time so the animation is testable without a real
// display clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Animator is a cancellable scheduled task that advances the camera: a
// steady azimuth spin plus a small sinusoidal elevation bob so the view
// never looks perfectly static. Rotation speed is elapsed-time driven,
// independent of tick rate.
type Animator struct {
	mu     sync.Mutex
	camera *Camera
	clock  Clock

	running       bool
	stop          chan struct{}
	done          chan struct{}
	baseElevation float64
	elapsed       time.Duration
}

func NewAnimator(camera *Camera, clock Clock) *Animator {
	if clock == nil {
		clock = realClock{}
	}
	return &Animator{camera: camera, clock: clock}
}

// Start begins scheduling ticks. No-op when already running.
func (a *Animator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.baseElevation = a.camera.Elevation
	a.elapsed = 0
	a.stop = make(chan struct{})
	a.done = make(chan struct{})

	go a.run(a.stop, a.done)
}

func (a *Animator) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := a.clock.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := a.clock.Now()
			a.Tick(now.Sub(last))
			last = now
		}
	}
}

// Tick advances the animation by an elapsed duration. Exposed so the loop
// can be driven by a virtual clock in tests.
func (a *Animator) Tick(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elapsed += dt

	a.camera.Azimuth += rotationRate * dt.Seconds()
	for a.camera.Azimuth >= 360 {
		a.camera.Azimuth -= 360
	}

	phase := 2 * math.Pi * float64(a.elapsed) / float64(bobPeriod)
	a.camera.Elevation = a.baseElevation + bobAmplitude*math.Sin(phase)
}

// Stop cancels the tick schedule and waits until no further tick is
// pending. Safe to call repeatedly.
func (a *Animator) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stop)
	done := a.done
	a.mu.Unlock()

	<-done
}

// Running reports whether ticks are currently scheduled.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
