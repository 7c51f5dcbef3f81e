package render

import (
	"math"
	"testing"

	"mesh-explorer-be/pkg/geometry"
)

func TestCameraZoom(t *testing.T) {
	c := NewCamera()
	start := c.Distance

	c.ZoomIn()
	if got, want := c.Distance, start/dollyInFactor; math.Abs(got-want) > 1e-9 {
		t.Errorf("ZoomIn distance = %v, want %v", got, want)
	}

	c.ZoomOut()
	if got, want := c.Distance, start/dollyInFactor/dollyOutFactor; math.Abs(got-want) > 1e-9 {
		t.Errorf("ZoomOut distance = %v, want %v", got, want)
	}

	if c.ClipNear >= c.ClipFar {
		t.Errorf("clip range inverted: near %v far %v", c.ClipNear, c.ClipFar)
	}
}

func TestCameraFit(t *testing.T) {
	b := geometry.NewBounds()
	b.Extend([3]float64{-1, -1, -1})
	b.Extend([3]float64{1, 1, 1})

	c := NewCamera()
	c.Azimuth = 123
	c.Elevation = -40
	c.Fit(b)

	if c.Target != b.Center() {
		t.Errorf("target = %v, want bounds center %v", c.Target, b.Center())
	}
	if got, want := c.Distance, b.Radius()*fitDistanceFactor; math.Abs(got-want) > 1e-9 {
		t.Errorf("distance = %v, want %v", got, want)
	}
	if c.Azimuth != resetAzimuthOffset || c.Elevation != resetElevationOffset {
		t.Errorf("orientation = (%v, %v), want default offsets", c.Azimuth, c.Elevation)
	}
}

func TestCameraFitInvalidBounds(t *testing.T) {
	c := NewCamera()
	before := *c
	c.Fit(geometry.NewBounds())
	if *c != before {
		t.Error("fit on empty bounds should be a no-op")
	}
}
