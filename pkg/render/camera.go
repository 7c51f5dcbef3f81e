package render

import "mesh-explorer-be/pkg/geometry"

const (
	dollyInFactor  = 1.2
	dollyOutFactor = 0.8

	// Default orientation offset applied after fitting, so the object is
	// viewed from a pleasant angle rather than dead-on.
	resetAzimuthOffset   = 25.0
	resetElevationOffset = 15.0

	fitDistanceFactor = 2.5
)

// Camera holds an orbiting view: azimuth/elevation in degrees around a
// target point, at a distance. Mutated only from the owning view's event
// loop, so it carries no lock.
type Camera struct {
	Azimuth   float64
	Elevation float64
	Distance  float64
	Target    [3]float64
	ClipNear  float64
	ClipFar   float64
}

func NewCamera() *Camera {
	c := &Camera{Distance: 10}
	c.updateClipRange()
	return c
}

// ZoomIn dollies the camera toward the target by a fixed factor.
func (c *Camera) ZoomIn() {
	c.Distance /= dollyInFactor
	c.updateClipRange()
}

// ZoomOut dollies the camera away from the target by a fixed factor.
func (c *Camera) ZoomOut() {
	c.Distance /= dollyOutFactor
	c.updateClipRange()
}

// Fit positions the camera so the given bounds fill the view, then applies
// the default orientation offset.
func (c *Camera) Fit(b geometry.Bounds) {
	if !b.IsValid() {
		return
	}
	c.Target = b.Center()
	radius := b.Radius()
	if radius == 0 {
		radius = 1
	}
	c.Distance = radius * fitDistanceFactor
	c.Azimuth = resetAzimuthOffset
	c.Elevation = resetElevationOffset
	c.updateClipRange()
}

func (c *Camera) updateClipRange() {
	c.ClipNear = c.Distance * 0.01
	c.ClipFar = c.Distance * 10
}
