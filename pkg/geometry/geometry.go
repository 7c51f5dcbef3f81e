package geometry

import "math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float64
	Max [3]float64
}

// NewBounds returns an empty bounds ready to be extended.
func NewBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: [3]float64{inf, inf, inf},
		Max: [3]float64{-inf, -inf, -inf},
	}
}

func (b *Bounds) Extend(p [3]float64) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b Bounds) Center() [3]float64 {
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Radius is half the bounding box diagonal.
func (b Bounds) Radius() float64 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return math.Sqrt(dx*dx+dy*dy+dz*dz) / 2
}

func (b Bounds) IsValid() bool {
	return b.Min[0] <= b.Max[0]
}

func Sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func Dist(a, b [3]float64) float64 {
	return Norm(Sub(a, b))
}

func Normalize(v [3]float64) [3]float64 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func Dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// AngleBetween returns the angle in radians between two vectors.
func AngleBetween(a, b [3]float64) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	cos := Dot(a, b) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// PolylineLength sums the chord lengths of consecutive points.
func PolylineLength(points [][3]float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Dist(points[i-1], points[i])
	}
	return total
}

// TotalTurning sums the absolute direction changes along a polyline, in
// radians. Straight runs score near zero, arcs accumulate steadily.
func TotalTurning(points [][3]float64) float64 {
	total := 0.0
	for i := 2; i < len(points); i++ {
		d1 := Sub(points[i-1], points[i-2])
		d2 := Sub(points[i], points[i-1])
		total += AngleBetween(d1, d2)
	}
	return total
}

// Downsample picks n evenly spaced points from a polyline, always keeping
// the endpoints. Shorter inputs are returned as-is.
func Downsample(points [][3]float64, n int) [][3]float64 {
	if n <= 0 || len(points) <= n {
		out := make([][3]float64, len(points))
		copy(out, points)
		return out
	}
	if n == 1 {
		return [][3]float64{points[0]}
	}
	out := make([][3]float64, 0, n)
	step := float64(len(points)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		out = append(out, points[idx])
	}
	return out
}
