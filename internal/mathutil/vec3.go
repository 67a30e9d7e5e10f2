package mathutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NormalizeOr returns v scaled to unit length, or fallback when v is
// degenerate.
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := math32.Sqrt(v.Dot(v))
	if l < Epsilon || math32.IsNaN(l) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Bounds returns the component-wise min and max of points.
func Bounds(points [][3]float32) (lo, hi [3]float32) {
	if len(points) == 0 {
		return
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math32.Min(lo[k], p[k])
			hi[k] = math32.Max(hi[k], p[k])
		}
	}
	return
}
