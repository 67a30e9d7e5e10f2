// Package mathutil holds transform helpers shared by the skeleton and the
// glTF exporter.
package mathutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used when comparing transforms.
const Epsilon = 1e-4

var (
	// ModelFlip converts Z-up model space to Y-up: Rx(-90°).
	ModelFlip = mgl32.QuatRotate(-math32.Pi/2, mgl32.Vec3{1, 0, 0})

	// InchesToMeters converts Source units to meters.
	InchesToMeters float32 = 0.0254
)

