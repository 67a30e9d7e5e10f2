package mathutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Local builds the transform of a bone relative to its parent.
func Local(pos mgl32.Vec3, rot mgl32.Quat) mgl32.Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(NormalizeQuat(rot).Mat4())
}

// ApproxEqual compares two matrices element-wise within eps.
func ApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// IsIdentity checks if m is the identity within Epsilon.
func IsIdentity(m mgl32.Mat4) bool {
	return ApproxEqual(m, mgl32.Ident4(), Epsilon)
}

// Columns splits m into its four columns, the layout glTF accessors expect
// for MAT4.
func Columns(m mgl32.Mat4) [4][4]float32 {
	return [4][4]float32{
		{m[0], m[1], m[2], m[3]},
		{m[4], m[5], m[6], m[7]},
		{m[8], m[9], m[10], m[11]},
		{m[12], m[13], m[14], m[15]},
	}
}
