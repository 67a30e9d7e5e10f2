package mathutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// EulerToQuat converts a radian euler (x roll, y pitch, z yaw) to a
// quaternion, applying yaw, then pitch, then roll.
func EulerToQuat(e mgl32.Vec3) mgl32.Quat {
	sx, cx := math32.Sincos(e[0] * 0.5)
	sy, cy := math32.Sincos(e[1] * 0.5)
	sz, cz := math32.Sincos(e[2] * 0.5)

	return mgl32.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl32.Vec3{
			sx*cy*cz - cx*sy*sz,
			cx*sy*cz + sx*cy*sz,
			cx*cy*sz - sx*sy*cz,
		},
	}
}

// NormalizeQuat returns q normalized, or identity for a zero quaternion.
func NormalizeQuat(q mgl32.Quat) mgl32.Quat {
	l := math32.Sqrt(q.W*q.W + q.V.Dot(q.V))
	if l < Epsilon {
		return mgl32.QuatIdent()
	}
	return mgl32.Quat{W: q.W / l, V: q.V.Mul(1 / l)}
}
