package mathutil

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// near compares with an absolute tolerance; mgl32's threshold comparisons
// are relative and reject float noise around zero.
func near(a, b mgl32.Vec3) bool {
	return a.Sub(b).Len() < Epsilon
}

func TestEulerToQuatIdentity(t *testing.T) {
	q := EulerToQuat(mgl32.Vec3{})
	if !q.ApproxEqual(mgl32.QuatIdent()) {
		t.Errorf("got %v", q)
	}
}

func TestEulerToQuatSingleAxis(t *testing.T) {
	cases := []struct {
		euler mgl32.Vec3
		axis  mgl32.Vec3
	}{
		{mgl32.Vec3{math32.Pi / 2, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, math32.Pi / 2, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, math32.Pi / 2}, mgl32.Vec3{0, 0, 1}},
	}
	for _, c := range cases {
		got := EulerToQuat(c.euler)
		want := mgl32.QuatRotate(math32.Pi/2, c.axis)
		if !got.ApproxEqualThreshold(want, Epsilon) {
			t.Errorf("euler %v: got %v want %v", c.euler, got, want)
		}
	}
}

func TestLocal(t *testing.T) {
	m := Local(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1}))
	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !near(p.Vec3(), mgl32.Vec3{1, 3, 3}) || p[3] != 1 {
		t.Errorf("got %v", p)
	}
}

func TestLocalNormalizesRotation(t *testing.T) {
	m := Local(mgl32.Vec3{}, mgl32.Quat{W: 2})
	if !IsIdentity(m) {
		t.Errorf("got %v", m)
	}
	if !IsIdentity(Local(mgl32.Vec3{}, mgl32.Quat{})) {
		t.Error("zero quaternion should fall back to identity")
	}
}

func TestModelFlip(t *testing.T) {
	up := ModelFlip.Rotate(mgl32.Vec3{0, 0, 1})
	if !near(up, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Z-up maps to %v", up)
	}
}

func TestModelFlipAxes(t *testing.T) {
	cases := []struct{ in, want mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	}
	for _, c := range cases {
		if got := ModelFlip.Rotate(c.in); !near(got, c.want) {
			t.Errorf("%v maps to %v, want %v", c.in, got, c.want)
		}
	}
	// float noise around zero still counts as equal
	if !near(mgl32.Vec3{5.96e-8, 0.99999994, -4.37e-8}, mgl32.Vec3{0, 1, 0}) {
		t.Error("near rejects noise around zero")
	}
}

func TestNormalizeOr(t *testing.T) {
	fallback := mgl32.Vec3{0, 0, 1}
	if got := NormalizeOr(mgl32.Vec3{}, fallback); got != fallback {
		t.Errorf("zero vector: %v", got)
	}
	if got := NormalizeOr(mgl32.Vec3{3, 0, 4}, fallback); !near(got, mgl32.Vec3{0.6, 0, 0.8}) {
		t.Errorf("got %v", got)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([][3]float32{{1, -2, 3}, {-1, 5, 0}})
	if lo != [3]float32{-1, -2, 0} || hi != [3]float32{1, 5, 3} {
		t.Errorf("min %v max %v", lo, hi)
	}
}
