package skeleton

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gkjohnson/source-engine-model-loader/internal/mathutil"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
)

func bone(name string, parent int, pos mgl32.Vec3) mdl.Bone {
	return mdl.Bone{Name: name, Parent: parent, Position: pos, Rotation: mgl32.QuatIdent()}
}

func TestBuildSingleRoot(t *testing.T) {
	s, err := Build([]mdl.Bone{bone("root", -1, mgl32.Vec3{})})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Roots()) != 1 || !mathutil.IsIdentity(s.World(0)) || !mathutil.IsIdentity(s.InverseBind(0)) {
		t.Errorf("roots=%d world=%v inverse=%v", len(s.Roots()), s.World(0), s.InverseBind(0))
	}
}

func TestWorldChainsParents(t *testing.T) {
	spin := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})
	bones := []mdl.Bone{
		{Name: "root", Parent: -1, Position: mgl32.Vec3{0, 0, 10}, Rotation: spin},
		bone("child", 0, mgl32.Vec3{1, 0, 0}),
	}
	s, err := Build(bones)
	if err != nil {
		t.Fatal(err)
	}
	origin := s.World(1).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if origin.Vec3().Sub(mgl32.Vec3{0, 1, 10}).Len() > mathutil.Epsilon {
		t.Errorf("child origin %v", origin)
	}
}

// The inverse bind matrices must come from the fully attached hierarchy.
// Capturing them per bone while attaching in file order would leave the
// child, listed first, relative to nothing.
func TestInverseBindAfterAttachment(t *testing.T) {
	bones := []mdl.Bone{
		bone("hand", 2, mgl32.Vec3{0, 0, 1}),
		bone("root", -1, mgl32.Vec3{5, 0, 0}),
		bone("arm", 1, mgl32.Vec3{0, 3, 0}),
	}
	s, err := Build(bones)
	if err != nil {
		t.Fatal(err)
	}

	want := mgl32.Translate3D(5, 3, 1)
	if !mathutil.ApproxEqual(s.World(0), want, mathutil.Epsilon) {
		t.Errorf("hand world %v, want %v", s.World(0), want)
	}
	for i := 0; i < s.Len(); i++ {
		if !mathutil.IsIdentity(s.World(i).Mul4(s.InverseBind(i))) {
			t.Errorf("bone %d: world * inverse bind is not identity", i)
		}
	}
	if !mathutil.ApproxEqual(s.InverseBind(0), mgl32.Translate3D(-5, -3, -1), mathutil.Epsilon) {
		t.Errorf("hand inverse bind %v", s.InverseBind(0))
	}
}

func TestChildrenAttachedByIndex(t *testing.T) {
	bones := []mdl.Bone{
		bone("a", -1, mgl32.Vec3{}),
		bone("b", 0, mgl32.Vec3{}),
		bone("c", 0, mgl32.Vec3{}),
		bone("d", -1, mgl32.Vec3{}),
	}
	s, err := Build(bones)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Roots()) != 2 || len(s.Nodes[0].Children) != 2 || s.Nodes[2].Parent != s.Nodes[0] {
		t.Errorf("unexpected hierarchy")
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	bones := []mdl.Bone{
		bone("root", -1, mgl32.Vec3{}),
		bone("a", 2, mgl32.Vec3{}),
		bone("b", 1, mgl32.Vec3{}),
	}
	if _, err := Build(bones); err == nil {
		t.Error("expected error for unreachable bones")
	}
}

func TestZeroQuaternionUsesEuler(t *testing.T) {
	b := mdl.Bone{Name: "root", Parent: -1, RadianEuler: mgl32.Vec3{0, 0, math32.Pi / 2}}
	s, err := Build([]mdl.Bone{b, bone("child", 0, mgl32.Vec3{1, 0, 0})})
	if err != nil {
		t.Fatal(err)
	}
	want := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})
	if !s.Nodes[0].Rotation.ApproxEqualThreshold(want, mathutil.Epsilon) {
		t.Errorf("rotation %v, want %v", s.Nodes[0].Rotation, want)
	}
	origin := s.World(1).Col(3).Vec3()
	if origin.Sub(mgl32.Vec3{0, 1, 0}).Len() > mathutil.Epsilon {
		t.Errorf("child origin %v", origin)
	}
}
