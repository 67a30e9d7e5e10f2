// Package skeleton builds the bone hierarchy of a model and captures its
// bind pose.
package skeleton

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/mathutil"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
)

// Node is one bone in the hierarchy.
type Node struct {
	Index    int
	Name     string
	Parent   *Node
	Children []*Node
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// Skeleton owns the bone nodes, indexed by bone number, along with their
// bind-pose world and inverse bind matrices.
type Skeleton struct {
	Nodes       []*Node
	roots       []*Node
	world       []mgl32.Mat4
	inverseBind []mgl32.Mat4
}

// Build instantiates one node per bone, attaches every node to its parent
// by index, then walks the finished hierarchy from its roots to compute the
// bind pose. Parents may appear after their children in bones.
func Build(bones []mdl.Bone) (*Skeleton, error) {
	s := &Skeleton{Nodes: make([]*Node, len(bones))}
	for i, b := range bones {
		s.Nodes[i] = &Node{Index: i, Name: b.Name, Position: b.Position, Rotation: bindRotation(b)}
	}

	for i, b := range bones {
		p, ok := b.ParentIndex()
		if !ok {
			s.roots = append(s.roots, s.Nodes[i])
			continue
		}
		if p >= len(bones) || p == i {
			return nil, errors.Errorf("skeleton: bone %d has parent %d", i, p)
		}
		parent := s.Nodes[p]
		s.Nodes[i].Parent = parent
		parent.Children = append(parent.Children, s.Nodes[i])
	}

	s.world = make([]mgl32.Mat4, len(bones))
	visited := 0
	var walk func(n *Node, parent mgl32.Mat4)
	walk = func(n *Node, parent mgl32.Mat4) {
		visited++
		s.world[n.Index] = parent.Mul4(mathutil.Local(n.Position, n.Rotation))
		for _, c := range n.Children {
			walk(c, s.world[n.Index])
		}
	}
	for _, r := range s.roots {
		walk(r, mgl32.Ident4())
	}
	if visited != len(bones) {
		return nil, errors.Errorf("skeleton: %d of %d bones are unreachable from a root", len(bones)-visited, len(bones))
	}

	s.inverseBind = make([]mgl32.Mat4, len(bones))
	for i, w := range s.world {
		s.inverseBind[i] = w.Inv()
	}
	return s, nil
}

// bindRotation returns the bone's stored quaternion, rebuilding it from the
// radian euler when the quaternion is zeroed out.
func bindRotation(b mdl.Bone) mgl32.Quat {
	q := b.Rotation
	if math32.Sqrt(q.W*q.W+q.V.Dot(q.V)) < mathutil.Epsilon {
		return mathutil.EulerToQuat(b.RadianEuler)
	}
	return q
}

func (s *Skeleton) Len() int { return len(s.Nodes) }

func (s *Skeleton) Roots() []*Node { return s.roots }

// World returns the bind-pose model-space transform of bone i.
func (s *Skeleton) World(i int) mgl32.Mat4 { return s.world[i] }

// InverseBind returns the inverse of World(i).
func (s *Skeleton) InverseBind(i int) mgl32.Mat4 { return s.inverseBind[i] }

// InverseBindMatrices returns all inverse bind matrices in bone order.
func (s *Skeleton) InverseBindMatrices() []mgl32.Mat4 { return s.inverseBind }

// Local returns the parent-relative transform of bone i.
func (s *Skeleton) Local(i int) mgl32.Mat4 {
	n := s.Nodes[i]
	return mathutil.Local(n.Position, n.Rotation)
}
