package assemble

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
	"github.com/gkjohnson/source-engine-model-loader/internal/skeleton"
	"github.com/gkjohnson/source-engine-model-loader/internal/vvd"
)

// ErrSkinOutOfRange is returned by SelectSkin for an unknown skin family.
var ErrSkinOutOfRange = errors.New("skin family out of range")

// Topology is the primitive layout of a mesh's indices.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
)

// SkinnedMesh is the geometry of one strip. Every mesh of a model shares
// the model's vertex buffer and skeleton.
type SkinnedMesh struct {
	Name       string
	BodyPart   int
	Model      int
	Mesh       int
	StripGroup int
	Strip      int

	// Slot is the mesh's material slot, looked up through the skin table.
	Slot     int
	Topology Topology
	// Indices address the model's vertex buffer, in reversed winding.
	Indices  []uint32
	Material *material.Material
}

// TriangleList expands the indices to a triangle list. Strips alternate
// winding every triangle; degenerate triangles are dropped.
func (m *SkinnedMesh) TriangleList() []uint32 {
	if m.Topology == Triangles {
		return m.Indices
	}
	idx := m.Indices
	out := make([]uint32, 0, 3*max(len(idx)-2, 0))
	for i := 0; i+2 < len(idx); i++ {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if a == b || b == c || a == c {
			continue
		}
		if i%2 == 1 {
			a, b = b, a
		}
		out = append(out, a, b, c)
	}
	return out
}

// Group is a node of the scene hierarchy. A strip group with several
// strips becomes its own Group.
type Group struct {
	Name   string
	Meshes []*SkinnedMesh
	Groups []*Group
}

// AssembledModel is the renderable result of a load.
type AssembledModel struct {
	ID       uuid.UUID
	Name     string
	Header   *mdl.ModelDescriptor
	Skeleton *skeleton.Skeleton
	Vertices *vvd.VertexBuffer
	Root     *Group
	// Meshes lists every mesh of Root in traversal order.
	Meshes []*SkinnedMesh
	// Materials holds one material per header texture; failures hold a
	// default material.
	Materials []*material.Material

	fallback    *material.Material
	skin        int
	diagnostics diagnostics
}

// Diagnostics returns every non-fatal problem found while assembling.
func (m *AssembledModel) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(m.diagnostics))
	copy(out, m.diagnostics)
	return out
}

func (m *AssembledModel) Skin() int { return m.skin }

// SkinCount returns the number of selectable skin families.
func (m *AssembledModel) SkinCount() int {
	return max(len(m.Header.SkinTable), 1)
}

// MaterialFor maps a material slot through a skin family. Slots or texture
// indices outside the tables yield the default material.
func (m *AssembledModel) MaterialFor(family, slot int) *material.Material {
	tex := slot
	if len(m.Header.SkinTable) > 0 {
		if family < 0 || family >= len(m.Header.SkinTable) {
			return m.fallback
		}
		row := m.Header.SkinTable[family]
		if slot < 0 || slot >= len(row) {
			return m.fallback
		}
		tex = int(row[slot])
	}
	if tex < 0 || tex >= len(m.Materials) {
		return m.fallback
	}
	return m.Materials[tex]
}

// SelectSkin reassigns every mesh's material from skin family f. Geometry
// and skeleton are untouched.
func (m *AssembledModel) SelectSkin(f int) error {
	if f < 0 || f >= m.SkinCount() {
		return errors.Wrapf(ErrSkinOutOfRange, "skin %d of %d", f, m.SkinCount())
	}
	m.skin = f
	for _, mesh := range m.Meshes {
		mesh.Material = m.MaterialFor(f, mesh.Slot)
	}
	return nil
}
