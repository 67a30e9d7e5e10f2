// Package assemble joins the decoded header, vertex and strip files into a
// skinned, textured model.
package assemble

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
	"github.com/gkjohnson/source-engine-model-loader/internal/skeleton"
	"github.com/gkjohnson/source-engine-model-loader/internal/vtx"
	"github.com/gkjohnson/source-engine-model-loader/internal/vvd"
)

// ErrIndexOutOfRange is returned when a strip addresses a vertex beyond the
// vertex stream. The files are corrupt or mismatched; indices are never
// clamped.
var ErrIndexOutOfRange = errors.New("strip index out of range")

// Input holds the three decoded files and the resolved materials.
type Input struct {
	Name           string
	Header         *mdl.ModelDescriptor
	Vertices       *vvd.VertexBuffer
	VertexChecksum int32
	Strips         *vtx.StripData

	// Materials is indexed like Header.Textures; nil entries failed to
	// resolve.
	Materials  []*material.Material
	SkinFamily int
}

// Assemble builds the model. Inconsistencies between the files are
// recorded as diagnostics; only an out-of-range vertex index is fatal.
func Assemble(in Input) (*AssembledModel, error) {
	if in.Header == nil || in.Vertices == nil || in.Strips == nil {
		return nil, errors.New("assemble: header, vertices and strips are all required")
	}
	m := &AssembledModel{
		ID:       uuid.New(),
		Name:     in.Name,
		Header:   in.Header,
		Vertices: in.Vertices,
		Root:     &Group{Name: in.Name},
		fallback: material.Default(""),
	}
	if m.Name == "" {
		m.Name = in.Header.Name
		m.Root.Name = m.Name
	}

	m.checkChecksums(in)
	m.checkArity(in)
	m.bindMaterials(in.Materials)

	skel, err := skeleton.Build(in.Header.Bones)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	m.Skeleton = skel

	if err := m.buildGeometry(in.Strips); err != nil {
		return nil, err
	}

	skin := in.SkinFamily
	if skin < 0 || skin >= m.SkinCount() {
		m.diagnostics.add(ArityMismatch, "skin family %d requested, model has %d; using 0", skin, m.SkinCount())
		skin = 0
	}
	// skin is in range, so this cannot fail
	_ = m.SelectSkin(skin)
	return m, nil
}

func (m *AssembledModel) checkChecksums(in Input) {
	want := in.Header.Checksum
	if in.VertexChecksum != want {
		m.diagnostics.add(ChecksumMismatch, "vertex file checksum %#x, header %#x", uint32(in.VertexChecksum), uint32(want))
	}
	if got := in.Strips.Header.Checksum; got != want {
		m.diagnostics.add(ChecksumMismatch, "strip file checksum %#x, header %#x", uint32(got), uint32(want))
	}
}

func (m *AssembledModel) checkArity(in Input) {
	for _, c := range vtx.Compare(in.Strips, in.Header.Layout()) {
		switch {
		case c.BodyPart < 0:
			m.diagnostics.add(ArityMismatch, "%s: header %d, strip file %d", c.Level, c.Header, c.Strips)
		case c.Model < 0:
			m.diagnostics.add(ArityMismatch, "body part %d %s: header %d, strip file %d", c.BodyPart, c.Level, c.Header, c.Strips)
		default:
			m.diagnostics.add(ArityMismatch, "body part %d model %d %s: header %d, strip file %d", c.BodyPart, c.Model, c.Level, c.Header, c.Strips)
		}
	}
	textures := len(in.Header.Textures)
	for f, row := range in.Header.SkinTable {
		if len(row) > textures {
			m.diagnostics.add(ArityMismatch, "skin family %d has %d slots for %d textures", f, len(row), textures)
		}
		for slot, tex := range row {
			if int(tex) >= textures {
				m.diagnostics.add(ArityMismatch, "skin family %d slot %d names texture %d of %d", f, slot, tex, textures)
			}
		}
	}
}

func (m *AssembledModel) bindMaterials(resolved []*material.Material) {
	m.Materials = make([]*material.Material, len(m.Header.Textures))
	for i, name := range m.Header.Textures {
		if i < len(resolved) && resolved[i] != nil {
			m.Materials[i] = resolved[i]
			continue
		}
		m.diagnostics.add(MaterialResolutionFailure, "texture %d %q", i, name)
		m.Materials[i] = material.Default(name)
	}
}

// buildGeometry walks body parts, models and meshes up to the smaller of
// the header and strip file counts.
func (m *AssembledModel) buildGeometry(strips *vtx.StripData) error {
	vertexCount := m.Vertices.Len()
	parts := min(len(m.Header.BodyParts), len(strips.BodyParts))
	for bp := 0; bp < parts; bp++ {
		hPart, sPart := m.Header.BodyParts[bp], strips.BodyParts[bp]
		models := min(len(hPart.Models), len(sPart.Models))
		for mi := 0; mi < models; mi++ {
			hModel, sModel := hPart.Models[mi], sPart.Models[mi]
			meshes := min(len(hModel.Meshes), len(sModel.Meshes))
			for k := 0; k < meshes; k++ {
				hMesh := hModel.Meshes[k]
				for g, sg := range sModel.Meshes[k].StripGroups {
					prefix := fmt.Sprintf("%s/%s/mesh%d/group%d", hPart.Name, hModel.Name, k, g)
					group := &Group{Name: prefix}
					for s, st := range sg.Strips {
						indices, err := resolveStrip(hModel, hMesh, sg, st, vertexCount)
						if err != nil {
							return errors.Wrapf(err, "assemble: %s strip %d", prefix, s)
						}
						mesh := &SkinnedMesh{
							Name:       prefix,
							BodyPart:   bp,
							Model:      mi,
							Mesh:       k,
							StripGroup: g,
							Strip:      s,
							Slot:       int(hMesh.Material),
							Indices:    indices,
						}
						if st.IsTriStrip() {
							mesh.Topology = TriangleStrip
						}
						if len(sg.Strips) > 1 {
							mesh.Name = fmt.Sprintf("%s/strip%d", prefix, s)
						}
						group.Meshes = append(group.Meshes, mesh)
						m.Meshes = append(m.Meshes, mesh)
					}
					if len(group.Meshes) == 1 {
						m.Root.Meshes = append(m.Root.Meshes, group.Meshes[0])
					} else if len(group.Meshes) > 1 {
						m.Root.Groups = append(m.Root.Groups, group)
					}
				}
			}
		}
	}
	return nil
}

// resolveStrip maps a strip's indices to absolute vertex numbers: the
// strip group index selects a vertex table entry, whose original mesh
// vertex is offset by the mesh and then by the model's first vertex. The
// result is reversed to flip winding.
func resolveStrip(model mdl.Model, mesh mdl.Mesh, sg vtx.StripGroup, st vtx.Strip, vertexCount int) ([]uint32, error) {
	base := model.FirstVertex() + int(mesh.VertexOffset)
	out := make([]uint32, st.IndexCount)
	for i := range out {
		local := sg.Indices[st.IndexOffset+i]
		abs := base + int(sg.Vertices[local].OrigMeshVertID)
		if abs < 0 || abs >= vertexCount {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d resolves to vertex %d of %d", i, abs, vertexCount)
		}
		out[i] = uint32(abs)
	}
	slices.Reverse(out)
	return out, nil
}
