// Package testmodel writes small but structurally complete .mdl, .vvd and
// .vtx buffers for tests.
package testmodel

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Bone struct {
	Name     string
	Parent   int32
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Weights  [3]float32
	Bones    [3]uint8
	NumBones uint8
}

type Fixup struct {
	LOD            int32
	SourceVertexID int32
	VertexCount    int32
}

type Strip struct {
	IndexOffset int32
	IndexCount  int32
	Flags       uint8
}

// StripGroup holds the local vertex table as original mesh vertex ids.
type StripGroup struct {
	Vertices []uint16
	Indices  []uint16
	Strips   []Strip
}

type Mesh struct {
	Material     int32
	VertexOffset int32
	VertexCount  int32
	StripGroups  []StripGroup
}

type Model struct {
	Name        string
	VertexIndex int32
	VertexCount int32
	Meshes      []Mesh
}

type BodyPart struct {
	Name   string
	Models []Model
}

// Spec describes one model across all three files. StripBodyParts
// overrides the strip file layout when a test needs the files to disagree.
type Spec struct {
	Name           string
	Version        int32
	Checksum       int32
	Bones          []Bone
	Textures       []string
	TextureDirs    []string
	SkinFamilies   [][]uint16
	BodyParts      []BodyPart
	StripBodyParts []BodyPart
	Vertices       []Vertex
	Fixups         []Fixup
	VertexChecksum int32
	StripChecksum  int32
	Secondary      bool
	Sequences      []string
}

type buf struct{ b []byte }

func (w *buf) alloc(n int) int {
	off := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return off
}

func (w *buf) i32(off int, v int32) { binary.LittleEndian.PutUint32(w.b[off:], uint32(v)) }
func (w *buf) u16(off int, v uint16) { binary.LittleEndian.PutUint16(w.b[off:], v) }
func (w *buf) f32(off int, v float32) {
	binary.LittleEndian.PutUint32(w.b[off:], math.Float32bits(v))
}

func (w *buf) vec3(off int, v mgl32.Vec3) {
	w.f32(off, v[0])
	w.f32(off+4, v[1])
	w.f32(off+8, v[2])
}

func (w *buf) cstring(s string) int {
	off := len(w.b)
	w.b = append(w.b, s...)
	w.b = append(w.b, 0)
	return off
}

// relString appends s and stores its offset relative to record at field.
func (w *buf) relString(record, field int, s string) {
	w.i32(record+field, int32(w.cstring(s)-record))
}

func (s Spec) version() int32 {
	if s.Version == 0 {
		return 48
	}
	return s.Version
}

// MDL writes the header file.
func MDL(s Spec) []byte {
	w := &buf{}
	w.alloc(408)
	w.i32(0, 0x54534449)
	w.i32(4, s.version())
	w.i32(8, s.Checksum)
	copy(w.b[12:76], s.Name)
	w.vec3(104, mgl32.Vec3{-1, -1, -1})
	w.vec3(116, mgl32.Vec3{1, 1, 1})

	boneBase := w.alloc(216 * len(s.Bones))
	w.i32(156, int32(len(s.Bones)))
	w.i32(160, int32(boneBase))
	for i, b := range s.Bones {
		rec := boneBase + i*216
		w.relString(rec, 0, b.Name)
		w.i32(rec+4, b.Parent)
		for c := 0; c < 6; c++ {
			w.i32(rec+8+c*4, -1)
		}
		w.vec3(rec+32, b.Position)
		rot := b.Rotation
		if rot == (mgl32.Quat{}) {
			rot = mgl32.QuatIdent()
		}
		w.vec3(rec+44, rot.V)
		w.f32(rec+56, rot.W)
		w.vec3(rec+72, mgl32.Vec3{1, 1, 1})
		w.vec3(rec+84, mgl32.Vec3{1, 1, 1})
		w.f32(rec+96, 1)
		w.f32(rec+116, 1)
		w.f32(rec+136, 1)
		w.i32(rec+172, -1)
	}

	texBase := w.alloc(64 * len(s.Textures))
	w.i32(204, int32(len(s.Textures)))
	w.i32(208, int32(texBase))
	for i, name := range s.Textures {
		w.relString(texBase+i*64, 0, name)
	}

	dirBase := w.alloc(4 * len(s.TextureDirs))
	w.i32(212, int32(len(s.TextureDirs)))
	w.i32(216, int32(dirBase))
	for i, dir := range s.TextureDirs {
		w.i32(dirBase+i*4, int32(w.cstring(dir)))
	}

	if len(s.SkinFamilies) > 0 {
		refs := len(s.SkinFamilies[0])
		skinBase := w.alloc(2 * refs * len(s.SkinFamilies))
		w.i32(220, int32(refs))
		w.i32(224, int32(len(s.SkinFamilies)))
		w.i32(228, int32(skinBase))
		for f, row := range s.SkinFamilies {
			for j := 0; j < refs && j < len(row); j++ {
				w.u16(skinBase+(f*refs+j)*2, row[j])
			}
		}
	}

	bpBase := w.alloc(16 * len(s.BodyParts))
	w.i32(232, int32(len(s.BodyParts)))
	w.i32(236, int32(bpBase))
	for i, bp := range s.BodyParts {
		rec := bpBase + i*16
		w.relString(rec, 0, bp.Name)
		w.i32(rec+4, int32(len(bp.Models)))
		w.i32(rec+8, 1)
		modelBase := w.alloc(148 * len(bp.Models))
		w.i32(rec+12, int32(modelBase-rec))
		for m, model := range bp.Models {
			mrec := modelBase + m*148
			copy(w.b[mrec:mrec+64], model.Name)
			w.f32(mrec+68, 1)
			w.i32(mrec+72, int32(len(model.Meshes)))
			w.i32(mrec+80, model.VertexCount)
			w.i32(mrec+84, model.VertexIndex)
			meshBase := w.alloc(116 * len(model.Meshes))
			w.i32(mrec+76, int32(meshBase-mrec))
			for k, mesh := range model.Meshes {
				krec := meshBase + k*116
				w.i32(krec, mesh.Material)
				w.i32(krec+4, int32(mrec-krec))
				w.i32(krec+8, mesh.VertexCount)
				w.i32(krec+12, mesh.VertexOffset)
				w.i32(krec+32, int32(k))
			}
		}
	}

	seqBase := w.alloc(212 * len(s.Sequences))
	w.i32(188, int32(len(s.Sequences)))
	w.i32(192, int32(seqBase))
	for i, label := range s.Sequences {
		rec := seqBase + i*212
		w.i32(rec, int32(-rec))
		w.relString(rec, 4, label)
		w.relString(rec, 8, "ACT_IDLE")
		w.i32(rec+16, -1)
	}

	if s.Secondary {
		sec := w.alloc(64)
		w.i32(400, int32(sec))
		w.i32(sec+8, -1)
		w.f32(sec+12, 0.5)
	}

	w.i32(76, int32(len(w.b)))
	return w.b
}

// VVD writes the vertex file.
func VVD(s Spec) []byte {
	w := &buf{}
	w.alloc(64)
	w.i32(0, 0x56534449)
	w.i32(4, 4)
	w.i32(8, s.VertexChecksum)
	w.i32(12, 1)
	w.i32(16, int32(len(s.Vertices)))

	fixBase := w.alloc(12 * len(s.Fixups))
	w.i32(48, int32(len(s.Fixups)))
	w.i32(52, int32(fixBase))
	for i, f := range s.Fixups {
		rec := fixBase + i*12
		w.i32(rec, f.LOD)
		w.i32(rec+4, f.SourceVertexID)
		w.i32(rec+8, f.VertexCount)
	}

	vertBase := w.alloc(48 * len(s.Vertices))
	w.i32(56, int32(vertBase))
	for i, v := range s.Vertices {
		rec := vertBase + i*48
		w.f32(rec, v.Weights[0])
		w.f32(rec+4, v.Weights[1])
		w.f32(rec+8, v.Weights[2])
		copy(w.b[rec+12:rec+15], v.Bones[:])
		w.b[rec+15] = v.NumBones
		w.vec3(rec+16, v.Position)
		w.vec3(rec+28, v.Normal)
		w.f32(rec+40, v.UV[0])
		w.f32(rec+44, v.UV[1])
	}
	tanBase := w.alloc(16 * len(s.Vertices))
	w.i32(60, int32(tanBase))
	for i := range s.Vertices {
		w.f32(tanBase+i*16, 1)
		// handedness alternates so reordering is observable
		w.f32(tanBase+i*16+12, float32(1-2*(i%2)))
	}
	return w.b
}

// VTX writes the strip file. Versions from 49 on carry the extended strip
// group and strip headers.
func VTX(s Spec) []byte {
	parts := s.BodyParts
	if s.StripBodyParts != nil {
		parts = s.StripBodyParts
	}
	extended := s.version() >= 49
	sgSize, stripSize := 25, 27
	if extended {
		sgSize, stripSize = 33, 35
	}

	w := &buf{}
	w.alloc(36)
	w.i32(0, 7)
	w.i32(4, 24)
	w.u16(8, 53)
	w.u16(10, 9)
	w.i32(12, 3)
	w.i32(16, s.StripChecksum)
	w.i32(20, 1)
	w.i32(28, int32(len(parts)))

	repl := w.alloc(8)
	w.i32(24, int32(repl))

	bpBase := w.alloc(8 * len(parts))
	w.i32(32, int32(bpBase))
	for i, bp := range parts {
		bpRec := bpBase + i*8
		w.i32(bpRec, int32(len(bp.Models)))
		modelBase := w.alloc(8 * len(bp.Models))
		w.i32(bpRec+4, int32(modelBase-bpRec))
		for m, model := range bp.Models {
			mRec := modelBase + m*8
			w.i32(mRec, 1)
			lod := w.alloc(12)
			w.i32(mRec+4, int32(lod-mRec))
			w.i32(lod, int32(len(model.Meshes)))
			meshBase := w.alloc(9 * len(model.Meshes))
			w.i32(lod+4, int32(meshBase-lod))
			for k, mesh := range model.Meshes {
				meshRec := meshBase + k*9
				w.i32(meshRec, int32(len(mesh.StripGroups)))
				sgBase := w.alloc(sgSize * len(mesh.StripGroups))
				w.i32(meshRec+4, int32(sgBase-meshRec))
				for g, sg := range mesh.StripGroups {
					sgRec := sgBase + g*sgSize
					vb := w.alloc(9 * len(sg.Vertices))
					for v, id := range sg.Vertices {
						w.b[vb+v*9+3] = 1
						w.u16(vb+v*9+4, id)
					}
					ib := w.alloc(2 * len(sg.Indices))
					for j, idx := range sg.Indices {
						w.u16(ib+j*2, idx)
					}
					sb := w.alloc(stripSize * len(sg.Strips))
					for j, st := range sg.Strips {
						rec := sb + j*stripSize
						w.i32(rec, st.IndexCount)
						w.i32(rec+4, st.IndexOffset)
						w.i32(rec+8, int32(len(sg.Vertices)))
						w.b[rec+16] = 1
						w.b[rec+18] = st.Flags
					}
					w.i32(sgRec, int32(len(sg.Vertices)))
					w.i32(sgRec+4, int32(vb-sgRec))
					w.i32(sgRec+8, int32(len(sg.Indices)))
					w.i32(sgRec+12, int32(ib-sgRec))
					w.i32(sgRec+16, int32(len(sg.Strips)))
					w.i32(sgRec+20, int32(sb-sgRec))
				}
			}
		}
	}
	return w.b
}
