package vvd

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one decoded vertex record.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Weights  [BoneSlots]float32
	Bones    [BoneSlots]uint8
	NumBones uint8
	// Tangent is zero when the file carries no tangent stream.
	Tangent mgl32.Vec4
}

// VertexBuffer is a typed view over packed vertex records. Accessors decode
// on demand.
type VertexBuffer struct {
	data     []byte
	tangents []byte
}

func (b *VertexBuffer) Len() int { return len(b.data) / VertexSize }

func (b *VertexBuffer) f32(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[off:]))
}

func (b *VertexBuffer) vec3(off int) mgl32.Vec3 {
	return mgl32.Vec3{b.f32(off), b.f32(off + 4), b.f32(off + 8)}
}

func (b *VertexBuffer) Position(i int) mgl32.Vec3 { return b.vec3(i*VertexSize + 16) }

func (b *VertexBuffer) Normal(i int) mgl32.Vec3 { return b.vec3(i*VertexSize + 28) }

func (b *VertexBuffer) UV(i int) mgl32.Vec2 {
	off := i*VertexSize + 40
	return mgl32.Vec2{b.f32(off), b.f32(off + 4)}
}

// Weights returns the bone weights padded to four slots.
func (b *VertexBuffer) Weights(i int) [BoneSlots]float32 {
	off := i * VertexSize
	return [BoneSlots]float32{b.f32(off), b.f32(off + 4), b.f32(off + 8), 0}
}

// Bones returns the bone indices padded to four slots.
func (b *VertexBuffer) Bones(i int) [BoneSlots]uint8 {
	off := i*VertexSize + 12
	return [BoneSlots]uint8{b.data[off], b.data[off+1], b.data[off+2], 0}
}

func (b *VertexBuffer) NumBones(i int) uint8 { return b.data[i*VertexSize+15] }

func (b *VertexBuffer) Vertex(i int) Vertex {
	return Vertex{
		Position: b.Position(i),
		Normal:   b.Normal(i),
		UV:       b.UV(i),
		Weights:  b.Weights(i),
		Bones:    b.Bones(i),
		NumBones: b.NumBones(i),
		Tangent:  b.Tangent(i),
	}
}

func (b *VertexBuffer) HasTangents() bool { return b.tangents != nil }

// Tangent returns the xyzw tangent of vertex i, or zero without a tangent
// stream.
func (b *VertexBuffer) Tangent(i int) mgl32.Vec4 {
	if b.tangents == nil {
		return mgl32.Vec4{}
	}
	off := i * TangentSize
	return mgl32.Vec4{
		math.Float32frombits(binary.LittleEndian.Uint32(b.tangents[off:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b.tangents[off+4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b.tangents[off+8:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b.tangents[off+12:])),
	}
}

// Positions materializes every position, for export.
func (b *VertexBuffer) Positions() [][3]float32 {
	out := make([][3]float32, b.Len())
	for i := range out {
		out[i] = b.Position(i)
	}
	return out
}

func (b *VertexBuffer) Normals() [][3]float32 {
	out := make([][3]float32, b.Len())
	for i := range out {
		out[i] = b.Normal(i)
	}
	return out
}

func (b *VertexBuffer) UVs() [][2]float32 {
	out := make([][2]float32, b.Len())
	for i := range out {
		out[i] = b.UV(i)
	}
	return out
}

func (b *VertexBuffer) AllWeights() [][4]float32 {
	out := make([][4]float32, b.Len())
	for i := range out {
		out[i] = b.Weights(i)
	}
	return out
}

func (b *VertexBuffer) AllBones() [][4]uint8 {
	out := make([][4]uint8, b.Len())
	for i := range out {
		out[i] = b.Bones(i)
	}
	return out
}

func (b *VertexBuffer) Tangents() [][4]float32 {
	out := make([][4]float32, b.Len())
	for i := range out {
		out[i] = b.Tangent(i)
	}
	return out
}
