package vtx

// Strip flags.
const (
	StripIsTriList  = 0x01
	StripIsTriStrip = 0x02
)

type Header struct {
	Version          int32
	VertCacheSize    int32
	MaxBonesPerStrip uint16
	MaxBonesPerTri   uint16
	MaxBonesPerVert  int32
	Checksum         int32
	NumLODs          int32
}

// StripData is the decoded strip hierarchy for the highest level of
// detail.
type StripData struct {
	Header    Header
	BodyParts []BodyPart
}

type BodyPart struct {
	Models []Model
}

// Model holds the meshes of its first level of detail. SwitchPoints lists
// the switch distance of every level present in the file.
type Model struct {
	SwitchPoints []float32
	Meshes       []Mesh
}

type Mesh struct {
	Flags       uint8
	StripGroups []StripGroup
}

// StripGroup owns a local vertex table and an index buffer shared by its
// strips.
type StripGroup struct {
	Flags    uint8
	Vertices []Vertex
	Indices  []uint16
	Strips   []Strip
}

// Vertex maps a strip group entry back to a vertex of the owning mesh.
type Vertex struct {
	BoneWeightIndex [3]uint8
	NumBones        uint8
	OrigMeshVertID  uint16
	BoneID          [3]int8
}

// Strip is a run of the group's index buffer.
type Strip struct {
	IndexOffset  int
	IndexCount   int
	VertexOffset int
	VertexCount  int
	NumBones     int16
	Flags        uint8
}

// IsTriStrip reports whether the strip's indices form a triangle strip
// rather than a list.
func (s Strip) IsTriStrip() bool { return s.Flags&StripIsTriStrip != 0 }

// CountMismatch records a table whose length disagrees with the model
// header. BodyPart and Model are -1 when the mismatch is at a coarser level.
type CountMismatch struct {
	BodyPart int
	Model    int
	Level    string
	Header   int
	Strips   int
}
