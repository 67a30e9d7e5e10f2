package mdl

import "github.com/go-gl/mathgl/mgl32"

// ModelDescriptor is the decoded .mdl header and the tables it references.
type ModelDescriptor struct {
	Version  int32
	Checksum int32
	Name     string
	Length   int32

	EyePosition   mgl32.Vec3
	IllumPosition mgl32.Vec3
	HullMin       mgl32.Vec3
	HullMax       mgl32.Vec3
	ViewMin       mgl32.Vec3
	ViewMax       mgl32.Vec3
	Flags         int32

	Mass               float32
	Contents           int32
	RootLOD            uint8
	NumAllowedRootLODs uint8
	SurfaceProp        string
	KeyValues          string

	Bones              []Bone
	BoneControllers    []BoneController
	Textures           []string
	TextureDirectories []string
	// SkinTable[family][slot] indexes Textures.
	SkinTable     [][]uint16
	BodyParts     []BodyPart
	IncludeModels []IncludeModel
	Animations    []AnimDesc
	Sequences     []Sequence

	// Secondary is nil when the file carries no secondary header.
	Secondary *SecondaryHeader
}

// Bone holds the bind pose of one bone. Parent is -1 for roots.
type Bone struct {
	Name           string
	Parent         int
	BoneController [6]int32
	Position       mgl32.Vec3
	Rotation       mgl32.Quat
	RadianEuler    mgl32.Vec3
	PositionScale  mgl32.Vec3
	RotationScale  mgl32.Vec3
	PoseToBone     mgl32.Mat3x4
	Alignment      mgl32.Quat
	Flags          int32
	ProcType       int32
	ProcIndex      int32
	PhysicsBone    int32
	SurfaceProp    string
	Contents       int32
}

// ParentIndex reports the parent bone index, if any.
func (b Bone) ParentIndex() (int, bool) {
	return b.Parent, b.Parent >= 0
}

type BoneController struct {
	Bone       int32
	Type       int32
	Start, End float32
	Rest       int32
	InputField int32
}

type BodyPart struct {
	Name   string
	Base   int32
	Models []Model
}

// Model is one selectable variant of a body part.
type Model struct {
	Name           string
	Type           int32
	BoundingRadius float32
	VertexCount    int32
	// VertexIndex is a byte offset into the model's vertex data.
	VertexIndex    int32
	TangentsIndex  int32
	NumAttachments int32
	NumEyeballs    int32
	Meshes         []Mesh
}

// FirstVertex converts VertexIndex to a vertex position in the post-fixup
// vertex stream.
func (m Model) FirstVertex() int {
	return int(m.VertexIndex) / VertexStride
}

// Mesh is a contiguous vertex range inside a model that shares one
// material slot.
type Mesh struct {
	Material      int32
	VertexCount   int32
	VertexOffset  int32
	FlexCount     int32
	MaterialType  int32
	MaterialParam int32
	ID            int32
	Center        mgl32.Vec3
}

type IncludeModel struct {
	Label string
	Name  string
}

type AnimDesc struct {
	Name      string
	FPS       float32
	Flags     int32
	NumFrames int32
}

type Sequence struct {
	Label     string
	Activity  string
	Flags     int32
	ActWeight int32
	NumEvents int32
	BBMin     mgl32.Vec3
	BBMax     mgl32.Vec3
	NumBlends int32
}

type SecondaryHeader struct {
	SrcBoneTransformCount   int32
	IllumPositionAttachment int32
	MaxEyeDeflection        float32
	LinearBoneIndex         int32
}

// Layout returns the mesh count of every model, grouped by body part.
func (d *ModelDescriptor) Layout() [][]int {
	out := make([][]int, len(d.BodyParts))
	for i, bp := range d.BodyParts {
		out[i] = make([]int, len(bp.Models))
		for j, m := range bp.Models {
			out[i][j] = len(m.Meshes)
		}
	}
	return out
}
