package testmodel

import "github.com/go-gl/mathgl/mgl32"

// Triangle is a single skinned triangle: one bone, one texture, three
// vertices, one strip group holding one triangle-list strip.
func Triangle() Spec {
	return Spec{
		Name:         "triangle.mdl",
		Checksum:     0x1111,
		Bones:        []Bone{{Name: "root", Parent: -1}},
		Textures:     []string{"tex0"},
		TextureDirs:  []string{"models/test/"},
		SkinFamilies: [][]uint16{{0}},
		BodyParts: []BodyPart{{
			Name: "body",
			Models: []Model{{
				Name:        "tri",
				VertexCount: 3,
				Meshes: []Mesh{{
					Material:    0,
					VertexCount: 3,
					StripGroups: []StripGroup{{
						Vertices: []uint16{0, 1, 2},
						Indices:  []uint16{0, 1, 2},
						Strips:   []Strip{{IndexCount: 3, Flags: 1}},
					}},
				}},
			}},
		}},
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Weights: [3]float32{1}, NumBones: 1},
			{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 0}, Weights: [3]float32{1}, NumBones: 1},
			{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 1}, Weights: [3]float32{1}, NumBones: 1},
		},
		Fixups:         []Fixup{{LOD: 0, SourceVertexID: 0, VertexCount: 3}},
		VertexChecksum: 0x1111,
		StripChecksum:  0x1111,
	}
}

// TwoStripGroups has one mesh with two strip groups and two skin families
// that swap the texture mapping.
func TwoStripGroups() Spec {
	s := Triangle()
	s.Name = "quad.mdl"
	s.Textures = []string{"red", "blue"}
	s.SkinFamilies = [][]uint16{{0, 1}, {1, 0}}
	s.Vertices = append(s.Vertices, Vertex{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Weights: [3]float32{1}, NumBones: 1})
	s.Fixups = []Fixup{{LOD: 0, SourceVertexID: 0, VertexCount: 4}}
	model := &s.BodyParts[0].Models[0]
	model.VertexCount = 4
	model.Meshes = []Mesh{
		{
			Material:    0,
			VertexCount: 3,
			StripGroups: []StripGroup{{
				Vertices: []uint16{0, 1, 2},
				Indices:  []uint16{0, 1, 2},
				Strips:   []Strip{{IndexCount: 3, Flags: 1}},
			}},
		},
		{
			Material:     1,
			VertexOffset: 1,
			VertexCount:  3,
			StripGroups: []StripGroup{
				{
					Vertices: []uint16{0, 1, 2},
					Indices:  []uint16{0, 1, 2},
					Strips:   []Strip{{IndexCount: 3, Flags: 1}},
				},
				{
					Vertices: []uint16{2, 1, 0},
					Indices:  []uint16{0, 1, 2, 1, 2, 0},
					Strips: []Strip{
						{IndexOffset: 0, IndexCount: 3, Flags: 1},
						{IndexOffset: 3, IndexCount: 3, Flags: 2},
					},
				},
			},
		},
	}
	return s
}

// TwoBones is a two-bone model whose four vertices are drawn by one
// triangle-list strip with indices 0 1 2 1 2 3.
func TwoBones() Spec {
	return Spec{
		Name:     "twobones.mdl",
		Checksum: 0x1111,
		Bones: []Bone{
			{Name: "root", Parent: -1},
			{Name: "child", Parent: 0, Position: mgl32.Vec3{0, 0, 10}},
		},
		Textures:     []string{"skin"},
		TextureDirs:  []string{"models/"},
		SkinFamilies: [][]uint16{{0}},
		BodyParts: []BodyPart{{
			Name: "body",
			Models: []Model{{
				Name:        "main",
				VertexCount: 4,
				Meshes: []Mesh{{
					Material:    0,
					VertexCount: 4,
					StripGroups: []StripGroup{{
						Vertices: []uint16{0, 1, 2, 3},
						Indices:  []uint16{0, 1, 2, 1, 2, 3},
						Strips:   []Strip{{IndexCount: 6, Flags: 1}},
					}},
				}},
			}},
		}},
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Weights: [3]float32{1}, NumBones: 1},
			{Position: mgl32.Vec3{1, 0, 0}, Weights: [3]float32{1}, NumBones: 1},
			{Position: mgl32.Vec3{0, 1, 0}, Weights: [3]float32{1}, Bones: [3]uint8{1}, NumBones: 1},
			{Position: mgl32.Vec3{1, 1, 0}, Weights: [3]float32{1}, Bones: [3]uint8{1}, NumBones: 1},
		},
		VertexChecksum: 0x1111,
		StripChecksum:  0x1111,
	}
}
