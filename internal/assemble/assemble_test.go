package assemble

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mathutil"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
	"github.com/gkjohnson/source-engine-model-loader/internal/testmodel"
	"github.com/gkjohnson/source-engine-model-loader/internal/vtx"
	"github.com/gkjohnson/source-engine-model-loader/internal/vvd"
)

func input(t *testing.T, s testmodel.Spec) Input {
	t.Helper()
	h, err := mdl.Decode(testmodel.MDL(s), mdl.Options{})
	if err != nil {
		t.Fatalf("mdl: %v", err)
	}
	vf, err := vvd.Decode(testmodel.VVD(s))
	if err != nil {
		t.Fatalf("vvd: %v", err)
	}
	verts, err := vf.LODVertices(0)
	if err != nil {
		t.Fatalf("vvd lod: %v", err)
	}
	strips, err := vtx.Decode(testmodel.VTX(s), vtx.Options{Extended: h.Version >= 49})
	if err != nil {
		t.Fatalf("vtx: %v", err)
	}
	mats := make([]*material.Material, len(h.Textures))
	for i, name := range h.Textures {
		mats[i] = &material.Material{Name: name, Shader: "VertexLitGeneric"}
	}
	return Input{
		Header:         h,
		Vertices:       verts,
		VertexChecksum: vf.Header.Checksum,
		Strips:         strips,
		Materials:      mats,
	}
}

func TestAssembleTwoBones(t *testing.T) {
	m, err := Assemble(input(t, testmodel.TwoBones()))
	if err != nil {
		t.Fatal(err)
	}
	if m.Skeleton.Len() != 2 {
		t.Fatalf("bones: %d", m.Skeleton.Len())
	}
	child := m.Skeleton.World(1).Col(3).Vec3()
	if child.Sub(mgl32.Vec3{0, 0, 10}).Len() > mathutil.Epsilon {
		t.Errorf("child world position %v", child)
	}
	if len(m.Meshes) != 1 {
		t.Fatalf("meshes: %d", len(m.Meshes))
	}
	want := []uint32{3, 2, 1, 2, 1, 0}
	got := m.Meshes[0].Indices
	if len(got) != len(want) {
		t.Fatalf("indices %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices %v, want %v", got, want)
		}
	}
	if m.Meshes[0].Material.Name != "skin" {
		t.Errorf("material %q", m.Meshes[0].Material.Name)
	}
	if len(m.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics %v", m.Diagnostics())
	}
	if len(m.Root.Meshes) != 1 || len(m.Root.Groups) != 0 {
		t.Errorf("single-strip group should sit under the root: %+v", m.Root)
	}
}

func TestAssembleIndexBeyondFixupStream(t *testing.T) {
	s := testmodel.TwoBones()
	s.Fixups = []testmodel.Fixup{{LOD: 0, SourceVertexID: 2, VertexCount: 2}}
	in := input(t, s)
	if in.Vertices.Len() != 2 {
		t.Fatalf("post-fixup stream length %d, want 2", in.Vertices.Len())
	}
	if _, err := Assemble(in); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestAssembleChecksumMismatch(t *testing.T) {
	s := testmodel.TwoBones()
	s.VertexChecksum = 0x2222
	m, err := Assemble(input(t, s))
	if err != nil {
		t.Fatal(err)
	}
	ds := m.Diagnostics()
	if len(ds) != 1 || ds[0].Kind != ChecksumMismatch {
		t.Errorf("diagnostics %v", ds)
	}
}

func TestAssembleIndexOffsets(t *testing.T) {
	s := testmodel.TwoStripGroups()
	m, err := Assemble(input(t, s))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Meshes) != 4 {
		t.Fatalf("meshes: %d", len(m.Meshes))
	}
	// mesh 1 starts at vertex 1
	if got := m.Meshes[1].Indices; got[0] != 3 || got[2] != 1 {
		t.Errorf("offset mesh indices %v", got)
	}
	// second strip group maps local 0 1 2 through the table 2 1 0
	if got := m.Meshes[2].Indices; got[0] != 1 || got[2] != 3 {
		t.Errorf("remapped indices %v", got)
	}
	if len(m.Root.Meshes) != 2 || len(m.Root.Groups) != 1 || len(m.Root.Groups[0].Meshes) != 2 {
		t.Errorf("grouping: %d root meshes, %d groups", len(m.Root.Meshes), len(m.Root.Groups))
	}
	if m.Meshes[3].Topology != TriangleStrip || m.Meshes[2].Topology != Triangles {
		t.Errorf("topologies %v %v", m.Meshes[2].Topology, m.Meshes[3].Topology)
	}
}

// Every mesh index must address the vertex buffer and reversing a resolved
// strip twice must give back the unreversed order.
func TestIndexInvariants(t *testing.T) {
	for _, s := range []testmodel.Spec{testmodel.Triangle(), testmodel.TwoBones(), testmodel.TwoStripGroups()} {
		in := input(t, s)
		m, err := Assemble(in)
		if err != nil {
			t.Fatalf("%s: %v", s.Name, err)
		}
		for _, mesh := range m.Meshes {
			for _, idx := range mesh.Indices {
				if int(idx) >= m.Vertices.Len() {
					t.Errorf("%s %s: index %d beyond %d vertices", s.Name, mesh.Name, idx, m.Vertices.Len())
				}
			}
			hModel := in.Header.BodyParts[mesh.BodyPart].Models[mesh.Model]
			sg := in.Strips.BodyParts[mesh.BodyPart].Models[mesh.Model].Meshes[mesh.Mesh].StripGroups[mesh.StripGroup]
			st := sg.Strips[mesh.Strip]
			base := hModel.FirstVertex() + int(hModel.Meshes[mesh.Mesh].VertexOffset)
			n := len(mesh.Indices)
			for i := 0; i < n; i++ {
				local := sg.Indices[st.IndexOffset+i]
				want := uint32(base + int(sg.Vertices[local].OrigMeshVertID))
				if mesh.Indices[n-1-i] != want {
					t.Errorf("%s %s: position %d is %d, want %d", s.Name, mesh.Name, n-1-i, mesh.Indices[n-1-i], want)
				}
			}
		}
	}
}

// Decoding the same buffers twice yields identical index buffers.
func TestAssembleDeterministic(t *testing.T) {
	first, err := Assemble(input(t, testmodel.TwoStripGroups()))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Assemble(input(t, testmodel.TwoStripGroups()))
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Meshes) != len(second.Meshes) {
		t.Fatalf("mesh counts %d and %d", len(first.Meshes), len(second.Meshes))
	}
	for i := range first.Meshes {
		a, b := first.Meshes[i], second.Meshes[i]
		if a.Name != b.Name || a.Topology != b.Topology || !slices.Equal(a.Indices, b.Indices) {
			t.Errorf("mesh %d differs: %v %v", i, a.Indices, b.Indices)
		}
	}
}

func TestSkinSwitching(t *testing.T) {
	m, err := Assemble(input(t, testmodel.TwoStripGroups()))
	if err != nil {
		t.Fatal(err)
	}
	if m.SkinCount() != 2 {
		t.Fatalf("skin count %d", m.SkinCount())
	}
	if m.Meshes[0].Material.Name != "red" || m.Meshes[1].Material.Name != "blue" {
		t.Errorf("skin 0: %q %q", m.Meshes[0].Material.Name, m.Meshes[1].Material.Name)
	}

	before := append([]uint32(nil), m.Meshes[1].Indices...)
	if err := m.SelectSkin(1); err != nil {
		t.Fatal(err)
	}
	if m.Meshes[0].Material.Name != "blue" || m.Meshes[1].Material.Name != "red" {
		t.Errorf("skin 1: %q %q", m.Meshes[0].Material.Name, m.Meshes[1].Material.Name)
	}
	for i := range before {
		if m.Meshes[1].Indices[i] != before[i] {
			t.Fatal("skin switch changed geometry")
		}
	}

	first := m.Meshes[0].Material
	if err := m.SelectSkin(0); err != nil {
		t.Fatal(err)
	}
	if err := m.SelectSkin(1); err != nil {
		t.Fatal(err)
	}
	if m.Meshes[0].Material != first {
		t.Error("switching back and forth changed the material assignment")
	}

	if err := m.SelectSkin(2); !errors.Is(err, ErrSkinOutOfRange) {
		t.Errorf("expected ErrSkinOutOfRange, got %v", err)
	}
	if m.Skin() != 1 {
		t.Errorf("failed switch changed the skin to %d", m.Skin())
	}
}

func TestMaterialFailureUsesDefault(t *testing.T) {
	in := input(t, testmodel.TwoBones())
	in.Materials = []*material.Material{nil}
	m, err := Assemble(in)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Meshes[0].Material.Default || m.Meshes[0].Material.Name != "skin" {
		t.Errorf("material %+v", m.Meshes[0].Material)
	}
	if Count(m.Diagnostics(), MaterialResolutionFailure) != 1 {
		t.Errorf("diagnostics %v", m.Diagnostics())
	}
}

func TestArityMismatchClampsToMinimum(t *testing.T) {
	s := testmodel.TwoBones()
	extra := s.BodyParts[0]
	extra.Name = "extra"
	s.StripBodyParts = []testmodel.BodyPart{s.BodyParts[0], extra}
	m, err := Assemble(input(t, s))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Meshes) != 1 {
		t.Errorf("meshes %d, want 1", len(m.Meshes))
	}
	if Count(m.Diagnostics(), ArityMismatch) != 1 {
		t.Errorf("diagnostics %v", m.Diagnostics())
	}
}

func TestSkinEntryBeyondTextures(t *testing.T) {
	s := testmodel.TwoBones()
	s.SkinFamilies = [][]uint16{{0}, {4}}
	m, err := Assemble(input(t, s))
	if err != nil {
		t.Fatal(err)
	}
	if Count(m.Diagnostics(), ArityMismatch) != 1 {
		t.Errorf("diagnostics %v", m.Diagnostics())
	}
	if err := m.SelectSkin(1); err != nil {
		t.Fatal(err)
	}
	if !m.Meshes[0].Material.Default {
		t.Error("out of range texture should map to the default material")
	}
}

func TestTriangleList(t *testing.T) {
	strip := &SkinnedMesh{Topology: TriangleStrip, Indices: []uint32{0, 1, 2, 3, 3, 4}}
	got := strip.TriangleList()
	want := []uint32{0, 1, 2, 2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	list := &SkinnedMesh{Indices: []uint32{5, 6, 7}}
	if len(list.TriangleList()) != 3 {
		t.Error("list topology should pass through")
	}
}
