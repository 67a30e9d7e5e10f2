package gltfexport

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/gkjohnson/source-engine-model-loader/internal/assemble"
	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/testmodel"
)

type mapResolver map[string]*material.Material

func (r mapResolver) Resolve(_ context.Context, name string, _ []string) (*material.Material, error) {
	if m, ok := r[name]; ok {
		return m, nil
	}
	return nil, material.ErrNotFound
}

func load(t *testing.T, s testmodel.Spec, r material.Resolver) *assemble.AssembledModel {
	t.Helper()
	m, err := loader.New(loader.Options{Resolver: r}).Load(context.Background(), loader.Source{
		Name:     s.Name,
		Header:   testmodel.MDL(s),
		Vertices: testmodel.VVD(s),
		Strips:   testmodel.VTX(s),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestExportTwoBones(t *testing.T) {
	m := load(t, testmodel.TwoBones(), nil)
	doc, err := Export(m, Options{YUp: true})
	if err != nil {
		t.Fatal(err)
	}
	// root, two bones, one mesh node
	if len(doc.Nodes) != 4 {
		t.Fatalf("nodes: %d", len(doc.Nodes))
	}
	if len(doc.Skins) != 1 || len(doc.Skins[0].Joints) != 2 {
		t.Fatalf("skins: %+v", doc.Skins)
	}
	ibm := doc.Accessors[*doc.Skins[0].InverseBindMatrices]
	if ibm.Count != 2 || ibm.Type != gltf.AccessorMat4 {
		t.Errorf("inverse bind accessor: %+v", ibm)
	}
	if len(doc.Meshes) != 1 {
		t.Fatalf("meshes: %d", len(doc.Meshes))
	}
	prim := doc.Meshes[0].Primitives[0]
	if doc.Accessors[*prim.Indices].Count != 6 {
		t.Errorf("index count %d", doc.Accessors[*prim.Indices].Count)
	}
	for _, attr := range []string{gltf.POSITION, gltf.NORMAL, gltf.TANGENT, gltf.TEXCOORD_0, gltf.JOINTS_0, gltf.WEIGHTS_0} {
		if _, ok := prim.Attributes[attr]; !ok {
			t.Errorf("missing attribute %s", attr)
		}
	}
	if doc.Nodes[3].Skin == nil || *doc.Nodes[3].Skin != 0 {
		t.Error("mesh node is not skinned")
	}
	if root := doc.Nodes[0]; root.Rotation == [4]float32{0, 0, 0, 1} || len(root.Children) != 2 {
		t.Errorf("root node %+v", root)
	}
}

func TestExportMeters(t *testing.T) {
	m := load(t, testmodel.TwoBones(), nil)
	doc, err := Export(m, Options{Meters: true})
	if err != nil {
		t.Fatal(err)
	}
	if s := doc.Nodes[0].Scale; s != [3]float32{0.0254, 0.0254, 0.0254} {
		t.Errorf("root scale %v", s)
	}
	doc, err = Export(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s := doc.Nodes[0].Scale; s != [3]float32{1, 1, 1} {
		t.Errorf("unscaled root %v", s)
	}
}

func TestExportSharesVertexAccessors(t *testing.T) {
	m := load(t, testmodel.TwoStripGroups(), nil)
	doc, err := Export(m, Options{KeepStrips: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes) != 4 {
		t.Fatalf("meshes: %d", len(doc.Meshes))
	}
	pos := doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]
	for _, mesh := range doc.Meshes[1:] {
		if mesh.Primitives[0].Attributes[gltf.POSITION] != pos {
			t.Error("position accessor duplicated")
		}
	}
	if doc.Meshes[3].Primitives[0].Mode != gltf.PrimitiveTriangleStrip {
		t.Errorf("mode %v", doc.Meshes[3].Primitives[0].Mode)
	}
	// red and blue default materials
	if len(doc.Materials) != 2 {
		t.Errorf("materials: %d", len(doc.Materials))
	}
}

func TestExportFollowsSkin(t *testing.T) {
	red := &material.Material{Name: "red", Color: [3]float32{1, 0, 0}, Alpha: 1}
	blue := &material.Material{Name: "blue", Color: [3]float32{0, 0, 1}, Alpha: 1, AlphaTest: true, AlphaTestRef: 0.5}
	m := load(t, testmodel.TwoStripGroups(), mapResolver{"red": red, "blue": blue})
	if err := m.SelectSkin(1); err != nil {
		t.Fatal(err)
	}
	doc, err := Export(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	first := doc.Materials[*doc.Meshes[0].Primitives[0].Material]
	if first.Name != "blue" || first.AlphaMode != gltf.AlphaMask {
		t.Errorf("first mesh material %+v", first)
	}
}

func TestExportEmbedsTextures(t *testing.T) {
	skin := &material.Material{
		Name:        "skin",
		BaseTexture: "models/skin",
		Color:       [3]float32{1, 1, 1},
		Alpha:       1,
		Texture:     image.NewNRGBA(image.Rect(0, 0, 2, 2)),
	}
	m := load(t, testmodel.TwoBones(), mapResolver{"skin": skin})
	doc, err := Export(m, Options{EmbedTextures: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Images) != 1 || len(doc.Textures) != 1 {
		t.Fatalf("images %d textures %d", len(doc.Images), len(doc.Textures))
	}
	if doc.Materials[0].PBRMetallicRoughness.BaseColorTexture == nil {
		t.Error("material does not reference the texture")
	}
}

func TestWriteBinaryRoundTrip(t *testing.T) {
	doc, err := Export(load(t, testmodel.TwoBones(), nil), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, doc, true); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatal("missing GLB magic")
	}
	var back gltf.Document
	if err := gltf.NewDecoder(&buf).Decode(&back); err != nil {
		t.Fatal(err)
	}
	if len(back.Nodes) != len(doc.Nodes) || len(back.Skins) != 1 {
		t.Errorf("decoded %d nodes, %d skins", len(back.Nodes), len(back.Skins))
	}
}
