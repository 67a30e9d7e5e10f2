// Package gltfexport converts assembled models into glTF 2.0 documents.
package gltfexport

import (
	"bytes"
	"image/png"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/gkjohnson/source-engine-model-loader/internal/assemble"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mathutil"
)

// Options controls the exported document.
type Options struct {
	// YUp rotates the model root from Z-up to Y-up.
	YUp bool
	// KeepStrips writes triangle strips as strips instead of expanding
	// them to lists.
	KeepStrips bool
	// EmbedTextures writes decoded base textures as PNG images.
	EmbedTextures bool
	// Meters scales the model root from Source units (inches) to meters.
	Meters bool
}

var (
	identityRotation = [4]float32{0, 0, 0, 1}
	unitScale        = [3]float32{1, 1, 1}
)

type exporter struct {
	doc       *gltf.Document
	opts      Options
	model     *assemble.AssembledModel
	attrs     map[string]uint32
	skin      *uint32
	materials map[*material.Material]uint32
}

// Export builds a document holding the model's skeleton, a single skin and
// one mesh node per strip, using the currently selected skin family.
func Export(m *assemble.AssembledModel, opts Options) (*gltf.Document, error) {
	if m == nil {
		return nil, errors.New("gltfexport: nil model")
	}
	e := &exporter{
		doc:       gltf.NewDocument(),
		opts:      opts,
		model:     m,
		materials: make(map[*material.Material]uint32),
	}
	e.doc.Asset.Generator = "source-engine-model-loader"

	root := &gltf.Node{Name: m.Name, Rotation: identityRotation, Scale: unitScale}
	if opts.YUp {
		q := mathutil.ModelFlip
		root.Rotation = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	}
	if opts.Meters {
		s := mathutil.InchesToMeters
		root.Scale = [3]float32{s, s, s}
	}
	rootIdx := e.addNode(root)
	e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, rootIdx)

	root.Children = append(root.Children, e.writeSkeleton()...)
	e.writeVertices()

	children, err := e.writeGroup(m.Root)
	if err != nil {
		return nil, err
	}
	root.Children = append(root.Children, children...)
	return e.doc, nil
}

func (e *exporter) addNode(n *gltf.Node) uint32 {
	e.doc.Nodes = append(e.doc.Nodes, n)
	return uint32(len(e.doc.Nodes) - 1)
}

// writeSkeleton adds one node per bone and the skin that binds them. It
// returns the root bone nodes.
func (e *exporter) writeSkeleton() []uint32 {
	skel := e.model.Skeleton
	if skel == nil || skel.Len() == 0 {
		return nil
	}
	joints := make([]uint32, skel.Len())
	for i, n := range skel.Nodes {
		rot := mathutil.NormalizeQuat(n.Rotation)
		joints[i] = e.addNode(&gltf.Node{
			Name:        n.Name,
			Translation: n.Position,
			Rotation:    rot.V.Vec4(rot.W),
			Scale:       unitScale,
		})
	}
	for i, n := range skel.Nodes {
		for _, c := range n.Children {
			node := e.doc.Nodes[joints[i]]
			node.Children = append(node.Children, joints[c.Index])
		}
	}

	ibm := make([][4][4]float32, skel.Len())
	for i, m := range skel.InverseBindMatrices() {
		ibm[i] = mathutil.Columns(m)
	}
	e.doc.Skins = append(e.doc.Skins, &gltf.Skin{
		Name:                e.model.Name,
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(e.doc, gltf.TargetNone, ibm)),
		Joints:              joints,
	})
	e.skin = gltf.Index(uint32(len(e.doc.Skins) - 1))

	roots := make([]uint32, 0, len(skel.Roots()))
	for _, r := range skel.Roots() {
		roots = append(roots, joints[r.Index])
	}
	return roots
}

// writeVertices writes the shared vertex attributes once; every primitive
// references the same accessors.
func (e *exporter) writeVertices() {
	vb := e.model.Vertices
	normals := vb.Normals()
	for i, n := range normals {
		normals[i] = mathutil.NormalizeOr(n, mgl32.Vec3{0, 0, 1})
	}
	e.attrs = map[string]uint32{
		gltf.POSITION:   modeler.WritePosition(e.doc, vb.Positions()),
		gltf.NORMAL:     modeler.WriteNormal(e.doc, normals),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(e.doc, vb.UVs()),
	}
	if vb.HasTangents() {
		tangents := vb.Tangents()
		for i, t := range tangents {
			xyz := mathutil.NormalizeOr(mgl32.Vec3{t[0], t[1], t[2]}, mgl32.Vec3{1, 0, 0})
			w := float32(1)
			if t[3] < 0 {
				w = -1
			}
			tangents[i] = [4]float32{xyz[0], xyz[1], xyz[2], w}
		}
		e.attrs[gltf.TANGENT] = modeler.WriteTangent(e.doc, tangents)
	}
	if e.skin == nil {
		return
	}
	weights := vb.AllWeights()
	for i, w := range weights {
		sum := w[0] + w[1] + w[2] + w[3]
		if sum <= 0 {
			weights[i] = [4]float32{1, 0, 0, 0}
			continue
		}
		for k := range w {
			weights[i][k] = w[k] / sum
		}
	}
	e.attrs[gltf.WEIGHTS_0] = modeler.WriteWeights(e.doc, weights)
	e.attrs[gltf.JOINTS_0] = modeler.WriteJoints(e.doc, vb.AllBones())
}

func (e *exporter) writeGroup(g *assemble.Group) ([]uint32, error) {
	var nodes []uint32
	for _, mesh := range g.Meshes {
		idx, ok, err := e.writeMesh(mesh)
		if err != nil {
			return nil, err
		}
		if ok {
			nodes = append(nodes, idx)
		}
	}
	for _, sub := range g.Groups {
		children, err := e.writeGroup(sub)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, e.addNode(&gltf.Node{
			Name:     sub.Name,
			Children: children,
			Rotation: identityRotation,
			Scale:    unitScale,
		}))
	}
	return nodes, nil
}

func (e *exporter) writeMesh(mesh *assemble.SkinnedMesh) (uint32, bool, error) {
	indices, mode := mesh.TriangleList(), gltf.PrimitiveTriangles
	if e.opts.KeepStrips && mesh.Topology == assemble.TriangleStrip {
		indices, mode = mesh.Indices, gltf.PrimitiveTriangleStrip
	}
	if len(indices) == 0 {
		return 0, false, nil
	}
	mat, err := e.material(mesh.Material)
	if err != nil {
		return 0, false, err
	}

	attrs := make(map[string]uint32, len(e.attrs))
	for k, v := range e.attrs {
		attrs[k] = v
	}
	e.doc.Meshes = append(e.doc.Meshes, &gltf.Mesh{
		Name: mesh.Name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(e.doc, indices)),
			Attributes: attrs,
			Material:   gltf.Index(mat),
			Mode:       mode,
		}},
	})
	return e.addNode(&gltf.Node{
		Name:     mesh.Name,
		Mesh:     gltf.Index(uint32(len(e.doc.Meshes) - 1)),
		Skin:     e.skin,
		Rotation: identityRotation,
		Scale:    unitScale,
	}), true, nil
}

// material writes m once and returns its index.
func (e *exporter) material(m *material.Material) (uint32, error) {
	if idx, ok := e.materials[m]; ok {
		return idx, nil
	}
	out := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.NoCull,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{m.Color[0], m.Color[1], m.Color[2], m.Alpha},
			MetallicFactor:  gltf.Float(0),
		},
	}
	switch {
	case m.AlphaTest:
		out.AlphaMode = gltf.AlphaMask
		out.AlphaCutoff = gltf.Float(m.AlphaTestRef)
	case m.Translucent || m.Additive || m.Alpha < 1:
		out.AlphaMode = gltf.AlphaBlend
	}
	if e.opts.EmbedTextures && m.Texture != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, m.Texture); err != nil {
			return 0, errors.Wrapf(err, "gltfexport: encode texture of %s", m.Name)
		}
		img, err := modeler.WriteImage(e.doc, m.BaseTexture, "image/png", &buf)
		if err != nil {
			return 0, errors.Wrapf(err, "gltfexport: write texture of %s", m.Name)
		}
		e.doc.Textures = append(e.doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
		out.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: uint32(len(e.doc.Textures) - 1)}
	}
	e.doc.Materials = append(e.doc.Materials, out)
	idx := uint32(len(e.doc.Materials) - 1)
	e.materials[m] = idx
	return idx, nil
}

// Write encodes doc as glTF JSON, or as a single GLB when binary is set.
func Write(w io.Writer, doc *gltf.Document, binary bool) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "gltfexport: encode")
	}
	return nil
}
