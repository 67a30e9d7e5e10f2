// Package vtx decodes the .vtx optimized strip file.
package vtx

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	Version    = 7
	HeaderSize = 36

	bodyPartSize = 8
	modelSize    = 8
	lodSize      = 12
	meshSize     = 9
	vertexSize   = 9

	stripGroupSize         = 25
	stripGroupSizeExtended = 33
	stripSize              = 27
	stripSizeExtended      = 35
)

var ErrMalformedHeader = errors.New("malformed strip header")

// Options controls decoding.
type Options struct {
	// Extended selects the strip group and strip layouts that carry
	// topology fields, written alongside version 49 model headers.
	Extended bool
}

type decoder struct {
	r           *binread.Reader
	groupStride int
	stripStride int
}

// Decode parses a .vtx buffer. Only the first level of detail is walked.
func Decode(data []byte, opts Options) (*StripData, error) {
	r := binread.New(data)
	h, err := r.Record(0, HeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "vtx: header")
	}
	sd := &StripData{Header: Header{
		Version:          h.I32(0),
		VertCacheSize:    h.I32(4),
		MaxBonesPerStrip: h.U16(8),
		MaxBonesPerTri:   h.U16(10),
		MaxBonesPerVert:  h.I32(12),
		Checksum:         h.I32(16),
		NumLODs:          h.I32(20),
	}}
	if sd.Header.Version != Version {
		return nil, errors.Wrapf(ErrMalformedHeader, "vtx: unsupported version %d", sd.Header.Version)
	}

	d := &decoder{r: r, groupStride: stripGroupSize, stripStride: stripSize}
	if opts.Extended {
		d.groupStride, d.stripStride = stripGroupSizeExtended, stripSizeExtended
	}

	parts, err := r.Table(int(h.I32(32)), h.I32(28), bodyPartSize)
	if err != nil {
		return nil, errors.Wrap(err, "vtx: body parts")
	}
	sd.BodyParts = make([]BodyPart, len(parts))
	for i, rec := range parts {
		models, err := r.Table(rec.Rel(4), rec.I32(0), modelSize)
		if err != nil {
			return nil, errors.Wrapf(err, "vtx: body part %d", i)
		}
		sd.BodyParts[i].Models = make([]Model, len(models))
		for j, mrec := range models {
			if sd.BodyParts[i].Models[j], err = d.model(mrec); err != nil {
				return nil, errors.Wrapf(err, "vtx: body part %d model %d", i, j)
			}
		}
	}
	return sd, nil
}

func (d *decoder) model(rec binread.Record) (Model, error) {
	var m Model
	lods, err := d.r.Table(rec.Rel(4), rec.I32(0), lodSize)
	if err != nil {
		return m, errors.Wrap(err, "lods")
	}
	if len(lods) == 0 {
		return m, nil
	}
	m.SwitchPoints = make([]float32, len(lods))
	for i, lod := range lods {
		m.SwitchPoints[i] = lod.F32(8)
	}
	meshes, err := d.r.Table(lods[0].Rel(4), lods[0].I32(0), meshSize)
	if err != nil {
		return m, errors.Wrap(err, "meshes")
	}
	m.Meshes = make([]Mesh, len(meshes))
	for k, mrec := range meshes {
		m.Meshes[k].Flags = mrec.U8(8)
		groups, err := d.r.Table(mrec.Rel(4), mrec.I32(0), d.groupStride)
		if err != nil {
			return m, errors.Wrapf(err, "mesh %d strip groups", k)
		}
		m.Meshes[k].StripGroups = make([]StripGroup, len(groups))
		for g, grec := range groups {
			if m.Meshes[k].StripGroups[g], err = d.stripGroup(grec); err != nil {
				return m, errors.Wrapf(err, "mesh %d strip group %d", k, g)
			}
		}
	}
	return m, nil
}

// stripGroup reads the group's vertex table, index buffer and strips. Every
// index must address the vertex table and every strip must lie inside the
// index buffer.
func (d *decoder) stripGroup(rec binread.Record) (StripGroup, error) {
	sg := StripGroup{Flags: rec.U8(24)}

	verts, err := d.r.Table(rec.Rel(4), rec.I32(0), vertexSize)
	if err != nil {
		return sg, errors.Wrap(err, "vertices")
	}
	sg.Vertices = make([]Vertex, len(verts))
	for i, v := range verts {
		sg.Vertices[i] = Vertex{
			BoneWeightIndex: [3]uint8{v.U8(0), v.U8(1), v.U8(2)},
			NumBones:        v.U8(3),
			OrigMeshVertID:  v.U16(4),
			BoneID:          [3]int8{int8(v.U8(6)), int8(v.U8(7)), int8(v.U8(8))},
		}
	}

	numIndices, err := binread.Count(rec.I32(8))
	if err != nil {
		return sg, errors.Wrap(err, "indices")
	}
	raw, err := d.r.Slice(rec.Rel(12), numIndices*2)
	if err != nil {
		return sg, errors.Wrap(err, "indices")
	}
	idx := binread.New(raw)
	sg.Indices = make([]uint16, numIndices)
	for i := range sg.Indices {
		v, _ := idx.U16(i * 2)
		if int(v) >= len(sg.Vertices) {
			return sg, errors.Wrapf(binread.ErrTruncated, "index %d is %d but the vertex table holds %d", i, v, len(sg.Vertices))
		}
		sg.Indices[i] = v
	}

	strips, err := d.r.Table(rec.Rel(20), rec.I32(16), d.stripStride)
	if err != nil {
		return sg, errors.Wrap(err, "strips")
	}
	sg.Strips = make([]Strip, len(strips))
	for i, s := range strips {
		st := Strip{
			IndexCount:   int(s.I32(0)),
			IndexOffset:  int(s.I32(4)),
			VertexCount:  int(s.I32(8)),
			VertexOffset: int(s.I32(12)),
			NumBones:     s.I16(16),
			Flags:        s.U8(18),
		}
		if st.IndexOffset < 0 || st.IndexCount < 0 || st.IndexOffset+st.IndexCount > numIndices {
			return sg, errors.Wrapf(binread.ErrTruncated, "strip %d spans indices [%d, %d) of %d",
				i, st.IndexOffset, st.IndexOffset+st.IndexCount, numIndices)
		}
		sg.Strips[i] = st
	}
	return sg, nil
}
