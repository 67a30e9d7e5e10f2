package mdl

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	bodyPartSize = 16
	modelSize    = 148
	meshSize     = 116
)

// Model records are addressed relative to their body part and mesh records
// relative to their model.
func decodeBodyParts(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(236)), h.I32(232), bodyPartSize)
	if err != nil {
		return err
	}
	d.BodyParts = make([]BodyPart, len(recs))
	for i, rec := range recs {
		bp := &d.BodyParts[i]
		if bp.Name, err = rec.String(0); err != nil {
			return errors.Wrapf(err, "body part %d name", i)
		}
		bp.Base = rec.I32(8)
		models, err := r.Table(rec.Rel(12), rec.I32(4), modelSize)
		if err != nil {
			return errors.Wrapf(err, "body part %d models", i)
		}
		bp.Models = make([]Model, len(models))
		for j, mrec := range models {
			if bp.Models[j], err = decodeModel(r, mrec); err != nil {
				return errors.Wrapf(err, "body part %d model %d", i, j)
			}
		}
	}
	return nil
}

func decodeModel(r *binread.Reader, rec binread.Record) (Model, error) {
	m := Model{
		Name:           rec.Name(0, 64),
		Type:           rec.I32(64),
		BoundingRadius: rec.F32(68),
		VertexCount:    rec.I32(80),
		VertexIndex:    rec.I32(84),
		TangentsIndex:  rec.I32(88),
		NumAttachments: rec.I32(92),
		NumEyeballs:    rec.I32(100),
	}
	meshes, err := r.Table(rec.Rel(76), rec.I32(72), meshSize)
	if err != nil {
		return m, errors.Wrap(err, "meshes")
	}
	m.Meshes = make([]Mesh, len(meshes))
	for k, mrec := range meshes {
		m.Meshes[k] = Mesh{
			Material:      mrec.I32(0),
			VertexCount:   mrec.I32(8),
			VertexOffset:  mrec.I32(12),
			FlexCount:     mrec.I32(16),
			MaterialType:  mrec.I32(24),
			MaterialParam: mrec.I32(28),
			ID:            mrec.I32(32),
			Center:        mrec.Vec3(36),
		}
	}
	return m, nil
}
