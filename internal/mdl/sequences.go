package mdl

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	includeModelSize = 8
	animDescSize     = 100
	sequenceSize     = 212
)

func decodeIncludeModels(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(340)), h.I32(336), includeModelSize)
	if err != nil {
		return err
	}
	d.IncludeModels = make([]IncludeModel, len(recs))
	for i, rec := range recs {
		im := &d.IncludeModels[i]
		if im.Label, err = rec.String(0); err != nil {
			return errors.Wrapf(err, "include model %d label", i)
		}
		if im.Name, err = rec.String(4); err != nil {
			return errors.Wrapf(err, "include model %d name", i)
		}
	}
	return nil
}

func decodeAnimations(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(184)), h.I32(180), animDescSize)
	if err != nil {
		return err
	}
	d.Animations = make([]AnimDesc, len(recs))
	for i, rec := range recs {
		a := &d.Animations[i]
		if a.Name, err = rec.String(4); err != nil {
			return errors.Wrapf(err, "animation %d name", i)
		}
		a.FPS = rec.F32(8)
		a.Flags = rec.I32(12)
		a.NumFrames = rec.I32(16)
	}
	return nil
}

func decodeSequences(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(192)), h.I32(188), sequenceSize)
	if err != nil {
		return err
	}
	d.Sequences = make([]Sequence, len(recs))
	for i, rec := range recs {
		s := &d.Sequences[i]
		if s.Label, err = rec.String(4); err != nil {
			return errors.Wrapf(err, "sequence %d label", i)
		}
		if s.Activity, err = rec.String(8); err != nil {
			return errors.Wrapf(err, "sequence %d activity", i)
		}
		s.Flags = rec.I32(12)
		s.ActWeight = rec.I32(20)
		s.NumEvents = rec.I32(24)
		s.BBMin = rec.Vec3(32)
		s.BBMax = rec.Vec3(44)
		s.NumBlends = rec.I32(56)
	}
	return nil
}
