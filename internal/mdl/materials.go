package mdl

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const textureSize = 64

func decodeTextures(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(208)), h.I32(204), textureSize)
	if err != nil {
		return err
	}
	d.Textures = make([]string, len(recs))
	for i, rec := range recs {
		if d.Textures[i], err = rec.String(0); err != nil {
			return errors.Wrapf(err, "texture %d", i)
		}
	}
	return nil
}

// Texture directory entries hold absolute offsets, unlike every other
// name in the file.
func decodeTextureDirs(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(216)), h.I32(212), 4)
	if err != nil {
		return err
	}
	d.TextureDirectories = make([]string, len(recs))
	for i, rec := range recs {
		if d.TextureDirectories[i], err = r.CString(int(rec.I32(0))); err != nil {
			return errors.Wrapf(err, "texture directory %d", i)
		}
	}
	return nil
}

func decodeSkins(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	refs, err := binread.Count(h.I32(220))
	if err != nil {
		return err
	}
	families, err := binread.Count(h.I32(224))
	if err != nil {
		return err
	}
	if refs == 0 || families == 0 {
		return nil
	}
	rows, err := r.Table(int(h.I32(228)), int32(families), refs*2)
	if err != nil {
		return err
	}
	d.SkinTable = make([][]uint16, families)
	for f, row := range rows {
		d.SkinTable[f] = make([]uint16, refs)
		for j := range d.SkinTable[f] {
			d.SkinTable[f][j] = row.U16(j * 2)
		}
	}
	return nil
}
