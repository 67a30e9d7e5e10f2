// Package mdl decodes the Source engine .mdl header file.
package mdl

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	Magic      = 0x54534449 // "IDST"
	MinVersion = 44
	MaxVersion = 49
	HeaderSize = 408

	// VertexStride is the size of one vertex record in the .vvd file.
	VertexStride = 48
)

// ErrMalformedHeader is returned for a bad signature, an unsupported
// version, or an inconsistent bone graph.
var ErrMalformedHeader = errors.New("malformed model header")

// Options controls decoding.
type Options struct {
	// Encoding decodes name strings. Nil keeps raw bytes.
	Encoding *charmap.Charmap
}

// Decode parses an .mdl buffer.
func Decode(data []byte, opts Options) (*ModelDescriptor, error) {
	r := binread.New(data).WithEncoding(opts.Encoding)
	h, err := r.Record(0, HeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "mdl: header")
	}
	if id := h.U32(0); id != Magic {
		return nil, errors.Wrapf(ErrMalformedHeader, "mdl: bad signature %#x", id)
	}
	version := h.I32(4)
	if version < MinVersion || version > MaxVersion {
		return nil, errors.Wrapf(ErrMalformedHeader, "mdl: unsupported version %d", version)
	}

	d := &ModelDescriptor{
		Version:            version,
		Checksum:           h.I32(8),
		Name:               h.Name(12, 64),
		Length:             h.I32(76),
		EyePosition:        h.Vec3(80),
		IllumPosition:      h.Vec3(92),
		HullMin:            h.Vec3(104),
		HullMax:            h.Vec3(116),
		ViewMin:            h.Vec3(128),
		ViewMax:            h.Vec3(140),
		Flags:              h.I32(152),
		Mass:               h.F32(328),
		Contents:           h.I32(332),
		RootLOD:            h.U8(377),
		NumAllowedRootLODs: h.U8(378),
	}

	steps := []struct {
		name string
		fn   func(*binread.Reader, binread.Record, *ModelDescriptor) error
	}{
		{"bones", decodeBones},
		{"bone controllers", decodeBoneControllers},
		{"textures", decodeTextures},
		{"texture directories", decodeTextureDirs},
		{"skins", decodeSkins},
		{"body parts", decodeBodyParts},
		{"include models", decodeIncludeModels},
		{"animations", decodeAnimations},
		{"sequences", decodeSequences},
		{"strings", decodeHeaderStrings},
		{"secondary header", decodeSecondary},
	}
	for _, s := range steps {
		if err := s.fn(r, h, d); err != nil {
			return nil, errors.Wrapf(err, "mdl: %s", s.name)
		}
	}
	return d, nil
}

// PeekVersion returns the format version without decoding the rest of the
// file.
func PeekVersion(data []byte) (int32, error) {
	r := binread.New(data)
	id, err := r.I32(0)
	if err != nil {
		return 0, errors.Wrap(err, "mdl: signature")
	}
	if uint32(id) != Magic {
		return 0, errors.Wrapf(ErrMalformedHeader, "mdl: bad signature %#x", uint32(id))
	}
	return r.I32(4)
}

func decodeHeaderStrings(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	var err error
	if off := h.I32(308); off > 0 {
		if d.SurfaceProp, err = r.CString(int(off)); err != nil {
			return errors.Wrap(err, "surface prop")
		}
	}
	if off, size := h.I32(312), h.I32(316); off > 0 && size > 0 {
		b, err := r.Slice(int(off), int(size))
		if err != nil {
			return errors.Wrap(err, "key values")
		}
		if n := len(b); n > 0 && b[n-1] == 0 {
			b = b[:n-1]
		}
		d.KeyValues = string(b)
	}
	return nil
}

func decodeSecondary(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	off := h.I32(400)
	if off == 0 {
		return nil
	}
	rec, err := r.Record(int(off), 20)
	if err != nil {
		return err
	}
	d.Secondary = &SecondaryHeader{
		SrcBoneTransformCount:   rec.I32(0),
		IllumPositionAttachment: rec.I32(8),
		MaxEyeDeflection:        rec.F32(12),
		LinearBoneIndex:         rec.I32(16),
	}
	return nil
}
