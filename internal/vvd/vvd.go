// Package vvd decodes the .vvd per-vertex data file and materializes the
// level-of-detail vertex streams described by its fixup table.
package vvd

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	Magic      = 0x56534449 // "IDSV"
	Version    = 4
	MaxLODs    = 8
	HeaderSize = 64
	VertexSize = 48
	FixupSize  = 12
	// TangentSize is one xyzw tangent; w is the bitangent sign.
	TangentSize = 16

	// BoneSlots is the number of bone weights each vertex carries after
	// decoding. The file stores three; the fourth is always zero.
	BoneSlots = 4
)

var ErrMalformedHeader = errors.New("malformed vertex header")

type Header struct {
	Version          int32
	Checksum         int32
	NumLODs          int32
	LODVertexCounts  [MaxLODs]int32
	NumFixups        int32
	FixupTableStart  int32
	VertexDataStart  int32
	TangentDataStart int32
}

// Fixup maps a run of raw vertices into a level-of-detail stream. LOD is
// the coarsest level that still uses the run.
type Fixup struct {
	LOD            int32
	SourceVertexID int32
	VertexCount    int32
}

// VertexFile is a decoded .vvd buffer. Vertex data is not copied.
type VertexFile struct {
	Header Header
	Fixups []Fixup
	raw    *VertexBuffer
}

// Decode parses a .vvd buffer.
func Decode(data []byte) (*VertexFile, error) {
	r := binread.New(data)
	h, err := r.Record(0, HeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "vvd: header")
	}
	if id := h.U32(0); id != Magic {
		return nil, errors.Wrapf(ErrMalformedHeader, "vvd: bad signature %#x", id)
	}
	if v := h.I32(4); v != Version {
		return nil, errors.Wrapf(ErrMalformedHeader, "vvd: unsupported version %d", v)
	}

	f := &VertexFile{Header: Header{
		Version:          h.I32(4),
		Checksum:         h.I32(8),
		NumLODs:          h.I32(12),
		NumFixups:        h.I32(48),
		FixupTableStart:  h.I32(52),
		VertexDataStart:  h.I32(56),
		TangentDataStart: h.I32(60),
	}}
	for i := range f.Header.LODVertexCounts {
		f.Header.LODVertexCounts[i] = h.I32(16 + i*4)
	}
	if f.Header.NumLODs < 0 || f.Header.NumLODs > MaxLODs {
		return nil, errors.Wrapf(ErrMalformedHeader, "vvd: %d levels of detail", f.Header.NumLODs)
	}

	recs, err := r.Table(int(f.Header.FixupTableStart), f.Header.NumFixups, FixupSize)
	if err != nil {
		return nil, errors.Wrap(err, "vvd: fixup table")
	}
	f.Fixups = make([]Fixup, len(recs))
	for i, rec := range recs {
		f.Fixups[i] = Fixup{LOD: rec.I32(0), SourceVertexID: rec.I32(4), VertexCount: rec.I32(8)}
	}

	start, end := int(f.Header.VertexDataStart), int(f.Header.TangentDataStart)
	if end == 0 {
		end = r.Len()
	}
	if end < start {
		return nil, errors.Wrapf(ErrMalformedHeader, "vvd: tangent data at %d precedes vertex data at %d", end, start)
	}
	if (end-start)%VertexSize != 0 {
		return nil, errors.Wrapf(binread.ErrTruncated, "vvd: vertex data of %d bytes", end-start)
	}
	region, err := r.Slice(start, end-start)
	if err != nil {
		return nil, errors.Wrap(err, "vvd: vertex data")
	}
	f.raw = &VertexBuffer{data: region}

	if f.Header.TangentDataStart != 0 {
		f.raw.tangents, err = r.Slice(end, f.raw.Len()*TangentSize)
		if err != nil {
			return nil, errors.Wrap(err, "vvd: tangent data")
		}
	}
	return f, nil
}

// Raw returns the vertex stream as stored, before fixups.
func (f *VertexFile) Raw() *VertexBuffer { return f.raw }

// LODVertices returns the vertex stream for one level of detail. With no
// fixups the raw stream is used as is.
func (f *VertexFile) LODVertices(lod int) (*VertexBuffer, error) {
	if lod < 0 || lod >= MaxLODs {
		return nil, errors.Errorf("vvd: level of detail %d out of range", lod)
	}
	if len(f.Fixups) == 0 {
		return f.raw, nil
	}
	return ApplyFixups(f.raw, f.Fixups, lod)
}

// ApplyFixups concatenates, in table order, the raw runs of every fixup
// used by the given level of detail.
func ApplyFixups(raw *VertexBuffer, fixups []Fixup, lod int) (*VertexBuffer, error) {
	total := 0
	for i, fx := range fixups {
		if int(fx.LOD) < lod {
			continue
		}
		if fx.SourceVertexID < 0 || fx.VertexCount < 0 || int(fx.SourceVertexID)+int(fx.VertexCount) > raw.Len() {
			return nil, errors.Wrapf(binread.ErrTruncated, "vvd: fixup %d copies %d vertices from %d of %d",
				i, fx.VertexCount, fx.SourceVertexID, raw.Len())
		}
		total += int(fx.VertexCount)
	}
	out := &VertexBuffer{data: make([]byte, 0, total*VertexSize)}
	if raw.HasTangents() {
		out.tangents = make([]byte, 0, total*TangentSize)
	}
	for _, fx := range fixups {
		if int(fx.LOD) < lod {
			continue
		}
		from, n := int(fx.SourceVertexID), int(fx.VertexCount)
		out.data = append(out.data, raw.data[from*VertexSize:(from+n)*VertexSize]...)
		if out.tangents != nil {
			out.tangents = append(out.tangents, raw.tangents[from*TangentSize:(from+n)*TangentSize]...)
		}
	}
	return out, nil
}
