// Package binread provides bounds-checked little-endian access to model
// buffers. Every read either succeeds or fails with ErrTruncated; nothing
// reads past the end of a buffer.
package binread

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// ErrTruncated is returned when an offset or length points outside the buffer.
var ErrTruncated = errors.New("truncated buffer")

// Reader wraps an immutable byte buffer.
type Reader struct {
	data []byte
	enc  *charmap.Charmap
}

// New returns a reader over data. Strings are decoded as raw bytes until
// WithEncoding is called.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// WithEncoding sets the single-byte charset used for name strings.
func (r *Reader) WithEncoding(enc *charmap.Charmap) *Reader {
	r.enc = enc
	return r
}

func (r *Reader) Len() int { return len(r.data) }

// Bytes returns the underlying buffer. Callers must not modify it.
func (r *Reader) Bytes() []byte { return r.data }

func (r *Reader) check(off, n int) error {
	if off < 0 || n < 0 || off > len(r.data) || n > len(r.data)-off {
		return errors.Wrapf(ErrTruncated, "read %d bytes at offset %d of %d", n, off, len(r.data))
	}
	return nil
}

func (r *Reader) I32(off int) (int32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r.data[off:])), nil
}

func (r *Reader) U16(off int) (uint16, error) {
	if err := r.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.data[off:]), nil
}

// Slice returns a view of n bytes at off without copying.
func (r *Reader) Slice(off, n int) ([]byte, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	return r.data[off : off+n : off+n], nil
}

// CString reads a NUL-terminated string starting at an absolute offset.
// A string that runs to the end of the buffer without a terminator is
// truncated.
func (r *Reader) CString(off int) (string, error) {
	if err := r.check(off, 0); err != nil {
		return "", err
	}
	for i := off; i < len(r.data); i++ {
		if r.data[i] == 0 {
			return r.decode(r.data[off:i]), nil
		}
	}
	return "", errors.Wrapf(ErrTruncated, "unterminated string at offset %d", off)
}

// FixedString reads an inline string of at most n bytes, stopping at the
// first NUL.
func (r *Reader) FixedString(off, n int) (string, error) {
	b, err := r.Slice(off, n)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			return r.decode(b[:i]), nil
		}
	}
	return r.decode(b), nil
}

func (r *Reader) decode(b []byte) string {
	if r.enc == nil {
		return string(b)
	}
	out, err := r.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Record returns a window over one fixed-size record. The whole record is
// bounds-checked once so field reads inside it cannot fail.
func (r *Reader) Record(off, size int) (Record, error) {
	b, err := r.Slice(off, size)
	if err != nil {
		return Record{}, errors.Wrap(err, "record")
	}
	return Record{r: r, Start: off, b: b}, nil
}

// Table returns count records of stride bytes starting at base. The full
// extent is validated before anything is allocated, so a garbage count
// fails fast instead of exhausting memory.
func (r *Reader) Table(base int, count int32, stride int) ([]Record, error) {
	n, err := Count(count)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > (len(r.data)+stride-1)/stride {
		return nil, errors.Wrapf(ErrTruncated, "table of %d x %d bytes at offset %d exceeds buffer of %d", n, stride, base, len(r.data))
	}
	if err := r.check(base, n*stride); err != nil {
		return nil, errors.Wrap(err, "table")
	}
	recs := make([]Record, n)
	for i := range recs {
		off := base + i*stride
		recs[i] = Record{r: r, Start: off, b: r.data[off : off+stride : off+stride]}
	}
	return recs, nil
}

// Record is a bounds-checked view of a fixed-size structure. Field offsets
// passed to its accessors are relative to Start.
type Record struct {
	r     *Reader
	Start int
	b     []byte
}

func (rec Record) Size() int { return len(rec.b) }

func (rec Record) I32(at int) int32 { return int32(binary.LittleEndian.Uint32(rec.b[at:])) }

func (rec Record) U32(at int) uint32 { return binary.LittleEndian.Uint32(rec.b[at:]) }

func (rec Record) I16(at int) int16 { return int16(binary.LittleEndian.Uint16(rec.b[at:])) }

func (rec Record) U16(at int) uint16 { return binary.LittleEndian.Uint16(rec.b[at:]) }

func (rec Record) U8(at int) uint8 { return rec.b[at] }

func (rec Record) F32(at int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(rec.b[at:]))
}

func (rec Record) Vec3(at int) mgl32.Vec3 {
	return mgl32.Vec3{rec.F32(at), rec.F32(at + 4), rec.F32(at + 8)}
}

// Quat reads a quaternion stored as x, y, z, w.
func (rec Record) Quat(at int) mgl32.Quat {
	return mgl32.Quat{W: rec.F32(at + 12), V: mgl32.Vec3{rec.F32(at), rec.F32(at + 4), rec.F32(at + 8)}}
}

// Mat3x4 reads a row-major 3x4 matrix.
func (rec Record) Mat3x4(at int) mgl32.Mat3x4 {
	var m mgl32.Mat3x4
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, rec.F32(at+(row*4+col)*4))
		}
	}
	return m
}

// Name reads an inline string field of n bytes.
func (rec Record) Name(at, n int) string {
	s, _ := rec.r.FixedString(rec.Start+at, n)
	return s
}

// Rel resolves the int32 offset stored at field at against the record start.
func (rec Record) Rel(at int) int {
	return rec.Start + int(rec.I32(at))
}

// String resolves a record-relative string: the int32 at field at is an
// offset from the start of this record to a NUL-terminated string. A zero
// offset means no string.
func (rec Record) String(at int) (string, error) {
	if rec.I32(at) == 0 {
		return "", nil
	}
	s, err := rec.r.CString(rec.Rel(at))
	if err != nil {
		return "", errors.Wrapf(err, "string at record %d field %d", rec.Start, at)
	}
	return s, nil
}
