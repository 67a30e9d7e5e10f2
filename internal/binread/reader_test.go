package binread

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

func TestRecordRelativeString(t *testing.T) {
	buf := make([]byte, 32)
	// record at 8, string offset field at +4 pointing 12 bytes past the record start
	binary.LittleEndian.PutUint32(buf[12:], 12)
	copy(buf[20:], "bone\x00")

	rec, err := New(buf).Record(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	s, err := rec.String(4)
	if err != nil {
		t.Fatal(err)
	}
	if s != "bone" {
		t.Errorf("got %q, want %q", s, "bone")
	}
}

func TestStringZeroOffset(t *testing.T) {
	rec, err := New(make([]byte, 8)).Record(0, 8)
	if err != nil {
		t.Fatal(err)
	}
	s, err := rec.String(0)
	if err != nil || s != "" {
		t.Errorf("got %q, %v; want empty", s, err)
	}
}

func TestUnterminatedString(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:], 8)
	copy(buf[8:], "abcd")
	rec, _ := New(buf).Record(0, 4)
	if _, err := rec.String(0); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestRecordOutOfBounds(t *testing.T) {
	r := New(make([]byte, 10))
	if _, err := r.Record(4, 8); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := r.Record(-1, 2); !errors.Is(err, ErrTruncated) {
		t.Errorf("negative offset: expected ErrTruncated, got %v", err)
	}
}

func TestTableRejectsHugeCount(t *testing.T) {
	r := New(make([]byte, 64))
	if _, err := r.Table(0, math.MaxInt32, 16); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := r.Table(0, -1, 16); !errors.Is(err, ErrTruncated) {
		t.Errorf("negative count: expected ErrTruncated, got %v", err)
	}
	recs, err := r.Table(16, 3, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[2].Start != 48 {
		t.Errorf("unexpected table layout: %d records, last at %d", len(recs), recs[len(recs)-1].Start)
	}
}

func TestFieldAccessors(t *testing.T) {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(1))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(2))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(3))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(4))
	binary.LittleEndian.PutUint16(buf[16:], 0xBEEF)
	buf[18] = 7

	rec, _ := New(buf).Record(0, 20)
	q := rec.Quat(0)
	if q.V[0] != 1 || q.V[1] != 2 || q.V[2] != 3 || q.W != 4 {
		t.Errorf("quat read as xyzw: got %+v", q)
	}
	if v := rec.Vec3(4); v[0] != 2 || v[2] != 4 {
		t.Errorf("vec3: got %v", v)
	}
	if rec.U16(16) != 0xBEEF || rec.U8(18) != 7 {
		t.Errorf("u16/u8 mismatch")
	}
}

func TestEncodingDecodesHighBytes(t *testing.T) {
	buf := []byte{'c', 0xE9, 0}
	r := New(buf).WithEncoding(charmap.Windows1252)
	s, err := r.CString(0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "cé" {
		t.Errorf("got %q, want %q", s, "cé")
	}
}

func TestCount(t *testing.T) {
	if n, err := Count(int32(5)); err != nil || n != 5 {
		t.Errorf("Count = %d, %v", n, err)
	}
	if _, err := Count(int16(-1)); !errors.Is(err, ErrTruncated) {
		t.Errorf("negative count: %v", err)
	}
}
