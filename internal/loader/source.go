package loader

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Source holds the raw bytes of one model's three files. Acquiring them is
// up to the caller.
type Source struct {
	Name     string
	Header   []byte
	Vertices []byte
	Strips   []byte
}

// Suffixes names the three files relative to a model's base path.
type Suffixes struct {
	Header   string `yaml:"header" toml:"header"`
	Vertices string `yaml:"vertices" toml:"vertices"`
	Strips   string `yaml:"strips" toml:"strips"`
}

// DefaultSuffixes matches a model compiled for DirectX 9 hardware.
var DefaultSuffixes = Suffixes{Header: ".mdl", Vertices: ".vvd", Strips: ".dx90.vtx"}

// ReadSource reads base+suffix for each file from fsys. Suffixes match
// case-insensitively, as on the case-insensitive file systems models are
// usually authored on.
func ReadSource(fsys fs.FS, base string, sfx Suffixes) (Source, error) {
	src := Source{Name: base}
	for _, f := range []struct {
		dst    *[]byte
		suffix string
	}{
		{&src.Header, sfx.Header},
		{&src.Vertices, sfx.Vertices},
		{&src.Strips, sfx.Strips},
	} {
		data, err := readFold(fsys, base+f.suffix)
		if err != nil {
			return Source{}, errors.Wrapf(err, "loader: read %s%s", base, f.suffix)
		}
		*f.dst = data
	}
	return src, nil
}

// readFold reads name, falling back to a case-insensitive match within its
// directory when no file has that exact name.
func readFold(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}
	entries, derr := fs.ReadDir(fsys, path.Dir(name))
	if derr != nil {
		return nil, err
	}
	want := path.Base(name)
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), want) {
			return fs.ReadFile(fsys, path.Join(path.Dir(name), e.Name()))
		}
	}
	return nil, err
}
