package material

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/texture"
)

// ErrNotFound is returned when no search directory holds the material.
var ErrNotFound = errors.New("material not found")

// Resolver finds a material by name across a list of search directories.
type Resolver interface {
	Resolve(ctx context.Context, name string, dirs []string) (*Material, error)
}

// FSResolver resolves .vmt files through a case-insensitive index of the
// materials root. Resolved materials are cached by path and shared between
// models, so they must be treated as read-only.
type FSResolver struct {
	index    *texture.Index
	textures texture.Codec

	mu    sync.RWMutex
	cache map[string]*Material
}

// NewFSResolver returns a resolver over idx. textures may be nil, in which
// case base textures are named but not decoded.
func NewFSResolver(idx *texture.Index, textures texture.Codec) *FSResolver {
	return &FSResolver{
		index:    idx,
		textures: textures,
		cache:    make(map[string]*Material),
	}
}

// OpenDir indexes the materials root at dir and returns a resolver whose
// textures are decoded once and cached.
func OpenDir(dir string) (*FSResolver, error) {
	idx, err := texture.BuildIndex(os.DirFS(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "material: index %s", dir)
	}
	return NewFSResolver(idx, texture.NewCache(texture.NewImageCodec(idx))), nil
}

// Resolve tries "<dir><name>.vmt" for each directory in order; the first
// material that loads wins.
func (r *FSResolver) Resolve(ctx context.Context, name string, dirs []string) (*Material, error) {
	if len(dirs) == 0 {
		dirs = []string{""}
	}
	var lastErr error
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := r.index.ResolvePath(materialPath(dir, name))
		if !ok {
			continue
		}
		m, err := r.load(p, name)
		if err != nil {
			lastErr = err
			continue
		}
		return m, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.Wrapf(ErrNotFound, "material: %s in %d directories", name, len(dirs))
}

func materialPath(dir, name string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return texture.Normalize(dir+name) + ".vmt"
}

func (r *FSResolver) load(p, name string) (*Material, error) {
	r.mu.RLock()
	if m, ok := r.cache[p]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	kv, err := r.readKeyValues(p)
	if err != nil {
		return nil, err
	}
	m := FromKeyValues(name, kv)
	if strings.EqualFold(kv.Name, "patch") {
		if m, err = r.patch(name, kv); err != nil {
			return nil, errors.Wrapf(err, "material: patch %s", p)
		}
	}
	if m.BaseTexture != "" && r.textures != nil {
		// a missing texture leaves the material usable without one
		m.Texture, _ = r.textures.Load(m.BaseTexture)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[p]; ok {
		return cached, nil
	}
	r.cache[p] = m
	return m, nil
}

func (r *FSResolver) readKeyValues(p string) (*KeyValues, error) {
	raw, err := fs.ReadFile(r.index.FS(), p)
	if err != nil {
		return nil, errors.Wrapf(err, "material: read %s", p)
	}
	kv, err := Decode(string(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "material: parse %s", p)
	}
	return kv, nil
}

// patch applies a patch material: the included material's parameters,
// then the insert block, then the replace block.
func (r *FSResolver) patch(name string, kv *KeyValues) (*Material, error) {
	include, ok := kv.Get("include")
	if !ok {
		return nil, errors.New("no include")
	}
	p, ok := r.index.ResolvePath(texture.Normalize(strings.TrimPrefix(texture.Normalize(include), "materials/")))
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "include %s", include)
	}
	base, err := r.readKeyValues(p)
	if err != nil {
		return nil, err
	}
	m := FromKeyValues(name, base)
	for _, block := range []string{"insert", "replace"} {
		if b := kv.Child(block); b != nil {
			apply(m, b)
		}
	}
	return m, nil
}
