// Package texture locates and decodes texture images referenced by
// materials.
package texture

import (
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Index maps lowercase slash-separated paths to their real names in an
// fs.FS. Game content is matched case-insensitively.
type Index struct {
	fsys    fs.FS
	mu      sync.RWMutex
	entries map[string]string
}

// BuildIndex walks fsys and records every regular file.
func BuildIndex(fsys fs.FS) (*Index, error) {
	idx := &Index{fsys: fsys}
	if err := idx.Rebuild(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rebuild rescans the file system.
func (idx *Index) Rebuild() error {
	entries := make(map[string]string)
	err := fs.WalkDir(idx.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		key := strings.ToLower(p)
		if _, exists := entries[key]; !exists {
			entries[key] = p
		}
		return nil
	})
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
	return nil
}

// Normalize converts a game path ("Models\\Player\\Body") into the key form
// used by the index.
func Normalize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	return strings.ToLower(path.Clean(name))
}

// ResolvePath returns the real path for name, or ("", false).
func (idx *Index) ResolvePath(name string) (string, bool) {
	idx.mu.RLock()
	p, ok := idx.entries[Normalize(name)]
	idx.mu.RUnlock()
	return p, ok
}

// FS returns the indexed file system.
func (idx *Index) FS() fs.FS { return idx.fsys }

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
