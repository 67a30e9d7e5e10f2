// Package loader runs the decode pipeline for a model: the three file
// decoders in parallel, material resolution fanned out once the header is
// known, then assembly. Each Load supersedes the ones before it.
package loader

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/gkjohnson/source-engine-model-loader/internal/assemble"
	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mdl"
	"github.com/gkjohnson/source-engine-model-loader/internal/vtx"
	"github.com/gkjohnson/source-engine-model-loader/internal/vvd"
)

// ErrSuperseded is returned by a load that finished after a newer load
// began. Its result is discarded.
var ErrSuperseded = errors.New("load superseded")

// Options configures a Loader.
type Options struct {
	// Resolver finds materials; nil leaves every texture on the default
	// material.
	Resolver   material.Resolver
	Encoding   *charmap.Charmap
	SkinFamily int
	Logger     *log.Logger
}

// Loader decodes and assembles models. It is safe for concurrent use.
type Loader struct {
	opts   Options
	logger *log.Logger

	gen     atomic.Uint64
	mu      sync.Mutex
	current *assemble.AssembledModel
}

func New(opts Options) *Loader {
	return &Loader{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// Begin starts a new load generation. Loads started under an older
// generation return ErrSuperseded instead of publishing.
func (l *Loader) Begin() uint64 {
	return l.gen.Add(1)
}

// Current returns the most recently published model.
func (l *Loader) Current() *assemble.AssembledModel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load decodes src and publishes the result unless a newer Load began in
// the meantime.
func (l *Loader) Load(ctx context.Context, src Source) (*assemble.AssembledModel, error) {
	token := l.Begin()
	m, err := l.build(ctx, token, src)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.gen.Load() {
		return nil, ErrSuperseded
	}
	l.current = m
	return m, nil
}

type decoded struct {
	header    *mdl.ModelDescriptor
	materials []*material.Material
	vertices  *vvd.VertexFile
	lod0      *vvd.VertexBuffer
	strips    *vtx.StripData
}

func (l *Loader) build(ctx context.Context, token uint64, src Source) (*assemble.AssembledModel, error) {
	logger := l.logger.With("model", src.Name)

	version, err := mdl.PeekVersion(src.Header)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: %s", src.Name)
	}

	var d decoded
	var headerErr, vertexErr, stripErr error
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if d.header, headerErr = mdl.Decode(src.Header, mdl.Options{Encoding: l.opts.Encoding}); headerErr != nil {
			return
		}
		d.materials = l.resolveMaterials(ctx, d.header, logger)
	}()
	go func() {
		defer wg.Done()
		if d.vertices, vertexErr = vvd.Decode(src.Vertices); vertexErr != nil {
			return
		}
		d.lod0, vertexErr = d.vertices.LODVertices(0)
	}()
	go func() {
		defer wg.Done()
		d.strips, stripErr = vtx.Decode(src.Strips, vtx.Options{Extended: version >= 49})
	}()
	wg.Wait()

	for _, err := range []error{headerErr, vertexErr, stripErr} {
		if err != nil {
			return nil, errors.Wrapf(err, "loader: %s", src.Name)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token != l.gen.Load() {
		logger.Debug("discarding superseded load")
		return nil, ErrSuperseded
	}

	m, err := assemble.Assemble(assemble.Input{
		Name:           src.Name,
		Header:         d.header,
		Vertices:       d.lod0,
		VertexChecksum: d.vertices.Header.Checksum,
		Strips:         d.strips,
		Materials:      d.materials,
		SkinFamily:     l.opts.SkinFamily,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loader: %s", src.Name)
	}
	for _, diag := range m.Diagnostics() {
		logger.Warn(diag.Kind.String(), "detail", diag.Message)
	}
	logger.Debug("assembled", "bones", m.Skeleton.Len(), "meshes", len(m.Meshes), "vertices", m.Vertices.Len())
	return m, nil
}

// resolveMaterials looks up every texture concurrently. Each lookup walks
// the search directories in order, so the first match per texture is
// deterministic.
func (l *Loader) resolveMaterials(ctx context.Context, h *mdl.ModelDescriptor, logger *log.Logger) []*material.Material {
	out := make([]*material.Material, len(h.Textures))
	if l.opts.Resolver == nil {
		return out
	}
	var wg sync.WaitGroup
	for i, name := range h.Textures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := l.opts.Resolver.Resolve(ctx, name, h.TextureDirectories)
			if err != nil {
				logger.Debug("material lookup failed", "texture", name, "err", err)
				return
			}
			out[i] = m
		}()
	}
	wg.Wait()
	return out
}
