// Package atlas packs many small images into a few large GPU textures and
// records where each image landed.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"voxelkit/internal/config"
	"voxelkit/internal/gpu"
	"voxelkit/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// TextureInfo is the sub-rectangle of an atlas texture that one source
// image occupies, in normalised UV space.
type TextureInfo struct {
	Texture        gpu.Texture
	U0, V0, U1, V1 float32
}

// FullRegion covers the whole of tex.
func FullRegion(tex gpu.Texture) TextureInfo {
	return TextureInfo{Texture: tex, U0: 0, V0: 0, U1: 1, V1: 1}
}

// Map converts a base UV in [0,1] to atlas space.
func (t TextureInfo) Map(u, v float32) (float32, float32) {
	return t.U0 + u*(t.U1-t.U0), t.V0 + v*(t.V1-t.V0)
}

// Offset is the top-left corner of the region.
func (t TextureInfo) Offset() mgl32.Vec2 {
	return mgl32.Vec2{t.U0, t.V0}
}

// Scale is the size of the region.
func (t TextureInfo) Scale() mgl32.Vec2 {
	return mgl32.Vec2{t.U1 - t.U0, t.V1 - t.V0}
}

// Lookup resolves resource paths to atlas regions.
type Lookup interface {
	TextureInfo(path string) (TextureInfo, bool)
}

// MapLookup is a fixed Lookup keyed by canonical path.
type MapLookup map[string]TextureInfo

func (m MapLookup) TextureInfo(path string) (TextureInfo, bool) {
	info, ok := m[Canonical(path)]
	return info, ok
}

// Options configure a bake.
type Options struct {
	BinWidth, BinHeight int
	Padding             int
	DebugDir            string // atlas_<i>.png dumps when set
	Workers             int    // parallel decodes
}

// DefaultOptions reads the current atlas settings.
func DefaultOptions() Options {
	size := config.GetAtlasBinSize()
	return Options{
		BinWidth:  size,
		BinHeight: size,
		Padding:   config.GetAtlasPadding(),
		DebugDir:  config.GetAtlasDebugDir(),
		Workers:   config.GetDecodeWorkers(),
	}
}

// ImageError ties a per-image failure to its path.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// Placement records where an image was packed.
type Placement struct {
	Path          string
	Bin           int
	X, Y          int
	Width, Height int
}

// Report is the outcome of a bake.
type Report struct {
	Infos      map[string]TextureInfo
	Placements []Placement
	Skipped    []*ImageError // decode or upload failures
	Rejected   []*ImageError // too large for a bin
	Textures   []gpu.Texture
	BinWidth   int
	BinHeight  int
}

// Err joins every per-image failure, nil when there were none.
func (r *Report) Err() error {
	var errs []error
	for _, e := range r.Rejected {
		errs = append(errs, e)
	}
	for _, e := range r.Skipped {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Manager bakes atlases once and serves lookups afterwards. Lookups are
// safe from any goroutine.
type Manager struct {
	dev  gpu.Device
	src  Source
	opts Options

	mu       sync.RWMutex
	baked    bool
	released bool
	report   *Report
}

func NewManager(dev gpu.Device, src Source, opts Options) *Manager {
	if opts.BinWidth <= 0 {
		opts.BinWidth = config.GetAtlasBinSize()
	}
	if opts.BinHeight <= 0 {
		opts.BinHeight = opts.BinWidth
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Manager{dev: dev, src: src, opts: opts}
}

// Bake decodes, packs and uploads the images at paths. Only the first call
// does any work; later calls log a warning and return the first report.
// Per-image failures are recorded in the report and never abort the bake.
func (m *Manager) Bake(paths []string) (*Report, error) {
	defer profiling.Track("atlas.Bake")()
	if m.dev == nil || m.src == nil {
		return nil, errors.New("atlas: bake needs a device and an image source")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baked {
		log.Printf("atlas: textures already baked, ignoring bake of %d images", len(paths))
		return m.report, nil
	}
	m.baked = true

	report := &Report{
		Infos:     make(map[string]TextureInfo),
		BinWidth:  m.opts.BinWidth,
		BinHeight: m.opts.BinHeight,
	}
	m.report = report

	images := m.decodeAll(dedupe(paths), report)
	sortForPacking(images, m.opts.Padding)

	p := newPacker(m.opts.BinWidth, m.opts.BinHeight, m.opts.Padding)
	for _, img := range images {
		if err := p.add(img); err != nil {
			log.Printf("atlas: rejecting %s: %v", img.path, err)
			report.Rejected = append(report.Rejected, &ImageError{Path: img.path, Err: err})
		}
	}

	for i, b := range p.bins {
		m.finishBin(i, b, report)
	}

	log.Printf("atlas: baked %d images into %d atlases (%d skipped, %d rejected)",
		len(report.Infos), len(report.Textures), len(report.Skipped), len(report.Rejected))
	return report, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		c := Canonical(p)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// decodeAll decodes in parallel and returns the usable images in input order.
func (m *Manager) decodeAll(paths []string, report *Report) []*sourceImage {
	defer profiling.Track("atlas.Decode")()

	decoded := make([]*sourceImage, len(paths))
	failures := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(m.opts.Workers)
	for i, p := range paths {
		g.Go(func() error {
			img, err := m.src.Decode(p)
			if err == nil && (img.Width <= 0 || img.Height <= 0) {
				err = fmt.Errorf("%w: non-positive size %dx%d", ErrDecode, img.Width, img.Height)
			}
			if err == nil && len(img.Pix) < img.Width*img.Height*4 {
				err = fmt.Errorf("%w: %d bytes for %dx%d", ErrDecode, len(img.Pix), img.Width, img.Height)
			}
			if err != nil {
				failures[i] = err
				return nil
			}
			decoded[i] = &sourceImage{path: p, width: img.Width, height: img.Height, pix: img.Pix}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*sourceImage, 0, len(paths))
	for i, img := range decoded {
		if failures[i] != nil {
			log.Printf("atlas: skipping %s: %v", paths[i], failures[i])
			report.Skipped = append(report.Skipped, &ImageError{Path: paths[i], Err: failures[i]})
			continue
		}
		out = append(out, img)
	}
	return out
}

// finishBin blits a bin's images into one canvas, uploads it and records
// the UV rectangles.
func (m *Manager) finishBin(index int, b *bin, report *Report) {
	defer profiling.Track("atlas.Upload")()

	canvas := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for _, pl := range b.placed {
		img := pl.img
		src := &image.RGBA{
			Pix:    img.pix,
			Stride: img.width * 4,
			Rect:   image.Rect(0, 0, img.width, img.height),
		}
		dst := image.Rect(pl.x, pl.y, pl.x+img.width, pl.y+img.height)
		xdraw.Draw(canvas, dst, src, image.Point{}, xdraw.Src)
		img.pix = nil
	}

	if m.opts.DebugDir != "" {
		if err := dumpPNG(m.opts.DebugDir, index, canvas); err != nil {
			log.Printf("atlas: debug dump of atlas %d failed: %v", index, err)
		}
	}

	tex, err := m.dev.CreateTexture(b.width, b.height, canvas.Pix, gpu.AtlasParams())
	if err != nil {
		log.Printf("atlas: upload of atlas %d failed, dropping %d images: %v", index, len(b.placed), err)
		for _, pl := range b.placed {
			report.Skipped = append(report.Skipped, &ImageError{Path: pl.img.path, Err: err})
		}
		return
	}
	report.Textures = append(report.Textures, tex)

	bw, bh := float32(b.width), float32(b.height)
	for _, pl := range b.placed {
		img := pl.img
		report.Infos[img.path] = TextureInfo{
			Texture: tex,
			U0:      float32(pl.x) / bw,
			V0:      float32(pl.y) / bh,
			U1:      float32(pl.x+img.width) / bw,
			V1:      float32(pl.y+img.height) / bh,
		}
		report.Placements = append(report.Placements, Placement{
			Path:   img.path,
			Bin:    index,
			X:      pl.x,
			Y:      pl.y,
			Width:  img.width,
			Height: img.height,
		})
	}
}

// TextureInfo looks up the region of a baked image.
func (m *Manager) TextureInfo(path string) (TextureInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.report == nil || m.released {
		return TextureInfo{}, false
	}
	info, ok := m.report.Infos[Canonical(path)]
	return info, ok
}

// Baked reports whether Bake has run.
func (m *Manager) Baked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baked
}

// Textures returns the uploaded atlas textures in bin order.
func (m *Manager) Textures() []gpu.Texture {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.report == nil || m.released {
		return nil
	}
	return append([]gpu.Texture(nil), m.report.Textures...)
}

// Report returns the result of the bake, nil before it.
func (m *Manager) Report() *Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report
}

// Cleanup deletes the atlas textures. Lookups fail afterwards.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released || m.report == nil {
		return
	}
	for _, tex := range m.report.Textures {
		m.dev.DeleteTexture(tex)
	}
	m.released = true
}

var _ Lookup = (*Manager)(nil)
