// Package meshing turns chunk grids into indexed triangle meshes whose UVs
// point into a baked texture atlas.
package meshing

import (
	"errors"
	"fmt"
	"log"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/gpu"
	"voxelkit/internal/profiling"
	"voxelkit/internal/render"
	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrMissingFallback = errors.New("fallback texture not in atlas")
	ErrMixedAtlases    = errors.New("chunk textures span more than one atlas")
)

type Options struct {
	// MissingTexture is used for faces whose texture is unset or not baked.
	MissingTexture string
}

func DefaultOptions() Options {
	return Options{MissingTexture: config.GetMissingTexture()}
}

// Mesher builds chunk geometry. It only reads from its lookup and is safe
// for concurrent use.
type Mesher struct {
	lookup atlas.Lookup
	opts   Options
}

func NewMesher(lookup atlas.Lookup, opts Options) *Mesher {
	if opts.MissingTexture == "" {
		opts.MissingTexture = config.DefaultMissingTexture
	}
	return &Mesher{lookup: lookup, opts: opts}
}

// Geometry is the CPU side of a chunk mesh. Opaque and transparent blocks
// go to separate buffers; all faces share one atlas texture.
type Geometry struct {
	Coord       world.ChunkCoord
	Version     uint64 // chunk version the geometry was built from
	Opaque      GeometryBuffer
	Transparent GeometryBuffer
	Atlas       gpu.Texture
	Fallbacks   int // faces drawn with the missing texture
}

func (g *Geometry) Faces() int {
	return g.Opaque.Faces() + g.Transparent.Faces()
}

func (g *Geometry) Empty() bool {
	return g.Faces() == 0
}

type textureKey struct {
	t *world.BlockType
	f world.Face
}

type resolvedTexture struct {
	info     atlas.TextureInfo
	fallback bool
}

type buildState struct {
	textures  map[textureKey]resolvedTexture
	atlas     gpu.Texture
	haveAtlas bool
	fallbacks int
}

// GenerateGeometry emits one quad set per visible block face. Faces on the
// chunk border consult neighbors, which may be nil; unloaded positions count
// as air. The chunk is not modified.
func (m *Mesher) GenerateGeometry(chunk *world.Chunk, neighbors world.BlockAccessor) (*Geometry, error) {
	defer profiling.Track("meshing.GenerateGeometry")()

	version := chunk.Version()
	geo := &Geometry{Coord: chunk.Coord, Version: version}
	if chunk.Empty() {
		return geo, nil
	}
	cells := chunk.Cells()
	ox, oy, oz := chunk.Coord.Origin()
	st := buildState{textures: make(map[textureKey]resolvedTexture)}

	for x := 0; x < world.ChunkSize; x++ {
		for y := 0; y < world.ChunkSize; y++ {
			for z := 0; z < world.ChunkSize; z++ {
				b := cells[world.Index(x, y, z)]
				if b.IsAir() {
					continue
				}
				buf := &geo.Opaque
				if b.Type.Transparent() {
					buf = &geo.Transparent
				}
				offset := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}

				for _, f := range world.Faces {
					dx, dy, dz := f.Offset()
					nb := neighborAt(cells, x+dx, y+dy, z+dz, ox, oy, oz, neighbors)
					if !faceVisible(b, nb) {
						continue
					}
					parts := partsFor(b, f)
					for i := range parts {
						tex, err := m.texture(b.Type, parts[i].face, &st)
						if err != nil {
							return nil, fmt.Errorf("chunk %s: %s at (%d,%d,%d): %w",
								chunk.Coord, b.Type, ox+x, oy+y, oz+z, err)
						}
						buf.addQuad(&parts[i].quad, offset, tex)
					}
				}
			}
		}
	}

	geo.Atlas = st.atlas
	geo.Fallbacks = st.fallbacks
	if st.fallbacks > 0 {
		log.Printf("meshing: chunk %s drew %d faces with %s", chunk.Coord, st.fallbacks, m.opts.MissingTexture)
	}
	return geo, nil
}

// faceVisible: an opaque block shows faces towards anything that is not
// opaque, a transparent block only towards air.
func faceVisible(cur, nb world.BlockInstance) bool {
	if cur.Opaque() {
		return !nb.Opaque()
	}
	return nb.IsAir()
}

func neighborAt(cells []world.BlockInstance, x, y, z, ox, oy, oz int, acc world.BlockAccessor) world.BlockInstance {
	if x >= 0 && x < world.ChunkSize && y >= 0 && y < world.ChunkSize && z >= 0 && z < world.ChunkSize {
		return cells[world.Index(x, y, z)]
	}
	if acc == nil {
		return world.AirBlock
	}
	b, ok := acc.BlockAt(ox+x, oy+y, oz+z)
	if !ok || b.Type == nil {
		return world.AirBlock
	}
	return b
}

func (m *Mesher) texture(t *world.BlockType, f world.Face, st *buildState) (atlas.TextureInfo, error) {
	key := textureKey{t, f}
	res, ok := st.textures[key]
	if !ok {
		var err error
		if res, err = m.resolve(t, f); err != nil {
			return atlas.TextureInfo{}, err
		}
		if st.haveAtlas && res.info.Texture != st.atlas {
			return atlas.TextureInfo{}, fmt.Errorf("%w: %s face %s is on texture %d, expected %d",
				ErrMixedAtlases, t, f, res.info.Texture, st.atlas)
		}
		st.atlas, st.haveAtlas = res.info.Texture, true
		st.textures[key] = res
	}
	if res.fallback {
		st.fallbacks++
	}
	return res.info, nil
}

func (m *Mesher) resolve(t *world.BlockType, f world.Face) (resolvedTexture, error) {
	if p, ok := t.Texture(f); ok {
		if info, ok := m.lookup.TextureInfo(p); ok {
			return resolvedTexture{info: info}, nil
		}
	}
	info, ok := m.lookup.TextureInfo(m.opts.MissingTexture)
	if !ok {
		return resolvedTexture{}, fmt.Errorf("%w: %s", ErrMissingFallback, m.opts.MissingTexture)
	}
	return resolvedTexture{info: info, fallback: true}, nil
}

// ChunkMeshes are the uploaded meshes of one chunk. Either mesh is nil when
// its geometry was empty.
type ChunkMeshes struct {
	Opaque      *render.Mesh
	Transparent *render.Mesh
	Region      atlas.TextureInfo
	Version     uint64
}

func (cm *ChunkMeshes) Empty() bool {
	return cm.Opaque == nil && cm.Transparent == nil
}

func (cm *ChunkMeshes) Release() {
	if cm == nil {
		return
	}
	cm.Opaque.Release()
	cm.Transparent.Release()
}

// Upload creates GPU meshes for geo. Nothing is left allocated on failure.
func (m *Mesher) Upload(dev gpu.Device, geo *Geometry) (*ChunkMeshes, error) {
	defer profiling.Track("meshing.Upload")()

	cm := &ChunkMeshes{Region: atlas.FullRegion(geo.Atlas), Version: geo.Version}
	var err error
	if geo.Opaque.Faces() > 0 {
		if cm.Opaque, err = render.NewMesh(dev, geo.Opaque.MeshData(), 1); err != nil {
			return nil, fmt.Errorf("chunk %s opaque mesh: %w", geo.Coord, err)
		}
	}
	if geo.Transparent.Faces() > 0 {
		if cm.Transparent, err = render.NewMesh(dev, geo.Transparent.MeshData(), 1); err != nil {
			cm.Release()
			return nil, fmt.Errorf("chunk %s transparent mesh: %w", geo.Coord, err)
		}
	}
	return cm, nil
}

// GenerateMeshes builds and uploads the meshes of chunk.
func (m *Mesher) GenerateMeshes(dev gpu.Device, chunk *world.Chunk, neighbors world.BlockAccessor) (*ChunkMeshes, error) {
	geo, err := m.GenerateGeometry(chunk, neighbors)
	if err != nil {
		return nil, err
	}
	return m.Upload(dev, geo)
}
