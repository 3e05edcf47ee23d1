package meshing

import (
	"log"

	"voxelkit/internal/gpu"
	"voxelkit/internal/render"
	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkRenderer owns the current GPU meshes of one chunk and swaps them
// when the chunk is rebuilt.
type ChunkRenderer struct {
	chunk     *world.Chunk
	transform mgl32.Mat4
	meshes    *ChunkMeshes

	failed        bool
	failedVersion uint64
}

func NewChunkRenderer(c *world.Chunk) *ChunkRenderer {
	ox, oy, oz := c.Coord.Origin()
	return &ChunkRenderer{
		chunk:     c,
		transform: mgl32.Translate3D(float32(ox), float32(oy), float32(oz)),
	}
}

func (r *ChunkRenderer) Chunk() *world.Chunk {
	return r.chunk
}

// Meshes returns the installed meshes, nil before the first build.
func (r *ChunkRenderer) Meshes() *ChunkMeshes {
	return r.meshes
}

// NeedsRebuild is true while the chunk is dirty, unless the last attempt
// failed on these exact contents.
func (r *ChunkRenderer) NeedsRebuild() bool {
	if !r.chunk.Dirty() {
		return false
	}
	return !r.failed || r.chunk.Version() != r.failedVersion
}

// Rebuild meshes the chunk on the calling goroutine and installs the
// result. On failure the previous meshes stay in place and the chunk stays
// dirty.
func (r *ChunkRenderer) Rebuild(dev gpu.Device, m *Mesher, neighbors world.BlockAccessor) error {
	version := r.chunk.Version()
	geo, err := m.GenerateGeometry(r.chunk, neighbors)
	if err != nil {
		r.Fail(version, err)
		return err
	}
	return r.Install(dev, m, geo)
}

// Install uploads geo and replaces the current meshes. The old meshes are
// released only once the new ones exist.
func (r *ChunkRenderer) Install(dev gpu.Device, m *Mesher, geo *Geometry) error {
	meshes, err := m.Upload(dev, geo)
	if err != nil {
		r.Fail(geo.Version, err)
		return err
	}
	r.meshes.Release()
	r.meshes = meshes
	r.failed = false
	r.chunk.MarkCleanAt(geo.Version)
	return nil
}

// Fail records a failed build of version so it is not retried until the
// chunk changes again.
func (r *ChunkRenderer) Fail(version uint64, err error) {
	log.Printf("meshing: chunk %s failed to build: %v", r.chunk.Coord, err)
	r.failed = true
	r.failedVersion = version
}

// Submit queues the chunk meshes: opaque geometry into opaque, transparent
// geometry into transparent.
func (r *ChunkRenderer) Submit(opaque, transparent *render.Batch) {
	if r.meshes == nil {
		return
	}
	if r.meshes.Opaque != nil {
		opaque.Add(render.Request{Mesh: r.meshes.Opaque, Region: &r.meshes.Region, Transform: r.transform})
	}
	if r.meshes.Transparent != nil {
		transparent.Add(render.Request{Mesh: r.meshes.Transparent, Region: &r.meshes.Region, Transform: r.transform})
	}
}

func (r *ChunkRenderer) Release() {
	r.meshes.Release()
	r.meshes = nil
}
