package render

import (
	"log"

	"voxelkit/internal/atlas"
	"voxelkit/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Request asks for one instance of Mesh drawn with Region at Transform.
type Request struct {
	Mesh      *Mesh
	Region    *atlas.TextureInfo
	Transform mgl32.Mat4
}

type regionGroup struct {
	region     atlas.TextureInfo
	transforms []mgl32.Mat4
}

type meshGroup struct {
	mesh     *Mesh
	regions  []*regionGroup
	byRegion map[atlas.TextureInfo]*regionGroup
}

type atlasGroup struct {
	texture gpu.Texture
	meshes  []*meshGroup
	byMesh  map[*Mesh]*meshGroup
}

// Batch collects requests for a frame, grouped by atlas texture, then mesh,
// then region. Groups keep the order in which they were first seen.
type Batch struct {
	// Blend draws the batch with alpha blending and no depth writes.
	Blend bool

	atlases []*atlasGroup
	byAtlas map[gpu.Texture]*atlasGroup
	count   int
	groups  int
	dropped int
}

func NewBatch() *Batch {
	return &Batch{byAtlas: make(map[gpu.Texture]*atlasGroup)}
}

// Add queues r. Requests without a usable mesh or a region are dropped and
// counted; Add reports whether r was kept.
func (b *Batch) Add(r Request) bool {
	if cause := invalid(r); cause != "" {
		b.dropped++
		if b.dropped == 1 {
			log.Printf("render: dropping request: %s", cause)
		}
		return false
	}

	ag, ok := b.byAtlas[r.Region.Texture]
	if !ok {
		ag = &atlasGroup{texture: r.Region.Texture, byMesh: make(map[*Mesh]*meshGroup)}
		b.byAtlas[r.Region.Texture] = ag
		b.atlases = append(b.atlases, ag)
	}
	mg, ok := ag.byMesh[r.Mesh]
	if !ok {
		mg = &meshGroup{mesh: r.Mesh, byRegion: make(map[atlas.TextureInfo]*regionGroup)}
		ag.byMesh[r.Mesh] = mg
		ag.meshes = append(ag.meshes, mg)
	}
	rg, ok := mg.byRegion[*r.Region]
	if !ok {
		rg = &regionGroup{region: *r.Region}
		mg.byRegion[*r.Region] = rg
		mg.regions = append(mg.regions, rg)
		b.groups++
	}
	rg.transforms = append(rg.transforms, r.Transform)
	b.count++
	return true
}

func invalid(r Request) string {
	switch {
	case r.Mesh == nil:
		return "no mesh"
	case r.Mesh.Released():
		return "mesh released"
	case r.Region == nil:
		return "no region"
	}
	return ""
}

// Len is the number of queued instances.
func (b *Batch) Len() int {
	return b.count
}

// Groups is the number of distinct mesh and region pairs, one draw call each.
func (b *Batch) Groups() int {
	return b.groups
}

func (b *Batch) Dropped() int {
	return b.dropped
}

// Reset empties the batch for the next frame.
func (b *Batch) Reset() {
	b.atlases = b.atlases[:0]
	clear(b.byAtlas)
	b.count = 0
	b.groups = 0
	b.dropped = 0
}
