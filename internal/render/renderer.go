package render

import (
	"fmt"
	"log"

	"voxelkit/internal/gpu"
	"voxelkit/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera supplies the view and projection of a frame.
type Camera interface {
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
}

// Stats describe the work done by one or more Render calls.
type Stats struct {
	DrawCalls  int
	Instances  int
	AtlasBinds int
	MeshBinds  int
	Groups     int
	Dropped    int
}

func (s *Stats) Add(o Stats) {
	s.DrawCalls += o.DrawCalls
	s.Instances += o.Instances
	s.AtlasBinds += o.AtlasBinds
	s.MeshBinds += o.MeshBinds
	s.Groups += o.Groups
	s.Dropped += o.Dropped
}

func (s Stats) String() string {
	return fmt.Sprintf("draws=%d instances=%d atlasBinds=%d meshBinds=%d groups=%d dropped=%d",
		s.DrawCalls, s.Instances, s.AtlasBinds, s.MeshBinds, s.Groups, s.Dropped)
}

// Renderer issues the draw calls of a Batch with a program built from
// VertexShader and FragmentShader.
type Renderer struct {
	dev     gpu.Device
	program gpu.Program
}

func NewRenderer(dev gpu.Device, program gpu.Program) *Renderer {
	return &Renderer{dev: dev, program: program}
}

// Render draws every group of b: one atlas bind per atlas change, one
// vertex array bind per mesh change and one instanced draw per mesh and
// region pair.
func (r *Renderer) Render(cam Camera, b *Batch) Stats {
	defer profiling.Track("render.Render")()

	stats := Stats{Dropped: b.Dropped()}
	defer func() {
		if stats.Dropped > 0 {
			log.Printf("render: %d requests dropped this frame", stats.Dropped)
		}
	}()
	if b.Len() == 0 {
		return stats
	}

	r.dev.UseProgram(r.program)
	r.dev.SetUniformMat4(r.program, "view", cam.ViewMatrix())
	r.dev.SetUniformMat4(r.program, "projection", cam.ProjectionMatrix())
	r.dev.SetUniformInt(r.program, "atlas", 0)
	if b.Blend {
		r.dev.SetBlend(true)
		defer r.dev.SetBlend(false)
	}

	var (
		lastAtlas gpu.Texture
		lastMesh  *Mesh
	)
	for _, ag := range b.atlases {
		if ag.texture != lastAtlas {
			r.dev.BindTexture(0, ag.texture)
			lastAtlas = ag.texture
			stats.AtlasBinds++
		}
		for _, mg := range ag.meshes {
			if mg.mesh != lastMesh {
				r.dev.BindVertexArray(mg.mesh.VertexArray())
				lastMesh = mg.mesh
				stats.MeshBinds++
			}
			for _, rg := range mg.regions {
				stats.Groups++
				n, err := mg.mesh.WriteInstances(rg.transforms, rg.region)
				if err != nil {
					log.Printf("render: skipping group of %d instances: %v", len(rg.transforms), err)
					stats.Dropped += len(rg.transforms)
					continue
				}
				r.dev.DrawIndexedInstanced(mg.mesh.IndexCount(), n)
				stats.DrawCalls++
				stats.Instances += n
			}
		}
	}
	return stats
}
