package meshing

import (
	"voxelkit/internal/atlas"
	"voxelkit/internal/render"

	"github.com/go-gl/mathgl/mgl32"
)

type vertex struct {
	pos  mgl32.Vec3
	u, v float32 // base UV, v grows downwards
}

// quad is four corners in counter-clockwise order seen from outside:
// bottom-left, bottom-right, top-right, top-left.
type quad struct {
	verts  [4]vertex
	normal mgl32.Vec3
}

var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// GeometryBuffer accumulates indexed quads for one chunk mesh. Positions
// are chunk-local, UVs are already mapped into the atlas.
type GeometryBuffer struct {
	Positions []float32
	UVs       []float32
	Normals   []float32
	Indices   []uint32
}

// Faces is the number of quads in the buffer.
func (g *GeometryBuffer) Faces() int {
	return len(g.Indices) / 6
}

func (g *GeometryBuffer) Vertices() int {
	return len(g.Positions) / 3
}

func (g *GeometryBuffer) addQuad(q *quad, offset mgl32.Vec3, tex atlas.TextureInfo) {
	base := uint32(g.Vertices())
	for _, vert := range q.verts {
		p := vert.pos.Add(offset)
		u, v := tex.Map(vert.u, vert.v)
		g.Positions = append(g.Positions, p[0], p[1], p[2])
		g.UVs = append(g.UVs, u, v)
		g.Normals = append(g.Normals, q.normal[0], q.normal[1], q.normal[2])
	}
	for _, i := range quadIndices {
		g.Indices = append(g.Indices, base+i)
	}
}

// MeshData shares the buffer's slices with the returned value.
func (g *GeometryBuffer) MeshData() render.MeshData {
	return render.MeshData{
		Positions: g.Positions,
		UVs:       g.UVs,
		Normals:   g.Normals,
		Indices:   g.Indices,
	}
}
