package physics

import (
	"testing"

	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func BenchmarkRaycast(b *testing.B) {
	w := world.New()
	grass := world.NewBlockType("grass", world.Settings{Collider: true})
	// a wall 5 blocks ahead
	w.Fill(0, 0, 5, 15, 15, 5, world.NewInstance(grass, world.DirNorth))
	start := mgl32.Vec3{0.5, 8.5, 0.5}
	dir := mgl32.Vec3{0, 0, 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Raycast(start, dir, 0.1, 10.0, w)
	}
}
