package physics_test

import (
	"testing"

	"voxelkit/internal/physics"
	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

var stone = world.NewBlockType("stone", world.Settings{Collider: true})

func place(w *world.World, x, y, z int) {
	w.SetBlock(x, y, z, world.NewInstance(stone, world.DirNorth))
}

func TestRaycast(t *testing.T) {
	w := world.New()
	place(w, 5, 0, 0)

	start := mgl32.Vec3{0.5, 0.5, 0.5}
	dir := mgl32.Vec3{1, 0, 0}
	minDist := float32(0.1)
	maxDist := float32(10.0)

	result := physics.Raycast(start, dir, minDist, maxDist, w)
	if !result.Hit {
		t.Fatalf("Expected hit, got miss")
	}
	if result.HitPosition != [3]int{5, 0, 0} {
		t.Errorf("Expected hit at {5,0,0}, got %v", result.HitPosition)
	}
	if result.AdjacentPosition != [3]int{4, 0, 0} {
		t.Errorf("Expected adjacent at {4,0,0}, got %v", result.AdjacentPosition)
	}
	if result.Face != world.FaceLeft {
		t.Errorf("Expected the ray to enter through the left face, got %s", result.Face)
	}
	// starts at x=0.5 and enters the block at x=5
	if result.Distance < 4.49 || result.Distance > 4.51 {
		t.Errorf("Expected distance 4.5, got %f", result.Distance)
	}

	if r := physics.Raycast(start, dir, minDist, 4.0, w); r.Hit {
		t.Errorf("Expected miss due to maxDist, got hit at %v", r.HitPosition)
	}
	if r := physics.Raycast(start, mgl32.Vec3{0, 1, 0}, minDist, maxDist, w); r.Hit {
		t.Errorf("Expected miss, got hit")
	}
	if r := physics.Raycast(start, mgl32.Vec3{}, minDist, maxDist, w); r.Hit {
		t.Errorf("Zero direction should never hit")
	}

	place(w, 2, 2, 2)
	diag := physics.Raycast(start, mgl32.Vec3{1, 1, 1}, minDist, maxDist, w)
	if !diag.Hit || diag.HitPosition != [3]int{2, 2, 2} {
		t.Errorf("Expected hit at {2,2,2}, got %+v", diag)
	}
}

func TestRaycastNegativeAndBorders(t *testing.T) {
	w := world.New()
	place(w, -17, 3, -1)

	start := mgl32.Vec3{-10.5, 3.5, -0.5}
	r := physics.Raycast(start, mgl32.Vec3{-1, 0, 0}, 0, 20, w)
	if !r.Hit || r.HitPosition != [3]int{-17, 3, -1} {
		t.Fatalf("Expected hit across the chunk border at {-17,3,-1}, got %+v", r)
	}
	if r.Face != world.FaceRight {
		t.Errorf("Expected right face, got %s", r.Face)
	}
	if r.Distance < 5.49 || r.Distance > 5.51 {
		t.Errorf("Expected distance 5.5, got %f", r.Distance)
	}

	down := physics.Raycast(mgl32.Vec3{-16.5, 10, -0.5}, mgl32.Vec3{0, -1, 0}, 0, 20, w)
	if !down.Hit || down.Face != world.FaceTop || down.AdjacentPosition != [3]int{-17, 4, -1} {
		t.Errorf("Expected a top face hit from above, got %+v", down)
	}
}

func TestRaycastMinDistance(t *testing.T) {
	w := world.New()
	place(w, 0, 0, 0)
	start := mgl32.Vec3{0.5, 0.5, 0.5}
	if r := physics.Raycast(start, mgl32.Vec3{0, 0, 1}, 0, 5, w); !r.Hit || r.Distance != 0 {
		t.Errorf("A ray starting inside a block should hit it at distance 0, got %+v", r)
	}
	if r := physics.Raycast(start, mgl32.Vec3{0, 0, 1}, 0.1, 5, w); r.Hit {
		t.Errorf("Cells closer than minDist should be skipped, got %+v", r)
	}
}
