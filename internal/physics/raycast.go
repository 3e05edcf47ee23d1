// Package physics answers spatial queries against the block grid.
package physics

import (
	"math"

	"voxelkit/internal/profiling"
	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 64.0
)

// RaycastResult is the first solid cell along a ray. A cell at integer
// position p spans p to p+1 on every axis.
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int // the cell the ray was in just before the hit
	Face             world.Face
	Distance         float32
	Hit              bool
}

// Raycast walks the cells the ray passes through, in order, and reports
// the first non-air loaded block between minDist and maxDist. Face is the
// side of the hit block the ray entered through.
func Raycast(start mgl32.Vec3, direction mgl32.Vec3, minDist, maxDist float32, blocks world.BlockAccessor) RaycastResult {
	defer profiling.Track("physics.Raycast")()

	if direction.Len() == 0 {
		return RaycastResult{}
	}
	dir := direction.Normalize()

	var cell, step [3]int
	var tMax, tDelta [3]float32
	for a := 0; a < 3; a++ {
		cell[a] = int(math.Floor(float64(start[a])))
		switch {
		case dir[a] > 0:
			step[a] = 1
			tMax[a] = (float32(cell[a]+1) - start[a]) / dir[a]
			tDelta[a] = 1 / dir[a]
		case dir[a] < 0:
			step[a] = -1
			tMax[a] = (start[a] - float32(cell[a])) / -dir[a]
			tDelta[a] = -1 / dir[a]
		default:
			tMax[a] = float32(math.Inf(1))
			tDelta[a] = float32(math.Inf(1))
		}
	}

	prev := cell
	face := world.FaceTop
	var dist float32
	for dist <= maxDist {
		if dist >= minDist {
			if b, ok := blocks.BlockAt(cell[0], cell[1], cell[2]); ok && !b.IsAir() {
				return RaycastResult{
					HitPosition:      cell,
					AdjacentPosition: prev,
					Face:             face,
					Distance:         dist,
					Hit:              true,
				}
			}
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		prev = cell
		dist = tMax[axis]
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]

		var back [3]int
		back[axis] = -step[axis]
		face, _ = world.FaceFromOffset(back[0], back[1], back[2])
	}
	return RaycastResult{}
}
