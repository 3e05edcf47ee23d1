package demo

import (
	"fmt"

	"voxelkit/internal/registry"
	"voxelkit/internal/world"
)

// Extent is the half width of the demo floor in blocks. The scene spans
// the chunks between -Extent and Extent-1 on X and Z.
const Extent = 16

// Blocks lists the registry names the scene is built from.
var Blocks = []string{"stone", "grass", "dirt", "glass", "water", "wood", "stone_stairs"}

// Build places the demo scene into w and returns the number of cells
// written. Every name in Blocks must be registered.
func Build(w *world.World, reg *registry.Registry) (int, error) {
	types := make(map[string]*world.BlockType, len(Blocks))
	for _, name := range Blocks {
		t, ok := reg.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("demo: block %q not registered", name)
		}
		types[name] = t
	}
	at := func(name string, dir world.Direction) world.BlockInstance {
		return world.NewInstance(types[name], dir)
	}

	n := 0
	n += w.Fill(-Extent, 0, -Extent, Extent-1, 0, Extent-1, at("stone", world.DirNorth))
	n += w.Fill(-Extent, 1, -Extent, Extent-1, 2, Extent-1, at("dirt", world.DirNorth))
	n += w.Fill(-Extent, 3, -Extent, Extent-1, 3, Extent-1, at("grass", world.DirNorth))

	// Pool, sunk into the grass so only its surface and the far walls show.
	n += w.Fill(-10, 2, 4, -3, 3, 11, at("water", world.DirNorth))

	// Glass wall straddling the chunk border at x=0.
	n += w.Fill(-4, 4, -6, 5, 7, -6, at("glass", world.DirNorth))

	// Log posts at the corners of the wall and beams lying along each axis.
	for _, x := range []int{-5, 6} {
		n += w.Fill(x, 4, -6, x, 8, -6, at("wood", world.DirUp))
	}
	n += w.Fill(-5, 9, -6, 6, 9, -6, at("wood", world.DirEast))
	n += w.Fill(8, 4, -10, 8, 4, -2, at("wood", world.DirNorth))

	// Stone pillar ringed by stairs that climb towards it.
	n += w.Fill(12, 4, 12, 13, 20, 13, at("stone", world.DirNorth))
	for i := 11; i <= 14; i++ {
		if w.SetBlock(i, 4, 10, at("stone_stairs", world.DirSouth)) {
			n++
		}
		if w.SetBlock(i, 4, 15, at("stone_stairs", world.DirNorth)) {
			n++
		}
		if w.SetBlock(10, 4, i, at("stone_stairs", world.DirEast)) {
			n++
		}
		if w.SetBlock(15, 4, i, at("stone_stairs", world.DirWest)) {
			n++
		}
	}
	return n, nil
}
