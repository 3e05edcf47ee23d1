package world

// World is the loaded set of chunks addressed by world block coordinates.
// It implements BlockAccessor for meshing across chunk borders and
// NeighborNotifier for the chunks it creates.
type World struct {
	store *ChunkStore
}

func New() *World {
	w := &World{}
	w.store = NewChunkStore(w)
	return w
}

// Store exposes the underlying chunk store.
func (w *World) Store() *ChunkStore {
	return w.store
}

// Chunk returns the chunk at coord, creating an all-air chunk when create is set.
func (w *World) Chunk(coord ChunkCoord, create bool) *Chunk {
	return w.store.GetChunk(coord, create)
}

// ChunkAt returns the chunk containing the world block position.
func (w *World) ChunkAt(x, y, z int, create bool) *Chunk {
	return w.store.GetChunk(ChunkCoordOf(x, y, z), create)
}

// BlockAt returns the block at a world position. Unloaded positions report
// ok=false and air.
func (w *World) BlockAt(x, y, z int) (BlockInstance, bool) {
	chunk := w.ChunkAt(x, y, z, false)
	if chunk == nil {
		return AirBlock, false
	}
	return chunk.Block(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize)), true
}

// SetBlock writes a block at a world position, creating the chunk if needed.
func (w *World) SetBlock(x, y, z int, b BlockInstance) bool {
	chunk := w.ChunkAt(x, y, z, true)
	return chunk.SetBlock(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize), b)
}

// Fill writes b into every position of the inclusive box and returns how
// many cells changed.
func (w *World) Fill(minX, minY, minZ, maxX, maxY, maxZ int, b BlockInstance) int {
	changed := 0
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if w.SetBlock(x, y, z, b) {
					changed++
				}
			}
		}
	}
	return changed
}

// MarkNeighborDirty dirties the chunk next to c in direction (dx, dy, dz) if it is loaded.
func (w *World) MarkNeighborDirty(c ChunkCoord, dx, dy, dz int) {
	if nb := w.store.GetChunk(c.Add(dx, dy, dz), false); nb != nil {
		nb.MarkDirty()
	}
}

// Chunks returns every loaded chunk in coordinate order.
func (w *World) Chunks() []*Chunk {
	return w.store.Chunks()
}

// DirtyChunks returns the loaded chunks whose mesh is out of date.
func (w *World) DirtyChunks() []*Chunk {
	var out []*Chunk
	for _, c := range w.store.Chunks() {
		if c.Dirty() {
			out = append(out, c)
		}
	}
	return out
}

// Remove unloads the chunk at coord and dirties its neighbours, whose
// border faces are now exposed.
func (w *World) Remove(coord ChunkCoord) *Chunk {
	chunk := w.store.Remove(coord)
	if chunk == nil {
		return nil
	}
	for _, f := range Faces {
		dx, dy, dz := f.Offset()
		w.MarkNeighborDirty(coord, dx, dy, dz)
	}
	return chunk
}
