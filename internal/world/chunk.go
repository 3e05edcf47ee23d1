package world

import (
	"fmt"
	"sync"
)

const (
	// Chunk dimensions
	ChunkSize   = 16
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// ChunkCoord addresses a chunk; its block origin is the coordinate times ChunkSize.
type ChunkCoord struct {
	X, Y, Z int
}

func (c ChunkCoord) Origin() (x, y, z int) {
	return c.X * ChunkSize, c.Y * ChunkSize, c.Z * ChunkSize
}

func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// ChunkCoordOf returns the chunk containing the world block position.
func ChunkCoordOf(x, y, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, ChunkSize), Y: floorDiv(y, ChunkSize), Z: floorDiv(z, ChunkSize)}
}

// NeighborNotifier is told when a border write may have changed what the
// adjacent chunk in direction (dx, dy, dz) should display.
type NeighborNotifier interface {
	MarkNeighborDirty(c ChunkCoord, dx, dy, dz int)
}

// BlockAccessor reads blocks by world position. ok is false when the
// position is not loaded.
type BlockAccessor interface {
	BlockAt(x, y, z int) (b BlockInstance, ok bool)
}

// Chunk is a 16x16x16 grid of block instances.
type Chunk struct {
	Coord ChunkCoord

	mu       sync.RWMutex
	blocks   []BlockInstance
	solid    int // non-air cells
	dirty    bool
	version  uint64 // bumped on every change that needs a remesh
	notifier NeighborNotifier
}

// NewChunk creates an all-air chunk. It starts dirty so its first mesh gets built.
func NewChunk(coord ChunkCoord, notifier NeighborNotifier) *Chunk {
	blocks := make([]BlockInstance, ChunkVolume)
	for i := range blocks {
		blocks[i] = AirBlock
	}
	return &Chunk{
		Coord:    coord,
		blocks:   blocks,
		dirty:    true,
		notifier: notifier,
	}
}

// Index converts local coordinates to the flat cell index.
func Index(x, y, z int) int {
	return x*ChunkSize*ChunkSize + y*ChunkSize + z
}

func inChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// Block returns the instance at local coordinates, air when out of range.
func (c *Chunk) Block(x, y, z int) BlockInstance {
	if !inChunk(x, y, z) {
		return AirBlock
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[Index(x, y, z)]
}

// SetBlock writes a cell and reports whether it changed. Writes on the
// chunk border notify the adjacent chunks.
func (c *Chunk) SetBlock(x, y, z int, b BlockInstance) bool {
	if !inChunk(x, y, z) {
		return false
	}
	if b.Type == nil {
		b = AirBlock
	}

	c.mu.Lock()
	idx := Index(x, y, z)
	old := c.blocks[idx]
	if old == b {
		c.mu.Unlock()
		return false
	}
	c.blocks[idx] = b
	switch {
	case old.IsAir() && !b.IsAir():
		c.solid++
	case !old.IsAir() && b.IsAir():
		c.solid--
	}
	c.dirty = true
	c.version++
	notifier := c.notifier
	c.mu.Unlock()

	if notifier != nil {
		c.notifyBorders(notifier, x, y, z)
	}
	return true
}

func (c *Chunk) notifyBorders(n NeighborNotifier, x, y, z int) {
	if x == 0 {
		n.MarkNeighborDirty(c.Coord, -1, 0, 0)
	} else if x == ChunkSize-1 {
		n.MarkNeighborDirty(c.Coord, 1, 0, 0)
	}
	if y == 0 {
		n.MarkNeighborDirty(c.Coord, 0, -1, 0)
	} else if y == ChunkSize-1 {
		n.MarkNeighborDirty(c.Coord, 0, 1, 0)
	}
	if z == 0 {
		n.MarkNeighborDirty(c.Coord, 0, 0, -1)
	} else if z == ChunkSize-1 {
		n.MarkNeighborDirty(c.Coord, 0, 0, 1)
	}
}

// Cells returns a copy of the grid indexed by Index.
func (c *Chunk) Cells() []BlockInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BlockInstance, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Snapshot returns a detached copy of the chunk for readers on other
// goroutines. The copy has no notifier.
func (c *Chunk) Snapshot() *Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blocks := make([]BlockInstance, len(c.blocks))
	copy(blocks, c.blocks)
	return &Chunk{
		Coord:   c.Coord,
		blocks:  blocks,
		solid:   c.solid,
		dirty:   c.dirty,
		version: c.version,
	}
}

// Empty reports whether every cell is air.
func (c *Chunk) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.solid == 0
}

func (c *Chunk) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.version++
	c.mu.Unlock()
}

// Version identifies the chunk contents a mesh was built from.
func (c *Chunk) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// MarkCleanAt clears the dirty flag only if nothing changed since version.
func (c *Chunk) MarkCleanAt(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		return false
	}
	c.dirty = false
	return true
}

func (c *Chunk) MarkClean() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
