package world

import (
	"cmp"
	"slices"
	"sync"
)

// ChunkStore manages the storage and retrieval of chunks.
type ChunkStore struct {
	chunks   map[ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove

	notifier NeighborNotifier // handed to chunks it creates
}

// NewChunkStore creates a new chunk store. Chunks it creates report border
// writes to notifier.
func NewChunkStore(notifier NeighborNotifier) *ChunkStore {
	return &ChunkStore{
		chunks:   make(map[ChunkCoord]*Chunk),
		notifier: notifier,
	}
}

// GetChunk returns the chunk at coord. If it doesn't exist and create is
// true, an all-air chunk is created.
func (cs *ChunkStore) GetChunk(coord ChunkCoord, create bool) *Chunk {
	cs.mu.RLock()
	chunk, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// Double-check: another goroutine might have created it while we were waiting for the lock
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	chunk = NewChunk(coord, cs.notifier)
	cs.chunks[coord] = chunk
	cs.modCount++
	return chunk
}

// Remove deletes and returns the chunk at coord.
func (cs *ChunkStore) Remove(coord ChunkCoord) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	chunk, ok := cs.chunks[coord]
	if !ok {
		return nil
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return chunk
}

// Chunks returns all chunks ordered by coordinate (x, then y, then z).
func (cs *ChunkStore) Chunks() []*Chunk {
	cs.mu.RLock()
	out := make([]*Chunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		out = append(out, c)
	}
	cs.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Chunk) int { return compareCoords(a.Coord, b.Coord) })
	return out
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

func compareCoords(a, b ChunkCoord) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}
