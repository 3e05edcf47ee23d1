package meshing

import (
	"voxelkit/internal/gpu"
	"voxelkit/internal/profiling"
	"voxelkit/internal/render"
	"voxelkit/internal/world"
)

// Scheduler keeps one ChunkRenderer per loaded chunk and rebuilds the
// dirty ones, on the pool when there is one.
type Scheduler struct {
	world  *world.World
	mesher *Mesher
	pool   *WorkerPool

	renderers map[world.ChunkCoord]*ChunkRenderer
	pending   map[world.ChunkCoord]bool
	modCount  uint64
}

// NewScheduler builds synchronously when pool is nil.
func NewScheduler(w *world.World, m *Mesher, pool *WorkerPool) *Scheduler {
	return &Scheduler{
		world:     w,
		mesher:    m,
		pool:      pool,
		renderers: make(map[world.ChunkCoord]*ChunkRenderer),
		pending:   make(map[world.ChunkCoord]bool),
	}
}

// Update installs finished pool results and schedules dirty chunks. It must
// run on the thread that owns dev. Returns the number of meshes installed.
func (s *Scheduler) Update(dev gpu.Device) int {
	defer profiling.Track("meshing.Update")()

	if mc := s.world.Store().GetModCount(); mc != s.modCount {
		s.modCount = mc
		s.sweep()
	}
	installed := 0
	if s.pool != nil {
		installed += s.drain(dev)
	}

	for _, c := range s.world.DirtyChunks() {
		r := s.renderer(c)
		if s.pending[c.Coord] || !r.NeedsRebuild() {
			continue
		}
		if s.pool == nil {
			if r.Rebuild(dev, s.mesher, s.world) == nil {
				installed++
			}
			continue
		}
		// a full queue is retried next frame
		if s.pool.SubmitJob(MeshJob{Chunk: c.Snapshot(), Source: c, Neighbors: s.world}) {
			s.pending[c.Coord] = true
		}
	}
	return installed
}

func (s *Scheduler) drain(dev gpu.Device) int {
	installed := 0
	for {
		select {
		case res := <-s.pool.Results():
			delete(s.pending, res.Coord)
			r, ok := s.renderers[res.Coord]
			// built from a chunk that has since been replaced at this coordinate
			if !ok || res.Source != r.Chunk() {
				continue
			}
			if res.Error != nil {
				r.Fail(res.Version, res.Error)
				continue
			}
			if r.Install(dev, s.mesher, res.Geometry) == nil {
				installed++
			}
		default:
			return installed
		}
	}
}

func (s *Scheduler) renderer(c *world.Chunk) *ChunkRenderer {
	r, ok := s.renderers[c.Coord]
	if !ok {
		r = NewChunkRenderer(c)
		s.renderers[c.Coord] = r
	}
	return r
}

// sweep drops renderers whose chunk is no longer in the world.
func (s *Scheduler) sweep() {
	for coord, r := range s.renderers {
		if s.world.Chunk(coord, false) != r.Chunk() {
			r.Release()
			delete(s.renderers, coord)
		}
	}
}

// Pending is the number of chunks submitted to the pool whose result has
// not been drained.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// Queued is the number of jobs still waiting for a worker.
func (s *Scheduler) Queued() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.GetQueueLength()
}

func (s *Scheduler) Renderer(coord world.ChunkCoord) (*ChunkRenderer, bool) {
	r, ok := s.renderers[coord]
	return r, ok
}

// Submit queues the meshes of every loaded chunk in coordinate order and
// returns how many chunks were queued.
func (s *Scheduler) Submit(opaque, transparent *render.Batch) int {
	defer profiling.Track("meshing.Submit")()

	queued := 0
	for _, c := range s.world.Chunks() {
		r, ok := s.renderers[c.Coord]
		if !ok || r.Meshes() == nil || r.Meshes().Empty() {
			continue
		}
		r.Submit(opaque, transparent)
		queued++
	}
	return queued
}

// Release frees every installed mesh.
func (s *Scheduler) Release() {
	for coord, r := range s.renderers {
		r.Release()
		delete(s.renderers, coord)
	}
}
