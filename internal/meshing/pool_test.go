package meshing

import (
	"context"
	"testing"
	"time"

	"voxelkit/internal/gpu"
	"voxelkit/internal/world"
)

func TestWorkerPoolBuildsSnapshots(t *testing.T) {
	w := world.New()
	for i := 0; i < 3; i++ {
		w.SetBlock(i*world.ChunkSize, 0, 0, block(stone))
	}

	pool := NewWorkerPool(context.Background(), newTestMesher(), 2, 8)
	defer pool.Shutdown()

	for _, c := range w.Chunks() {
		if !pool.SubmitJob(MeshJob{Chunk: c.Snapshot(), Neighbors: w}) {
			t.Fatalf("queue should have room")
		}
	}

	got := map[world.ChunkCoord]int{}
	timeout := time.After(5 * time.Second)
	for len(got) < 3 {
		select {
		case res := <-pool.Results():
			if res.Error != nil {
				t.Fatalf("chunk %s: %v", res.Coord, res.Error)
			}
			if res.Source == nil || res.Source.Coord != res.Coord {
				t.Errorf("chunk %s: result should name the chunk it was built from", res.Coord)
			}
			got[res.Coord] = res.Geometry.Faces()
		case <-timeout:
			t.Fatalf("timed out with %d of 3 results", len(got))
		}
	}
	for coord, faces := range got {
		if faces != 6 {
			t.Errorf("chunk %s: expected 6 faces, got %d", coord, faces)
		}
	}
}

func TestWorkerPoolShutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), newTestMesher(), 1, 0)
	pool.Shutdown()
	pool.Shutdown()

	job := MeshJob{Chunk: world.NewChunk(world.ChunkCoord{}, nil)}
	if pool.SubmitJob(job) {
		t.Errorf("stopped pool should refuse jobs")
	}
	if err := pool.SubmitJobBlocking(context.Background(), job); err == nil {
		t.Errorf("blocking submit on a stopped pool should fail")
	}
}

func TestSubmitJobBlockingHonoursContext(t *testing.T) {
	pool := NewWorkerPool(context.Background(), newTestMesher(), 1, 0)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// an unbuffered queue may still hand the job to an idle worker
	if err := pool.SubmitJobBlocking(ctx, MeshJob{Chunk: world.NewChunk(world.ChunkCoord{}, nil)}); err != nil && err != context.Canceled {
		t.Errorf("expected nil or context.Canceled, got %v", err)
	}
}

func TestSchedulerSynchronous(t *testing.T) {
	dev := gpu.NewRecorder()
	w := world.New()
	w.SetBlock(0, 0, 0, block(stone))
	w.SetBlock(world.ChunkSize*2, 0, 0, block(glass))
	s := NewScheduler(w, newTestMesher(), nil)

	if n := s.Update(dev); n != 2 {
		t.Fatalf("expected 2 installs, got %d", n)
	}
	if n := s.Update(dev); n != 0 {
		t.Errorf("clean world should install nothing, got %d", n)
	}

	opaque, transparent := newBatches()
	if n := s.Submit(opaque, transparent); n != 2 {
		t.Errorf("expected 2 chunks queued, got %d", n)
	}
	if opaque.Len() != 1 || transparent.Len() != 1 {
		t.Errorf("expected one opaque and one transparent request, got %d and %d", opaque.Len(), transparent.Len())
	}

	w.Remove(world.ChunkCoord{X: 2})
	s.Update(dev)
	if _, ok := s.Renderer(world.ChunkCoord{X: 2}); ok {
		t.Errorf("renderer of a removed chunk should be dropped")
	}
	if _, buffers, vaos := dev.Live(); buffers != 5 || vaos != 1 {
		t.Errorf("expected only the stone chunk meshes alive, got %d buffers %d vertex arrays", buffers, vaos)
	}

	s.Release()
	if _, buffers, vaos := dev.Live(); buffers+vaos != 0 {
		t.Errorf("Release leaked %d buffers %d vertex arrays", buffers, vaos)
	}
}

func TestSchedulerWithPool(t *testing.T) {
	dev := gpu.NewRecorder()
	w := world.New()
	for i := 0; i < 4; i++ {
		w.SetBlock(i*world.ChunkSize, 0, 0, block(stone))
	}
	pool := NewWorkerPool(context.Background(), newTestMesher(), 2, 16)
	defer pool.Shutdown()
	s := NewScheduler(w, newTestMesher(), pool)

	installed := 0
	deadline := time.Now().Add(5 * time.Second)
	for installed < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out with %d of 4 chunks installed", installed)
		}
		installed += s.Update(dev)
		time.Sleep(time.Millisecond)
	}
	if s.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", s.Pending())
	}
	if dirty := w.DirtyChunks(); len(dirty) != 0 {
		t.Errorf("expected every chunk clean, %d dirty", len(dirty))
	}
}

// newIdlePool returns a pool whose worker only starts when start is called,
// so jobs stay queued until then.
func newIdlePool(t *testing.T, queueSize int) (pool *WorkerPool, start func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	pool = &WorkerPool{
		mesher:   newTestMesher(),
		jobQueue: make(chan MeshJob, queueSize),
		results:  make(chan MeshResult, queueSize+1),
		workers:  1,
		ctx:      ctx,
		cancel:   cancel,
	}
	t.Cleanup(pool.Shutdown)
	return pool, func() {
		pool.wg.Add(1)
		go pool.worker()
	}
}

func TestSchedulerIgnoresResultOfReplacedChunk(t *testing.T) {
	dev := gpu.NewRecorder()
	w := world.New()
	w.SetBlock(1, 1, 1, block(stone))
	coord := world.ChunkCoord{}

	pool, start := newIdlePool(t, 4)
	s := NewScheduler(w, newTestMesher(), pool)
	s.Update(dev)
	if s.Pending() != 1 || s.Queued() != 1 {
		t.Fatalf("expected one queued job, got pending=%d queued=%d", s.Pending(), s.Queued())
	}

	// same coordinate and same version as the queued snapshot
	old := w.Remove(coord)
	w.SetBlock(1, 1, 1, block(glass))
	replaced := w.Chunk(coord, false)
	if replaced == old || replaced.Version() != old.Version() {
		t.Fatalf("expected a new chunk at version %d, got %d", old.Version(), replaced.Version())
	}
	s.Update(dev)
	start()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the new chunk to build")
		}
		s.Update(dev)
		if r, ok := s.Renderer(coord); ok && r.Meshes() != nil && s.Pending() == 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	r, _ := s.Renderer(coord)
	if r.Chunk() != replaced {
		t.Fatalf("renderer should track the new chunk")
	}
	if r.Meshes().Opaque != nil || r.Meshes().Transparent == nil {
		t.Errorf("new chunk holds only glass, got opaque=%v transparent=%v",
			r.Meshes().Opaque != nil, r.Meshes().Transparent != nil)
	}
	if replaced.Dirty() {
		t.Errorf("new chunk should be clean once its own mesh is installed")
	}
}
