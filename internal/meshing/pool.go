package meshing

import (
	"context"
	"sync"

	"voxelkit/internal/world"
)

// MeshJob asks for the geometry of one chunk. Chunk should be a snapshot so
// workers never race with writers; Source is the live chunk it was taken
// from and defaults to Chunk.
type MeshJob struct {
	Chunk     *world.Chunk
	Source    *world.Chunk
	Neighbors world.BlockAccessor
}

// MeshResult carries the geometry of a finished job. GPU upload is left to
// the thread that owns the graphics context.
type MeshResult struct {
	Coord    world.ChunkCoord
	Source   *world.Chunk
	Version  uint64
	Geometry *Geometry
	Error    error
}

// WorkerPool runs GenerateGeometry on a fixed set of goroutines.
type WorkerPool struct {
	mesher   *Mesher
	jobQueue chan MeshJob
	results  chan MeshResult
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorkerPool starts workers goroutines. The pool stops when parent is
// cancelled or Shutdown is called.
func NewWorkerPool(parent context.Context, mesher *Mesher, workers int, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)

	pool := &WorkerPool{
		mesher:   mesher,
		jobQueue: make(chan MeshJob, queueSize),
		results:  make(chan MeshResult, queueSize+workers),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// SubmitJob queues a job. Returns false if the queue is full or the pool
// has stopped.
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking waits for queue space, ctx cancellation or pool shutdown.
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results delivers finished jobs in completion order.
func (p *WorkerPool) Results() <-chan MeshResult {
	return p.results
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			geo, err := p.mesher.GenerateGeometry(job.Chunk, job.Neighbors)
			source := job.Source
			if source == nil {
				source = job.Chunk
			}
			result := MeshResult{
				Coord:    job.Chunk.Coord,
				Source:   source,
				Version:  job.Chunk.Version(),
				Geometry: geo,
				Error:    err,
			}

			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them. Queued jobs are dropped.
func (p *WorkerPool) Shutdown() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// GetQueueLength returns the current number of jobs in the queue
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}
