package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/demo"
	"voxelkit/internal/gpu"
	"voxelkit/internal/graphics"
	"voxelkit/internal/meshing"
	"voxelkit/internal/physics"
	"voxelkit/internal/profiling"
	"voxelkit/internal/registry"
	"voxelkit/internal/render"
	"voxelkit/internal/world"
)

// TogglePos is the cell ToggleBlock cycles. It sits on the x=0 chunk
// border so both neighbouring chunks are remeshed.
var TogglePos = [3]int{0, 4, 6}

var toggleCycle = []string{"stone", "glass", "water", "wood", "air"}

// ViewerOptions configure NewViewer.
type ViewerOptions struct {
	// Source supplies texture images. Nil generates the demo textures.
	Source atlas.Source
	// Extra texture paths baked alongside the registry's.
	Extra []string
	// Workers builds geometry on a pool of this size; 0 builds inline.
	Workers int
}

// FrameStats describe one Viewer frame.
type FrameStats struct {
	render.Stats
	Installed int // meshes installed this frame
	Visible   int // chunks with meshes submitted
	Pending   int // chunks submitted to the pool and not installed yet
	Queued    int // of those, jobs no worker has picked up
}

func (s FrameStats) String() string {
	return fmt.Sprintf("%s installed=%d visible=%d pending=%d queued=%d", s.Stats, s.Installed, s.Visible, s.Pending, s.Queued)
}

// Viewer owns the demo scene and turns it into draw calls each frame. All
// methods must be called from the thread that owns dev.
type Viewer struct {
	dev      gpu.Device
	world    *world.World
	registry *registry.Registry
	atlases  *atlas.Manager
	mesher   *meshing.Mesher
	pool     *meshing.WorkerPool
	sched    *meshing.Scheduler
	renderer *render.Renderer

	opaque      *render.Batch
	transparent *render.Batch

	Camera *graphics.Camera

	toggle int
	closed bool
}

// NewViewer bakes the atlases, builds the demo world and prepares the
// mesh scheduler. The returned Viewer must be closed.
func NewViewer(ctx context.Context, dev gpu.Device, program gpu.Program, cam *graphics.Camera, opts ViewerOptions) (*Viewer, error) {
	reg, err := registry.Defaults()
	if err != nil {
		return nil, fmt.Errorf("could not load block definitions: %w", err)
	}

	w := world.New()
	placed, err := demo.Build(w, reg)
	if err != nil {
		return nil, err
	}

	paths := append(reg.TexturePaths(config.GetMissingTexture()), opts.Extra...)
	src := opts.Source
	if src == nil {
		src = demo.Textures(paths)
	}
	mgr := atlas.NewManager(dev, src, atlas.DefaultOptions())
	report, err := mgr.Bake(paths)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		log.Printf("game: some textures were not baked: %v", err)
	}

	mesher := meshing.NewMesher(mgr, meshing.DefaultOptions())
	var pool *meshing.WorkerPool
	if opts.Workers > 0 {
		pool = meshing.NewWorkerPool(ctx, mesher, opts.Workers, 4*opts.Workers)
	}

	opaque := render.NewBatch()
	transparent := render.NewBatch()
	transparent.Blend = true

	log.Printf("game: demo world has %d blocks in %d chunks", placed, w.Store().Len())
	return &Viewer{
		dev:         dev,
		world:       w,
		registry:    reg,
		atlases:     mgr,
		mesher:      mesher,
		pool:        pool,
		sched:       meshing.NewScheduler(w, mesher, pool),
		renderer:    render.NewRenderer(dev, program),
		opaque:      opaque,
		transparent: transparent,
		Camera:      cam,
	}, nil
}

func (v *Viewer) World() *world.World {
	return v.world
}

func (v *Viewer) Atlases() *atlas.Manager {
	return v.atlases
}

func (v *Viewer) Scheduler() *meshing.Scheduler {
	return v.sched
}

// Frame installs finished meshes and draws the opaque pass, then the
// blended pass.
func (v *Viewer) Frame() FrameStats {
	defer profiling.Track("game.Frame")()

	var fs FrameStats
	fs.Installed = v.sched.Update(v.dev)

	v.opaque.Reset()
	v.transparent.Reset()
	fs.Visible = v.sched.Submit(v.opaque, v.transparent)

	fs.Stats = v.renderer.Render(v.Camera, v.opaque)
	fs.Stats.Add(v.renderer.Render(v.Camera, v.transparent))
	fs.Pending = v.sched.Pending()
	fs.Queued = v.sched.Queued()
	return fs
}

// ToggleBlock replaces the block at TogglePos with the next one in the
// cycle and returns its name.
func (v *Viewer) ToggleBlock() (string, error) {
	v.toggle = (v.toggle + 1) % len(toggleCycle)
	name := toggleCycle[v.toggle]
	t, ok := v.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("block %q not registered", name)
	}
	v.world.SetBlock(TogglePos[0], TogglePos[1], TogglePos[2], world.NewInstance(t, t.Directions().First()))
	return name, nil
}

// Pick casts a ray from the eye through the orbit target.
func (v *Viewer) Pick() physics.RaycastResult {
	eye := v.Camera.Position()
	return physics.Raycast(eye, v.Camera.Target.Sub(eye), physics.MinReachDistance, physics.MaxReachDistance, v.world)
}

// Break clears the picked block and returns its position.
func (v *Viewer) Break() ([3]int, bool) {
	hit := v.Pick()
	if !hit.Hit {
		return [3]int{}, false
	}
	p := hit.HitPosition
	return p, v.world.SetBlock(p[0], p[1], p[2], world.AirBlock)
}

// Place puts a block of the named type against the picked face.
func (v *Viewer) Place(name string) ([3]int, error) {
	t, ok := v.registry.Lookup(name)
	if !ok {
		return [3]int{}, fmt.Errorf("block %q not registered", name)
	}
	hit := v.Pick()
	if !hit.Hit {
		return [3]int{}, errors.New("nothing to place against")
	}
	p := hit.AdjacentPosition
	v.world.SetBlock(p[0], p[1], p[2], world.NewInstance(t, t.Directions().First()))
	return p, nil
}

// Close stops the pool and releases meshes and atlases. Closing twice is
// an error.
func (v *Viewer) Close() error {
	if v.closed {
		return errors.New("viewer already closed")
	}
	v.closed = true
	if v.pool != nil {
		v.pool.Shutdown()
	}
	v.sched.Release()
	v.atlases.Cleanup()
	return nil
}
