package game

import (
	"context"
	"log"
	"math"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/gpu"
	"voxelkit/internal/gpu/glgpu"
	"voxelkit/internal/graphics"
	standardInput "voxelkit/internal/input"
	"voxelkit/internal/profiling"
	"voxelkit/internal/render"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	orbitSpeed      = 60.0 // degrees per second
	dragSensitivity = 0.25 // degrees per pixel
	zoomPerSecond   = 2.0
	zoomPerNotch    = 0.9

	placeBlock = "glass"
)

// Session binds a Viewer to a window and its input.
type Session struct {
	Window *glfw.Window
	Viewer *Viewer

	dev     *glgpu.Device
	program gpu.Program

	ShowStats bool
	Frames    int
	total     render.Stats
}

// SessionOptions select where textures come from.
type SessionOptions struct {
	Source atlas.Source
	Extra  []string
}

func NewSession(ctx context.Context, window *glfw.Window, opts SessionOptions) (*Session, error) {
	dev := glgpu.New()
	program, err := glgpu.CompileProgram(render.VertexShader, render.FragmentShader)
	if err != nil {
		return nil, err
	}

	width, height := window.GetFramebufferSize()
	cam := graphics.NewCamera(width, height)

	v, err := NewViewer(ctx, dev, program, cam, ViewerOptions{
		Source:  opts.Source,
		Extra:   opts.Extra,
		Workers: config.GetMeshWorkers(),
	})
	if err != nil {
		dev.DeleteProgram(program)
		return nil, err
	}

	s := &Session{
		Window:    window,
		Viewer:    v,
		dev:       dev,
		program:   program,
		ShowStats: true,
	}
	s.Resize(width, height)
	return s, nil
}

func (s *Session) Cleanup() {
	if err := s.Viewer.Close(); err != nil {
		log.Printf("game: %v", err)
	}
	s.dev.DeleteProgram(s.program)
}

// Resize updates the viewport and camera after a framebuffer change.
func (s *Session) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	s.Viewer.Camera.SetViewport(width, height)
}

// Update applies input for one frame and reports whether the user asked
// to quit.
func (s *Session) Update(dt float64, im *standardInput.InputManager) bool {
	cam := s.Viewer.Camera
	speed := float32(orbitSpeed * dt)
	if im.IsActive(standardInput.ActionFastOrbit) {
		speed *= 3
	}

	var yaw, pitch float32
	if im.IsActive(standardInput.ActionOrbitLeft) {
		yaw -= speed
	}
	if im.IsActive(standardInput.ActionOrbitRight) {
		yaw += speed
	}
	if im.IsActive(standardInput.ActionOrbitUp) {
		pitch += speed
	}
	if im.IsActive(standardInput.ActionOrbitDown) {
		pitch -= speed
	}
	dx, dy := im.Drag()
	yaw -= float32(dx) * dragSensitivity
	pitch += float32(dy) * dragSensitivity
	cam.Orbit(yaw, pitch)

	if im.IsActive(standardInput.ActionZoomIn) {
		cam.Zoom(1 / (1 + float32(zoomPerSecond*dt)))
	}
	if im.IsActive(standardInput.ActionZoomOut) {
		cam.Zoom(1 + float32(zoomPerSecond*dt))
	}
	if notches := im.Scroll(); notches != 0 {
		cam.Zoom(float32(math.Pow(zoomPerNotch, notches)))
	}

	if im.JustPressed(standardInput.ActionToggleStats) {
		s.ShowStats = !s.ShowStats
	}
	if im.JustPressed(standardInput.ActionToggleBlock) {
		name, err := s.Viewer.ToggleBlock()
		if err != nil {
			log.Printf("game: %v", err)
		} else {
			log.Printf("game: block at %v is now %s", TogglePos, name)
		}
	}

	if im.JustPressed(standardInput.ActionBreak) {
		if p, ok := s.Viewer.Break(); ok {
			log.Printf("game: removed block at %v", p)
		}
	}
	if im.JustPressed(standardInput.ActionPlace) {
		if p, err := s.Viewer.Place(placeBlock); err != nil {
			log.Printf("game: %v", err)
		} else {
			log.Printf("game: placed %s at %v", placeBlock, p)
		}
	}

	return im.JustPressed(standardInput.ActionQuit)
}

func (s *Session) Render() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	fs := s.Viewer.Frame()
	s.total.Add(fs.Stats)
	s.Frames++

	interval := config.GetStatsInterval()
	if s.ShowStats && interval > 0 && s.Frames%interval == 0 {
		log.Printf("game: frame %d: %s", s.Frames, fs)
		log.Printf("game: top tasks: %s", profiling.TopN(5))
	}
}

// Totals returns the render work summed over every frame so far.
func (s *Session) Totals() render.Stats {
	return s.total
}
