package game

import (
	"log"

	standardInput "voxelkit/internal/input"
	"voxelkit/internal/profiling"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// App runs the window loop around a Session.
type App struct {
	window       *glfw.Window
	inputManager *standardInput.InputManager
	session      *Session
	clock        *FrameClock
}

func NewApp(window *glfw.Window, im *standardInput.InputManager, session *Session) *App {
	a := &App{
		window:       window,
		inputManager: im,
		session:      session,
		clock:        NewFrameClock(),
	}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		a.session.Resize(width, height)
		a.RefreshRender()
	})
	return a
}

func (a *App) Run() {
	for !a.window.ShouldClose() {
		a.tick()
	}
	log.Printf("game: %d frames, %s", a.session.Frames, a.session.Totals())
}

func (a *App) tick() {
	profiling.ResetFrame()
	dt := a.clock.Begin()

	glfw.PollEvents()

	if a.session.Update(dt, a.inputManager) {
		a.window.SetShouldClose(true)
	}
	a.session.Render()
	a.window.SwapBuffers()

	if d, slow := a.clock.Elapsed(); slow {
		log.Printf("game: slow frame %v, top tasks: %s", d, profiling.TopN(5))
	}

	a.inputManager.PostUpdate()
	a.clock.Wait()
}

// RefreshRender repaints during a live resize, when the loop is blocked.
func (a *App) RefreshRender() {
	a.session.Render()
	a.window.SwapBuffers()
}
