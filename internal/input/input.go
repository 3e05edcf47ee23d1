package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer command, independent of the physical key.
type Action int

const (
	ActionOrbitLeft Action = iota
	ActionOrbitRight
	ActionOrbitUp
	ActionOrbitDown
	ActionZoomIn
	ActionZoomOut
	ActionFastOrbit
	ActionToggleStats
	ActionToggleBlock
	ActionBreak
	ActionPlace
	ActionQuit
	ActionDrag
	ActionCount // sentinel for array sizing
)

var actionNames = [ActionCount]string{
	"orbit_left", "orbit_right", "orbit_up", "orbit_down", "zoom_in", "zoom_out",
	"fast_orbit", "toggle_stats", "toggle_block", "break", "place",
	"quit", "drag",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "action(?)"
	}
	return actionNames[a]
}

// InputManager maps keys and mouse buttons to actions and tracks their
// held and edge state between PostUpdate calls. Cursor motion and scroll
// are accumulated until read.
type InputManager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	lastX, lastY   float64
	haveCursor     bool
	dragDX, dragDY float64
	scroll         float64
}

// NewInputManager returns a manager with the default viewer bindings.
func NewInputManager() *InputManager {
	im := &InputManager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}

	im.BindKey(glfw.KeyA, ActionOrbitLeft)
	im.BindKey(glfw.KeyLeft, ActionOrbitLeft)
	im.BindKey(glfw.KeyD, ActionOrbitRight)
	im.BindKey(glfw.KeyRight, ActionOrbitRight)
	im.BindKey(glfw.KeyW, ActionOrbitUp)
	im.BindKey(glfw.KeyUp, ActionOrbitUp)
	im.BindKey(glfw.KeyS, ActionOrbitDown)
	im.BindKey(glfw.KeyDown, ActionOrbitDown)
	im.BindKey(glfw.KeyE, ActionZoomIn)
	im.BindKey(glfw.KeyEqual, ActionZoomIn)
	im.BindKey(glfw.KeyQ, ActionZoomOut)
	im.BindKey(glfw.KeyMinus, ActionZoomOut)
	im.BindKey(glfw.KeyLeftShift, ActionFastOrbit)
	im.BindKey(glfw.KeyRightShift, ActionFastOrbit)
	im.BindKey(glfw.KeyF3, ActionToggleStats)
	im.BindKey(glfw.KeySpace, ActionToggleBlock)
	im.BindKey(glfw.KeyEscape, ActionQuit)

	im.BindMouseButton(glfw.MouseButtonLeft, ActionDrag)
	im.BindMouseButton(glfw.MouseButtonRight, ActionBreak)
	im.BindMouseButton(glfw.MouseButtonMiddle, ActionPlace)

	return im
}

// BindKey adds action to key. A key may drive several actions and an
// action may have several keys.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.keyToActions[key] = append(im.keyToActions[key], action)
}

func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.keyToActions, key)
}

func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.mouseButtonToActions[button] = append(im.mouseButtonToActions[button], action)
}

// HandleKeyEvent applies a key event. Repeats count as held.
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.apply(im.keyToActions[key], action == glfw.Press || action == glfw.Repeat)
}

func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.apply(im.mouseButtonToActions[button], action == glfw.Press)
}

// apply records the new held state and its edges. Callers hold mu.
func (im *InputManager) apply(actions []Action, pressed bool) {
	for _, act := range actions {
		if pressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		if !pressed && im.currentState[act] {
			im.justReleased[act] = true
		}
		im.currentState[act] = pressed
	}
}

// HandleCursorEvent accumulates cursor motion while ActionDrag is held.
func (im *InputManager) HandleCursorEvent(x, y float64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.haveCursor && im.currentState[ActionDrag] {
		im.dragDX += x - im.lastX
		im.dragDY += y - im.lastY
	}
	im.lastX, im.lastY, im.haveCursor = x, y, true
}

func (im *InputManager) HandleScrollEvent(yoff float64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.scroll += yoff
}

// Drag returns and clears the accumulated drag motion in pixels.
func (im *InputManager) Drag() (dx, dy float64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	dx, dy = im.dragDX, im.dragDY
	im.dragDX, im.dragDY = 0, 0
	return dx, dy
}

// Scroll returns and clears the accumulated scroll offset.
func (im *InputManager) Scroll() float64 {
	im.mu.Lock()
	defer im.mu.Unlock()
	s := im.scroll
	im.scroll = 0
	return s
}

// Attach installs the window callbacks that feed this manager.
func (im *InputManager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		im.HandleCursorEvent(x, y)
	})
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		im.HandleScrollEvent(yoff)
	})
}

// PostUpdate clears the edge flags. Call it once at the end of a frame.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.justPressed = [ActionCount]bool{}
	im.justReleased = [ActionCount]bool{}
}

// IsActive reports whether the action is held.
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.currentState[action]
}

// JustPressed reports whether the action went down since the last PostUpdate.
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justPressed[action]
}

func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justReleased[action]
}
