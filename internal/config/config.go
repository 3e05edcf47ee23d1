package config

import "sync"

// RenderSettings holds render configuration
type RenderSettings struct {
	mu                   sync.RWMutex
	fpsLimit             int // 0 = unlimited
	initialInstanceCap   int // instance records allocated per mesh up front
	statsIntervalFrames  int // frames between render stats log lines, 0 = off
	slowFrameThresholdMs int
}

var globalRenderSettings = &RenderSettings{
	fpsLimit:             144,
	initialInstanceCap:   16,
	statsIntervalFrames:  600,
	slowFrameThresholdMs: 16,
}

// GetFPSLimit returns the frame cap, 0 meaning unlimited
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the frame cap. Negative values disable the limiter.
func SetFPSLimit(limit int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	globalRenderSettings.fpsLimit = limit
}

// GetInitialInstanceCapacity returns the instance buffer size new meshes start with
func GetInitialInstanceCapacity() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.initialInstanceCap
}

// SetInitialInstanceCapacity sets the instance buffer size new meshes start with
func SetInitialInstanceCapacity(n int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if n < 1 {
		n = 1
	}
	globalRenderSettings.initialInstanceCap = n
}

// GetStatsInterval returns how many frames pass between stats log lines
func GetStatsInterval() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.statsIntervalFrames
}

// SetStatsInterval sets how many frames pass between stats log lines
func SetStatsInterval(frames int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if frames < 0 {
		frames = 0
	}
	globalRenderSettings.statsIntervalFrames = frames
}

// GetSlowFrameThresholdMs returns the frame time above which the top profiled tasks are logged
func GetSlowFrameThresholdMs() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.slowFrameThresholdMs
}

// SetSlowFrameThresholdMs sets the slow frame threshold
func SetSlowFrameThresholdMs(ms int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if ms < 1 {
		ms = 1
	}
	globalRenderSettings.slowFrameThresholdMs = ms
}
