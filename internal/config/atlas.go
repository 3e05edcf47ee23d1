package config

import (
	"runtime"
	"sync"
)

// DefaultMissingTexture is the atlas entry used for faces without a texture.
const DefaultMissingTexture = "/textures/debug_missing.png"

// AtlasSettings holds texture atlas and meshing configuration
type AtlasSettings struct {
	mu             sync.RWMutex
	binSize        int
	padding        int
	missingTexture string
	debugDir       string
	decodeWorkers  int
	meshWorkers    int
}

var globalAtlasSettings = &AtlasSettings{
	binSize:        2048,
	padding:        0,
	missingTexture: DefaultMissingTexture,
	decodeWorkers:  runtime.NumCPU(),
	meshWorkers:    max(1, runtime.NumCPU()-1),
}

// GetAtlasBinSize returns the edge length of one atlas bin in pixels
func GetAtlasBinSize() int {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.binSize
}

// SetAtlasBinSize sets the atlas bin edge length, clamped to 64..16384
func SetAtlasBinSize(size int) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	if size < 64 {
		size = 64
	}
	if size > 16384 {
		size = 16384
	}
	globalAtlasSettings.binSize = size
}

// GetAtlasPadding returns the gap left right of and below each packed image
func GetAtlasPadding() int {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.padding
}

// SetAtlasPadding sets the gap between packed images
func SetAtlasPadding(px int) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	if px < 0 {
		px = 0
	}
	globalAtlasSettings.padding = px
}

// GetMissingTexture returns the fallback texture path
func GetMissingTexture() string {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.missingTexture
}

// SetMissingTexture sets the fallback texture path. Empty restores the default.
func SetMissingTexture(path string) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	if path == "" {
		path = DefaultMissingTexture
	}
	globalAtlasSettings.missingTexture = path
}

// GetAtlasDebugDir returns the directory baked atlases are dumped to, "" when disabled
func GetAtlasDebugDir() string {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.debugDir
}

// SetAtlasDebugDir enables atlas dumps into dir
func SetAtlasDebugDir(dir string) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	globalAtlasSettings.debugDir = dir
}

// GetDecodeWorkers returns how many images are decoded in parallel
func GetDecodeWorkers() int {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.decodeWorkers
}

// SetDecodeWorkers sets the image decode parallelism
func SetDecodeWorkers(n int) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	if n < 1 {
		n = 1
	}
	globalAtlasSettings.decodeWorkers = n
}

// GetMeshWorkers returns the number of background geometry workers
func GetMeshWorkers() int {
	globalAtlasSettings.mu.RLock()
	defer globalAtlasSettings.mu.RUnlock()
	return globalAtlasSettings.meshWorkers
}

// SetMeshWorkers sets the number of background geometry workers
func SetMeshWorkers(n int) {
	globalAtlasSettings.mu.Lock()
	defer globalAtlasSettings.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	globalAtlasSettings.meshWorkers = n
}
