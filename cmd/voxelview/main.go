package main

import (
	"context"
	"flag"
	"log"
	"os"
	"runtime"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/game"
	"voxelkit/internal/input"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var (
		assets   = flag.String("assets", "", "directory holding a textures/ tree; demo textures when empty")
		fps      = flag.Int("fps", config.GetFPSLimit(), "frame cap, 0 for unlimited")
		binSize  = flag.Int("bin", config.GetAtlasBinSize(), "atlas bin size in pixels")
		padding  = flag.Int("padding", config.GetAtlasPadding(), "gutter pixels around each packed image")
		debugDir = flag.String("debug-dir", "", "write baked atlases as PNG into this directory")
		workers  = flag.Int("workers", config.GetMeshWorkers(), "background meshing workers")
		width    = flag.Int("width", 1280, "window width")
		height   = flag.Int("height", 720, "window height")
	)
	flag.Parse()

	config.SetFPSLimit(*fps)
	config.SetAtlasBinSize(*binSize)
	config.SetAtlasPadding(*padding)
	config.SetAtlasDebugDir(*debugDir)
	config.SetMeshWorkers(*workers)

	var opts game.SessionOptions
	if *assets != "" {
		fsys := os.DirFS(*assets)
		paths, err := atlas.Discover(fsys, "textures")
		if err != nil {
			log.Fatalf("voxelview: %v", err)
		}
		opts.Source = atlas.FSSource{FS: fsys}
		opts.Extra = paths
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("voxelview: %v", err)
	}
	closer.Bind(glfw.Terminate)

	window, err := game.SetupWindow(*width, *height)
	if err != nil {
		closer.Fatalf("voxelview: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	session, err := game.NewSession(ctx, window, opts)
	if err != nil {
		closer.Fatalf("voxelview: %v", err)
	}
	closer.Bind(session.Cleanup)

	im := input.NewInputManager()
	im.Attach(window)

	game.NewApp(window, im, session).Run()
	closer.Close()
}
