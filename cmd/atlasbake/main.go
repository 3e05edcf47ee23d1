// Command atlasbake packs block textures into atlases without a window,
// optionally writing the atlases as PNG, and reports how the demo world
// meshes against them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/demo"
	"voxelkit/internal/gpu"
	"voxelkit/internal/meshing"
	"voxelkit/internal/registry"
	"voxelkit/internal/world"
)

func main() {
	var (
		assets  = flag.String("assets", "", "directory holding a textures/ tree; demo textures when empty")
		out     = flag.String("out", "", "write atlas_<n>.png files into this directory")
		binSize = flag.Int("bin", config.GetAtlasBinSize(), "atlas bin size in pixels")
		padding = flag.Int("padding", config.GetAtlasPadding(), "gutter pixels around each packed image")
		meshes  = flag.Bool("mesh", true, "mesh the demo world and print per-chunk counts")
	)
	flag.Parse()

	config.SetAtlasBinSize(*binSize)
	config.SetAtlasPadding(*padding)
	config.SetAtlasDebugDir(*out)

	if err := run(*assets, *meshes); err != nil {
		log.Fatalf("atlasbake: %v", err)
	}
}

func run(assets string, mesh bool) error {
	reg, err := registry.Defaults()
	if err != nil {
		return err
	}
	paths := reg.TexturePaths(config.GetMissingTexture())

	var src atlas.Source
	if assets != "" {
		fsys := os.DirFS(assets)
		found, err := atlas.Discover(fsys, "textures")
		if err != nil {
			return err
		}
		paths = append(paths, found...)
		src = atlas.FSSource{FS: fsys}
	} else {
		src = demo.Textures(paths)
	}

	dev := gpu.NewRecorder()
	mgr := atlas.NewManager(dev, src, atlas.DefaultOptions())
	defer mgr.Cleanup()
	if _, err := mgr.Bake(paths); err != nil {
		return err
	}
	report := mgr.Report()
	printReport(report)
	if !mesh {
		return report.Err()
	}

	w := world.New()
	if _, err := demo.Build(w, reg); err != nil {
		return err
	}
	if err := printMeshes(dev, meshing.NewMesher(mgr, meshing.DefaultOptions()), w); err != nil {
		return err
	}
	return report.Err()
}

func printReport(r *atlas.Report) {
	fmt.Printf("%d atlases of %dx%d, %d images placed\n", len(r.Textures), r.BinWidth, r.BinHeight, len(r.Placements))

	placements := append([]atlas.Placement(nil), r.Placements...)
	sort.Slice(placements, func(i, j int) bool {
		return placements[i].Path < placements[j].Path
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "path\tbin\tx\ty\tsize\tuv offset\tuv scale")
	for _, p := range placements {
		info := r.Infos[p.Path]
		off, scale := info.Offset(), info.Scale()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%dx%d\t%.5f,%.5f\t%.5f,%.5f\n",
			p.Path, p.Bin, p.X, p.Y, p.Width, p.Height, off.X(), off.Y(), scale.X(), scale.Y())
	}
	tw.Flush()

	for _, e := range r.Rejected {
		fmt.Printf("rejected %v\n", e)
	}
	for _, e := range r.Skipped {
		fmt.Printf("skipped %v\n", e)
	}
}

func printMeshes(dev gpu.Device, m *meshing.Mesher, w *world.World) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "chunk\topaque faces\ttransparent faces\tfallbacks")
	total := 0
	for _, c := range w.Chunks() {
		geo, err := m.GenerateGeometry(c, w)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", c.Coord, err)
		}
		cm, err := m.Upload(dev, geo)
		if err != nil {
			return err
		}
		cm.Release()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", c.Coord, geo.Opaque.Faces(), geo.Transparent.Faces(), geo.Fallbacks)
		total += geo.Faces()
	}
	tw.Flush()
	fmt.Printf("%d chunks, %d faces\n", len(w.Chunks()), total)
	return nil
}
