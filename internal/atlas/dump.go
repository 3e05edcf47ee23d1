package atlas

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// dumpPNG writes an atlas canvas to dir/atlas_<index>.png for inspection.
func dumpPNG(dir string, index int, img image.Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(dir, fmt.Sprintf("atlas_%d.png", index))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}
