package demo

import (
	"image/color"
	"testing"

	"voxelkit/internal/registry"
	"voxelkit/internal/world"
)

func TestTexturesCoverPaths(t *testing.T) {
	paths := []string{"/textures/stone.png", "textures/glass.png", "/textures/unknown_thing.png"}
	src := Textures(paths)
	if len(src) != len(paths) {
		t.Fatalf("expected %d images, got %d", len(paths), len(src))
	}
	for _, p := range paths {
		img, err := src.Decode(p)
		if err != nil {
			t.Fatalf("Decode(%s): %v", p, err)
		}
		if img.Width != TextureSize || img.Height != TextureSize {
			t.Errorf("%s: expected %dx%d, got %dx%d", p, TextureSize, TextureSize, img.Width, img.Height)
		}
	}
}

func TestTextureDeterministic(t *testing.T) {
	a := Texture("/textures/stone.png")
	b := Texture("stone.png")
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("texture differs at byte %d", i)
		}
	}
}

func TestTextureAlpha(t *testing.T) {
	if a := Texture("glass").NRGBAAt(5, 9).A; a == 255 {
		t.Errorf("glass interior should be translucent")
	}
	if a := Texture("stone").NRGBAAt(5, 9).A; a != 255 {
		t.Errorf("stone should be opaque, alpha %d", a)
	}
	missing := Texture("/textures/debug_missing.png")
	if got := missing.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 255, 255}) {
		t.Errorf("missing texture corner: got %v", got)
	}
}

func TestBuild(t *testing.T) {
	reg, err := registry.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	w := world.New()
	n, err := Build(w, reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n < 4*(2*Extent)*(2*Extent) {
		t.Errorf("expected at least the floor layers, got %d cells", n)
	}

	b, ok := w.BlockAt(10, 4, 12)
	if !ok || b.Type.Name() != "stone_stairs" || b.Facing != world.DirEast {
		t.Errorf("unexpected block at stairs ring: %v %v", b.Type, b.Facing)
	}
	b, _ = w.BlockAt(-5, 6, -6)
	if b.Type.Name() != "wood" || b.Facing != world.DirUp {
		t.Errorf("expected upright log, got %v %v", b.Type, b.Facing)
	}
	if b, _ := w.BlockAt(-6, 3, 6); b.Type.Name() != "water" {
		t.Errorf("expected water in the pool, got %v", b.Type)
	}

	// 2x2 chunks of floor, plus the pillar reaching the second chunk row.
	if got := len(w.Chunks()); got != 5 {
		t.Errorf("expected 5 chunks, got %d", got)
	}
	for _, c := range w.Chunks() {
		if !c.Dirty() {
			t.Errorf("chunk %s should start dirty", c.Coord)
		}
	}
}

func TestBuildMissingType(t *testing.T) {
	if _, err := Build(world.New(), registry.New()); err == nil {
		t.Errorf("expected error for empty registry")
	}
}
