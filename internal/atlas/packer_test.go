package atlas

import (
	"errors"
	"fmt"
	"testing"
)

func checkNoOverlap(t *testing.T, p *packer) {
	t.Helper()
	for bi, b := range p.bins {
		rects := make([]rect, len(b.placed))
		for i, pl := range b.placed {
			rects[i] = rect{pl.x, pl.y, pl.img.width + p.padding, pl.img.height + p.padding}
			r := rects[i]
			if r.x < 0 || r.y < 0 || r.x+r.w > b.width || r.y+r.h > b.height {
				t.Errorf("bin %d: %s placed out of bounds at %+v", bi, pl.img.path, r)
			}
		}
		for i := range rects {
			for j := i + 1; j < len(rects); j++ {
				if rects[i].overlaps(rects[j]) {
					t.Errorf("bin %d: %s %+v overlaps %s %+v", bi,
						b.placed[i].img.path, rects[i], b.placed[j].img.path, rects[j])
				}
			}
			for _, f := range b.free {
				if rects[i].overlaps(f) {
					t.Errorf("bin %d: free rect %+v overlaps placed %+v", bi, f, rects[i])
				}
			}
		}
	}
}

func TestPackNoOverlap(t *testing.T) {
	for _, padding := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("padding=%d", padding), func(t *testing.T) {
			var images []*sourceImage
			// Deterministic spread of sizes, some wide, some tall.
			for i := 0; i < 120; i++ {
				w := 4 + (i*37)%60
				h := 4 + (i*53)%45
				images = append(images, &sourceImage{path: fmt.Sprintf("/img%d.png", i), width: w, height: h})
			}
			sortForPacking(images, padding)

			p := newPacker(256, 256, padding)
			for _, img := range images {
				if err := p.add(img); err != nil {
					t.Fatalf("add %s: %v", img.path, err)
				}
			}

			placed := 0
			for _, b := range p.bins {
				placed += len(b.placed)
			}
			if placed != len(images) {
				t.Errorf("expected %d placed images, got %d", len(images), placed)
			}
			checkNoOverlap(t, p)
		})
	}
}

func TestBestAreaFitPicksTightestRect(t *testing.T) {
	b := newBin(100, 100)
	b.free = []rect{
		{0, 0, 50, 50},  // waste 2500-100
		{50, 0, 10, 12}, // waste 120-100, tightest
		{0, 50, 100, 50},
		{60, 0, 9, 40}, // too narrow
	}
	if idx := b.bestFit(10, 10); idx != 1 {
		t.Errorf("expected rect 1, got %d", idx)
	}
	if idx := b.bestFit(200, 1); idx != -1 {
		t.Errorf("expected no fit, got %d", idx)
	}
}

func TestPlaceSplitsRightAndBelow(t *testing.T) {
	b := newBin(64, 32)
	x, y := b.place(0, 10, 8)
	if x != 0 || y != 0 {
		t.Fatalf("expected placement at origin, got %d,%d", x, y)
	}
	want := []rect{{10, 0, 54, 8}, {0, 8, 64, 24}}
	if len(b.free) != len(want) {
		t.Fatalf("expected free rects %v, got %v", want, b.free)
	}
	for i := range want {
		if b.free[i] != want[i] {
			t.Errorf("free rect %d: expected %+v, got %+v", i, want[i], b.free[i])
		}
	}

	// A placement filling a rect exactly leaves no empty remainders.
	b2 := newBin(16, 16)
	b2.place(0, 16, 16)
	if len(b2.free) != 0 {
		t.Errorf("expected no free rects, got %v", b2.free)
	}
}

func TestSortIsStableForEqualAreas(t *testing.T) {
	images := []*sourceImage{
		{path: "/a", width: 4, height: 8},
		{path: "/b", width: 16, height: 16},
		{path: "/c", width: 8, height: 4},
		{path: "/d", width: 2, height: 16},
	}
	sortForPacking(images, 0)
	want := []string{"/b", "/a", "/c", "/d"}
	for i, img := range images {
		if img.path != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], img.path)
		}
	}
}

func TestPackRejectsOversized(t *testing.T) {
	p := newPacker(32, 32, 1)
	err := p.add(&sourceImage{path: "/big.png", width: 32, height: 4})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge once padding is added, got %v", err)
	}
	if len(p.bins) != 0 {
		t.Errorf("rejected image should not open a bin")
	}
}

func TestPackOpensNewBins(t *testing.T) {
	p := newPacker(64, 64, 0)
	for i := 0; i < 5; i++ {
		if err := p.add(&sourceImage{path: fmt.Sprintf("/%d", i), width: 40, height: 40}); err != nil {
			t.Fatal(err)
		}
	}
	if len(p.bins) != 5 {
		t.Errorf("expected one bin per 40x40 image in 64x64 bins, got %d", len(p.bins))
	}
}

func BenchmarkPack(b *testing.B) {
	var images []*sourceImage
	for i := 0; i < 500; i++ {
		images = append(images, &sourceImage{width: 8 + (i*37)%56, height: 8 + (i*53)%56})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := newPacker(2048, 2048, 1)
		for _, img := range images {
			_ = p.add(img)
		}
	}
}
