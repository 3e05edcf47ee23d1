package atlas

import (
	"errors"
	"fmt"
	"sort"
)

// ErrImageTooLarge is reported for images that do not fit an empty bin.
var ErrImageTooLarge = errors.New("atlas: image larger than bin")

type rect struct {
	x, y, w, h int
}

func (r rect) area() int {
	return r.w * r.h
}

func (r rect) overlaps(o rect) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w && r.y < o.y+o.h && o.y < r.y+r.h
}

type sourceImage struct {
	path          string
	width, height int
	pix           []byte // nil once blitted
}

type placement struct {
	img  *sourceImage
	x, y int
}

// bin is one fixed-size canvas with its free-rectangle list.
type bin struct {
	width, height int
	free          []rect
	placed        []placement
}

func newBin(width, height int) *bin {
	return &bin{
		width:  width,
		height: height,
		free:   []rect{{0, 0, width, height}},
	}
}

// bestFit returns the index of the free rectangle that wastes the least
// area for a w by h request, or -1 if none can hold it. Ties keep the
// earliest rectangle.
func (b *bin) bestFit(w, h int) int {
	best, bestWaste := -1, 0
	for i, f := range b.free {
		if f.w < w || f.h < h {
			continue
		}
		waste := f.area() - w*h
		if best < 0 || waste < bestWaste {
			best, bestWaste = i, waste
		}
	}
	return best
}

// place puts a w by h request into free rectangle idx and splits the rest
// into a rectangle right of it and one below it. Free rectangles are never
// merged.
func (b *bin) place(idx, w, h int) (x, y int) {
	f := b.free[idx]
	b.free = append(b.free[:idx], b.free[idx+1:]...)

	right := rect{f.x + w, f.y, f.w - w, h}
	below := rect{f.x, f.y + h, f.w, f.h - h}
	if right.w > 0 && right.h > 0 {
		b.free = append(b.free, right)
	}
	if below.w > 0 && below.h > 0 {
		b.free = append(b.free, below)
	}
	return f.x, f.y
}

// packer assigns images to bins using Best-Area-Fit.
type packer struct {
	width, height int
	padding       int
	bins          []*bin
}

func newPacker(width, height, padding int) *packer {
	return &packer{width: width, height: height, padding: padding}
}

// sortForPacking orders images by descending padded area. Equal areas keep
// their discovery order.
func sortForPacking(images []*sourceImage, padding int) {
	sort.SliceStable(images, func(i, j int) bool {
		ai := (images[i].width + padding) * (images[i].height + padding)
		aj := (images[j].width + padding) * (images[j].height + padding)
		return ai > aj
	})
}

// add places img in the first bin with room, opening a new bin when none has.
func (p *packer) add(img *sourceImage) error {
	w := img.width + p.padding
	h := img.height + p.padding
	if w > p.width || h > p.height {
		return fmt.Errorf("%w: %s is %dx%d (+%d padding), bin is %dx%d",
			ErrImageTooLarge, img.path, img.width, img.height, p.padding, p.width, p.height)
	}

	for _, b := range p.bins {
		if idx := b.bestFit(w, h); idx >= 0 {
			x, y := b.place(idx, w, h)
			b.placed = append(b.placed, placement{img: img, x: x, y: y})
			return nil
		}
	}

	b := newBin(p.width, p.height)
	p.bins = append(p.bins, b)
	x, y := b.place(0, w, h)
	b.placed = append(b.placed, placement{img: img, x: x, y: y})
	return nil
}
