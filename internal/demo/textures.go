// Package demo builds the scene and placeholder textures used by the
// viewer and the atlas baker when no asset directory is given.
package demo

import (
	"hash/fnv"
	"image"
	"image/color"
	"math/rand/v2"
	"path"
	"strings"

	"voxelkit/internal/atlas"
)

const TextureSize = 16

type painter func(img *image.NRGBA, rng *rand.Rand)

var painters = map[string]painter{
	"debug_missing": checker(color.NRGBA{255, 0, 255, 255}, color.NRGBA{0, 0, 0, 255}),
	"stone":         noise(color.NRGBA{125, 125, 125, 255}, 24),
	"dirt":          noise(color.NRGBA{134, 96, 67, 255}, 20),
	"grass_top":     noise(color.NRGBA{95, 159, 53, 255}, 22),
	"grass_side":    grassSide,
	"wood_side":     woodSide,
	"wood_end":      woodEnd,
	"glass":         glass,
	"water":         noise(color.NRGBA{47, 90, 200, 170}, 12),
}

// Textures generates an image for every path. Names without a dedicated
// pattern get flat noise in a colour derived from the name.
func Textures(paths []string) atlas.MemorySource {
	src := atlas.MemorySource{}
	for _, p := range paths {
		src[atlas.Canonical(p)] = Texture(p)
	}
	return src
}

// Texture generates the image for one resource path.
func Texture(p string) *image.NRGBA {
	name := strings.TrimSuffix(path.Base(p), path.Ext(p))
	h := fnv.New64a()
	h.Write([]byte(name))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>17))

	img := image.NewNRGBA(image.Rect(0, 0, TextureSize, TextureSize))
	paint, ok := painters[name]
	if !ok {
		base := color.NRGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 255}
		paint = noise(base, 30)
	}
	paint(img, rng)
	return img
}

func shade(c color.NRGBA, d int) color.NRGBA {
	clamp := func(v int) uint8 {
		return uint8(max(0, min(255, v)))
	}
	return color.NRGBA{clamp(int(c.R) + d), clamp(int(c.G) + d), clamp(int(c.B) + d), c.A}
}

func noise(base color.NRGBA, spread int) painter {
	return func(img *image.NRGBA, rng *rand.Rand) {
		for y := 0; y < TextureSize; y++ {
			for x := 0; x < TextureSize; x++ {
				img.SetNRGBA(x, y, shade(base, rng.IntN(2*spread+1)-spread))
			}
		}
	}
}

func checker(a, b color.NRGBA) painter {
	return func(img *image.NRGBA, _ *rand.Rand) {
		for y := 0; y < TextureSize; y++ {
			for x := 0; x < TextureSize; x++ {
				if (x/8+y/8)%2 == 0 {
					img.SetNRGBA(x, y, a)
				} else {
					img.SetNRGBA(x, y, b)
				}
			}
		}
	}
}

func grassSide(img *image.NRGBA, rng *rand.Rand) {
	noise(color.NRGBA{134, 96, 67, 255}, 20)(img, rng)
	for x := 0; x < TextureSize; x++ {
		depth := 3 + rng.IntN(3)
		for y := 0; y < depth; y++ {
			img.SetNRGBA(x, y, shade(color.NRGBA{95, 159, 53, 255}, rng.IntN(30)-15))
		}
	}
}

func woodSide(img *image.NRGBA, rng *rand.Rand) {
	base := color.NRGBA{102, 81, 51, 255}
	for x := 0; x < TextureSize; x++ {
		d := rng.IntN(25) - 12
		if x%4 == 0 {
			d -= 20
		}
		for y := 0; y < TextureSize; y++ {
			img.SetNRGBA(x, y, shade(base, d+rng.IntN(7)-3))
		}
	}
}

func woodEnd(img *image.NRGBA, rng *rand.Rand) {
	base := color.NRGBA{176, 143, 92, 255}
	c := float64(TextureSize-1) / 2
	for y := 0; y < TextureSize; y++ {
		for x := 0; x < TextureSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			ring := int(dx*dx+dy*dy) / 6
			d := 0
			if ring%2 == 1 {
				d = -25
			}
			if x == 0 || y == 0 || x == TextureSize-1 || y == TextureSize-1 {
				d = -60
			}
			img.SetNRGBA(x, y, shade(base, d+rng.IntN(7)-3))
		}
	}
}

func glass(img *image.NRGBA, _ *rand.Rand) {
	frame := color.NRGBA{220, 240, 245, 255}
	for y := 0; y < TextureSize; y++ {
		for x := 0; x < TextureSize; x++ {
			switch {
			case x == 0 || y == 0 || x == TextureSize-1 || y == TextureSize-1:
				img.SetNRGBA(x, y, frame)
			case x == y && x > 2 && x < 7:
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 200})
			default:
				img.SetNRGBA(x, y, color.NRGBA{200, 230, 240, 40})
			}
		}
	}
}
