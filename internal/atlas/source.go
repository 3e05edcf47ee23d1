package atlas

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks images that could not be turned into pixels.
var ErrDecode = errors.New("atlas: decode failed")

// Image is a decoded RGBA image, 4 bytes per pixel, rows packed.
type Image struct {
	Width, Height int
	Pix           []byte
}

// Source decodes an image resource into RGBA pixels.
type Source interface {
	Decode(path string) (Image, error)
}

// Canonical normalises a resource path to slash form with a leading "/".
func Canonical(p string) string {
	return path.Clean("/" + filepath.ToSlash(p))
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// FSSource reads images from a file system. Resource paths are relative to
// the root of FS.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Decode(p string) (Image, error) {
	name := strings.TrimPrefix(Canonical(p), "/")
	f, err := s.FS.Open(name)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, p, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, p, err)
	}
	return toRGBA(img), nil
}

// MemorySource serves images kept in memory, keyed by canonical path.
type MemorySource map[string]image.Image

func (s MemorySource) Decode(p string) (Image, error) {
	img, ok := s[Canonical(p)]
	if !ok || img == nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, p, fs.ErrNotExist)
	}
	return toRGBA(img), nil
}

// toRGBA converts img into tightly packed RGBA pixels.
func toRGBA(img image.Image) Image {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return Image{Width: b.Dx(), Height: b.Dy(), Pix: rgba.Pix[:b.Dx()*b.Dy()*4]}
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Discover walks root inside fsys and returns the canonical paths of every
// supported image, in lexical order.
func Discover(fsys fs.FS, root string) ([]string, error) {
	root = strings.TrimPrefix(Canonical(root), "/")
	if root == "" {
		root = "."
	}
	var paths []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExts[strings.ToLower(path.Ext(p))] {
			paths = append(paths, Canonical(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover images under %s: %w", root, err)
	}
	return paths, nil
}
