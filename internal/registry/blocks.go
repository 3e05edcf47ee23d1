package registry

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"voxelkit/internal/world"
	"voxelkit/pkg/blockmodel"
)

//go:embed defaults/blocks/*.json
var defaultDefinitions embed.FS

// Registry maps block names to their types. Air is always present.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*world.BlockType
	order []*world.BlockType
}

func New() *Registry {
	r := &Registry{types: make(map[string]*world.BlockType)}
	r.types[world.Air.Name()] = world.Air
	r.order = append(r.order, world.Air)
	return r
}

// Defaults returns a registry filled from the built-in definitions.
func Defaults() (*Registry, error) {
	r := New()
	loader := blockmodel.NewFSLoader(defaultDefinitions, "defaults")
	if _, err := r.LoadDefinitions(loader); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds t. Names are unique and "air" is reserved.
func (r *Registry) Register(t *world.BlockType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[t.Name()]; exists {
		return fmt.Errorf("block %q already registered", t.Name())
	}
	r.types[t.Name()] = t
	r.order = append(r.order, t)
	return nil
}

func (r *Registry) Lookup(name string) (*world.BlockType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns every registered type in registration order, air first.
func (r *Registry) Types() []*world.BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*world.BlockType(nil), r.order...)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.Name()
	}
	return names
}

// TexturePaths lists the textures an atlas needs for every registered
// type, starting with the fallback texture.
func (r *Registry) TexturePaths(missing string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(missing)
	for _, t := range r.order {
		for _, tex := range t.Textures() {
			add(tex)
		}
	}
	return out
}

// LoadDefinitions registers every non-abstract definition the loader can
// list. A broken definition is logged and skipped; the joined errors are
// returned with the number of types registered.
func (r *Registry) LoadDefinitions(loader *blockmodel.Loader) (int, error) {
	names, err := loader.List()
	if err != nil {
		return 0, err
	}
	var errs []error
	loaded := 0
	for _, name := range names {
		def, err := loader.Load(name)
		if err != nil {
			log.Printf("registry: skipping %s: %v", name, err)
			errs = append(errs, err)
			continue
		}
		if def.Abstract {
			continue
		}
		t, err := FromDefinition(name, def)
		if err == nil {
			err = r.Register(t)
		}
		if err != nil {
			log.Printf("registry: skipping %s: %v", name, err)
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// FromDefinition converts a resolved definition into a block type.
// Faces whose texture reference could not be resolved are left unset so
// the mesher falls back to the missing texture.
func FromDefinition(name string, def *blockmodel.Definition) (*world.BlockType, error) {
	shape, ok := world.ParseShape(def.Shape)
	if !ok {
		return nil, fmt.Errorf("block %q: unknown shape %q", name, def.Shape)
	}

	var dirs world.DirectionSet
	for _, d := range def.Directions {
		dir, ok := world.ParseDirection(d)
		if !ok {
			return nil, fmt.Errorf("block %q: unknown direction %q", name, d)
		}
		dirs |= world.DirectionsOf(dir)
	}

	faces := world.FaceProperties{}
	for key, tex := range def.FaceTextures() {
		face, ok := world.ParseFace(key)
		if !ok {
			return nil, fmt.Errorf("block %q: unknown face %q", name, key)
		}
		if tex == "" || strings.HasPrefix(tex, "#") {
			log.Printf("registry: %s has no texture for %s (%q)", name, face, tex)
			continue
		}
		faces[face] = TexturePath(tex)
	}

	return world.NewBlockType(name, world.Settings{
		Transparent: def.Transparent != nil && *def.Transparent,
		Collider:    def.Collider == nil || *def.Collider,
		Shape:       shape,
		Faces:       faces,
		Directions:  dirs,
	}), nil
}

// TexturePath turns a texture reference into a resource path. Bare names
// live under /textures and get a .png extension.
func TexturePath(ref string) string {
	if !strings.Contains(ref, "/") {
		ref = "textures/" + ref
	}
	if path.Ext(ref) == "" {
		ref += ".png"
	}
	return path.Clean("/" + ref)
}
