package blockmodel

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// Loader reads block definitions from <root>/blocks/<name>.json and
// resolves parents and texture variables. Results are cached by name.
type Loader struct {
	fsys fs.FS
	root string

	mu    sync.Mutex
	cache map[string]*Definition // merged with parents, variables unresolved
}

func NewLoader(assetsPath string) *Loader {
	return NewFSLoader(os.DirFS(assetsPath), ".")
}

func NewFSLoader(fsys fs.FS, root string) *Loader {
	return &Loader{
		fsys:  fsys,
		root:  root,
		cache: make(map[string]*Definition),
	}
}

func (l *Loader) file(name string) string {
	return path.Join(l.root, "blocks", name+".json")
}

// Load returns the named definition with parents merged and texture
// variables resolved. The returned value is a copy the caller may modify.
func (l *Loader) Load(name string) (*Definition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged, err := l.load(name, map[string]bool{})
	if err != nil {
		return nil, err
	}
	def := merged.clone()
	l.resolveTextures(def)
	return def, nil
}

func (l *Loader) load(name string, loading map[string]bool) (*Definition, error) {
	if def, ok := l.cache[name]; ok {
		return def, nil
	}
	if loading[name] {
		return nil, fmt.Errorf("definition %q inherits from itself", name)
	}
	loading[name] = true

	data, err := fs.ReadFile(l.fsys, l.file(name))
	if err != nil {
		return nil, fmt.Errorf("could not read definition file: %w", err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("could not unmarshal definition %q: %w", name, err)
	}
	if def.Textures == nil {
		def.Textures = make(map[string]string)
	}
	if def.Faces == nil {
		def.Faces = make(map[string]string)
	}

	if def.Parent != "" {
		parent, err := l.load(def.Parent, loading)
		if err != nil {
			return nil, fmt.Errorf("could not load parent definition '%s': %w", def.Parent, err)
		}
		inherit(&def, parent)
	}

	l.cache[name] = &def
	return &def, nil
}

// inherit fills the unset fields of child from parent without touching parent.
func inherit(child, parent *Definition) {
	if child.Shape == "" {
		child.Shape = parent.Shape
	}
	if child.Transparent == nil {
		child.Transparent = parent.Transparent
	}
	if child.Collider == nil {
		child.Collider = parent.Collider
	}
	if len(child.Directions) == 0 {
		child.Directions = append([]string(nil), parent.Directions...)
	}
	for key, val := range parent.Textures {
		if _, ok := child.Textures[key]; !ok {
			child.Textures[key] = val
		}
	}
	for key, val := range parent.Faces {
		if _, ok := child.Faces[key]; !ok {
			child.Faces[key] = val
		}
	}
}

func (l *Loader) resolveTextures(d *Definition) {
	for face, ref := range d.Faces {
		d.Faces[face] = l.ResolveTexture(ref, d)
	}
}

// ResolveTexture follows "#name" references through d.Textures. An
// unresolvable reference is returned as is.
func (l *Loader) ResolveTexture(textureName string, d *Definition) string {
	for i := 0; i < 10 && strings.HasPrefix(textureName, "#"); i++ {
		key := strings.TrimPrefix(textureName, "#")
		if resolved, ok := d.Textures[key]; ok {
			textureName = resolved
		} else {
			break
		}
	}
	return textureName
}

// List returns the names of every definition file, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, path.Join(l.root, "blocks"))
	if err != nil {
		return nil, fmt.Errorf("could not list definitions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
