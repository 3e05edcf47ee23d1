package world

import (
	"log"
	"maps"
)

// FaceProperties maps a logical face to a texture resource path.
type FaceProperties map[Face]string

// Texture returns the texture for f.
func (p FaceProperties) Texture(f Face) (string, bool) {
	tex, ok := p[f]
	return tex, ok && tex != ""
}

// Settings are the immutable properties shared by every block of a type.
type Settings struct {
	Transparent bool
	Collider    bool
	Shape       Shape
	Faces       FaceProperties
	Directions  DirectionSet
}

// BlockType describes a kind of block. Values are created once and shared
// by pointer; the settings never change after construction.
type BlockType struct {
	name     string
	settings Settings
}

// Air is the explicit empty block type. Grid cells are never nil.
var Air = NewBlockType("air", Settings{Transparent: true})

// AirBlock is the instance every new chunk is filled with.
var AirBlock = BlockInstance{Type: Air, Facing: DirNorth}

// NewBlockType copies s so later changes to the caller's map are not seen.
func NewBlockType(name string, s Settings) *BlockType {
	s.Faces = maps.Clone(s.Faces)
	if s.Faces == nil {
		s.Faces = FaceProperties{}
	}
	return &BlockType{name: name, settings: s}
}

func (t *BlockType) Name() string {
	if t == nil {
		return Air.name
	}
	return t.name
}

func (t *BlockType) IsAir() bool {
	return t == nil || t == Air
}

func (t *BlockType) Transparent() bool {
	return t.IsAir() || t.settings.Transparent
}

func (t *BlockType) Opaque() bool {
	return !t.Transparent()
}

func (t *BlockType) Collider() bool {
	return !t.IsAir() && t.settings.Collider
}

func (t *BlockType) Shape() Shape {
	if t == nil {
		return ShapeCube
	}
	return t.settings.Shape
}

// Texture returns the texture path configured for f.
func (t *BlockType) Texture(f Face) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.settings.Faces.Texture(f)
}

// Textures returns every distinct texture path the type references.
func (t *BlockType) Textures() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range Faces {
		if tex, ok := t.settings.Faces.Texture(f); ok && !seen[tex] {
			seen[tex] = true
			out = append(out, tex)
		}
	}
	return out
}

func (t *BlockType) Directions() DirectionSet {
	if t == nil {
		return 0
	}
	return t.settings.Directions
}

func (t *BlockType) String() string {
	return t.Name()
}

// BlockInstance is one grid cell: a block type and its facing.
type BlockInstance struct {
	Type   *BlockType
	Facing Direction
}

// NewInstance returns an instance of t facing dir. A facing the type does
// not allow is replaced by its first allowed direction.
func NewInstance(t *BlockType, dir Direction) BlockInstance {
	if t.IsAir() {
		return AirBlock
	}
	allowed := t.Directions()
	if !allowed.Has(dir) {
		fallback := allowed.First()
		log.Printf("world: %s cannot face %s, using %s", t.Name(), dir, fallback)
		dir = fallback
	}
	return BlockInstance{Type: t, Facing: dir}
}

func (b BlockInstance) IsAir() bool {
	return b.Type.IsAir()
}

func (b BlockInstance) Opaque() bool {
	return b.Type.Opaque()
}
