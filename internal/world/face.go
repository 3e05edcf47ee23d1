package world

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Face identifies one of the six logical faces of a block. The mapping from
// neighbour offset to face is fixed and independent of block orientation.
type Face uint8

const (
	FaceFront  Face = iota // +Z
	FaceBack               // -Z
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceRight              // +X
	FaceLeft               // -X
)

// Faces lists all faces in neighbour evaluation order.
var Faces = [6]Face{FaceFront, FaceBack, FaceTop, FaceBottom, FaceRight, FaceLeft}

var faceOffsets = [6][3]int{
	FaceFront:  {0, 0, 1},
	FaceBack:   {0, 0, -1},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
	FaceRight:  {1, 0, 0},
	FaceLeft:   {-1, 0, 0},
}

var faceNames = [6]string{"front", "back", "top", "bottom", "right", "left"}

// Offset returns the neighbour offset this face looks at.
func (f Face) Offset() (dx, dy, dz int) {
	o := faceOffsets[f]
	return o[0], o[1], o[2]
}

// Normal returns the outward unit normal.
func (f Face) Normal() mgl32.Vec3 {
	o := faceOffsets[f]
	return mgl32.Vec3{float32(o[0]), float32(o[1]), float32(o[2])}
}

func (f Face) Opposite() Face {
	return f ^ 1
}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "face(?)"
}

// FaceFromOffset maps a unit axis offset to its face.
func FaceFromOffset(dx, dy, dz int) (Face, bool) {
	for f, o := range faceOffsets {
		if o == [3]int{dx, dy, dz} {
			return Face(f), true
		}
	}
	return 0, false
}

// FaceFromNormal maps an axis-aligned normal to its face, tolerating float noise.
func FaceFromNormal(n mgl32.Vec3) (Face, bool) {
	return FaceFromOffset(roundAxis(n[0]), roundAxis(n[1]), roundAxis(n[2]))
}

func roundAxis(v float32) int {
	switch {
	case v > 0.5:
		return 1
	case v < -0.5:
		return -1
	}
	return 0
}

// ParseFace accepts logical names and the compass names used by block
// model files (up, down, north, south, west, east).
func ParseFace(s string) (Face, bool) {
	switch strings.ToLower(s) {
	case "front", "south":
		return FaceFront, true
	case "back", "north":
		return FaceBack, true
	case "top", "up":
		return FaceTop, true
	case "bottom", "down":
		return FaceBottom, true
	case "right", "east":
		return FaceRight, true
	case "left", "west":
		return FaceLeft, true
	}
	return 0, false
}

// Direction is the facing of an oriented block.
type Direction uint8

const (
	DirDown Direction = iota
	DirUp
	DirNorth // -Z
	DirSouth // +Z
	DirWest  // -X
	DirEast  // +X
)

var directionNames = [6]string{"down", "up", "north", "south", "west", "east"}

var directionOffsets = [6][3]int{
	DirDown:  {0, -1, 0},
	DirUp:    {0, 1, 0},
	DirNorth: {0, 0, -1},
	DirSouth: {0, 0, 1},
	DirWest:  {-1, 0, 0},
	DirEast:  {1, 0, 0},
}

func (d Direction) Horizontal() bool {
	return d >= DirNorth && d <= DirEast
}

func (d Direction) Offset() (dx, dy, dz int) {
	o := directionOffsets[d]
	return o[0], o[1], o[2]
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "direction(?)"
}

func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(s)
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return 0, false
}

// DirectionSet is a bitset of allowed facings.
type DirectionSet uint8

const (
	AllDirections        DirectionSet = 0b111111
	HorizontalDirections DirectionSet = 1<<DirNorth | 1<<DirSouth | 1<<DirWest | 1<<DirEast
)

func DirectionsOf(ds ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range ds {
		s |= 1 << d
	}
	return s
}

// Has reports whether d is allowed. An empty set allows only north.
func (s DirectionSet) Has(d Direction) bool {
	if s == 0 {
		return d == DirNorth
	}
	return s&(1<<d) != 0
}

// First returns the lowest allowed direction, north for an empty set.
func (s DirectionSet) First() Direction {
	for d := DirDown; d <= DirEast; d++ {
		if s&(1<<d) != 0 {
			return d
		}
	}
	return DirNorth
}

// Shape selects the geometry provider of a block type.
type Shape uint8

const (
	ShapeCube Shape = iota
	ShapeStairs
)

func (s Shape) String() string {
	switch s {
	case ShapeCube:
		return "cube"
	case ShapeStairs:
		return "stairs"
	}
	return "shape(?)"
}

func ParseShape(s string) (Shape, bool) {
	switch strings.ToLower(s) {
	case "", "cube":
		return ShapeCube, true
	case "stairs":
		return ShapeStairs, true
	}
	return 0, false
}
