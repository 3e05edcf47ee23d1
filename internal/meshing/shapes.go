package meshing

import (
	"math"

	"voxelkit/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Models are built around the origin in [-0.5, 0.5] with their front on
// -Z, which is the north facing. Other facings rotate the model.

// faceBasis gives the in-plane right and up axes of each face as seen from
// outside, so that right x up is the outward normal.
var faceBasis = [6]struct{ right, up mgl32.Vec3 }{
	world.FaceFront:  {mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	world.FaceBack:   {mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	world.FaceTop:    {mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	world.FaceBottom: {mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	world.FaceRight:  {mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	world.FaceLeft:   {mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
}

// boxFace returns face f of the box [min, max]. Base UVs follow the
// position inside the unit cell so partial faces sample the matching part
// of the texture.
func boxFace(f world.Face, min, max mgl32.Vec3) quad {
	n := f.Normal()
	basis := faceBasis[f]
	r0, r1 := span(min, max, basis.right)
	u0, u1 := span(min, max, basis.up)

	var plane mgl32.Vec3
	for i := 0; i < 3; i++ {
		switch {
		case n[i] > 0:
			plane[i] = max[i]
		case n[i] < 0:
			plane[i] = min[i]
		}
	}
	corner := func(r, u float32) vertex {
		p := plane.Add(basis.right.Mul(r)).Add(basis.up.Mul(u))
		return vertex{pos: p, u: r + 0.5, v: 0.5 - u}
	}
	return quad{
		verts:  [4]vertex{corner(r0, u0), corner(r1, u0), corner(r1, u1), corner(r0, u1)},
		normal: n,
	}
}

func span(min, max, axis mgl32.Vec3) (lo, hi float32) {
	lo, hi = min.Dot(axis), max.Dot(axis)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

const snapGrid = 4096

func snap(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		v[i] = float32(math.Round(float64(v[i])*snapGrid) / snapGrid)
	}
	return v
}

func (q quad) rotated(m mgl32.Mat3) quad {
	out := q
	for i := range out.verts {
		out.verts[i].pos = snap(m.Mul3x1(q.verts[i].pos))
	}
	out.normal = snap(m.Mul3x1(q.normal))
	return out
}

// facingRotation turns the model front (-Z) towards d.
func facingRotation(d world.Direction) mgl32.Mat3 {
	switch d {
	case world.DirSouth:
		return mgl32.Rotate3DY(math.Pi)
	case world.DirWest:
		return mgl32.Rotate3DY(math.Pi / 2)
	case world.DirEast:
		return mgl32.Rotate3DY(-math.Pi / 2)
	case world.DirUp:
		return mgl32.Rotate3DX(math.Pi / 2)
	case world.DirDown:
		return mgl32.Rotate3DX(-math.Pi / 2)
	}
	return mgl32.Ident3()
}

// facePart is a quad ready to place in a cell. face is the model face it
// came from and selects the block texture.
type facePart struct {
	face world.Face
	quad quad
}

type stairPart int

const (
	stairBottom stairPart = iota
	stairTreadLower
	stairTreadUpper
	stairBack
	stairFrontLower
	stairRiser
	stairLeftLower
	stairLeftUpper
	stairRightLower
	stairRightUpper
)

// stairsFaceParts lists, per horizontal facing, the parts drawn when a
// world face is visible. The step side is the facing direction.
var stairsFaceParts = map[world.Direction][6][]stairPart{
	world.DirNorth: {
		world.FaceFront:  {stairBack},
		world.FaceBack:   {stairFrontLower, stairRiser},
		world.FaceTop:    {stairTreadLower, stairTreadUpper},
		world.FaceBottom: {stairBottom},
		world.FaceRight:  {stairRightLower, stairRightUpper},
		world.FaceLeft:   {stairLeftLower, stairLeftUpper},
	},
	world.DirSouth: {
		world.FaceFront:  {stairFrontLower, stairRiser},
		world.FaceBack:   {stairBack},
		world.FaceTop:    {stairTreadLower, stairTreadUpper},
		world.FaceBottom: {stairBottom},
		world.FaceRight:  {stairLeftLower, stairLeftUpper},
		world.FaceLeft:   {stairRightLower, stairRightUpper},
	},
	world.DirWest: {
		world.FaceFront:  {stairLeftLower, stairLeftUpper},
		world.FaceBack:   {stairRightLower, stairRightUpper},
		world.FaceTop:    {stairTreadLower, stairTreadUpper},
		world.FaceBottom: {stairBottom},
		world.FaceRight:  {stairBack},
		world.FaceLeft:   {stairFrontLower, stairRiser},
	},
	world.DirEast: {
		world.FaceFront:  {stairRightLower, stairRightUpper},
		world.FaceBack:   {stairLeftLower, stairLeftUpper},
		world.FaceTop:    {stairTreadLower, stairTreadUpper},
		world.FaceBottom: {stairBottom},
		world.FaceRight:  {stairFrontLower, stairRiser},
		world.FaceLeft:   {stairBack},
	},
}

// stairsModel is the north-facing stairs: a lower slab and an upper step
// on the back half.
func stairsModel() [10]facePart {
	lowerMin, lowerMax := mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0, 0.5}
	upperMin, upperMax := mgl32.Vec3{-0.5, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5}
	fullMax := mgl32.Vec3{0.5, 0.5, 0.5}
	treadMax := mgl32.Vec3{0.5, 0, 0}

	part := func(f world.Face, min, max mgl32.Vec3) facePart {
		return facePart{face: f, quad: boxFace(f, min, max)}
	}
	return [10]facePart{
		stairBottom:     part(world.FaceBottom, lowerMin, lowerMax),
		stairTreadLower: part(world.FaceTop, lowerMin, treadMax),
		stairTreadUpper: part(world.FaceTop, upperMin, upperMax),
		stairBack:       part(world.FaceFront, lowerMin, fullMax),
		stairFrontLower: part(world.FaceBack, lowerMin, lowerMax),
		stairRiser:      part(world.FaceBack, upperMin, upperMax),
		stairLeftLower:  part(world.FaceLeft, lowerMin, lowerMax),
		stairLeftUpper:  part(world.FaceLeft, upperMin, upperMax),
		stairRightLower: part(world.FaceRight, lowerMin, lowerMax),
		stairRightUpper: part(world.FaceRight, upperMin, upperMax),
	}
}

// Parts indexed by facing, then world face. Stairs only turn horizontally;
// other facings reuse north.
var (
	cubeParts   [6][6][]facePart
	stairsParts [6][6][]facePart
)

func init() {
	cubeMin, cubeMax := mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}
	for d := world.DirDown; d <= world.DirEast; d++ {
		rot := facingRotation(d)
		inv := rot.Transpose()
		for _, wf := range world.Faces {
			mf, _ := world.FaceFromNormal(inv.Mul3x1(wf.Normal()))
			cubeParts[d][wf] = []facePart{{face: mf, quad: boxFace(mf, cubeMin, cubeMax).rotated(rot)}}
		}
	}

	model := stairsModel()
	for d := world.DirDown; d <= world.DirEast; d++ {
		table, rot := stairsFaceParts[d], facingRotation(d)
		if !d.Horizontal() {
			table, rot = stairsFaceParts[world.DirNorth], mgl32.Ident3()
		}
		for _, wf := range world.Faces {
			for _, p := range table[wf] {
				src := model[p]
				stairsParts[d][wf] = append(stairsParts[d][wf], facePart{face: src.face, quad: src.quad.rotated(rot)})
			}
		}
	}
}

// partsFor returns the quads of b's shape visible through world face f.
// A facing the type does not allow is treated as its first allowed one.
func partsFor(b world.BlockInstance, f world.Face) []facePart {
	d := b.Facing
	if allowed := b.Type.Directions(); !allowed.Has(d) {
		d = allowed.First()
	}
	if b.Type.Shape() == world.ShapeStairs {
		return stairsParts[d][f]
	}
	return cubeParts[d][f]
}
