// Package gpu describes the small set of GPU operations the atlas, mesher
// and batcher depend on. The OpenGL implementation lives in glgpu; Recorder
// is an in-memory implementation for headless tools and tests.
package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Opaque GPU object names. Zero is never a valid handle.
type (
	Texture     uint32
	Buffer      uint32
	VertexArray uint32
	Program     uint32
)

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

type Wrap int

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
)

// TextureParams controls sampling of an uploaded 2D texture.
type TextureParams struct {
	MinFilter Filter
	MagFilter Filter
	Wrap      Wrap
	Mipmaps   bool
}

// AtlasParams are the sampling parameters used for baked atlases: crisp
// magnification, mip-mapped minification and clamped edges so neighbouring
// sub-images do not bleed into each other.
func AtlasParams() TextureParams {
	return TextureParams{
		MinFilter: FilterNearestMipmapLinear,
		MagFilter: FilterNearest,
		Wrap:      WrapClampToEdge,
		Mipmaps:   true,
	}
}

type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
	StreamDraw
)

// AttribLayout binds a float attribute slot to a buffer. Divisor 0 advances
// per vertex, 1 advances per instance.
type AttribLayout struct {
	Slot    uint32
	Size    int32 // components, 1..4
	Stride  int32 // bytes
	Offset  int   // bytes
	Divisor uint32
}

// Device is the abstract GPU capability set. Calls are expected on the
// thread that owns the graphics context.
type Device interface {
	CreateTexture(width, height int, pix []byte, params TextureParams) (Texture, error)
	DeleteTexture(tex Texture)
	BindTexture(unit uint32, tex Texture)

	CreateVertexArray() (VertexArray, error)
	DeleteVertexArray(vao VertexArray)
	BindVertexArray(vao VertexArray)

	CreateBuffer(target BufferTarget, data []byte, usage Usage) (Buffer, error)
	// ResizeBuffer reallocates the storage of buf to size bytes. Previous
	// contents are undefined afterwards.
	ResizeBuffer(buf Buffer, target BufferTarget, size int, usage Usage) error
	UpdateBuffer(buf Buffer, target BufferTarget, offset int, data []byte)
	DeleteBuffer(buf Buffer)

	VertexAttrib(vao VertexArray, buf Buffer, layout AttribLayout)
	SetIndexBuffer(vao VertexArray, buf Buffer)

	// SetBlend toggles alpha blending. While enabled, depth writes are off.
	SetBlend(enabled bool)

	UseProgram(p Program)
	SetUniformMat4(p Program, name string, m mgl32.Mat4)
	SetUniformInt(p Program, name string, v int32)

	// DrawIndexedInstanced draws triangles from the bound vertex array using
	// uint32 indices.
	DrawIndexedInstanced(indexCount, instances int)
}

// Float32Bytes returns the bytes backing f without copying.
func Float32Bytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

// Uint32Bytes returns the bytes backing u without copying.
func Uint32Bytes(u []uint32) []byte {
	if len(u) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&u[0])), len(u)*4)
}

// BytesFloat32 decodes native-endian float32 values from b.
func BytesFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(b[i*4:]))
	}
	return out
}

// BytesUint32 decodes native-endian uint32 values from b.
func BytesUint32(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.NativeEndian.Uint32(b[i*4:])
	}
	return out
}
