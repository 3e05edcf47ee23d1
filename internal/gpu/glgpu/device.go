// Package glgpu implements gpu.Device on top of OpenGL 4.1 core.
package glgpu

import (
	"fmt"
	"log"

	"voxelkit/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Device issues GL calls directly. It must be used from the thread that
// owns the context.
type Device struct {
	uniforms map[gpu.Program]map[string]int32
}

// New returns a device for the current context. gl.Init must already have
// been called.
func New() *Device {
	return &Device{uniforms: make(map[gpu.Program]map[string]int32)}
}

func glCheckError(label string) error {
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("gl error %s: 0x%x", label, err)
	}
	return nil
}

func filter(f gpu.Filter) int32 {
	switch f {
	case gpu.FilterLinear:
		return gl.LINEAR
	case gpu.FilterNearestMipmapLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	case gpu.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.NEAREST
	}
}

func wrap(w gpu.Wrap) int32 {
	if w == gpu.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func target(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func usage(u gpu.Usage) uint32 {
	switch u {
	case gpu.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case gpu.StreamDraw:
		return gl.STREAM_DRAW
	default:
		return gl.STATIC_DRAW
	}
}

func (d *Device) CreateTexture(width, height int, pix []byte, params gpu.TextureParams) (gpu.Texture, error) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return 0, fmt.Errorf("invalid texture upload %dx%d with %d bytes", width, height, len(pix))
	}

	// Drain stale errors so the check below only reports this upload.
	for gl.GetError() != gl.NO_ERROR {
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap(params.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap(params.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter(params.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter(params.MagFilter))

	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		int32(width),
		int32(height),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(pix),
	)
	if params.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glCheckError("texture upload"); err != nil {
		gl.DeleteTextures(1, &texture)
		return 0, err
	}
	return gpu.Texture(texture), nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) BindTexture(unit uint32, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

func (d *Device) CreateVertexArray() (gpu.VertexArray, error) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if vao == 0 {
		return 0, fmt.Errorf("glGenVertexArrays returned 0")
	}
	return gpu.VertexArray(vao), nil
}

func (d *Device) DeleteVertexArray(vao gpu.VertexArray) {
	id := uint32(vao)
	gl.DeleteVertexArrays(1, &id)
}

func (d *Device) BindVertexArray(vao gpu.VertexArray) {
	gl.BindVertexArray(uint32(vao))
}

func (d *Device) CreateBuffer(t gpu.BufferTarget, data []byte, u gpu.Usage) (gpu.Buffer, error) {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	if vbo == 0 {
		return 0, fmt.Errorf("glGenBuffers returned 0")
	}
	if t == gpu.ElementArrayBuffer {
		// Element bindings are VAO state; keep them off whatever is bound.
		gl.BindVertexArray(0)
	}
	gl.BindBuffer(target(t), vbo)
	if len(data) > 0 {
		gl.BufferData(target(t), len(data), gl.Ptr(data), usage(u))
	} else {
		gl.BufferData(target(t), 0, nil, usage(u))
	}
	gl.BindBuffer(target(t), 0)
	if err := glCheckError("buffer create"); err != nil {
		gl.DeleteBuffers(1, &vbo)
		return 0, err
	}
	return gpu.Buffer(vbo), nil
}

func (d *Device) ResizeBuffer(buf gpu.Buffer, t gpu.BufferTarget, size int, u gpu.Usage) error {
	gl.BindBuffer(target(t), uint32(buf))
	gl.BufferData(target(t), size, nil, usage(u))
	gl.BindBuffer(target(t), 0)
	return glCheckError("buffer resize")
}

func (d *Device) UpdateBuffer(buf gpu.Buffer, t gpu.BufferTarget, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(target(t), uint32(buf))
	gl.BufferSubData(target(t), offset, len(data), gl.Ptr(data))
	gl.BindBuffer(target(t), 0)
}

func (d *Device) DeleteBuffer(buf gpu.Buffer) {
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) VertexAttrib(vao gpu.VertexArray, buf gpu.Buffer, l gpu.AttribLayout) {
	gl.BindVertexArray(uint32(vao))
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.EnableVertexAttribArray(l.Slot)
	gl.VertexAttribPointer(l.Slot, l.Size, gl.FLOAT, false, l.Stride, gl.PtrOffset(l.Offset))
	gl.VertexAttribDivisor(l.Slot, l.Divisor)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) SetIndexBuffer(vao gpu.VertexArray, buf gpu.Buffer) {
	gl.BindVertexArray(uint32(vao))
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
	gl.BindVertexArray(0)
}

func (d *Device) SetBlend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		return
	}
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
}

func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

func (d *Device) location(p gpu.Program, name string) int32 {
	locs, ok := d.uniforms[p]
	if !ok {
		locs = make(map[string]int32)
		d.uniforms[p] = locs
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	if loc < 0 {
		log.Printf("glgpu: uniform %q not found in program %d", name, p)
	}
	locs[name] = loc
	return loc
}

func (d *Device) SetUniformMat4(p gpu.Program, name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(d.location(p, name), 1, false, &m[0])
}

func (d *Device) SetUniformInt(p gpu.Program, name string, v int32) {
	gl.Uniform1i(d.location(p, name), v)
}

func (d *Device) DrawIndexedInstanced(indexCount, instances int) {
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil, int32(instances))
}

// DeleteProgram releases a program created by CompileProgram.
func (d *Device) DeleteProgram(p gpu.Program) {
	delete(d.uniforms, p)
	gl.DeleteProgram(uint32(p))
}

var _ gpu.Device = (*Device)(nil)
