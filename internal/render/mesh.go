// Package render draws many copies of shared meshes with one instanced draw
// call per mesh and atlas region.
package render

import (
	"errors"
	"fmt"

	"voxelkit/internal/atlas"
	"voxelkit/internal/config"
	"voxelkit/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex attribute slots shared with the shaders.
const (
	attribPosition = 0
	attribUV       = 1
	attribNormal   = 2
	attribModel    = 3 // mat4 spans slots 3..6
	attribUVOffset = 7
	attribUVScale  = 8
)

const (
	// InstanceFloats is the size of one instance record: a column-major
	// model matrix, the region offset and the region scale.
	InstanceFloats = 16 + 2 + 2
	instanceStride = InstanceFloats * 4
)

var ErrReleased = errors.New("mesh already released")

// MeshData is an indexed triangle list. UVs are in the base [0,1] space of
// whatever they are mapped to.
type MeshData struct {
	Positions []float32 // xyz per vertex
	UVs       []float32 // uv per vertex
	Normals   []float32 // xyz per vertex
	Indices   []uint32
}

func (d MeshData) Vertices() int {
	return len(d.Positions) / 3
}

func (d MeshData) validate() error {
	n := d.Vertices()
	switch {
	case n == 0 || len(d.Indices) == 0:
		return errors.New("empty mesh")
	case len(d.Positions)%3 != 0:
		return fmt.Errorf("position count %d is not a multiple of 3", len(d.Positions))
	case len(d.UVs) != n*2:
		return fmt.Errorf("expected %d uv floats, got %d", n*2, len(d.UVs))
	case len(d.Normals) != n*3:
		return fmt.Errorf("expected %d normal floats, got %d", n*3, len(d.Normals))
	case len(d.Indices)%3 != 0:
		return fmt.Errorf("index count %d is not a multiple of 3", len(d.Indices))
	}
	for _, idx := range d.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d out of range for %d vertices", idx, n)
		}
	}
	return nil
}

// Mesh owns the GPU buffers of one MeshData plus a per-instance buffer that
// grows on demand and never shrinks.
type Mesh struct {
	dev gpu.Device
	vao gpu.VertexArray

	positions, uvs, normals, indices gpu.Buffer
	instances                        gpu.Buffer

	indexCount int
	capacity   int
	scratch    []float32
	released   bool
}

// NewMesh uploads data. capacity is the initial number of instance records;
// values below one use the configured default.
func NewMesh(dev gpu.Device, data MeshData, capacity int) (*Mesh, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh data: %w", err)
	}
	if capacity < 1 {
		capacity = config.GetInitialInstanceCapacity()
	}

	m := &Mesh{dev: dev, indexCount: len(data.Indices), capacity: capacity}
	if err := m.upload(data); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *Mesh) upload(data MeshData) error {
	var err error
	if m.vao, err = m.dev.CreateVertexArray(); err != nil {
		return fmt.Errorf("failed to create vertex array: %w", err)
	}

	vertex := func(slot uint32, size int32, values []float32) (gpu.Buffer, error) {
		buf, err := m.dev.CreateBuffer(gpu.ArrayBuffer, gpu.Float32Bytes(values), gpu.StaticDraw)
		if err != nil {
			return 0, fmt.Errorf("failed to create vertex buffer %d: %w", slot, err)
		}
		m.dev.VertexAttrib(m.vao, buf, gpu.AttribLayout{Slot: slot, Size: size, Stride: size * 4})
		return buf, nil
	}
	if m.positions, err = vertex(attribPosition, 3, data.Positions); err != nil {
		return err
	}
	if m.uvs, err = vertex(attribUV, 2, data.UVs); err != nil {
		return err
	}
	if m.normals, err = vertex(attribNormal, 3, data.Normals); err != nil {
		return err
	}

	if m.indices, err = m.dev.CreateBuffer(gpu.ElementArrayBuffer, gpu.Uint32Bytes(data.Indices), gpu.StaticDraw); err != nil {
		return fmt.Errorf("failed to create index buffer: %w", err)
	}
	m.dev.SetIndexBuffer(m.vao, m.indices)

	if m.instances, err = m.dev.CreateBuffer(gpu.ArrayBuffer, make([]byte, m.capacity*instanceStride), gpu.DynamicDraw); err != nil {
		return fmt.Errorf("failed to create instance buffer: %w", err)
	}
	for col := 0; col < 4; col++ {
		m.dev.VertexAttrib(m.vao, m.instances, gpu.AttribLayout{
			Slot: attribModel + uint32(col), Size: 4, Stride: instanceStride, Offset: col * 16, Divisor: 1,
		})
	}
	m.dev.VertexAttrib(m.vao, m.instances, gpu.AttribLayout{
		Slot: attribUVOffset, Size: 2, Stride: instanceStride, Offset: 64, Divisor: 1,
	})
	m.dev.VertexAttrib(m.vao, m.instances, gpu.AttribLayout{
		Slot: attribUVScale, Size: 2, Stride: instanceStride, Offset: 72, Divisor: 1,
	})
	return nil
}

// VertexArray is the handle to bind before drawing.
func (m *Mesh) VertexArray() gpu.VertexArray {
	return m.vao
}

func (m *Mesh) IndexCount() int {
	return m.indexCount
}

// Capacity is the number of instance records the buffer can hold.
func (m *Mesh) Capacity() int {
	return m.capacity
}

func (m *Mesh) Released() bool {
	return m.released
}

// WriteInstances fills the instance buffer with one record per transform,
// all sampling region, and returns how many were written. Only the written
// records are uploaded.
func (m *Mesh) WriteInstances(transforms []mgl32.Mat4, region atlas.TextureInfo) (int, error) {
	if m.released {
		return 0, ErrReleased
	}
	n := len(transforms)
	if n == 0 {
		return 0, nil
	}
	if n > m.capacity {
		if err := m.dev.ResizeBuffer(m.instances, gpu.ArrayBuffer, n*instanceStride, gpu.DynamicDraw); err != nil {
			return 0, fmt.Errorf("failed to grow instance buffer to %d: %w", n, err)
		}
		m.capacity = n
	}

	need := n * InstanceFloats
	if cap(m.scratch) < need {
		m.scratch = make([]float32, need)
	}
	data := m.scratch[:need]
	off, scale := region.Offset(), region.Scale()
	for i, t := range transforms {
		rec := data[i*InstanceFloats : (i+1)*InstanceFloats]
		copy(rec, t[:])
		rec[16], rec[17] = off[0], off[1]
		rec[18], rec[19] = scale[0], scale[1]
	}
	m.dev.UpdateBuffer(m.instances, gpu.ArrayBuffer, 0, gpu.Float32Bytes(data))
	return n, nil
}

// Release frees the GPU objects. Later calls do nothing.
func (m *Mesh) Release() {
	if m == nil || m.released {
		return
	}
	m.released = true
	for _, buf := range []gpu.Buffer{m.positions, m.uvs, m.normals, m.indices, m.instances} {
		if buf != 0 {
			m.dev.DeleteBuffer(buf)
		}
	}
	if m.vao != 0 {
		m.dev.DeleteVertexArray(m.vao)
	}
	m.scratch = nil
}

// Quad returns a unit square in the XY plane facing +Z, centred on the
// origin. It is handy for sprites and atlas previews.
func Quad() MeshData {
	return MeshData{
		Positions: []float32{-0.5, -0.5, 0, 0.5, -0.5, 0, 0.5, 0.5, 0, -0.5, 0.5, 0},
		UVs:       []float32{0, 1, 1, 1, 1, 0, 0, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}
