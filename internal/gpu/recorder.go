package gpu

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInjected is returned by a Recorder when a failure was requested.
var ErrInjected = errors.New("gpu: injected failure")

// RecordedTexture is the state a Recorder keeps for a texture.
type RecordedTexture struct {
	Width, Height int
	Pix           []byte
	Params        TextureParams
}

// RecordedBuffer is the state a Recorder keeps for a buffer.
type RecordedBuffer struct {
	Target BufferTarget
	Usage  Usage
	Data   []byte
	Resets int // number of ResizeBuffer calls
}

type recordedVertexArray struct {
	attribs map[uint32]struct {
		buf    Buffer
		layout AttribLayout
	}
	index Buffer
}

// DrawCall describes one DrawIndexedInstanced call.
type DrawCall struct {
	VertexArray VertexArray
	Texture     Texture
	Program     Program
	Blend       bool
	IndexCount  int
	Instances   int
	// InstanceData holds the per-instance floats that were in the instance
	// buffer at draw time, Instances records long.
	InstanceData []float32
}

// Recorder is an in-memory Device. It keeps every object it creates so
// tests and headless tools can inspect uploads and draws.
type Recorder struct {
	mu   sync.Mutex
	next uint32

	textures map[Texture]*RecordedTexture
	buffers  map[Buffer]*RecordedBuffer
	vaos     map[VertexArray]*recordedVertexArray

	boundTexture Texture
	boundVAO     VertexArray
	program      Program
	blend        bool
	uniforms     map[string]any

	Draws            []DrawCall
	TextureBinds     int
	VertexArrayBinds int
	InvalidDeletes   int

	// FailTextures and FailBuffers make the matching Create calls fail.
	FailTextures bool
	FailBuffers  bool
}

func NewRecorder() *Recorder {
	return &Recorder{
		textures: make(map[Texture]*RecordedTexture),
		buffers:  make(map[Buffer]*RecordedBuffer),
		vaos:     make(map[VertexArray]*recordedVertexArray),
		uniforms: make(map[string]any),
	}
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) CreateTexture(width, height int, pix []byte, params TextureParams) (Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailTextures {
		return 0, ErrInjected
	}
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return 0, fmt.Errorf("gpu: invalid texture upload %dx%d with %d bytes", width, height, len(pix))
	}
	t := Texture(r.handle())
	r.textures[t] = &RecordedTexture{
		Width:  width,
		Height: height,
		Pix:    append([]byte(nil), pix...),
		Params: params,
	}
	return t, nil
}

func (r *Recorder) DeleteTexture(tex Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.textures[tex]; !ok {
		r.InvalidDeletes++
		log.Printf("gpu: delete of unknown texture %d", tex)
		return
	}
	delete(r.textures, tex)
}

func (r *Recorder) BindTexture(unit uint32, tex Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if unit == 0 {
		r.boundTexture = tex
	}
	r.TextureBinds++
}

func (r *Recorder) CreateVertexArray() (VertexArray, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailBuffers {
		return 0, ErrInjected
	}
	v := VertexArray(r.handle())
	r.vaos[v] = &recordedVertexArray{attribs: make(map[uint32]struct {
		buf    Buffer
		layout AttribLayout
	})}
	return v, nil
}

func (r *Recorder) DeleteVertexArray(vao VertexArray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vaos[vao]; !ok {
		r.InvalidDeletes++
		log.Printf("gpu: delete of unknown vertex array %d", vao)
		return
	}
	delete(r.vaos, vao)
	if r.boundVAO == vao {
		r.boundVAO = 0
	}
}

func (r *Recorder) BindVertexArray(vao VertexArray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundVAO = vao
	r.VertexArrayBinds++
}

func (r *Recorder) CreateBuffer(target BufferTarget, data []byte, usage Usage) (Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailBuffers {
		return 0, ErrInjected
	}
	b := Buffer(r.handle())
	r.buffers[b] = &RecordedBuffer{Target: target, Usage: usage, Data: append([]byte(nil), data...)}
	return b, nil
}

func (r *Recorder) ResizeBuffer(buf Buffer, target BufferTarget, size int, usage Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, ok := r.buffers[buf]
	if !ok {
		return fmt.Errorf("gpu: resize of unknown buffer %d", buf)
	}
	rb.Target = target
	rb.Usage = usage
	rb.Data = make([]byte, size)
	rb.Resets++
	return nil
}

func (r *Recorder) UpdateBuffer(buf Buffer, target BufferTarget, offset int, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, ok := r.buffers[buf]
	if !ok {
		log.Printf("gpu: update of unknown buffer %d", buf)
		return
	}
	if offset+len(data) > len(rb.Data) {
		log.Printf("gpu: update of buffer %d overflows storage (%d > %d)", buf, offset+len(data), len(rb.Data))
		return
	}
	copy(rb.Data[offset:], data)
}

func (r *Recorder) DeleteBuffer(buf Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buffers[buf]; !ok {
		r.InvalidDeletes++
		log.Printf("gpu: delete of unknown buffer %d", buf)
		return
	}
	delete(r.buffers, buf)
}

func (r *Recorder) VertexAttrib(vao VertexArray, buf Buffer, layout AttribLayout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vaos[vao]
	if !ok {
		return
	}
	v.attribs[layout.Slot] = struct {
		buf    Buffer
		layout AttribLayout
	}{buf, layout}
}

func (r *Recorder) SetIndexBuffer(vao VertexArray, buf Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vaos[vao]; ok {
		v.index = buf
	}
}

func (r *Recorder) SetBlend(enabled bool) {
	r.mu.Lock()
	r.blend = enabled
	r.mu.Unlock()
}

func (r *Recorder) UseProgram(p Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

func (r *Recorder) SetUniformMat4(p Program, name string, m mgl32.Mat4) {
	r.mu.Lock()
	r.uniforms[name] = m
	r.mu.Unlock()
}

func (r *Recorder) SetUniformInt(p Program, name string, v int32) {
	r.mu.Lock()
	r.uniforms[name] = v
	r.mu.Unlock()
}

func (r *Recorder) DrawIndexedInstanced(indexCount, instances int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := DrawCall{
		VertexArray: r.boundVAO,
		Texture:     r.boundTexture,
		Program:     r.program,
		Blend:       r.blend,
		IndexCount:  indexCount,
		Instances:   instances,
	}
	if v, ok := r.vaos[r.boundVAO]; ok {
		call.InstanceData = r.instanceData(v, instances)
	}
	r.Draws = append(r.Draws, call)
}

// instanceData copies the per-instance records from the lowest instanced
// attribute slot of v.
func (r *Recorder) instanceData(v *recordedVertexArray, instances int) []float32 {
	var (
		found  bool
		slot   uint32
		buf    Buffer
		stride int32
	)
	for s, a := range v.attribs {
		if a.layout.Divisor == 0 {
			continue
		}
		if !found || s < slot {
			found, slot, buf, stride = true, s, a.buf, a.layout.Stride
		}
	}
	if !found {
		return nil
	}
	rb, ok := r.buffers[buf]
	if !ok {
		return nil
	}
	n := min(int(stride)*instances, len(rb.Data))
	return BytesFloat32(rb.Data[:n])
}

// Texture returns the recorded state of tex.
func (r *Recorder) Texture(tex Texture) (*RecordedTexture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.textures[tex]
	return t, ok
}

// Buffer returns the recorded state of buf.
func (r *Recorder) Buffer(buf Buffer) (*RecordedBuffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[buf]
	return b, ok
}

// Uniform returns the last value set for a uniform name.
func (r *Recorder) Uniform(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.uniforms[name]
	return v, ok
}

// Live reports how many textures, buffers and vertex arrays are alive.
func (r *Recorder) Live() (textures, buffers, vertexArrays int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures), len(r.buffers), len(r.vaos)
}

// ResetFrame clears the recorded draw calls and bind counters.
func (r *Recorder) ResetFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Draws = r.Draws[:0]
	r.TextureBinds = 0
	r.VertexArrayBinds = 0
}
