package render

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"voxelkit/internal/atlas"
	"voxelkit/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

type fixedCamera struct {
	view, proj mgl32.Mat4
}

func (c fixedCamera) ViewMatrix() mgl32.Mat4       { return c.view }
func (c fixedCamera) ProjectionMatrix() mgl32.Mat4 { return c.proj }

var testCamera = fixedCamera{
	view: mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
	proj: mgl32.Perspective(mgl32.DegToRad(70), 1.5, 0.1, 100),
}

func newTestMesh(t *testing.T, dev gpu.Device, capacity int) *Mesh {
	t.Helper()
	m, err := NewMesh(dev, Quad(), capacity)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return m
}

func region(tex gpu.Texture, u0, v0, u1, v1 float32) *atlas.TextureInfo {
	return &atlas.TextureInfo{Texture: tex, U0: u0, V0: v0, U1: u1, V1: v1}
}

func TestRenderOneDrawPerMeshAndRegion(t *testing.T) {
	dev := gpu.NewRecorder()
	a := newTestMesh(t, dev, 4)
	b := newTestMesh(t, dev, 4)
	grass := region(1, 0, 0, 0.5, 0.5)
	stone := region(1, 0.5, 0, 1, 0.5)
	other := region(2, 0, 0, 1, 1)

	batch := NewBatch()
	for i := 0; i < 10; i++ {
		batch.Add(Request{Mesh: a, Region: grass, Transform: mgl32.Translate3D(float32(i), 0, 0)})
	}
	for i := 0; i < 3; i++ {
		batch.Add(Request{Mesh: a, Region: stone, Transform: mgl32.Ident4()})
		batch.Add(Request{Mesh: b, Region: grass, Transform: mgl32.Ident4()})
	}
	batch.Add(Request{Mesh: b, Region: other, Transform: mgl32.Ident4()})

	stats := NewRenderer(dev, 9).Render(testCamera, batch)

	if stats.DrawCalls != 4 || len(dev.Draws) != 4 {
		t.Fatalf("expected 4 draw calls, got stats=%d recorded=%d", stats.DrawCalls, len(dev.Draws))
	}
	if stats.Instances != 17 {
		t.Errorf("expected 17 instances, got %d", stats.Instances)
	}
	if stats.AtlasBinds != 2 {
		t.Errorf("expected 2 atlas binds, got %d", stats.AtlasBinds)
	}
	// atlas 2 starts with b, which is still bound
	if stats.MeshBinds != 2 {
		t.Errorf("expected 2 mesh binds, got %d", stats.MeshBinds)
	}

	want := []struct {
		vao       gpu.VertexArray
		tex       gpu.Texture
		instances int
	}{
		{a.VertexArray(), 1, 10},
		{a.VertexArray(), 1, 3},
		{b.VertexArray(), 1, 3},
		{b.VertexArray(), 2, 1},
	}
	for i, w := range want {
		d := dev.Draws[i]
		if d.VertexArray != w.vao || d.Texture != w.tex || d.Instances != w.instances {
			t.Errorf("draw %d: got vao=%d tex=%d instances=%d, expected %d/%d/%d",
				i, d.VertexArray, d.Texture, d.Instances, w.vao, w.tex, w.instances)
		}
		if d.IndexCount != 6 {
			t.Errorf("draw %d: expected 6 indices, got %d", i, d.IndexCount)
		}
		if d.Program != 9 {
			t.Errorf("draw %d: expected program 9, got %d", i, d.Program)
		}
	}

	if v, ok := dev.Uniform("view"); !ok || v.(mgl32.Mat4) != testCamera.view {
		t.Errorf("view uniform not set")
	}
}

func TestInstanceRecordLayout(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newTestMesh(t, dev, 1)
	r := region(3, 0.25, 0.5, 0.75, 1)

	batch := NewBatch()
	batch.Add(Request{Mesh: m, Region: r, Transform: mgl32.Translate3D(1, 2, 3)})
	batch.Add(Request{Mesh: m, Region: r, Transform: mgl32.Translate3D(4, 5, 6)})
	NewRenderer(dev, 1).Render(testCamera, batch)

	data := dev.Draws[0].InstanceData
	if len(data) != 2*InstanceFloats {
		t.Fatalf("expected %d floats, got %d", 2*InstanceFloats, len(data))
	}
	second := data[InstanceFloats:]
	if second[12] != 4 || second[13] != 5 || second[14] != 6 {
		t.Errorf("second record should hold the second transform, got translation %v", second[12:15])
	}
	if data[16] != 0.25 || data[17] != 0.5 || data[18] != 0.5 || data[19] != 0.5 {
		t.Errorf("unexpected region offset/scale %v", data[16:20])
	}
}

func TestBatchDropsInvalidRequests(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newTestMesh(t, dev, 1)
	released := newTestMesh(t, dev, 1)
	released.Release()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	batch := NewBatch()
	r := region(1, 0, 0, 1, 1)
	if batch.Add(Request{Mesh: nil, Region: r}) {
		t.Errorf("nil mesh should be dropped")
	}
	if batch.Add(Request{Mesh: m, Region: nil}) {
		t.Errorf("nil region should be dropped")
	}
	if batch.Add(Request{Mesh: released, Region: r}) {
		t.Errorf("released mesh should be dropped")
	}
	if !batch.Add(Request{Mesh: m, Region: r, Transform: mgl32.Ident4()}) {
		t.Errorf("valid request should be kept")
	}

	stats := NewRenderer(dev, 1).Render(testCamera, batch)
	if stats.Dropped != 3 || stats.Instances != 1 {
		t.Errorf("expected 3 dropped and 1 drawn, got %s", stats)
	}
	if out := logs.String(); !strings.Contains(out, "dropping request: no mesh") || !strings.Contains(out, "3 requests dropped") {
		t.Errorf("expected the drop cause and count in the log, got %q", out)
	}

	batch.Reset()
	if batch.Len() != 0 || batch.Dropped() != 0 || batch.Groups() != 0 {
		t.Errorf("reset should clear the batch")
	}
	dev.ResetFrame()
	if stats := NewRenderer(dev, 1).Render(testCamera, batch); stats.DrawCalls != 0 || len(dev.Draws) != 0 {
		t.Errorf("empty batch should draw nothing")
	}
}

func TestRenderCountsInstancesOfMeshReleasedAfterAdd(t *testing.T) {
	dev := gpu.NewRecorder()
	kept := newTestMesh(t, dev, 1)
	gone := newTestMesh(t, dev, 2)

	batch := NewBatch()
	batch.Add(Request{Mesh: nil, Region: region(1, 0, 0, 1, 1)})
	batch.Add(Request{Mesh: kept, Region: region(1, 0, 0, 1, 1), Transform: mgl32.Ident4()})
	for i := 0; i < 2; i++ {
		batch.Add(Request{Mesh: gone, Region: region(1, 0, 0, 1, 1), Transform: mgl32.Translate3D(float32(i), 0, 0)})
	}
	gone.Release()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)
	stats := NewRenderer(dev, 1).Render(testCamera, batch)
	if stats.Instances != 1 || stats.DrawCalls != 1 {
		t.Errorf("expected only the kept mesh drawn, got %s", stats)
	}
	if stats.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", stats.Dropped)
	}
	if submitted := 4; stats.Instances+stats.Dropped != submitted {
		t.Errorf("drawn plus dropped should equal %d requests, got %s", submitted, stats)
	}
	if !strings.Contains(logs.String(), "3 requests dropped") {
		t.Errorf("expected the frame drop count in the log, got %q", logs.String())
	}
}

func TestInstanceCapacityGrowsAndNeverShrinks(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newTestMesh(t, dev, 2)
	r := atlas.FullRegion(1)

	transforms := make([]mgl32.Mat4, 5)
	for i := range transforms {
		transforms[i] = mgl32.Ident4()
	}
	if n, err := m.WriteInstances(transforms, r); err != nil || n != 5 {
		t.Fatalf("WriteInstances: n=%d err=%v", n, err)
	}
	if m.Capacity() != 5 {
		t.Errorf("expected capacity 5, got %d", m.Capacity())
	}
	if n, _ := m.WriteInstances(transforms[:1], r); n != 1 {
		t.Errorf("expected 1 instance written, got %d", n)
	}
	if m.Capacity() != 5 {
		t.Errorf("capacity should not shrink, got %d", m.Capacity())
	}
	buf, _ := dev.Buffer(m.instances)
	if buf.Resets != 1 {
		t.Errorf("expected one reallocation, got %d", buf.Resets)
	}
	if len(buf.Data) != 5*InstanceFloats*4 {
		t.Errorf("expected %d bytes of instance storage, got %d", 5*InstanceFloats*4, len(buf.Data))
	}
}

func TestMeshReleaseOnce(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newTestMesh(t, dev, 1)
	if _, buffers, vaos := dev.Live(); buffers != 5 || vaos != 1 {
		t.Fatalf("expected 5 buffers and 1 vertex array, got %d and %d", buffers, vaos)
	}
	m.Release()
	m.Release()
	if _, buffers, vaos := dev.Live(); buffers != 0 || vaos != 0 {
		t.Errorf("expected everything released, got %d buffers %d vertex arrays", buffers, vaos)
	}
	if dev.InvalidDeletes != 0 {
		t.Errorf("second release should not delete again")
	}
	if _, err := m.WriteInstances([]mgl32.Mat4{mgl32.Ident4()}, atlas.FullRegion(1)); err != ErrReleased {
		t.Errorf("expected ErrReleased, got %v", err)
	}
}

func TestNewMeshRejectsBadData(t *testing.T) {
	dev := gpu.NewRecorder()
	bad := Quad()
	bad.Indices = append(bad.Indices, 0, 1, 7)
	if _, err := NewMesh(dev, bad, 1); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected out of range error, got %v", err)
	}
	if _, err := NewMesh(dev, MeshData{}, 1); err == nil {
		t.Errorf("expected error for empty mesh")
	}

	dev.FailBuffers = true
	if _, err := NewMesh(dev, Quad(), 1); err == nil {
		t.Errorf("expected upload failure")
	}
	if tx, buffers, vaos := dev.Live(); tx+buffers+vaos != 0 {
		t.Errorf("failed upload leaked %d buffers %d vertex arrays", buffers, vaos)
	}
}

func TestBlendBatch(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newTestMesh(t, dev, 1)
	r := atlas.FullRegion(1)
	renderer := NewRenderer(dev, 1)

	transparent := NewBatch()
	transparent.Blend = true
	transparent.Add(Request{Mesh: m, Region: &r, Transform: mgl32.Ident4()})
	renderer.Render(testCamera, transparent)

	opaque := NewBatch()
	opaque.Add(Request{Mesh: m, Region: &r, Transform: mgl32.Ident4()})
	renderer.Render(testCamera, opaque)

	if len(dev.Draws) != 2 || !dev.Draws[0].Blend || dev.Draws[1].Blend {
		t.Errorf("blend state should follow the batch, got %+v", dev.Draws)
	}
}

func TestStatsString(t *testing.T) {
	var s Stats
	s.Add(Stats{DrawCalls: 2, Instances: 5})
	s.Add(Stats{DrawCalls: 1, Dropped: 1})
	want := "draws=3 instances=5 atlasBinds=0 meshBinds=0 groups=0 dropped=1"
	if s.String() != want {
		t.Errorf("expected %q, got %q", want, s.String())
	}
}

func BenchmarkRender(b *testing.B) {
	dev := gpu.NewRecorder()
	m, err := NewMesh(dev, Quad(), 1)
	if err != nil {
		b.Fatal(err)
	}
	regions := []*atlas.TextureInfo{region(1, 0, 0, 0.5, 0.5), region(1, 0.5, 0, 1, 0.5)}
	batch := NewBatch()
	renderer := NewRenderer(dev, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch.Reset()
		dev.ResetFrame()
		for j := 0; j < 1000; j++ {
			batch.Add(Request{Mesh: m, Region: regions[j%2], Transform: mgl32.Translate3D(float32(j), 0, 0)})
		}
		renderer.Render(testCamera, batch)
	}
}
