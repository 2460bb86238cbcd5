package mesh

import (
	"fmt"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Vertex buffer slots of a Model.
const (
	SlotPosition = iota
	SlotUV
	SlotNormal
)

// Attributes is the vertex layout every Model satisfies. Pipelines that
// draw models declare these names in their vertex shader.
func Attributes() []gpu.VertexAttribute {
	return []gpu.VertexAttribute{
		{Name: "in_position", Format: gpu.Float3, Buffer: SlotPosition},
		{Name: "in_uv", Format: gpu.Float2, Buffer: SlotUV},
		{Name: "in_normal", Format: gpu.Float3, Buffer: SlotNormal},
	}
}

// ImageSlots is the number of texture slots a Model binds.
const ImageSlots = 2

// Model is an uploaded mesh: three vertex buffers, a 16-bit index buffer
// and placeholder texture slots.
type Model struct {
	dev        gpu.Device
	name       string
	bindings   gpu.Bindings
	indexCount int
	min, max   math.Vec3
	destroyed  bool
}

// Upload creates immutable GPU buffers for d. Missing texture coordinates
// are uploaded as zeros so the layout matches Attributes.
func Upload(dev gpu.Device, d *Data) (*Model, error) {
	if len(d.Indices) == 0 {
		return nil, &ShapeError{Name: d.Name, Reason: "no indices"}
	}
	uvs := d.UVs
	if uvs == nil {
		uvs = make([][2]float32, len(d.Positions))
	}

	var created []gpu.Buffer
	fail := func(err error) (*Model, error) {
		for _, b := range created {
			dev.DeleteBuffer(b)
		}
		return nil, fmt.Errorf("uploading %s: %w", d.Name, err)
	}

	for _, data := range [][]byte{
		gpu.Bytes(d.Positions),
		gpu.Bytes(uvs),
		gpu.Bytes(d.Normals),
		gpu.Bytes(d.Indices),
	} {
		kind := gpu.VertexBuffer
		if len(created) == 3 {
			kind = gpu.IndexBuffer
		}
		buf, err := dev.NewBuffer(kind, data)
		if err != nil {
			return fail(err)
		}
		created = append(created, buf)
	}

	m := &Model{
		dev:  dev,
		name: d.Name,
		bindings: gpu.Bindings{
			VertexBuffers: created[:3:3],
			IndexBuffer:   created[3],
			Images:        make([]gpu.Texture, ImageSlots),
		},
		indexCount: len(d.Indices),
	}
	for i := range m.bindings.Images {
		m.bindings.Images[i] = dev.EmptyTexture()
	}
	m.min, m.max = d.Bounds()
	return m, nil
}

// UploadAll uploads every entry of data, destroying the already uploaded
// models if one fails.
func UploadAll(dev gpu.Device, data []*Data) ([]*Model, error) {
	models := make([]*Model, 0, len(data))
	for _, d := range data {
		m, err := Upload(dev, d)
		if err != nil {
			for _, m := range models {
				m.Destroy()
			}
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Name returns the asset name the model was loaded from.
func (m *Model) Name() string { return m.name }

// IndexCount is the number of indices drawn per call.
func (m *Model) IndexCount() int { return m.indexCount }

// Bounds returns the bounding box of the vertex positions.
func (m *Model) Bounds() (minPos, maxPos math.Vec3) { return m.min, m.max }

// Bindings returns the model's buffers and texture slots. Callers that
// substitute textures must Clone first.
func (m *Model) Bindings() gpu.Bindings { return m.bindings }

// Destroy releases the GPU buffers. Further calls are no-ops.
func (m *Model) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for _, b := range m.bindings.VertexBuffers {
		m.dev.DeleteBuffer(b)
	}
	m.dev.DeleteBuffer(m.bindings.IndexBuffer)
}

// Destroyed reports whether Destroy has been called.
func (m *Model) Destroyed() bool { return m.destroyed }

var squareData = &Data{
	Name: "square",
	Positions: [][3]float32{
		{-0.5, 0.5, -0.5},
		{0.5, 0.5, -0.5},
		{0.5, 0.5, 0.5},
		{-0.5, 0.5, 0.5},
	},
	UVs: [][2]float32{
		{0, 0},
		{1, 0},
		{1, 1},
		{0, 1},
	},
	Normals: [][3]float32{
		{0, 1, 0},
		{0, 1, 0},
		{0, 1, 0},
		{0, 1, 0},
	},
	Indices: []uint16{0, 1, 2, 0, 2, 3},
}

// Square uploads a unit quad lying in the y=0.5 plane, facing up.
func Square(dev gpu.Device) (*Model, error) {
	return Upload(dev, squareData)
}
