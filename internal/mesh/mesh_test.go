package mesh

import (
	"bytes"
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/gpu/gputest"
	"github.com/Faultbox/scenekit/pkg/math"
)

var (
	quadPositions = [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 2}}
	quadNormals   = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	quadUVs       = [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
)

func primitive(doc *gltf.Document, indices []uint32, withNormals, withUVs bool) *gltf.Primitive {
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, quadPositions),
		},
	}
	if withNormals {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, quadNormals)
	}
	if withUVs {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, quadUVs)
	}
	return prim
}

func quadDoc(indices []uint32) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name:       "quad",
		Primitives: []*gltf.Primitive{primitive(doc, indices, true, true)},
	}}
	return doc
}

func encodeGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func TestFromDocument(t *testing.T) {
	d, err := FromDocument("quad", quadDoc([]uint32{0, 1, 2, 0, 2, 3}))
	require.NoError(t, err)

	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, d.Indices)
	assert.Equal(t, quadPositions, d.Positions)
	assert.Equal(t, quadNormals, d.Normals)
	assert.Equal(t, quadUVs, d.UVs)
	assert.Equal(t, 2, d.Triangles())

	lo, hi := d.Bounds()
	assert.Equal(t, math.V3(0, 0, 0), lo)
	assert.Equal(t, math.V3(1, 1, 2), hi)
}

func TestFromDocumentShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *gltf.Document
		want  error
	}{
		{
			name: "two meshes",
			build: func() *gltf.Document {
				doc := quadDoc([]uint32{0, 1, 2})
				doc.Meshes = append(doc.Meshes, doc.Meshes[0])
				return doc
			},
			want: ErrAssetShape,
		},
		{
			name: "no meshes",
			build: func() *gltf.Document {
				return gltf.NewDocument()
			},
			want: ErrAssetShape,
		},
		{
			name: "two primitives",
			build: func() *gltf.Document {
				doc := quadDoc([]uint32{0, 1, 2})
				m := doc.Meshes[0]
				m.Primitives = append(m.Primitives, m.Primitives[0])
				return doc
			},
			want: ErrAssetShape,
		},
		{
			name: "missing normals",
			build: func() *gltf.Document {
				doc := gltf.NewDocument()
				doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{
					primitive(doc, []uint32{0, 1, 2}, false, true),
				}}}
				return doc
			},
			want: ErrAssetShape,
		},
		{
			name: "missing indices",
			build: func() *gltf.Document {
				doc := quadDoc([]uint32{0, 1, 2})
				doc.Meshes[0].Primitives[0].Indices = nil
				return doc
			},
			want: ErrAssetShape,
		},
		{
			name: "not a triangle list",
			build: func() *gltf.Document {
				return quadDoc([]uint32{0, 1, 2, 3})
			},
			want: ErrAssetShape,
		},
		{
			name: "points",
			build: func() *gltf.Document {
				doc := quadDoc([]uint32{0, 1, 2})
				doc.Meshes[0].Primitives[0].Mode = gltf.PrimitivePoints
				return doc
			},
			want: ErrAssetShape,
		},
		{
			name: "vertex out of range",
			build: func() *gltf.Document {
				return quadDoc([]uint32{0, 1, 9})
			},
			want: ErrAssetShape,
		},
		{
			name: "index above 16 bits",
			build: func() *gltf.Document {
				return quadDoc([]uint32{0, 1, 70000})
			},
			want: ErrIndexRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument("asset", tt.build())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIndexRangeErrorPosition(t *testing.T) {
	_, err := FromDocument("big", quadDoc([]uint32{0, 1, 2, 0, 2, 65536}))

	var rangeErr *IndexRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 5, rangeErr.Position)
	assert.Equal(t, uint32(65536), rangeErr.Value)
	assert.NotErrorIs(t, err, ErrAssetShape)
}

func TestFromDocumentWithoutUVs(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{
		primitive(doc, []uint32{0, 1, 2}, true, false),
	}}}

	d, err := FromDocument("plain", doc)
	require.NoError(t, err)
	assert.Nil(t, d.UVs)
}

func TestDecodeBinary(t *testing.T) {
	raw := encodeGLB(t, quadDoc([]uint32{0, 1, 2, 0, 2, 3}))

	d, err := Decode("quad.glb", raw, nil)
	require.NoError(t, err)
	assert.Len(t, d.Indices, 6)
	assert.Equal(t, quadNormals, d.Normals)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("junk.gltf", []byte("not gltf"), nil)
	assert.ErrorIs(t, err, ErrAssetShape)
}

func TestRead(t *testing.T) {
	fsys := fstest.MapFS{
		"models/quad.glb": {Data: encodeGLB(t, quadDoc([]uint32{0, 1, 2, 0, 2, 3}))},
	}

	d, err := Read(context.Background(), fsys, "models/quad.glb")
	require.NoError(t, err)
	assert.Equal(t, "models/quad.glb", d.Name)
	assert.Equal(t, 2, d.Triangles())
}

func TestReadMissing(t *testing.T) {
	_, err := Read(context.Background(), fstest.MapFS{}, "nope.glb")

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "nope.glb", readErr.Name)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, fstest.MapFS{}, "nope.glb")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadAllKeepsOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"one.glb": {Data: encodeGLB(t, quadDoc([]uint32{0, 1, 2}))},
		"two.glb": {Data: encodeGLB(t, quadDoc([]uint32{0, 1, 2, 0, 2, 3}))},
	}

	all, err := ReadAll(context.Background(), fsys, "two.glb", "one.glb")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "two.glb", all[0].Name)
	assert.Equal(t, 2, all[0].Triangles())
	assert.Equal(t, "one.glb", all[1].Name)
	assert.Equal(t, 1, all[1].Triangles())
}

func TestReadAllFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"one.glb": {Data: encodeGLB(t, quadDoc([]uint32{0, 1, 2}))},
	}

	_, err := ReadAll(context.Background(), fsys, "one.glb", "missing.glb")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStart(t *testing.T) {
	fsys := fstest.MapFS{
		"quad.glb": {Data: encodeGLB(t, quadDoc([]uint32{0, 1, 2}))},
	}

	p := Start(context.Background(), fsys, "quad.glb")
	<-p.Done()
	d, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, d.Triangles())
}

func TestUpload(t *testing.T) {
	dev := gputest.New(800, 600)
	d, err := FromDocument("quad", quadDoc([]uint32{0, 1, 2, 0, 2, 3}))
	require.NoError(t, err)

	m, err := Upload(dev, d)
	require.NoError(t, err)

	assert.Equal(t, 6, m.IndexCount())
	assert.Equal(t, "quad", m.Name())

	b := m.Bindings()
	require.Len(t, b.VertexBuffers, 3)
	assert.Equal(t, 4*12, b.VertexBuffers[SlotPosition].Size())
	assert.Equal(t, 4*8, b.VertexBuffers[SlotUV].Size())
	assert.Equal(t, 4*12, b.VertexBuffers[SlotNormal].Size())
	for _, vb := range b.VertexBuffers {
		assert.Equal(t, gpu.VertexBuffer, vb.Kind())
	}
	assert.Equal(t, gpu.IndexBuffer, b.IndexBuffer.Kind())
	assert.Equal(t, 6*2, b.IndexBuffer.Size())

	require.Len(t, b.Images, ImageSlots)
	for _, img := range b.Images {
		assert.Same(t, dev.EmptyTexture(), img)
	}

	uv := b.VertexBuffers[SlotUV].(*gputest.Buffer)
	assert.Equal(t, gpu.Bytes(quadUVs), uv.Data)
}

func TestUploadZeroUVs(t *testing.T) {
	dev := gputest.New(800, 600)
	d := &Data{
		Name:      "plain",
		Indices:   []uint16{0, 1, 2},
		Positions: quadPositions[:3],
		Normals:   quadNormals[:3],
	}

	m, err := Upload(dev, d)
	require.NoError(t, err)

	uv := m.Bindings().VertexBuffers[SlotUV].(*gputest.Buffer)
	assert.Equal(t, make([]byte, 3*8), uv.Data)
}

func TestUploadEmpty(t *testing.T) {
	_, err := Upload(gputest.New(1, 1), &Data{Name: "empty"})
	assert.ErrorIs(t, err, ErrAssetShape)
}

func TestDestroyIsIdempotent(t *testing.T) {
	dev := gputest.New(800, 600)
	m, err := Square(dev)
	require.NoError(t, err)

	m.Destroy()
	m.Destroy()

	assert.True(t, m.Destroyed())
	assert.Equal(t, 4, dev.Deleted)
}

func TestSquare(t *testing.T) {
	dev := gputest.New(800, 600)
	m, err := Square(dev)
	require.NoError(t, err)

	assert.Equal(t, 6, m.IndexCount())
	lo, hi := m.Bounds()
	assert.Equal(t, math.V3(-0.5, 0.5, -0.5), lo)
	assert.Equal(t, math.V3(0.5, 0.5, 0.5), hi)
}

func TestUploadAllRollsBack(t *testing.T) {
	dev := gputest.New(800, 600)
	good := &Data{Name: "good", Indices: []uint16{0, 1, 2}, Positions: quadPositions[:3], Normals: quadNormals[:3]}
	bad := &Data{Name: "bad"}

	_, err := UploadAll(dev, []*Data{good, bad})
	require.Error(t, err)
	assert.Equal(t, 4, dev.Deleted)
}

func TestAttributesMatchSlots(t *testing.T) {
	attrs := Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, SlotPosition, attrs[0].Buffer)
	assert.Equal(t, SlotUV, attrs[1].Buffer)
	assert.Equal(t, SlotNormal, attrs[2].Buffer)
}
