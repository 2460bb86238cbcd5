// Package mesh loads single-mesh glTF assets and uploads them as immutable
// GPU buffers.
//
// Loading is split in two so the file read can run off the frame loop:
// Read (or Start/ReadAll) produces CPU-side Data on any goroutine, Upload
// turns it into a Model and must run on the goroutine that owns the
// gpu.Device.
package mesh

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"runtime"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenekit/pkg/math"
)

// MaxIndex is the largest vertex index a Model can address.
const MaxIndex = 1<<16 - 1

// Data is a decoded mesh, not yet on the GPU.
type Data struct {
	Name      string
	Indices   []uint16
	Positions [][3]float32
	Normals   [][3]float32
	// UVs is nil when the asset has no TEXCOORD_0.
	UVs [][2]float32
}

// Triangles returns the number of triangles.
func (d *Data) Triangles() int {
	return len(d.Indices) / 3
}

// Bounds returns the axis-aligned bounding box of the positions.
func (d *Data) Bounds() (minPos, maxPos math.Vec3) {
	if len(d.Positions) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	p := d.Positions[0]
	minPos = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	maxPos = minPos
	for _, p := range d.Positions[1:] {
		v := math.Vec3{X: p[0], Y: p[1], Z: p[2]}
		minPos = minPos.Min(v)
		maxPos = maxPos.Max(v)
	}
	return minPos, maxPos
}

// Read loads and decodes the named asset from fsys. Buffers referenced by
// relative URI are resolved next to the asset.
func Read(ctx context.Context, fsys fs.FS, name string) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := fsys
	if d := path.Dir(name); d != "." {
		if dir, err = fs.Sub(fsys, d); err != nil {
			return nil, &ReadError{Name: name, Err: err}
		}
	}
	return Decode(name, raw, dir)
}

// ReadAll reads several assets concurrently. Results keep the order of
// names; the first failure cancels the remaining reads.
func ReadAll(ctx context.Context, fsys fs.FS, names ...string) ([]*Data, error) {
	out := make([]*Data, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			d, err := Read(ctx, fsys, name)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Pending is an asset read running in the background.
type Pending struct {
	done chan struct{}
	data *Data
	err  error
}

// Start begins reading name in a new goroutine. A frame loop can poll
// Done and Upload the result once it is ready.
func Start(ctx context.Context, fsys fs.FS, name string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.data, p.err = Read(ctx, fsys, name)
	}()
	return p
}

// Done is closed when the read has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the read has finished and returns its outcome.
func (p *Pending) Result() (*Data, error) {
	<-p.done
	return p.data, p.err
}

// Decode parses a glTF (JSON or binary) asset. fsys resolves external
// buffer URIs and may be nil for self-contained assets.
func Decode(name string, raw []byte, fsys fs.FS) (*Data, error) {
	var dec *gltf.Decoder
	if fsys != nil {
		dec = gltf.NewDecoderFS(bytes.NewReader(raw), fsys)
	} else {
		dec = gltf.NewDecoder(bytes.NewReader(raw))
	}

	doc := new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, &ShapeError{Name: name, Reason: "malformed glTF", Err: err}
	}
	return FromDocument(name, doc)
}

// FromDocument extracts the single mesh primitive of doc.
func FromDocument(name string, doc *gltf.Document) (*Data, error) {
	shapeErr := func(format string, args ...any) error {
		return &ShapeError{Name: name, Reason: fmt.Sprintf(format, args...)}
	}

	if n := len(doc.Meshes); n != 1 {
		return nil, shapeErr("%d meshes, want exactly 1", n)
	}
	m := doc.Meshes[0]
	if n := len(m.Primitives); n != 1 {
		return nil, shapeErr("%d primitives, want exactly 1", n)
	}
	prim := m.Primitives[0]
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, shapeErr("primitive mode %v, want triangles", prim.Mode)
	}

	accessor := func(what string, idx int, ok bool) (*gltf.Accessor, error) {
		if !ok {
			return nil, shapeErr("missing %s", what)
		}
		if idx < 0 || idx >= len(doc.Accessors) {
			return nil, shapeErr("%s accessor %d out of range", what, idx)
		}
		return doc.Accessors[idx], nil
	}

	var indexAcc int
	if prim.Indices != nil {
		indexAcc = int(*prim.Indices)
	}
	acc, err := accessor("indices", indexAcc, prim.Indices != nil)
	if err != nil {
		return nil, err
	}
	rawIndices, err := modeler.ReadIndices(doc, acc, nil)
	if err != nil {
		return nil, &ShapeError{Name: name, Reason: "reading indices", Err: err}
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if acc, err = accessor(gltf.POSITION, int(posIdx), ok); err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, &ShapeError{Name: name, Reason: "reading positions", Err: err}
	}

	nrmIdx, ok := prim.Attributes[gltf.NORMAL]
	if acc, err = accessor(gltf.NORMAL, int(nrmIdx), ok); err != nil {
		return nil, err
	}
	normals, err := modeler.ReadNormal(doc, acc, nil)
	if err != nil {
		return nil, &ShapeError{Name: name, Reason: "reading normals", Err: err}
	}

	var uvs [][2]float32
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acc, err = accessor(gltf.TEXCOORD_0, int(uvIdx), true); err != nil {
			return nil, err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return nil, &ShapeError{Name: name, Reason: "reading texture coordinates", Err: err}
		}
	}

	return build(name, rawIndices, positions, normals, uvs)
}

func build(name string, rawIndices []uint32, positions, normals [][3]float32, uvs [][2]float32) (*Data, error) {
	if len(normals) != len(positions) {
		return nil, &ShapeError{Name: name, Reason: fmt.Sprintf("%d normals for %d positions", len(normals), len(positions))}
	}
	if uvs != nil && len(uvs) != len(positions) {
		return nil, &ShapeError{Name: name, Reason: fmt.Sprintf("%d texture coordinates for %d positions", len(uvs), len(positions))}
	}
	if len(rawIndices)%3 != 0 {
		return nil, &ShapeError{Name: name, Reason: fmt.Sprintf("%d indices is not a triangle list", len(rawIndices))}
	}

	indices := make([]uint16, len(rawIndices))
	for i, ix := range rawIndices {
		if ix > MaxIndex {
			return nil, &IndexRangeError{Name: name, Position: i, Value: ix}
		}
		if int(ix) >= len(positions) {
			return nil, &ShapeError{Name: name, Reason: fmt.Sprintf("index %d references vertex %d of %d", i, ix, len(positions))}
		}
		indices[i] = uint16(ix)
	}

	return &Data{
		Name:      name,
		Indices:   indices,
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
	}, nil
}
