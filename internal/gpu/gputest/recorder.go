// Package gputest provides a gpu.Device that records every call instead of
// talking to a GPU.
package gputest

import (
	"fmt"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// Op names a recorded device call.
type Op string

const (
	OpBeginDefaultPass Op = "begin_default_pass"
	OpBeginPass        Op = "begin_pass"
	OpEndPass          Op = "end_pass"
	OpViewport         Op = "viewport"
	OpPipeline         Op = "pipeline"
	OpBindings         Op = "bindings"
	OpUniforms         Op = "uniforms"
	OpDraw             Op = "draw"
	OpUpdateBuffer     Op = "update_buffer"
)

// Command is one recorded frame-time call. Only the fields relevant to Op
// are set.
type Command struct {
	Op        Op
	Target    gpu.RenderTarget
	Action    gpu.PassAction
	Pipeline  gpu.Pipeline
	Bindings  gpu.Bindings
	Uniforms  []byte
	Viewport  [4]int32
	Buffer    *Buffer
	Base      int
	Count     int
	Instances int
}

// Buffer is a recorded buffer; Data holds its latest contents.
type Buffer struct {
	ID     int
	kind   gpu.BufferKind
	Data   []byte
	Stream bool
	size   int
}

func (b *Buffer) Kind() gpu.BufferKind { return b.kind }
func (b *Buffer) Size() int            { return b.size }

// Texture is a recorded texture.
type Texture struct {
	ID            int
	Width, Height int
	Pixels        []byte
}

func (t *Texture) Size() (int, int) { return t.Width, t.Height }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	ID   int
	desc gpu.PipelineDesc
}

func (p *Pipeline) Desc() gpu.PipelineDesc { return p.desc }

// Target is a recorded off-screen render target.
type Target struct {
	ID            int
	Width, Height int
	color         *Texture
}

func (t *Target) Size() (int, int)     { return t.Width, t.Height }
func (t *Target) Texture() gpu.Texture { return t.color }

// Recorder implements gpu.Device. Like the real device it panics when a
// pass is begun while another one is open or ended when none is.
type Recorder struct {
	Width, Height float32

	// PipelineErr, when set, is returned by NewPipeline.
	PipelineErr error

	Commands []Command

	Buffers   []*Buffer
	Textures  []*Texture
	Pipelines []*Pipeline
	Targets   []*Target

	Deleted int

	nextID   int
	passOpen bool
	empty    *Texture
}

var _ gpu.Device = (*Recorder)(nil)

// New returns a recorder whose default surface is width x height pixels.
func New(width, height float32) *Recorder {
	r := &Recorder{Width: width, Height: height}
	r.empty = &Texture{ID: r.id(), Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}}
	return r
}

func (r *Recorder) id() int {
	r.nextID++
	return r.nextID
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []Op {
	ops := make([]Op, len(r.Commands))
	for i, c := range r.Commands {
		ops[i] = c.Op
	}
	return ops
}

// Filter returns the recorded commands with the given op.
func (r *Recorder) Filter(op Op) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops recorded commands but keeps resources.
func (r *Recorder) Reset() {
	r.Commands = r.Commands[:0]
}

// PassOpen reports whether a pass is currently open.
func (r *Recorder) PassOpen() bool {
	return r.passOpen
}

func (r *Recorder) record(c Command) {
	r.Commands = append(r.Commands, c)
}

func (r *Recorder) NewBuffer(kind gpu.BufferKind, data []byte) (gpu.Buffer, error) {
	b := &Buffer{ID: r.id(), kind: kind, Data: append([]byte(nil), data...), size: len(data)}
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *Recorder) NewStreamBuffer(kind gpu.BufferKind, size int) (gpu.Buffer, error) {
	b := &Buffer{ID: r.id(), kind: kind, Stream: true, size: size}
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *Recorder) UpdateBuffer(buf gpu.Buffer, data []byte) {
	b := buf.(*Buffer)
	if !b.Stream {
		panic(fmt.Sprintf("gputest: update of immutable buffer %d", b.ID))
	}
	if len(data) > b.size {
		panic(fmt.Sprintf("gputest: update of %d bytes overflows buffer %d (%d bytes)", len(data), b.ID, b.size))
	}
	b.Data = append(b.Data[:0], data...)
	r.record(Command{Op: OpUpdateBuffer, Buffer: b})
}

func (r *Recorder) DeleteBuffer(gpu.Buffer) { r.Deleted++ }

func (r *Recorder) NewTexture(width, height int, rgba []byte) (gpu.Texture, error) {
	if len(rgba) != width*height*4 {
		return nil, fmt.Errorf("gputest: texture %dx%d needs %d bytes, got %d", width, height, width*height*4, len(rgba))
	}
	t := &Texture{ID: r.id(), Width: width, Height: height, Pixels: append([]byte(nil), rgba...)}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Recorder) EmptyTexture() gpu.Texture { return r.empty }

func (r *Recorder) DeleteTexture(gpu.Texture) { r.Deleted++ }

func (r *Recorder) NewPipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if r.PipelineErr != nil {
		return nil, r.PipelineErr
	}
	p := &Pipeline{ID: r.id(), desc: desc}
	r.Pipelines = append(r.Pipelines, p)
	return p, nil
}

func (r *Recorder) DeletePipeline(gpu.Pipeline) { r.Deleted++ }

func (r *Recorder) NewRenderTarget(width, height int) (gpu.RenderTarget, error) {
	t := &Target{ID: r.id(), Width: width, Height: height}
	t.color = &Texture{ID: r.id(), Width: width, Height: height}
	r.Targets = append(r.Targets, t)
	return t, nil
}

func (r *Recorder) DeleteRenderTarget(gpu.RenderTarget) { r.Deleted++ }

func (r *Recorder) BeginDefaultPass(action gpu.PassAction) {
	r.begin()
	r.record(Command{Op: OpBeginDefaultPass, Action: action})
}

func (r *Recorder) BeginPass(target gpu.RenderTarget, action gpu.PassAction) {
	r.begin()
	r.record(Command{Op: OpBeginPass, Target: target, Action: action})
}

func (r *Recorder) begin() {
	if r.passOpen {
		panic("gputest: pass begun while another pass is open")
	}
	r.passOpen = true
}

func (r *Recorder) EndPass() {
	if !r.passOpen {
		panic("gputest: end of pass with no open pass")
	}
	r.passOpen = false
	r.record(Command{Op: OpEndPass})
}

func (r *Recorder) ApplyViewport(x, y, width, height int32) {
	r.record(Command{Op: OpViewport, Viewport: [4]int32{x, y, width, height}})
}

func (r *Recorder) ApplyPipeline(p gpu.Pipeline) {
	r.record(Command{Op: OpPipeline, Pipeline: p})
}

func (r *Recorder) ApplyBindings(b gpu.Bindings) {
	r.record(Command{Op: OpBindings, Bindings: b.Clone()})
}

func (r *Recorder) ApplyUniforms(data []byte) {
	r.record(Command{Op: OpUniforms, Uniforms: append([]byte(nil), data...)})
}

func (r *Recorder) Draw(base, count, instances int) {
	r.record(Command{Op: OpDraw, Base: base, Count: count, Instances: instances})
}

func (r *Recorder) ScreenSize() (float32, float32) {
	return r.Width, r.Height
}
