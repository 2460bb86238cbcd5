package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenekit/internal/gpu"
)

type buffer struct {
	id     uint32
	kind   gpu.BufferKind
	size   int
	stream bool
}

func (b *buffer) Kind() gpu.BufferKind { return b.kind }
func (b *buffer) Size() int            { return b.size }

// Buffers are filled through ARRAY_BUFFER regardless of kind; index
// buffers are bound to ELEMENT_ARRAY_BUFFER only inside a VAO.
func (d *Device) newBuffer(kind gpu.BufferKind, size int, data []byte, usage uint32) (*buffer, error) {
	b := &buffer{kind: kind, size: size, stream: usage == gl.STREAM_DRAW}
	gl.GenBuffers(1, &b.id)
	if b.id == 0 {
		return nil, fmt.Errorf("glGenBuffers failed")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(data), usage)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, size, nil, usage)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return b, nil
}

func (d *Device) NewBuffer(kind gpu.BufferKind, data []byte) (gpu.Buffer, error) {
	b, err := d.newBuffer(kind, len(data), data, gl.STATIC_DRAW)
	if err != nil {
		return nil, fmt.Errorf("creating %s buffer: %w", kind, err)
	}
	return b, nil
}

func (d *Device) NewStreamBuffer(kind gpu.BufferKind, size int) (gpu.Buffer, error) {
	b, err := d.newBuffer(kind, size, nil, gl.STREAM_DRAW)
	if err != nil {
		return nil, fmt.Errorf("creating %s stream buffer: %w", kind, err)
	}
	return b, nil
}

func (d *Device) UpdateBuffer(buf gpu.Buffer, data []byte) {
	b := buf.(*buffer)
	if !b.stream {
		panic("glgpu: update of immutable buffer")
	}
	if len(data) > b.size {
		panic(fmt.Sprintf("glgpu: update of %d bytes overflows %d byte buffer", len(data), b.size))
	}
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) DeleteBuffer(buf gpu.Buffer) {
	b := buf.(*buffer)
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}
