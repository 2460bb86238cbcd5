package gpu

import (
	"encoding/binary"
	"math"
)

// PutFloats writes vals into dst as little-endian float32s.
func PutFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Floats decodes little-endian float32s from src.
func Floats(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out
}

// LookupUniform returns the values of the named uniform inside a block laid
// out per descs, or nil when the block has no such uniform.
func LookupUniform(data []byte, descs []UniformDesc, name string) []float32 {
	offsets, size := UniformLayout(descs)
	if len(data) < size {
		return nil
	}
	for i, d := range descs {
		if d.Name == name {
			return Floats(data[offsets[i] : offsets[i]+d.Type.Size()])
		}
	}
	return nil
}
