package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/gpu/gputest"
	"github.com/Faultbox/scenekit/pkg/math"
)

func testDesc() gpu.PipelineDesc {
	return gpu.PipelineDesc{
		Name: "test",
		Uniforms: []gpu.UniformDesc{
			{Name: "Projection", Type: gpu.UniformMat4},
			{Name: "Tint", Type: gpu.UniformFloat4},
			{Name: "Strength", Type: gpu.UniformFloat1},
		},
		Images: []string{"Texture"},
	}
}

func TestSetUniform(t *testing.T) {
	m, err := New(gputest.New(640, 480), testDesc())
	require.NoError(t, err)
	require.Len(t, m.UniformBytes(), 64+16+4)

	proj := math.Translate(1, 2, 3)
	assert.True(t, m.SetUniform("Projection", proj))
	assert.True(t, m.SetUniform("Tint", math.V4(1, 0.5, 0, 1)))
	assert.True(t, m.SetUniform("Strength", float32(0.25)))
	assert.False(t, m.SetUniform("Missing", float32(1)))

	assert.Equal(t, proj[:], m.Uniform("Projection"))
	assert.Equal(t, []float32{1, 0.5, 0, 1}, m.Uniform("Tint"))
	assert.Equal(t, []float32{0.25}, m.Uniform("Strength"))
}

func TestSetUniformTypeMismatchPanics(t *testing.T) {
	m, err := New(gputest.New(640, 480), testDesc())
	require.NoError(t, err)

	assert.Panics(t, func() { m.SetUniform("Tint", float32(1)) })
	assert.Panics(t, func() { m.SetUniform("Tint", "red") })
}

func TestTextures(t *testing.T) {
	dev := gputest.New(640, 480)
	m, err := New(dev, testDesc())
	require.NoError(t, err)

	_, ok := m.Texture("Texture")
	assert.False(t, ok)

	m.SetTexture("Texture", dev.EmptyTexture())
	tex, ok := m.Texture("Texture")
	assert.True(t, ok)
	assert.Equal(t, dev.EmptyTexture(), tex)
}

func TestNewPropagatesShaderError(t *testing.T) {
	dev := gputest.New(640, 480)
	dev.PipelineErr = &gpu.ShaderError{Pipeline: "test", Stage: "vertex", Log: "syntax error"}

	_, err := New(dev, testDesc())
	var shaderErr *gpu.ShaderError
	require.True(t, errors.As(err, &shaderErr))
	assert.Equal(t, "vertex", shaderErr.Stage)
}

func TestDestroy(t *testing.T) {
	dev := gputest.New(640, 480)
	m, err := New(dev, testDesc())
	require.NoError(t, err)

	m.Destroy()
	m.Destroy()
	assert.Equal(t, 1, dev.Deleted)
}
