// Package scene draws uploaded models and pooled 2D layers through a
// gpu.Device.
//
// A Graph is the explicit rendering context: it owns the default
// material, the layer pool and the registered models. Every draw call
// opens and closes its own pass, so calls execute in exactly the order
// they are made. A Graph is not safe for concurrent use.
package scene

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/material"
	"github.com/Faultbox/scenekit/internal/mesh"
	"github.com/Faultbox/scenekit/internal/scene/shaders"
	"github.com/Faultbox/scenekit/internal/sprite"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Uniform and sampler names every model material may declare.
const (
	UniformProjection = "Projection"
	UniformModel      = "Model"
	UniformTime       = "_Time"
	TextureSlot       = "Texture"
)

// DefaultLayerPoolSize is the number of layers available per frame.
const DefaultLayerPoolSize = 3

// Config contains scene configuration options.
type Config struct {
	// LayerPoolSize is the number of 2D layers that can be checked out
	// at once.
	LayerPoolSize int
	// Clock returns the time since the scene started. It feeds the _Time
	// uniform.
	Clock func() time.Duration
	// Logger receives resource lifecycle messages.
	Logger *zap.Logger
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{LayerPoolSize: DefaultLayerPoolSize}
}

type entry struct {
	model     *mesh.Model
	transform math.Mat4
}

// Graph is the rendering context.
type Graph struct {
	dev gpu.Device
	log *zap.Logger

	clock func() time.Duration
	pass  pass

	models []entry

	defaultMat *material.Material
	spriteMat  *material.Material
	atlas      *sprite.Atlas
	atlasTex   gpu.Texture

	// Streamed geometry for layer flushes.
	spriteVB gpu.Buffer
	spriteIB gpu.Buffer

	pool    []*sprite.Batch
	poolCap int
}

// ModelDesc returns a pipeline description with the vertex layout,
// uniform block and sampler the scene feeds to model materials. Custom
// override materials should be built from it.
func ModelDesc(name, vertexShader, fragmentShader string) gpu.PipelineDesc {
	return gpu.PipelineDesc{
		Name:           name,
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		Attributes:     mesh.Attributes(),
		Uniforms: []gpu.UniformDesc{
			{Name: UniformProjection, Type: gpu.UniformMat4},
			{Name: UniformModel, Type: gpu.UniformMat4},
			{Name: UniformTime, Type: gpu.UniformFloat4},
		},
		Images:     []string{TextureSlot},
		DepthTest:  gpu.CompareLessOrEqual,
		DepthWrite: true,
	}
}

// SpriteDesc returns the pipeline description for 2D layers.
func SpriteDesc(name, vertexShader, fragmentShader string) gpu.PipelineDesc {
	return gpu.PipelineDesc{
		Name:           name,
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		Buffers:        []gpu.BufferLayout{{Stride: sprite.VertexSize}},
		Attributes:     sprite.Attributes(),
		Uniforms: []gpu.UniformDesc{
			{Name: UniformProjection, Type: gpu.UniformMat4},
		},
		Images:    []string{TextureSlot},
		DepthTest: gpu.CompareAlways,
		Blend:     true,
	}
}

// New creates the default material, the sprite pipeline, the glyph atlas
// and the layer pool.
func New(dev gpu.Device, cfg Config) (*Graph, error) {
	if cfg.LayerPoolSize <= 0 {
		cfg.LayerPoolSize = DefaultLayerPoolSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		start := time.Now()
		cfg.Clock = func() time.Duration { return time.Since(start) }
	}

	g := &Graph{
		dev:     dev,
		log:     cfg.Logger,
		clock:   cfg.Clock,
		pass:    pass{dev: dev},
		poolCap: cfg.LayerPoolSize,
	}

	var err error
	g.defaultMat, err = material.New(dev, ModelDesc("default", shaders.ModelVertexShader, shaders.ModelFragmentShader))
	if err != nil {
		return nil, fmt.Errorf("creating default material: %w", err)
	}

	g.spriteMat, err = material.New(dev, SpriteDesc("sprite", shaders.SpriteVertexShader, shaders.SpriteFragmentShader))
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("creating sprite material: %w", err)
	}

	g.atlas = sprite.NewAtlas()
	g.atlasTex, err = dev.NewTexture(g.atlas.Width, g.atlas.Height, g.atlas.Pixels)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("uploading glyph atlas: %w", err)
	}

	g.spriteVB, err = dev.NewStreamBuffer(gpu.VertexBuffer, sprite.MaxVertices*sprite.VertexSize)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("creating sprite vertex buffer: %w", err)
	}
	g.spriteIB, err = dev.NewStreamBuffer(gpu.IndexBuffer, sprite.MaxIndices*2)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("creating sprite index buffer: %w", err)
	}

	g.pool = make([]*sprite.Batch, 0, cfg.LayerPoolSize)
	for range cfg.LayerPoolSize {
		g.pool = append(g.pool, sprite.New(g.atlas))
	}

	g.log.Debug("scene created",
		zap.Int("layers", cfg.LayerPoolSize),
		zap.Int("atlas_width", g.atlas.Width),
		zap.Int("atlas_height", g.atlas.Height))
	return g, nil
}

// Device returns the device the scene draws through.
func (g *Graph) Device() gpu.Device {
	return g.dev
}

// DefaultMaterial returns the material used when a draw has no override.
func (g *Graph) DefaultMaterial() *material.Material {
	return g.defaultMat
}

// Atlas returns the glyph atlas used by layers.
func (g *Graph) Atlas() *sprite.Atlas {
	return g.atlas
}

// AddModel registers m for DrawModels and hands its ownership to the
// scene. It returns the model's id.
func (g *Graph) AddModel(m *mesh.Model) int {
	g.models = append(g.models, entry{model: m, transform: math.Identity()})
	g.log.Debug("model registered", zap.String("name", m.Name()), zap.Int("id", len(g.models)-1))
	return len(g.models) - 1
}

func (g *Graph) entry(id int) *entry {
	if id < 0 || id >= len(g.models) {
		panic(fmt.Sprintf("scene: unknown model id %d", id))
	}
	return &g.models[id]
}

// Model returns the registered model with the given id.
func (g *Graph) Model(id int) *mesh.Model {
	return g.entry(id).model
}

// SetTransform sets the model-to-world transform of a registered model.
func (g *Graph) SetTransform(id int, transform math.Mat4) {
	g.entry(id).transform = transform
}

// Transform returns the model-to-world transform of a registered model.
func (g *Graph) Transform(id int) math.Mat4 {
	return g.entry(id).transform
}

// Len returns the number of registered models.
func (g *Graph) Len() int {
	return len(g.models)
}

// LoadModel reads and uploads a glTF asset. The model is not registered;
// the caller owns it until passed to AddModel.
func (g *Graph) LoadModel(ctx context.Context, fsys fs.FS, name string) (*mesh.Model, error) {
	data, err := mesh.Read(ctx, fsys, name)
	if err != nil {
		return nil, err
	}
	m, err := mesh.Upload(g.dev, data)
	if err != nil {
		return nil, err
	}
	g.log.Info("model loaded",
		zap.String("name", name),
		zap.Int("triangles", data.Triangles()),
		zap.Int("vertices", len(data.Positions)))
	return m, nil
}

// Close releases registered models, materials, the atlas and the sprite
// buffers. The graph must not be used afterwards.
func (g *Graph) Close() {
	for _, e := range g.models {
		e.model.Destroy()
	}
	g.models = nil

	if g.defaultMat != nil {
		g.defaultMat.Destroy()
	}
	if g.spriteMat != nil {
		g.spriteMat.Destroy()
	}
	if g.atlasTex != nil {
		g.dev.DeleteTexture(g.atlasTex)
		g.atlasTex = nil
	}
	if g.spriteVB != nil {
		g.dev.DeleteBuffer(g.spriteVB)
		g.spriteVB = nil
	}
	if g.spriteIB != nil {
		g.dev.DeleteBuffer(g.spriteIB)
		g.spriteIB = nil
	}
	g.pool = nil
	g.log.Debug("scene closed")
}
