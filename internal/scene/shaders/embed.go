// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader is the vertex shader of the default model material.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader is the fragment shader of the default model material.
//
//go:embed model.frag
var ModelFragmentShader string

// SpriteVertexShader is the vertex shader for 2D layers.
//
//go:embed sprite.vert
var SpriteVertexShader string

// SpriteFragmentShader is the fragment shader for 2D layers.
//
//go:embed sprite.frag
var SpriteFragmentShader string
