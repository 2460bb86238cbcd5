package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenekit/internal/gpu"
	"github.com/Faultbox/scenekit/internal/material"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Viewport is a rectangle on the target in pixels.
type Viewport struct {
	X, Y, Width, Height int32
}

// RenderState describes one draw call: where it goes and how it is seen.
// Callers build one per draw; the scene reads it and never keeps it.
type RenderState struct {
	// Camera is nil for screen-space drawing.
	Camera       Location
	DepthEnabled bool
	// Target is nil for the default surface.
	Target gpu.RenderTarget
	// Aspect overrides the surface aspect ratio when set.
	Aspect   *float32
	Viewport *Viewport
	// Material replaces the scene's default material when set.
	Material *material.Material
}

// Default returns a screen-space state drawing to the default surface.
func Default() RenderState {
	return RenderState{}
}

// WithCamera returns a copy of s using cam.
func (s RenderState) WithCamera(cam Location) RenderState {
	s.Camera = cam
	return s
}

// WithTarget returns a copy of s drawing into rt.
func (s RenderState) WithTarget(rt gpu.RenderTarget) RenderState {
	s.Target = rt
	return s
}

// WithAspect returns a copy of s with an explicit aspect ratio.
func (s RenderState) WithAspect(aspect float32) RenderState {
	s.Aspect = &aspect
	return s
}

// WithViewport returns a copy of s restricted to the given rectangle.
func (s RenderState) WithViewport(x, y, width, height int32) RenderState {
	s.Viewport = &Viewport{X: x, Y: y, Width: width, Height: height}
	return s
}

// WithMaterial returns a copy of s drawing with m.
func (s RenderState) WithMaterial(m *material.Material) RenderState {
	s.Material = m
	return s
}

// AspectRatio resolves the aspect ratio: the explicit Aspect if set, else
// the surface size. Non-finite or non-positive values fall back to 1.
func (s RenderState) AspectRatio(screenW, screenH float32) float32 {
	aspect := float32(1)
	if s.Aspect != nil {
		aspect = *s.Aspect
	} else if screenH != 0 {
		aspect = screenW / screenH
	}
	if aspect <= 0 || math32.IsNaN(aspect) || math32.IsInf(aspect, 0) {
		return 1
	}
	return aspect
}

// Matrix returns the combined view-projection transform for this state.
// The surface size is only consulted for screen space and for the aspect
// ratio of a Spatial camera without an explicit Aspect. A nil camera,
// including a nil *Planar or *Spatial, draws in screen space.
func (s RenderState) Matrix(screenW, screenH float32) math.Mat4 {
	switch cam := s.Camera.(type) {
	case Planar:
		return cam.Matrix()
	case *Planar:
		if cam == nil {
			return ScreenOrtho(screenW, screenH)
		}
		return cam.Matrix()
	case Spatial:
		return cam.Matrix(s.AspectRatio(screenW, screenH))
	case *Spatial:
		if cam == nil {
			return ScreenOrtho(screenW, screenH)
		}
		return cam.Matrix(s.AspectRatio(screenW, screenH))
	case nil:
		return ScreenOrtho(screenW, screenH)
	default:
		panic("camera: unknown camera location type")
	}
}
