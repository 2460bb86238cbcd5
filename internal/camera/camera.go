// Package camera turns a per-draw RenderState into the combined
// view-projection matrix the scene uploads to the GPU.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenekit/pkg/math"
)

// Clip planes for the 3D camera. They are fixed: nothing in the renderer
// configures them per draw.
const (
	ZNear float32 = 1.1
	ZFar  float32 = 100.0
)

// Lower bounds applied before building a matrix so that a zero zoom or
// field of view yields a finite (if useless) transform instead of NaN/Inf.
const (
	MinZoom float32 = 1e-4
	MinFovY float32 = 1e-3
)

// Projection selects how a Spatial camera projects onto the screen.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

func (p Projection) String() string {
	if p == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// Location is either a Planar or a Spatial camera.
type Location interface {
	isLocation()
}

// Planar is a 2D affine camera.
type Planar struct {
	// Rotation in degrees.
	Rotation float32
	// Zoom scales the world; (1, 1) is the neutral value.
	Zoom math.Vec2
	// Target is the rotation and zoom origin in world space.
	Target math.Vec2
	// Offset is the displacement of the target on screen.
	Offset math.Vec2
}

// Spatial is a 3D camera looking from Position at Target.
type Spatial struct {
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3
	// FovY is the vertical aperture in degrees for Perspective, and the
	// height of the view box in world units for Orthographic.
	FovY       float32
	Projection Projection
}

func (Planar) isLocation()  {}
func (Spatial) isLocation() {}

// DefaultPlanar returns the neutral 2D camera.
func DefaultPlanar() Planar {
	return Planar{Zoom: math.Vec2{X: 1, Y: 1}}
}

// Matrix maps world coordinates through the planar camera:
//
//	Translate(offset) * Scale(zoom) * RotateZ(-rotation) * Translate(-target)
//
// This is the inverse of the camera's own placement in the world, so both
// rotation and zoom act on the world opposite to the camera: turning the
// camera by r turns the world by -r, and a larger zoom makes the world
// bigger. Keep the order and the sign; swapping either silently breaks
// pan and zoom.
func (c Planar) Matrix() math.Mat4 {
	zoom := math.Vec2{X: clampAbs(c.Zoom.X, MinZoom), Y: clampAbs(c.Zoom.Y, MinZoom)}

	origin := math.Translate(-c.Target.X, -c.Target.Y, 0)
	rotation := math.RotateZ(-math.Radians(c.Rotation))
	scale := math.Scale(zoom.X, zoom.Y, 1)
	translation := math.Translate(c.Offset.X, c.Offset.Y, 0)

	return translation.Mul(scale.Mul(rotation).Mul(origin))
}

// Matrix returns projection * view for the given aspect ratio.
func (c Spatial) Matrix(aspect float32) math.Mat4 {
	view := math.LookAt(c.Position, c.Target, c.Up)
	fovy := c.FovY
	if !(fovy >= MinFovY) {
		fovy = MinFovY
	}

	switch c.Projection {
	case Orthographic:
		top, right := OrthoExtents(fovy, aspect)
		return math.Ortho(-right, right, -top, top, ZNear, ZFar).Mul(view)
	default:
		return math.Perspective(math.Radians(fovy), aspect, ZNear, ZFar).Mul(view)
	}
}

// OrthoExtents returns the half height and half width of the orthographic
// view box for the given FovY.
func OrthoExtents(fovy, aspect float32) (top, right float32) {
	top = fovy / 2
	right = top * aspect
	return top, right
}

// ScreenOrtho is the projection used when no camera is set: pixel
// coordinates with the origin in the top-left corner.
func ScreenOrtho(width, height float32) math.Mat4 {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	return math.Ortho(0, width, height, 0, -1, 1)
}

func clampAbs(v, limit float32) float32 {
	if math32.IsNaN(v) {
		return limit
	}
	if math32.Abs(v) >= limit {
		return v
	}
	if v < 0 {
		return -limit
	}
	return limit
}
