// Package texture decodes image files into RGBA pixels and uploads them
// as GPU textures for materials.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io/fs"
	"path"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// Options controls decoding.
type Options struct {
	// ColorKey turns magenta pixels transparent, for images authored
	// without an alpha channel.
	ColorKey bool
}

// Decode decodes data according to the extension of name. TGA and BMP
// are decoded directly; anything else goes through the registered
// image formats (PNG, JPEG).
func Decode(name string, data []byte, opts Options) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".tga":
		img, err = DecodeTGA(data)
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	rgba := ToRGBA(img)
	if opts.ColorKey {
		ApplyColorKey(rgba)
	}
	return rgba, nil
}

// Load reads name from fsys, decodes it and uploads it to dev.
func Load(dev gpu.Device, fsys fs.FS, name string, opts Options) (gpu.Texture, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	img, err := Decode(name, data, opts)
	if err != nil {
		return nil, err
	}
	return Upload(dev, img)
}

// Upload creates a texture from img.
func Upload(dev gpu.Device, img *image.RGBA) (gpu.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("texture: empty image")
	}
	tex, err := dev.NewTexture(b.Dx(), b.Dy(), img.Pix)
	if err != nil {
		return nil, fmt.Errorf("uploading texture %dx%d: %w", b.Dx(), b.Dy(), err)
	}
	return tex, nil
}

// ToRGBA returns img as a tightly packed *image.RGBA with its origin at
// (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// IsColorKey reports whether an RGB value is the magenta transparency
// key. The tolerance absorbs rounding from lossy encoders.
func IsColorKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyColorKey makes magenta pixels transparent black in place, so
// filtering does not bleed the key color into edges.
func ApplyColorKey(img *image.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if IsColorKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0
		}
	}
}
