package texture

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes an uncompressed or RLE true-color TGA image with 24
// or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.New("tga: header too short")
	}

	var (
		idLength    = int(data[0])
		colorMap    = data[1]
		kind        = data[2]
		width       = int(data[12]) | int(data[13])<<8
		height      = int(data[14]) | int(data[15])<<8
		bpp         = int(data[16])
		topToBottom = data[17]&0x20 != 0
	)
	switch {
	case colorMap != 0:
		return nil, errors.New("tga: color-mapped images are not supported")
	case kind != TGATypeUncompressed && kind != TGATypeRLE:
		return nil, fmt.Errorf("tga: unsupported image type %d", kind)
	case bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	case width == 0 || height == 0:
		return nil, errors.New("tga: empty image")
	}

	src := data[tgaHeaderSize:]
	if idLength > len(src) {
		return nil, errTGATruncated
	}
	src = src[idLength:]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	px := pixelWriter{img: img, bpp: bpp / 8, flip: !topToBottom}

	if kind == TGATypeUncompressed {
		if len(src) < width*height*px.bpp {
			return nil, errTGATruncated
		}
		for n := 0; n < width*height; n++ {
			px.put(n, src[n*px.bpp:])
		}
		return img, nil
	}

	n := 0
	for n < width*height {
		if len(src) == 0 {
			return nil, errTGATruncated
		}
		header := src[0]
		src = src[1:]
		count := int(header&0x7f) + 1

		if header&0x80 != 0 {
			if len(src) < px.bpp {
				return nil, errTGATruncated
			}
			for ; count > 0 && n < width*height; count-- {
				px.put(n, src)
				n++
			}
			src = src[px.bpp:]
			continue
		}

		if len(src) < count*px.bpp {
			return nil, errTGATruncated
		}
		for ; count > 0 && n < width*height; count-- {
			px.put(n, src)
			src = src[px.bpp:]
			n++
		}
	}
	return img, nil
}

// pixelWriter stores BGR(A) pixels into an RGBA image in file order.
type pixelWriter struct {
	img  *image.RGBA
	bpp  int
	flip bool
}

func (w pixelWriter) put(n int, bgra []byte) {
	width := w.img.Rect.Dx()
	x, y := n%width, n/width
	if w.flip {
		y = w.img.Rect.Dy() - 1 - y
	}
	i := w.img.PixOffset(x, y)
	w.img.Pix[i+0] = bgra[2]
	w.img.Pix[i+1] = bgra[1]
	w.img.Pix[i+2] = bgra[0]
	w.img.Pix[i+3] = 255
	if w.bpp == 4 {
		w.img.Pix[i+3] = bgra[3]
	}
}
