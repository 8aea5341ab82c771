// Package imagecodec turns encoded image bytes into an 8-bit RGB raster.
// It only adapts existing codecs: PNG, JPEG and GIF from the standard
// library and BMP, TIFF and WebP from golang.org/x/image.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// CodecError wraps a failure from the underlying image codec.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("image decode failed: %v", e.Err) }

func (e *CodecError) Unwrap() error { return e.Err }

// RGBImage is a packed, row-major 8-bit RGB raster without alpha.
type RGBImage struct {
	Width  int
	Height int
	// Format is the codec name reported by the image package ("png", "jpeg", ...).
	Format string
	Pix    []uint8
}

// At returns the RGB triple at (x, y).
func (m *RGBImage) At(x, y int) [3]uint8 {
	i := (y*m.Width + x) * 3
	return [3]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

// DecodeRGB decodes encoded into an RGB raster. Alpha is dropped without
// premultiplying, so straight-alpha sources keep their stored color values.
func DecodeRGB(encoded []byte) (*RGBImage, error) {
	src, format, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, &CodecError{Err: err}
	}

	b := src.Bounds()
	out := &RGBImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Pix:    make([]uint8, 3*b.Dx()*b.Dy()),
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			i += 3
		}
	}
	return out, nil
}

// Dimensions reads only the image header and returns its pixel size.
func Dimensions(encoded []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(encoded))
	if err != nil {
		return 0, 0, &CodecError{Err: err}
	}
	return cfg.Width, cfg.Height, nil
}
