package imagecodec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/banshee-data/sparsescene/internal/testutil"
)

func TestDecodeRGB_Idempotent(t *testing.T) {
	t.Parallel()

	var first *RGBImage
	for i := 0; i < 3; i++ {
		img, err := DecodeRGB(testutil.OnePixelPNG)
		require.NoError(t, err)
		assert.Equal(t, 1, img.Width)
		assert.Equal(t, 1, img.Height)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, [3]uint8{0xff, 0x00, 0x3d}, img.At(0, 0))
		if first == nil {
			first = img
		} else {
			assert.Equal(t, first, img)
		}
	}
}

func TestDecodeRGB_SolidPNG(t *testing.T) {
	t.Parallel()

	encoded := testutil.SolidPNG(t, 5, 3, color.NRGBA{R: 12, G: 34, B: 56, A: 255})
	img, err := DecodeRGB(encoded)
	require.NoError(t, err)
	require.Len(t, img.Pix, 5*3*3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, [3]uint8{12, 34, 56}, img.At(x, y))
		}
	}
}

func TestDecodeRGB_BMP(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{A: 255})
		}
	}
	src.Set(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, err := DecodeRGB(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", img.Format)
	assert.Equal(t, [3]uint8{200, 100, 50}, img.At(1, 1))
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 16, 9))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	w, h, err := Dimensions(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, w)
	assert.Equal(t, 9, h)
}

func TestDecodeRGB_Garbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeRGB([]byte("not an image"))
	var codecErr *CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.True(t, errors.Is(err, image.ErrFormat))

	_, _, err = Dimensions(nil)
	assert.ErrorAs(t, err, &codecErr)
}
