package scene

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sparsescene/internal/assembly"
	"github.com/banshee-data/sparsescene/internal/colmap"
	"github.com/banshee-data/sparsescene/internal/geometry"
	"github.com/banshee-data/sparsescene/internal/imagecodec"
	"github.com/banshee-data/sparsescene/internal/imagefiles"
	"github.com/banshee-data/sparsescene/internal/testutil"
)

func reconstruction() *colmap.Reconstruction {
	return &colmap.Reconstruction{
		Cameras: colmap.Cameras{1: colmap.NewPinholeCamera(colmap.PinholeCamera{
			ID: 1, Width: 4, Height: 4,
			FocalLengthX: 2, FocalLengthY: 2, PrincipalPointX: 2, PrincipalPointY: 2,
		})},
		Images: colmap.Images{7: {
			ImageID:    7,
			Quaternion: [4]float64{1, 0, 0, 0},
			CameraID:   1,
			FileName:   "a.png",
		}},
		Points: colmap.Points{
			{Position: [3]float64{1, 2, 3}, Color: [3]uint8{255, 0, 51}},
			{Position: [3]float64{-1, 0, 4}, Color: [3]uint8{0, 255, 0}},
		},
	}
}

func registry(t *testing.T, name string, data []byte) *imagefiles.Registry {
	t.Helper()
	reg := imagefiles.NewRegistry()
	require.NoError(t, reg.Add(name, bytes.NewReader(data)))
	return reg
}

func TestFromSource(t *testing.T) {
	files := registry(t, "a.png", testutil.OnePixelPNG)

	s, err := FromSource(reconstruction(), files, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Scene{points=2 views=1}", s.String())

	require.Len(t, s.Points, 2)
	assert.Equal(t, [3]float64{1, 0, 0.2}, s.Points[0].ColorRGB)
	assert.Equal(t, [3]float64{1, 2, 3}, s.Points[0].Position)

	v, ok := s.Views[7]
	require.True(t, ok)
	assert.Equal(t, uint32(7), v.ViewID)
	assert.Equal(t, "a.png", v.ImageFileName)
	assert.Equal(t, 1, v.Width)
	assert.Equal(t, 1, v.Height)
	assert.Equal(t, uint32(7), v.Image.ViewID)
	assert.Equal(t, testutil.OnePixelPNG, v.Image.Encoded)
	assert.True(t, geometry.IsValidTransformMatrix(v.ViewTransform))

	want := geometry.ProjectionTransform(2, 2, 2, 2, 4, 4, geometry.DefaultNearPlane, geometry.DefaultFarPlane)
	assert.Equal(t, want, v.ProjectionTransform)

	_, err = files.Take("a.png")
	var nameErr *imagefiles.UnknownFileNameError
	assert.ErrorAs(t, err, &nameErr)
}

func TestFromSource_ClipPlanes(t *testing.T) {
	files := registry(t, "a.png", testutil.OnePixelPNG)
	s, err := FromSource(reconstruction(), files, Options{NearPlane: 0.5, FarPlane: 50, Workers: 1})
	require.NoError(t, err)

	P := s.Views[7].ProjectionTransform
	assert.InDelta(t, -1, geometry.Project(P, [3]float64{0, 0, 0.5})[2], 1e-9)
	assert.InDelta(t, 1, geometry.Project(P, [3]float64{0, 0, 50})[2], 1e-9)
}

func TestFromSource_UndecodableImage(t *testing.T) {
	files := registry(t, "a.png", []byte("not a png"))
	s, err := FromSource(reconstruction(), files, Options{})
	assert.Nil(t, s)
	var codecErr *imagecodec.CodecError
	assert.ErrorAs(t, err, &codecErr)
}

func TestFromSource_UnknownCamera(t *testing.T) {
	rec := reconstruction()
	img := rec.Images[7]
	img.CameraID = 2
	rec.Images[7] = img

	_, err := FromSource(rec, registry(t, "a.png", testutil.OnePixelPNG), Options{})
	var camErr *assembly.UnknownCameraIDError
	require.ErrorAs(t, err, &camErr)
	assert.Equal(t, uint32(2), camErr.ID)
}

func TestImageDecodeRGB(t *testing.T) {
	img := Image{ViewID: 3, Encoded: testutil.SolidPNG(t, 2, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255})}
	first, err := img.DecodeRGB()
	require.NoError(t, err)
	second, err := img.DecodeRGB()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, [3]uint8{9, 8, 7}, first.At(1, 1))
}

func TestOptionsAdapterDefaults(t *testing.T) {
	a := Options{NearPlane: 5, FarPlane: 1}.adapter()
	assert.Equal(t, 5.0, a.Near)
	assert.Equal(t, geometry.DefaultFarPlane, a.Far)

	a = Options{}.adapter()
	assert.Equal(t, geometry.DefaultNearPlane, a.Near)
}
