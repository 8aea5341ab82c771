package preview

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() Frame {
	f := Frame{Title: "garden", MaxPoints: 50}
	for i := 0; i < 200; i++ {
		x := float64(i%20) - 10
		z := float64(i/20) - 5
		f.Points = append(f.Points, Point{Position: [3]float64{x, 0, z}, Color: [3]float64{0.5, 0.25, 1}})
	}
	f.Cameras = []Camera{{ID: 1, Position: [3]float64{0, -1, -8}}, {ID: 2, Position: [3]float64{3, -1, -8}}}
	return f
}

func TestStride(t *testing.T) {
	assert.Equal(t, 1, Stride(10, 0))
	assert.Equal(t, 1, Stride(10, 10))
	assert.Equal(t, 2, Stride(11, 10))
	assert.Equal(t, 4, Stride(200, 50))
}

func TestSampled(t *testing.T) {
	f := sampleFrame()
	got := f.sampled()
	assert.Len(t, got, 50)
	assert.Equal(t, f.Points[4], got[1])

	f.MaxPoints = 0
	assert.Len(t, f.sampled(), 200)
}

func TestToRGBA(t *testing.T) {
	c := toRGBA([3]float64{1, 0.2, -3})
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(51), c.G)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(255), c.A)
}

func TestMeanColorHex(t *testing.T) {
	assert.Equal(t, "#9ca3af", meanColorHex(nil))
	pts := []Point{{Color: [3]float64{1, 0, 0}}, {Color: [3]float64{0, 0, 1}}}
	assert.Equal(t, "#800080", meanColorHex(pts))
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.png")
	require.NoError(t, WritePNG(path, sampleFrame()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 100)
}

func TestWritePNG_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, WritePNG(path, Frame{Title: "empty"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleFrame()))
	out := buf.String()
	assert.Contains(t, out, "garden")
	assert.Contains(t, out, "points=50/200 cameras=2")
	assert.Contains(t, out, "camera 2")
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "previews")
	pngPath, htmlPath, err := WriteAll(dir, "scene", sampleFrame())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene.png"), pngPath)
	assert.Equal(t, filepath.Join(dir, "scene.html"), htmlPath)
	for _, p := range []string{pngPath, htmlPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
