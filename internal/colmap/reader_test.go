package colmap

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sparsescene/internal/colmap/cursor"
	"github.com/banshee-data/sparsescene/internal/fsutil"
	"github.com/banshee-data/sparsescene/internal/testutil"
)

func TestReadCameras(t *testing.T) {
	t.Parallel()

	cams, err := ReadCameras(bytes.NewReader(testutil.CamerasFile(pinholeRecord(1), pinholeRecord(2))))
	require.NoError(t, err)
	require.Len(t, cams, 2)

	c, ok := cams.Get(2)
	require.True(t, ok)
	assert.Equal(t, ModelPinhole, c.Model)

	_, ok = cams.Get(3)
	assert.False(t, ok)
}

func TestReadCameras_DuplicateRejected(t *testing.T) {
	t.Parallel()

	_, err := ReadCameras(bytes.NewReader(testutil.CamerasFile(pinholeRecord(1), pinholeRecord(1))))
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "camera", dup.Kind)
	assert.Equal(t, uint32(1), dup.ID)
}

func TestReadImages_DuplicateRejected(t *testing.T) {
	t.Parallel()

	rec := testutil.ImageRecord{ID: 3, CameraID: 1, Name: "a.png"}
	_, err := ReadImages(bytes.NewReader(testutil.ImagesFile(rec, rec)))
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "image", dup.Kind)
}

func TestReadImages_CountExceedsRecords(t *testing.T) {
	t.Parallel()

	payload := testutil.ImagesFile(testutil.ImageRecord{ID: 1, CameraID: 1, Name: "a.png"})
	payload[0] = 2
	_, err := ReadImages(bytes.NewReader(payload))
	require.ErrorIs(t, err, cursor.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "image record 1")
}

func TestReadPoints(t *testing.T) {
	t.Parallel()

	points, err := ReadPoints(bytes.NewReader(testutil.PointsFile(
		testutil.PointRecord{ID: 1, Position: [3]float64{1, 1, 1}, Color: [3]uint8{10, 20, 30}, TrackLength: 2},
		testutil.PointRecord{ID: 2, Position: [3]float64{2, 2, 2}, Color: [3]uint8{40, 50, 60}},
		testutil.PointRecord{ID: 3, Position: [3]float64{3, 3, 3}, Color: [3]uint8{70, 80, 90}, TrackLength: 1},
	)))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, [3]uint8{40, 50, 60}, points[1].Color)
	assert.Equal(t, [3]float64{3, 3, 3}, points[2].Position)
}

func TestReadPoints_EmptyStream(t *testing.T) {
	t.Parallel()

	_, err := ReadPoints(bytes.NewReader(nil))
	assert.ErrorIs(t, err, cursor.ErrUnexpectedEOF)
}

func TestImagesHelpers(t *testing.T) {
	t.Parallel()

	images := Images{}
	require.NoError(t, images.Insert(Image{ImageID: 9, FileName: "b.png"}))
	require.NoError(t, images.Insert(Image{ImageID: 2, FileName: "a.png"}))
	require.NoError(t, images.Insert(Image{ImageID: 5, FileName: "b.png"}))

	assert.Equal(t, []uint32{2, 5, 9}, images.IDs())
	assert.Equal(t, []string{"a.png", "b.png"}, images.FileNames())
}

func writeModel(mfs *fsutil.MemoryFileSystem, dir string) {
	mfs.WriteFile(dir+"/"+CamerasFile, testutil.CamerasFile(pinholeRecord(1)))
	mfs.WriteFile(dir+"/"+ImagesFile, testutil.ImagesFile(
		testutil.ImageRecord{ID: 7, Quaternion: [4]float64{1, 0, 0, 0}, CameraID: 1, Name: "a.png", Keypoints: 5},
	))
	mfs.WriteFile(dir+"/"+PointsFile, testutil.PointsFile(
		testutil.PointRecord{ID: 1, Color: [3]uint8{255, 0, 0}, TrackLength: 1},
	))
}

func TestLoadReconstruction(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	writeModel(mfs, "/data/sparse/0")

	rec, err := LoadReconstruction(mfs, "/data/sparse/0")
	require.NoError(t, err)
	assert.Len(t, rec.Cameras, 1)
	assert.Len(t, rec.Images, 1)
	assert.Len(t, rec.Points, 1)
	assert.Equal(t, "Reconstruction{cameras=1 images=1 points=1}", rec.String())
}

func TestLoadReconstruction_MissingFile(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/m/"+CamerasFile, testutil.CamerasFile())

	_, err := LoadReconstruction(mfs, "/m")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, strings.Contains(err.Error(), ImagesFile))
}

func TestLoadReconstruction_CorruptFileNamesPath(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	writeModel(mfs, "/m")
	mfs.WriteFile("/m/"+PointsFile, []byte{1, 0, 0, 0, 0, 0, 0, 0, 9})

	_, err := LoadReconstruction(mfs, "/m")
	require.ErrorIs(t, err, cursor.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), PointsFile)
}
