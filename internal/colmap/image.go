package colmap

import (
	"io"

	"github.com/banshee-data/sparsescene/internal/colmap/cursor"
)

const (
	// keypointRecordSize is one 2D observation: f64 x, f64 y, i64 point3D_id.
	keypointRecordSize = 24

	// MaxFileNameLength bounds the NUL-terminated image name.
	MaxFileNameLength = 4096
)

// Image is a registered image pose. The 2D keypoints that follow the record
// in the file are skipped.
type Image struct {
	ImageID uint32
	// Quaternion is the world-to-camera rotation in w, x, y, z order.
	Quaternion  [4]float64
	Translation [3]float64
	CameraID    uint32
	FileName    string
}

// DecodeImage decodes one image record:
//
//	u32 image_id | f64 qw qx qy qz | f64 tx ty tz | u32 camera_id |
//	name\0 | u64 num_points2D | num_points2D × (f64 x, f64 y, i64 point3D_id)
func DecodeImage(r io.Reader) (Image, error) {
	var img Image
	var err error

	if img.ImageID, err = cursor.ReadOne[uint32](r); err != nil {
		return Image{}, err
	}
	q, err := cursor.Read[float64](r, 4)
	if err != nil {
		return Image{}, err
	}
	copy(img.Quaternion[:], q)

	t, err := cursor.Read[float64](r, 3)
	if err != nil {
		return Image{}, err
	}
	copy(img.Translation[:], t)

	if img.CameraID, err = cursor.ReadOne[uint32](r); err != nil {
		return Image{}, err
	}
	if img.FileName, err = cursor.ReadCString(r, MaxFileNameLength); err != nil {
		return Image{}, err
	}

	numPoints2D, err := cursor.ReadOne[uint64](r)
	if err != nil {
		return Image{}, err
	}
	skip, err := cursor.SkipSize(numPoints2D, keypointRecordSize)
	if err != nil {
		return Image{}, err
	}
	if err := cursor.Advance(r, skip); err != nil {
		return Image{}, err
	}

	tracef("image %d (%s) camera=%d keypoints=%d", img.ImageID, img.FileName, img.CameraID, numPoints2D)
	return img, nil
}
