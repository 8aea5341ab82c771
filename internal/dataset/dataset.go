// Package dataset builds the training-oriented shape of a reconstruction:
// cameras carry a field-of-view pair, pose and a decoded RGB raster.
package dataset

import (
	"fmt"

	"github.com/banshee-data/sparsescene/internal/assembly"
	"github.com/banshee-data/sparsescene/internal/colmap"
	"github.com/banshee-data/sparsescene/internal/geometry"
	"github.com/banshee-data/sparsescene/internal/imagecodec"
	"github.com/banshee-data/sparsescene/internal/imagefiles"
)

// Point is a sparse point with its color normalised to [0, 1].
type Point struct {
	ColorRGB [3]float64
	Position [3]float64
}

// FieldOfView is the full horizontal and vertical view angle in radians.
type FieldOfView struct {
	X float64
	Y float64
}

// Camera is one posed, decoded training image.
type Camera struct {
	ID           uint32
	FileName     string
	FieldOfViewX float64
	FieldOfViewY float64
	// Rotation is the world-to-camera rotation, row-major.
	Rotation [9]float64
	// Position is the camera centre in world coordinates.
	Position      [3]float64
	ViewTransform [16]float64
	Image         *imagecodec.RGBImage
}

// Dataset is a finished training dataset.
type Dataset struct {
	Points  []Point
	Cameras map[uint32]Camera
}

func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset{points=%d cameras=%d}", len(d.Points), len(d.Cameras))
}

// TrainAdapter derives field-of-view pairs and decodes images fully.
type TrainAdapter struct{}

// DeriveProjection returns the horizontal and vertical field of view of cam.
func (TrainAdapter) DeriveProjection(cam colmap.PinholeCamera) FieldOfView {
	return FieldOfView{
		X: geometry.FieldOfView(float64(cam.Width), cam.FocalLengthX),
		Y: geometry.FieldOfView(float64(cam.Height), cam.FocalLengthY),
	}
}

// FinishImage decodes encoded into an RGB raster.
func (TrainAdapter) FinishImage(imageID uint32, name string, encoded []byte) (*imagecodec.RGBImage, error) {
	return imagecodec.DecodeRGB(encoded)
}

// Options configures FromSource.
type Options struct {
	Workers int
}

// FromSource assembles a Dataset from a decoded reconstruction and the image
// files it references.
func FromSource(rec *colmap.Reconstruction, files *imagefiles.Registry, opts Options) (*Dataset, error) {
	units, err := assembly.Assemble[FieldOfView, *imagecodec.RGBImage](
		rec.Cameras, rec.Images, files, TrainAdapter{}, assembly.Options{Workers: opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("assemble dataset: %w", err)
	}

	d := &Dataset{
		Points:  make([]Point, len(rec.Points)),
		Cameras: make(map[uint32]Camera, len(units)),
	}
	for i, p := range rec.Points {
		d.Points[i] = Point{ColorRGB: p.NormalizedColor(), Position: p.Position}
	}
	for id, u := range units {
		d.Cameras[id] = Camera{
			ID:            u.ImageID,
			FileName:      u.FileName,
			FieldOfViewX:  u.Projection.X,
			FieldOfViewY:  u.Projection.Y,
			Rotation:      u.Pose.Rotation,
			Position:      u.Pose.Position,
			ViewTransform: u.Pose.View,
			Image:         u.Image,
		}
	}
	return d, nil
}
