// Package scene builds the render-oriented shape of a reconstruction: a
// colored point cloud plus one view per image carrying clip-space
// projection and view transforms and the still-encoded image bytes.
package scene

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

// Image holds a view's encoded file bytes. Pixels are decoded on demand.
type Image struct {
	ViewID  uint32
	Encoded []byte
}

// DecodeRGB decodes the image into an RGB raster. Each call decodes afresh
// and returns the same result.
func (img Image) DecodeRGB() (*imagecodec.RGBImage, error) {
	return imagecodec.DecodeRGB(img.Encoded)
}

// View is one posed image ready for rendering. Width and Height come from
// the encoded image header.
type View struct {
	ViewID              uint32
	ImageFileName       string
	Image               Image
	ProjectionTransform [16]float64
	ViewTransform       [16]float64
	Width               int
	Height              int
}

// Scene is a finished render scene.
type Scene struct {
	Points []Point
	Views  map[uint32]View
}

func (s *Scene) String() string {
	return fmt.Sprintf("Scene{points=%d views=%d}", len(s.Points), len(s.Views))
}

// renderImage is what RenderAdapter produces per image.
type renderImage struct {
	image  Image
	width  int
	height int
}

// RenderAdapter derives a projection matrix per camera and keeps the image
// encoded, reading only its header for dimensions.
type RenderAdapter struct {
	Near float64
	Far  float64
}

// DeriveProjection returns the row-major clip-space projection for cam.
func (a RenderAdapter) DeriveProjection(cam colmap.PinholeCamera) [16]float64 {
	return geometry.ProjectionTransform(
		cam.FocalLengthX, cam.FocalLengthY,
		cam.PrincipalPointX, cam.PrincipalPointY,
		float64(cam.Width), float64(cam.Height),
		a.Near, a.Far,
	)
}

// FinishImage reads the image header and keeps the bytes encoded.
func (a RenderAdapter) FinishImage(imageID uint32, name string, encoded []byte) (renderImage, error) {
	w, h, err := imagecodec.Dimensions(encoded)
	if err != nil {
		return renderImage{}, err
	}
	return renderImage{
		image:  Image{ViewID: imageID, Encoded: encoded},
		width:  w,
		height: h,
	}, nil
}

// Options configures FromSource. Zero clip planes fall back to the
// geometry defaults.
type Options struct {
	Workers   int
	NearPlane float64
	FarPlane  float64
}

func (o Options) adapter() RenderAdapter {
	a := RenderAdapter{Near: o.NearPlane, Far: o.FarPlane}
	if a.Near <= 0 {
		a.Near = geometry.DefaultNearPlane
	}
	if a.Far <= a.Near {
		a.Far = geometry.DefaultFarPlane
	}
	return a
}

// FromSource assembles a Scene from a decoded reconstruction and the image
// files it references.
func FromSource(rec *colmap.Reconstruction, files *imagefiles.Registry, opts Options) (*Scene, error) {
	units, err := assembly.Assemble[[16]float64, renderImage](
		rec.Cameras, rec.Images, files, opts.adapter(), assembly.Options{Workers: opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("assemble scene: %w", err)
	}

	s := &Scene{
		Points: ConvertPoints(rec.Points),
		Views:  make(map[uint32]View, len(units)),
	}
	for id, u := range units {
		s.Views[id] = View{
			ViewID:              u.ImageID,
			ImageFileName:       u.FileName,
			Image:               u.Image.image,
			ProjectionTransform: u.Projection,
			ViewTransform:       u.Pose.View,
			Width:               u.Image.width,
			Height:              u.Image.height,
		}
	}
	return s, nil
}

// ConvertPoints normalises point colors. Order is preserved.
func ConvertPoints(points colmap.Points) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{ColorRGB: p.NormalizedColor(), Position: p.Position}
	}
	return out
}
