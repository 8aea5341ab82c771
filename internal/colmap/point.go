package colmap

import (
	"io"

	"github.com/banshee-data/sparsescene/internal/colmap/cursor"
)

// trackEntrySize is one track element: u32 image_id, u32 point2D_idx.
const trackEntrySize = 8

// Point is a sparse 3D point. Its id, reprojection error and track are not
// retained.
type Point struct {
	Position [3]float64
	Color    [3]uint8
}

// NormalizedColor returns the color with each channel scaled to [0, 1].
func (p Point) NormalizedColor() [3]float64 {
	return [3]float64{
		float64(p.Color[0]) / 255.0,
		float64(p.Color[1]) / 255.0,
		float64(p.Color[2]) / 255.0,
	}
}

// DecodePoint decodes one point record:
//
//	u64 point3D_id | f64 x y z | u8 r g b | f64 error |
//	u64 track_length | track_length × (u32 image_id, u32 point2D_idx)
func DecodePoint(r io.Reader) (Point, error) {
	if err := cursor.Advance(r, 8); err != nil {
		return Point{}, err
	}
	position, err := cursor.Read[float64](r, 3)
	if err != nil {
		return Point{}, err
	}
	color, err := cursor.Read[uint8](r, 3)
	if err != nil {
		return Point{}, err
	}
	if err := cursor.Advance(r, 8); err != nil {
		return Point{}, err
	}

	trackLength, err := cursor.ReadOne[uint64](r)
	if err != nil {
		return Point{}, err
	}
	skip, err := cursor.SkipSize(trackLength, trackEntrySize)
	if err != nil {
		return Point{}, err
	}
	if err := cursor.Advance(r, skip); err != nil {
		return Point{}, err
	}

	var p Point
	copy(p.Position[:], position)
	copy(p.Color[:], color)
	return p, nil
}
