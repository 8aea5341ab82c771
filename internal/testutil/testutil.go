// Package testutil provides shared test fixtures: byte-exact encoders for
// COLMAP model records and small encoded images.
//
// The record types here mirror the on-disk layout rather than the decoded
// types so packages under test can use them without an import cycle.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// CameraRecord is one cameras.bin record.
type CameraRecord struct {
	ID     uint32
	Model  int32
	Width  uint64
	Height uint64
	Params []float64
}

// ImageRecord is one images.bin record. Keypoints is the number of 2D
// observations written after the name.
type ImageRecord struct {
	ID          uint32
	Quaternion  [4]float64
	Translation [3]float64
	CameraID    uint32
	Name        string
	Keypoints   int
}

// PointRecord is one points3D.bin record. TrackLength is the number of track
// entries written after the length field.
type PointRecord struct {
	ID          uint64
	Position    [3]float64
	Color       [3]uint8
	Error       float64
	TrackLength int
}

func put(buf *bytes.Buffer, v any) {
	// bytes.Buffer never fails and v is always a fixed-size value.
	_ = binary.Write(buf, binary.LittleEndian, v)
}

// EncodeCamera returns the bytes of a single camera record.
func EncodeCamera(c CameraRecord) []byte {
	var buf bytes.Buffer
	put(&buf, c.ID)
	put(&buf, c.Model)
	put(&buf, c.Width)
	put(&buf, c.Height)
	put(&buf, c.Params)
	return buf.Bytes()
}

// EncodeImage returns the bytes of a single image record.
func EncodeImage(img ImageRecord) []byte {
	var buf bytes.Buffer
	put(&buf, img.ID)
	put(&buf, img.Quaternion)
	put(&buf, img.Translation)
	put(&buf, img.CameraID)
	buf.WriteString(img.Name)
	buf.WriteByte(0)
	put(&buf, uint64(img.Keypoints))
	for i := 0; i < img.Keypoints; i++ {
		put(&buf, [2]float64{float64(i), float64(i) + 0.5})
		put(&buf, int64(-1))
	}
	return buf.Bytes()
}

// EncodePoint returns the bytes of a single point record.
func EncodePoint(p PointRecord) []byte {
	var buf bytes.Buffer
	put(&buf, p.ID)
	put(&buf, p.Position)
	put(&buf, p.Color)
	put(&buf, p.Error)
	put(&buf, uint64(p.TrackLength))
	for i := 0; i < p.TrackLength; i++ {
		put(&buf, [2]uint32{uint32(i + 1), uint32(i)})
	}
	return buf.Bytes()
}

// CamerasFile returns a full cameras.bin payload.
func CamerasFile(cameras ...CameraRecord) []byte {
	var buf bytes.Buffer
	put(&buf, uint64(len(cameras)))
	for _, c := range cameras {
		buf.Write(EncodeCamera(c))
	}
	return buf.Bytes()
}

// ImagesFile returns a full images.bin payload.
func ImagesFile(images ...ImageRecord) []byte {
	var buf bytes.Buffer
	put(&buf, uint64(len(images)))
	for _, img := range images {
		buf.Write(EncodeImage(img))
	}
	return buf.Bytes()
}

// PointsFile returns a full points3D.bin payload.
func PointsFile(points ...PointRecord) []byte {
	var buf bytes.Buffer
	put(&buf, uint64(len(points)))
	for _, p := range points {
		buf.Write(EncodePoint(p))
	}
	return buf.Bytes()
}

// OnePixelPNG is a 1×1 RGBA PNG whose single pixel is (0xff, 0x00, 0x3d)
// with alpha 0x8b. It carries sRGB and eXIf chunks like camera exports do.
var OnePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00,
	0x00, 0x0d, 0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f,
	0x15, 0xc4, 0x89, 0x00, 0x00, 0x00, 0x01, 0x73, 0x52, 0x47,
	0x42, 0x00, 0xae, 0xce, 0x1c, 0xe9, 0x00, 0x00, 0x00, 0x44,
	0x65, 0x58, 0x49, 0x66, 0x4d, 0x4d, 0x00, 0x2a, 0x00, 0x00,
	0x00, 0x08, 0x00, 0x01, 0x87, 0x69, 0x00, 0x04, 0x00, 0x00,
	0x00, 0x01, 0x00, 0x00, 0x00, 0x1a, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x03, 0xa0, 0x01, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x01, 0x00, 0x00, 0xa0, 0x02, 0x00, 0x04, 0x00, 0x00,
	0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0xa0, 0x03, 0x00, 0x04,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00,
	0x00, 0x00, 0xf9, 0x22, 0x9d, 0xfe, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x44, 0x41, 0x54, 0x08, 0x1d, 0x63, 0xf8, 0xcf, 0x60,
	0xdb, 0x0d, 0x00, 0x05, 0x06, 0x01, 0xc8, 0x5d, 0xd6, 0x92,
	0xd1, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

// SolidPNG encodes a width×height opaque PNG filled with c.
func SolidPNG(t testing.TB, width, height int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
