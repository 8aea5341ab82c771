package geometry

import "math"

// Default clip planes used when a caller does not configure its own.
const (
	DefaultNearPlane = 0.01
	DefaultFarPlane  = 1000.0
)

// FieldOfView returns the full angle subtended by dimension pixels at the
// given focal length: 2·atan2(dimension, 2·focal).
func FieldOfView(dimension, focal float64) float64 {
	return 2 * math.Atan2(dimension, 2*focal)
}

// ProjectionTransform returns a row-major clip-space projection for a
// pinhole camera in the COLMAP frame (z forward, y down). After the
// perspective divide a pixel (u, v) lands on NDC (2u/w - 1, 2v/h - 1) and a
// depth of near maps to -1, far to +1.
func ProjectionTransform(fx, fy, cx, cy, width, height, near, far float64) [16]float64 {
	return [16]float64{
		2 * fx / width, 0, 2*cx/width - 1, 0,
		0, 2 * fy / height, 2*cy/height - 1, 0,
		0, 0, (far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, 1, 0,
	}
}

// Project applies a row-major projection P to a camera-space point and
// performs the perspective divide.
func Project(P [16]float64, p [3]float64) [3]float64 {
	x := P[0]*p[0] + P[1]*p[1] + P[2]*p[2] + P[3]
	y := P[4]*p[0] + P[5]*p[1] + P[6]*p[2] + P[7]
	z := P[8]*p[0] + P[9]*p[1] + P[10]*p[2] + P[11]
	w := P[12]*p[0] + P[13]*p[1] + P[14]*p[2] + P[15]
	return [3]float64{x / w, y / w, z / w}
}
