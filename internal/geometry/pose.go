// Package geometry derives camera-space quantities from COLMAP poses and
// pinhole intrinsics.
//
// COLMAP stores world-to-camera poses: x_cam = R·x_world + t, with R given as
// a unit quaternion in w, x, y, z order. The camera frame is x right, y down,
// z forward. All 4×4 transforms here are row-major [16]float64, the same
// layout used by the rest of the pipeline.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// MatrixValidationTolerance is the tolerance for checking rotation matrix validity.
const MatrixValidationTolerance = 0.01

// RotationFromQuaternion returns the 3×3 rotation matrix of q (w, x, y, z).
// q is normalised first; a zero quaternion yields the identity.
func RotationFromQuaternion(q [4]float64) *mat.Dense {
	n := quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
	abs := quat.Abs(n)
	if abs == 0 || math.IsNaN(abs) {
		return identity3()
	}
	n = quat.Scale(1/abs, n)

	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// CameraPosition returns the camera centre in world coordinates, -Rᵀ·t.
func CameraPosition(r mat.Matrix, t [3]float64) [3]float64 {
	var c mat.VecDense
	c.MulVec(r.T(), mat.NewVecDense(3, t[:]))
	c.ScaleVec(-1, &c)
	return [3]float64{c.AtVec(0), c.AtVec(1), c.AtVec(2)}
}

// ViewTransform returns the world-to-camera transform [R t; 0 0 0 1].
func ViewTransform(r mat.Matrix, t [3]float64) [16]float64 {
	return [16]float64{
		r.At(0, 0), r.At(0, 1), r.At(0, 2), t[0],
		r.At(1, 0), r.At(1, 1), r.At(1, 2), t[1],
		r.At(2, 0), r.At(2, 1), r.At(2, 2), t[2],
		0, 0, 0, 1,
	}
}

// CameraToWorld returns the inverse of ViewTransform, [Rᵀ -Rᵀt; 0 0 0 1].
func CameraToWorld(r mat.Matrix, t [3]float64) [16]float64 {
	c := CameraPosition(r, t)
	return [16]float64{
		r.At(0, 0), r.At(1, 0), r.At(2, 0), c[0],
		r.At(0, 1), r.At(1, 1), r.At(2, 1), c[1],
		r.At(0, 2), r.At(1, 2), r.At(2, 2), c[2],
		0, 0, 0, 1,
	}
}

// ApplyTransform applies a row-major 4×4 rigid transform T to (x, y, z).
func ApplyTransform(T [16]float64, p [3]float64) [3]float64 {
	return [3]float64{
		T[0]*p[0] + T[1]*p[1] + T[2]*p[2] + T[3],
		T[4]*p[0] + T[5]*p[1] + T[6]*p[2] + T[7],
		T[8]*p[0] + T[9]*p[1] + T[10]*p[2] + T[11],
	}
}

// IsValidTransformMatrix checks if a 4x4 matrix is a valid rigid transform:
// the rotation block has det ≈ 1 and the last row is [0 0 0 1].
func IsValidTransformMatrix(T [16]float64) bool {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > MatrixValidationTolerance {
		return false
	}

	if T[12] != 0 || T[13] != 0 || T[14] != 0 || math.Abs(T[15]-1.0) > 0.001 {
		return false
	}

	return true
}

// Pose is the camera-space geometry derived from one image record.
type Pose struct {
	// Rotation is the world-to-camera rotation, row-major 3×3.
	Rotation [9]float64
	// Position is the camera centre in world coordinates.
	Position [3]float64
	// View is the world-to-camera transform.
	View [16]float64
}

// NewPose derives rotation, camera centre and view transform from a
// quaternion and translation.
func NewPose(q [4]float64, t [3]float64) Pose {
	r := RotationFromQuaternion(q)
	var p Pose
	copy(p.Rotation[:], r.RawMatrix().Data)
	p.Position = CameraPosition(r, t)
	p.View = ViewTransform(r, t)
	return p
}

// RotationMatrix returns Rotation as a gonum matrix.
func (p Pose) RotationMatrix() *mat.Dense {
	data := make([]float64, 9)
	copy(data, p.Rotation[:])
	return mat.NewDense(3, 3, data)
}

// CameraToWorld returns the inverse of the view transform.
func (p Pose) CameraToWorld() [16]float64 {
	return CameraToWorld(p.RotationMatrix(), [3]float64{p.View[3], p.View[7], p.View[11]})
}
