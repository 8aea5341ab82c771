package colmap

import (
	"fmt"
	"io"

	"github.com/banshee-data/sparsescene/internal/colmap/cursor"
)

// CameraModel is the COLMAP camera model id. The set is closed by the file
// format; ids outside the table below are rejected at decode time.
type CameraModel int32

const (
	ModelSimplePinhole       CameraModel = 0
	ModelPinhole             CameraModel = 1
	ModelSimpleRadial        CameraModel = 2
	ModelRadial              CameraModel = 3
	ModelOpenCV              CameraModel = 4
	ModelOpenCVFisheye       CameraModel = 5
	ModelFullOpenCV          CameraModel = 6
	ModelFOV                 CameraModel = 7
	ModelSimpleRadialFisheye CameraModel = 8
	ModelRadialFisheye       CameraModel = 9
	ModelThinPrismFisheye    CameraModel = 10
)

type modelInfo struct {
	name   string
	params int
}

var cameraModels = map[CameraModel]modelInfo{
	ModelSimplePinhole:       {"SIMPLE_PINHOLE", 3},
	ModelPinhole:             {"PINHOLE", 4},
	ModelSimpleRadial:        {"SIMPLE_RADIAL", 4},
	ModelRadial:              {"RADIAL", 5},
	ModelOpenCV:              {"OPENCV", 8},
	ModelOpenCVFisheye:       {"OPENCV_FISHEYE", 8},
	ModelFullOpenCV:          {"FULL_OPENCV", 12},
	ModelFOV:                 {"FOV", 5},
	ModelSimpleRadialFisheye: {"SIMPLE_RADIAL_FISHEYE", 4},
	ModelRadialFisheye:       {"RADIAL_FISHEYE", 5},
	ModelThinPrismFisheye:    {"THIN_PRISM_FISHEYE", 12},
}

func (m CameraModel) String() string {
	if info, ok := cameraModels[m]; ok {
		return info.name
	}
	return fmt.Sprintf("CameraModel(%d)", int32(m))
}

// NumParams returns the number of intrinsic parameters stored for the model,
// or -1 if the model is unknown.
func (m CameraModel) NumParams() int {
	if info, ok := cameraModels[m]; ok {
		return info.params
	}
	return -1
}

// UnsupportedCameraModelError is returned for a camera record whose model id
// is not part of the format.
type UnsupportedCameraModelError struct {
	CameraID uint32
	ModelID  int32
}

func (e *UnsupportedCameraModelError) Error() string {
	return fmt.Sprintf("camera %d: unsupported camera model id %d", e.CameraID, e.ModelID)
}

// Camera is a decoded camera record. Params are stored in COLMAP order for
// the model; use Pinhole to get a typed view of the only projectable model.
type Camera struct {
	ID     uint32
	Model  CameraModel
	Width  uint64
	Height uint64
	Params []float64
}

// PinholeCamera is the intrinsics of a PINHOLE camera.
type PinholeCamera struct {
	ID              uint32
	Width           uint64
	Height          uint64
	FocalLengthX    float64
	FocalLengthY    float64
	PrincipalPointX float64
	PrincipalPointY float64
}

// Pinhole returns the pinhole intrinsics. ok is false for every other model.
func (c Camera) Pinhole() (PinholeCamera, bool) {
	if c.Model != ModelPinhole || len(c.Params) != 4 {
		return PinholeCamera{}, false
	}
	return PinholeCamera{
		ID:              c.ID,
		Width:           c.Width,
		Height:          c.Height,
		FocalLengthX:    c.Params[0],
		FocalLengthY:    c.Params[1],
		PrincipalPointX: c.Params[2],
		PrincipalPointY: c.Params[3],
	}, true
}

// NewPinholeCamera builds a Camera record from pinhole intrinsics.
func NewPinholeCamera(p PinholeCamera) Camera {
	return Camera{
		ID:     p.ID,
		Model:  ModelPinhole,
		Width:  p.Width,
		Height: p.Height,
		Params: []float64{p.FocalLengthX, p.FocalLengthY, p.PrincipalPointX, p.PrincipalPointY},
	}
}

// DecodeCamera decodes one camera record:
//
//	u32 camera_id | i32 model_id | u64 width | u64 height | f64 params[NumParams]
func DecodeCamera(r io.Reader) (Camera, error) {
	id, err := cursor.ReadOne[uint32](r)
	if err != nil {
		return Camera{}, err
	}
	modelID, err := cursor.ReadOne[int32](r)
	if err != nil {
		return Camera{}, err
	}
	model := CameraModel(modelID)
	numParams := model.NumParams()
	if numParams < 0 {
		return Camera{}, &UnsupportedCameraModelError{CameraID: id, ModelID: modelID}
	}

	size, err := cursor.Read[uint64](r, 2)
	if err != nil {
		return Camera{}, err
	}
	if size[0] == 0 || size[1] == 0 {
		return Camera{}, &cursor.MalformedError{What: fmt.Sprintf("camera %d has empty sensor %dx%d", id, size[0], size[1])}
	}

	params, err := cursor.Read[float64](r, numParams)
	if err != nil {
		return Camera{}, err
	}

	return Camera{
		ID:     id,
		Model:  model,
		Width:  size[0],
		Height: size[1],
		Params: params,
	}, nil
}
