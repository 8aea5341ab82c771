// Package assembly joins decoded images with their cameras and image files
// into per-image units for a target output shape.
//
// There is one join: resolve camera, take file bytes, require a pinhole
// camera, derive the pose, then let an Adapter derive the projection and
// finish the image. Target shapes (render scene, training dataset) only
// supply adapters.
//
// Images are processed in parallel on a bounded worker pool. The first
// error aborts the assembly; images already in flight run to completion and
// their results are dropped.
package assembly

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sparsescene/internal/colmap"
	"github.com/banshee-data/sparsescene/internal/geometry"
	"github.com/banshee-data/sparsescene/internal/imagefiles"
)

// ErrUnimplemented is returned for an image whose camera model cannot be
// projected. Only PINHOLE cameras are supported.
var ErrUnimplemented = errors.New("camera model not implemented")

// UnknownCameraIDError is returned for an image whose camera id is not in
// the camera collection.
type UnknownCameraIDError struct {
	ID      uint32
	ImageID uint32
}

func (e *UnknownCameraIDError) Error() string {
	return fmt.Sprintf("image %d: no such camera id %d", e.ImageID, e.ID)
}

// Adapter supplies the target-specific parts of an assembled unit.
// Implementations must be safe for concurrent use.
type Adapter[P, I any] interface {
	// DeriveProjection computes the projection representation for a camera.
	DeriveProjection(cam colmap.PinholeCamera) P
	// FinishImage turns the encoded file bytes into the target image value.
	// Ownership of encoded passes to the adapter.
	FinishImage(imageID uint32, name string, encoded []byte) (I, error)
}

// Unit is one assembled image: pose, intrinsics and the adapter outputs.
type Unit[P, I any] struct {
	ImageID    uint32
	CameraID   uint32
	FileName   string
	Camera     colmap.PinholeCamera
	Pose       geometry.Pose
	Projection P
	Image      I
}

// Options configures the worker pool.
type Options struct {
	// Workers bounds the number of images processed at once.
	// Zero or negative means runtime.GOMAXPROCS(0).
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Assemble builds one unit per image, keyed by image id. The camera
// collection is only read. A file that is resolved is consumed from files
// whether or not its image succeeds.
func Assemble[P, I any](cameras colmap.Cameras, images colmap.Images, files *imagefiles.Registry, adapter Adapter[P, I], opts Options) (map[uint32]Unit[P, I], error) {
	start := time.Now()
	ids := images.IDs()

	var (
		mu     sync.Mutex
		units  = make(map[uint32]Unit[P, I], len(ids))
		failed atomic.Bool
		g      errgroup.Group
	)
	g.SetLimit(opts.workers())

	for _, id := range ids {
		img := images[id]
		g.Go(func() error {
			// Queued images are skipped once a sibling has failed.
			if failed.Load() {
				return nil
			}
			unit, err := assembleOne(cameras, img, files, adapter)
			if err != nil {
				failed.Store(true)
				tracef("image %d failed: %v", img.ImageID, err)
				return err
			}
			mu.Lock()
			units[unit.ImageID] = unit
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		opsf("assembly aborted after %s: %v", time.Since(start), err)
		return nil, err
	}

	diagf("assembled %d images with %d workers in %s", len(units), opts.workers(), time.Since(start))
	return units, nil
}

func assembleOne[P, I any](cameras colmap.Cameras, img colmap.Image, files *imagefiles.Registry, adapter Adapter[P, I]) (Unit[P, I], error) {
	var zero Unit[P, I]

	cam, ok := cameras.Get(img.CameraID)
	if !ok {
		return zero, &UnknownCameraIDError{ID: img.CameraID, ImageID: img.ImageID}
	}

	encoded, err := files.Take(img.FileName)
	if err != nil {
		return zero, fmt.Errorf("image %d: %w", img.ImageID, err)
	}

	pinhole, ok := cam.Pinhole()
	if !ok {
		return zero, fmt.Errorf("image %d: camera %d model %s: %w", img.ImageID, cam.ID, cam.Model, ErrUnimplemented)
	}

	pose := geometry.NewPose(img.Quaternion, img.Translation)
	projection := adapter.DeriveProjection(pinhole)

	finished, err := adapter.FinishImage(img.ImageID, img.FileName, encoded)
	if err != nil {
		return zero, fmt.Errorf("image %d (%s): %w", img.ImageID, img.FileName, err)
	}

	return Unit[P, I]{
		ImageID:    img.ImageID,
		CameraID:   img.CameraID,
		FileName:   img.FileName,
		Camera:     pinhole,
		Pose:       pose,
		Projection: projection,
		Image:      finished,
	}, nil
}
