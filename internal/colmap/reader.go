package colmap

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/sparsescene/internal/colmap/cursor"
	"github.com/banshee-data/sparsescene/internal/fsutil"
)

// File names of a COLMAP sparse model directory.
const (
	CamerasFile = "cameras.bin"
	ImagesFile  = "images.bin"
	PointsFile  = "points3D.bin"
)

// readCount reads the u64 record count that prefixes every model file.
func readCount(r io.Reader) (uint64, error) {
	return cursor.ReadOne[uint64](r)
}

// ReadCameras reads a cameras.bin stream.
func ReadCameras(r io.Reader) (Cameras, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("camera count: %w", err)
	}
	cameras := make(Cameras, capHint(n))
	for i := uint64(0); i < n; i++ {
		c, err := DecodeCamera(r)
		if err != nil {
			return nil, fmt.Errorf("camera record %d: %w", i, err)
		}
		if err := cameras.Insert(c); err != nil {
			return nil, err
		}
		tracef("camera %d model=%s %dx%d", c.ID, c.Model, c.Width, c.Height)
	}
	diagf("decoded %d cameras", len(cameras))
	return cameras, nil
}

// ReadImages reads an images.bin stream.
func ReadImages(r io.Reader) (Images, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("image count: %w", err)
	}
	images := make(Images, capHint(n))
	for i := uint64(0); i < n; i++ {
		img, err := DecodeImage(r)
		if err != nil {
			return nil, fmt.Errorf("image record %d: %w", i, err)
		}
		if err := images.Insert(img); err != nil {
			return nil, err
		}
	}
	diagf("decoded %d images", len(images))
	return images, nil
}

// ReadPoints reads a points3D.bin stream.
func ReadPoints(r io.Reader) (Points, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("point count: %w", err)
	}
	points := make(Points, 0, capHint(n))
	for i := uint64(0); i < n; i++ {
		p, err := DecodePoint(r)
		if err != nil {
			return nil, fmt.Errorf("point record %d: %w", i, err)
		}
		points = append(points, p)
	}
	diagf("decoded %d points", len(points))
	return points, nil
}

// capHint bounds a preallocation taken from an untrusted header.
func capHint(n uint64) int {
	const maxHint = 1 << 16
	if n > maxHint {
		return maxHint
	}
	return int(n)
}

// LoadReconstruction decodes cameras.bin, images.bin and points3D.bin from dir.
func LoadReconstruction(fsys fsutil.FileSystem, dir string) (*Reconstruction, error) {
	cameras, err := readModelFile(fsys, filepath.Join(dir, CamerasFile), ReadCameras)
	if err != nil {
		return nil, err
	}
	images, err := readModelFile(fsys, filepath.Join(dir, ImagesFile), ReadImages)
	if err != nil {
		return nil, err
	}
	points, err := readModelFile(fsys, filepath.Join(dir, PointsFile), ReadPoints)
	if err != nil {
		return nil, err
	}

	rec := &Reconstruction{Cameras: cameras, Images: images, Points: points}
	opsf("loaded %s from %s", rec, dir)
	return rec, nil
}

func readModelFile[T any](fsys fsutil.FileSystem, path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fsys.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := read(bufio.NewReader(f))
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}
