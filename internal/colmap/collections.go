package colmap

import (
	"fmt"
	"sort"
)

// DuplicateIDError is returned when a collection already holds a record with
// the same id. Duplicates are rejected rather than overwritten.
type DuplicateIDError struct {
	Kind string
	ID   uint32
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %d", e.Kind, e.ID)
}

// Cameras maps camera id to camera.
type Cameras map[uint32]Camera

// Insert adds c, failing if its id is already present.
func (cs Cameras) Insert(c Camera) error {
	if _, exists := cs[c.ID]; exists {
		return &DuplicateIDError{Kind: "camera", ID: c.ID}
	}
	cs[c.ID] = c
	return nil
}

// Get looks up a camera by id.
func (cs Cameras) Get(id uint32) (Camera, bool) {
	c, ok := cs[id]
	return c, ok
}

// Images maps image id to image pose.
type Images map[uint32]Image

// Insert adds img, failing if its id is already present.
func (is Images) Insert(img Image) error {
	if _, exists := is[img.ImageID]; exists {
		return &DuplicateIDError{Kind: "image", ID: img.ImageID}
	}
	is[img.ImageID] = img
	return nil
}

// Get looks up an image by id.
func (is Images) Get(id uint32) (Image, bool) {
	img, ok := is[id]
	return img, ok
}

// IDs returns the image ids in ascending order.
func (is Images) IDs() []uint32 {
	ids := make([]uint32, 0, len(is))
	for id := range is {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// FileNames returns the distinct file names referenced by the images, sorted.
func (is Images) FileNames() []string {
	seen := make(map[string]struct{}, len(is))
	names := make([]string, 0, len(is))
	for _, img := range is {
		if _, ok := seen[img.FileName]; ok {
			continue
		}
		seen[img.FileName] = struct{}{}
		names = append(names, img.FileName)
	}
	sort.Strings(names)
	return names
}

// Points is the sparse point cloud in file order. Order carries no meaning.
type Points []Point

// Reconstruction is the decoded content of a COLMAP sparse model directory.
type Reconstruction struct {
	Cameras Cameras
	Images  Images
	Points  Points
}

func (r *Reconstruction) String() string {
	return fmt.Sprintf("Reconstruction{cameras=%d images=%d points=%d}",
		len(r.Cameras), len(r.Images), len(r.Points))
}
