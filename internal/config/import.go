package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical import defaults file.
const DefaultConfigPath = "config/import.defaults.json"

// Import targets.
const (
	TargetScene   = "scene"
	TargetDataset = "dataset"
)

// Defaults used by the Get* accessors when a field is omitted.
const (
	DefaultTarget           = TargetScene
	DefaultNearPlane        = 0.01
	DefaultFarPlane         = 1000.0
	DefaultSparseDir        = "sparse/0"
	DefaultImageDir         = "images"
	DefaultMaxPreviewPoints = 20000
)

// ImportConfig is the on-disk configuration for one import run. Every field
// is optional; omitted fields fall back to the defaults above. Command-line
// flags override whatever the file sets.
type ImportConfig struct {
	// Pipeline
	Workers   *int     `json:"workers,omitempty"` // 0 means one per CPU
	Target    *string  `json:"target,omitempty"`  // "scene" or "dataset"
	NearPlane *float64 `json:"near_plane,omitempty"`
	FarPlane  *float64 `json:"far_plane,omitempty"`

	// Inputs
	SparseDir *string `json:"sparse_dir,omitempty"`
	ImageDir  *string `json:"image_dir,omitempty"`

	// Outputs (empty disables)
	DatabasePath     *string `json:"database_path,omitempty"`
	PreviewDir       *string `json:"preview_dir,omitempty"`
	MaxPreviewPoints *int    `json:"max_preview_points,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyImportConfig returns an ImportConfig with all fields nil.
func EmptyImportConfig() *ImportConfig {
	return &ImportConfig{}
}

// DefaultImportConfig returns an ImportConfig with every field set to its
// default value.
func DefaultImportConfig() *ImportConfig {
	return &ImportConfig{
		Workers:          ptrInt(0),
		Target:           ptrString(DefaultTarget),
		NearPlane:        ptrFloat64(DefaultNearPlane),
		FarPlane:         ptrFloat64(DefaultFarPlane),
		SparseDir:        ptrString(DefaultSparseDir),
		ImageDir:         ptrString(DefaultImageDir),
		DatabasePath:     ptrString(""),
		PreviewDir:       ptrString(""),
		MaxPreviewPoints: ptrInt(DefaultMaxPreviewPoints),
	}
}

// LoadImportConfig loads an ImportConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadImportConfig(path string) (*ImportConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyImportConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *ImportConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadImportConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ImportConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.Target != nil {
		switch *c.Target {
		case TargetScene, TargetDataset:
		default:
			return fmt.Errorf("target must be %q or %q, got %q", TargetScene, TargetDataset, *c.Target)
		}
	}

	near, far := c.GetNearPlane(), c.GetFarPlane()
	if near <= 0 {
		return fmt.Errorf("near_plane must be positive, got %f", near)
	}
	if far <= near {
		return fmt.Errorf("far_plane must be greater than near_plane (%f), got %f", near, far)
	}

	if c.MaxPreviewPoints != nil && *c.MaxPreviewPoints < 0 {
		return fmt.Errorf("max_preview_points must be non-negative, got %d", *c.MaxPreviewPoints)
	}

	return nil
}

// GetWorkers returns the workers value or the default.
func (c *ImportConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetTarget returns the target value or the default.
func (c *ImportConfig) GetTarget() string {
	if c.Target == nil || *c.Target == "" {
		return DefaultTarget
	}
	return *c.Target
}

// GetNearPlane returns the near_plane value or the default.
func (c *ImportConfig) GetNearPlane() float64 {
	if c.NearPlane == nil {
		return DefaultNearPlane
	}
	return *c.NearPlane
}

// GetFarPlane returns the far_plane value or the default.
func (c *ImportConfig) GetFarPlane() float64 {
	if c.FarPlane == nil {
		return DefaultFarPlane
	}
	return *c.FarPlane
}

// GetSparseDir returns the sparse_dir value or the default.
func (c *ImportConfig) GetSparseDir() string {
	if c.SparseDir == nil || *c.SparseDir == "" {
		return DefaultSparseDir
	}
	return *c.SparseDir
}

// GetImageDir returns the image_dir value or the default.
func (c *ImportConfig) GetImageDir() string {
	if c.ImageDir == nil || *c.ImageDir == "" {
		return DefaultImageDir
	}
	return *c.ImageDir
}

// GetDatabasePath returns the database_path value; empty disables persistence.
func (c *ImportConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetPreviewDir returns the preview_dir value; empty disables previews.
func (c *ImportConfig) GetPreviewDir() string {
	if c.PreviewDir == nil {
		return ""
	}
	return *c.PreviewDir
}

// GetMaxPreviewPoints returns the max_preview_points value or the default.
func (c *ImportConfig) GetMaxPreviewPoints() int {
	if c.MaxPreviewPoints == nil {
		return DefaultMaxPreviewPoints
	}
	return *c.MaxPreviewPoints
}
