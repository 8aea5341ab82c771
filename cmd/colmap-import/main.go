// Command colmap-import loads a COLMAP binary sparse model and its images,
// assembles a render scene or training dataset, and optionally records the
// run in SQLite and writes top-down previews.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/banshee-data/sparsescene/internal/assembly"
	"github.com/banshee-data/sparsescene/internal/colmap"
	"github.com/banshee-data/sparsescene/internal/config"
	"github.com/banshee-data/sparsescene/internal/dataset"
	"github.com/banshee-data/sparsescene/internal/fsutil"
	"github.com/banshee-data/sparsescene/internal/geometry"
	"github.com/banshee-data/sparsescene/internal/imagefiles"
	"github.com/banshee-data/sparsescene/internal/preview"
	"github.com/banshee-data/sparsescene/internal/scene"
	"github.com/banshee-data/sparsescene/internal/security"
	"github.com/banshee-data/sparsescene/internal/store"
	"github.com/banshee-data/sparsescene/internal/timeutil"
	"github.com/banshee-data/sparsescene/internal/version"
)

func main() {
	log.SetPrefix("[colmap-import] ")
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

// options is the resolved configuration for one run.
type options struct {
	sparseDir        string
	imageDir         string
	target           string
	workers          int
	nearPlane        float64
	farPlane         float64
	databasePath     string
	previewDir       string
	maxPreviewPoints int
	verbosity        int
}

// summary is the target-independent outcome of an import.
type summary struct {
	cameras int
	images  int
	points  []preview.Point
	views   []store.View
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("colmap-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Path to a JSON import config (see config/import.defaults.json)")
		sparseDir   = fs.String("sparse", config.DefaultSparseDir, "Directory holding cameras.bin, images.bin and points3D.bin")
		imageDir    = fs.String("images", config.DefaultImageDir, "Directory holding the image files named in images.bin")
		target      = fs.String("target", config.DefaultTarget, "Output shape: scene or dataset")
		workers     = fs.Int("workers", 0, "Images assembled in parallel (0 = one per CPU)")
		dbPath      = fs.String("db", "", "SQLite database to record the import in (empty disables)")
		previewDir  = fs.String("preview", "", "Directory for top-down PNG/HTML previews (empty disables)")
		verbosity   = fs.Int("v", 0, "Log verbosity: 1 adds diagnostics, 2 adds per-record tracing")
		showVersion = fs.Bool("version", false, "Print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "colmap-import %s\n", version.String())
		return nil
	}

	cfg := config.DefaultImportConfig()
	if *configPath != "" {
		loaded, err := config.LoadImportConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := options{
		sparseDir:        cfg.GetSparseDir(),
		imageDir:         cfg.GetImageDir(),
		target:           cfg.GetTarget(),
		workers:          cfg.GetWorkers(),
		nearPlane:        cfg.GetNearPlane(),
		farPlane:         cfg.GetFarPlane(),
		databasePath:     cfg.GetDatabasePath(),
		previewDir:       cfg.GetPreviewDir(),
		maxPreviewPoints: cfg.GetMaxPreviewPoints(),
		verbosity:        *verbosity,
	}

	// Flags set explicitly on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sparse":
			opts.sparseDir = *sparseDir
		case "images":
			opts.imageDir = *imageDir
		case "target":
			opts.target = *target
		case "workers":
			opts.workers = *workers
		case "db":
			opts.databasePath = *dbPath
		case "preview":
			opts.previewDir = *previewDir
		}
	})

	if opts.target != config.TargetScene && opts.target != config.TargetDataset {
		return fmt.Errorf("unknown target %q (want %s or %s)", opts.target, config.TargetScene, config.TargetDataset)
	}
	if opts.workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", opts.workers)
	}

	configureLogging(stderr, opts.verbosity)
	return importModel(fsutil.OSFileSystem{}, timeutil.RealClock{}, opts, stdout)
}

func configureLogging(w io.Writer, verbosity int) {
	var diag, trace io.Writer
	if verbosity >= 1 {
		diag = w
	}
	if verbosity >= 2 {
		trace = w
	}
	colmap.SetLogWriters(w, diag, trace)
	imagefiles.SetLogWriters(w, diag, trace)
	assembly.SetLogWriters(w, diag, trace)
}

func importModel(fsys fsutil.FileSystem, clock timeutil.Clock, opts options, stdout io.Writer) error {
	start := clock.Now()

	rec, err := colmap.LoadReconstruction(fsys, opts.sparseDir)
	if err != nil {
		return err
	}

	files, err := imagefiles.FromDir(fsys, opts.imageDir, rec.Images.FileNames())
	if err != nil {
		return err
	}

	var sum *summary
	switch opts.target {
	case config.TargetDataset:
		sum, err = buildDataset(rec, files, opts)
	default:
		sum, err = buildScene(rec, files, opts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "imported %s as %s: %d views in %s\n",
		rec, opts.target, len(sum.views), clock.Since(start).Round(time.Millisecond))

	if opts.databasePath != "" {
		id, err := recordImport(clock, opts, sum)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded import %s in %s\n", id, opts.databasePath)
	}

	if opts.previewDir != "" {
		pngPath, htmlPath, err := writePreview(opts, sum)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote previews %s and %s\n", pngPath, htmlPath)
	}
	return nil
}

func buildScene(rec *colmap.Reconstruction, files *imagefiles.Registry, opts options) (*summary, error) {
	s, err := scene.FromSource(rec, files, scene.Options{
		Workers:   opts.workers,
		NearPlane: opts.nearPlane,
		FarPlane:  opts.farPlane,
	})
	if err != nil {
		return nil, err
	}

	sum := &summary{cameras: len(rec.Cameras), images: len(rec.Images)}
	for _, p := range s.Points {
		sum.points = append(sum.points, preview.Point{Position: p.Position, Color: p.ColorRGB})
	}
	for id, v := range s.Views {
		cam, _ := rec.Cameras.Get(rec.Images[id].CameraID)
		pinhole, _ := cam.Pinhole()
		pose := geometry.NewPose(rec.Images[id].Quaternion, rec.Images[id].Translation)
		sum.views = append(sum.views, store.View{
			ViewID:       v.ViewID,
			FileName:     v.ImageFileName,
			Width:        v.Width,
			Height:       v.Height,
			FieldOfViewX: geometry.FieldOfView(float64(pinhole.Width), pinhole.FocalLengthX),
			FieldOfViewY: geometry.FieldOfView(float64(pinhole.Height), pinhole.FocalLengthY),
			Position:     pose.Position,
		})
	}
	sortViews(sum.views)
	return sum, nil
}

func buildDataset(rec *colmap.Reconstruction, files *imagefiles.Registry, opts options) (*summary, error) {
	d, err := dataset.FromSource(rec, files, dataset.Options{Workers: opts.workers})
	if err != nil {
		return nil, err
	}

	sum := &summary{cameras: len(rec.Cameras), images: len(rec.Images)}
	for _, p := range d.Points {
		sum.points = append(sum.points, preview.Point{Position: p.Position, Color: p.ColorRGB})
	}
	for _, c := range d.Cameras {
		sum.views = append(sum.views, store.View{
			ViewID:       c.ID,
			FileName:     c.FileName,
			Width:        c.Image.Width,
			Height:       c.Image.Height,
			FieldOfViewX: c.FieldOfViewX,
			FieldOfViewY: c.FieldOfViewY,
			Position:     c.Position,
		})
	}
	sortViews(sum.views)
	return sum, nil
}

func sortViews(views []store.View) {
	sort.Slice(views, func(i, j int) bool { return views[i].ViewID < views[j].ViewID })
}

func recordImport(clock timeutil.Clock, opts options, sum *summary) (string, error) {
	st, err := store.Open(opts.databasePath)
	if err != nil {
		return "", err
	}
	defer st.Close()
	st.SetClock(clock)

	imp := &store.Import{
		SparseDir:   opts.sparseDir,
		ImageDir:    opts.imageDir,
		Target:      opts.target,
		CameraCount: sum.cameras,
		ImageCount:  sum.images,
		PointCount:  len(sum.points),
	}
	if err := st.InsertImport(imp, sum.views); err != nil {
		return "", err
	}
	return imp.ImportID, nil
}

func writePreview(opts options, sum *summary) (string, string, error) {
	base := filepath.Base(filepath.Clean(opts.sparseDir))
	frame := preview.Frame{
		Title:     fmt.Sprintf("%s (%s)", base, opts.target),
		Points:    sum.points,
		MaxPoints: opts.maxPreviewPoints,
	}
	for _, v := range sum.views {
		frame.Cameras = append(frame.Cameras, preview.Camera{ID: v.ViewID, Position: v.Position})
	}
	return preview.WriteAll(opts.previewDir, security.SanitizeFilename(base+"_"+opts.target), frame)
}
