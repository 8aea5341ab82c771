// Package store persists a summary of each import run in SQLite: one row
// per run and one row per assembled view. The schema is managed by embedded
// golang-migrate migrations.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/sparsescene/internal/timeutil"
)

// ErrNotFound is returned when an import id has no row.
var ErrNotFound = errors.New("import not found")

// Import is one recorded import run.
type Import struct {
	ImportID    string
	SparseDir   string
	ImageDir    string
	Target      string
	CameraCount int
	ImageCount  int
	PointCount  int
	CreatedAtNs int64
}

// View is the persisted summary of one assembled image.
type View struct {
	ViewID       uint32
	FileName     string
	Width        int
	Height       int
	FieldOfViewX float64
	FieldOfViewY float64
	Position     [3]float64
}

// Store provides persistence for import runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the SQLite database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps the PRAGMAs below in effect for every query.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used to stamp new imports.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertImport records an import and its views in one transaction.
// If imp.ImportID is empty, a new UUID is generated.
func (s *Store) InsertImport(imp *Import, views []View) error {
	if imp.ImportID == "" {
		imp.ImportID = uuid.New().String()
	}
	if imp.CreatedAtNs == 0 {
		imp.CreatedAtNs = s.clock.Now().UnixNano()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO imports (
			import_id, sparse_dir, image_dir, target,
			camera_count, image_count, point_count, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		imp.ImportID,
		imp.SparseDir,
		imp.ImageDir,
		imp.Target,
		imp.CameraCount,
		imp.ImageCount,
		imp.PointCount,
		imp.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO import_views (
			import_id, view_id, file_name, width, height,
			fov_x, fov_y, position_x, position_y, position_z
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare view insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range views {
		if _, err := stmt.Exec(
			imp.ImportID, v.ViewID, v.FileName, v.Width, v.Height,
			v.FieldOfViewX, v.FieldOfViewY, v.Position[0], v.Position[1], v.Position[2],
		); err != nil {
			return fmt.Errorf("insert view %d: %w", v.ViewID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// GetImport retrieves an import by id.
func (s *Store) GetImport(importID string) (*Import, error) {
	var imp Import
	err := s.db.QueryRow(`
		SELECT import_id, sparse_dir, image_dir, target,
		       camera_count, image_count, point_count, created_at_ns
		FROM imports
		WHERE import_id = ?
	`, importID).Scan(
		&imp.ImportID,
		&imp.SparseDir,
		&imp.ImageDir,
		&imp.Target,
		&imp.CameraCount,
		&imp.ImageCount,
		&imp.PointCount,
		&imp.CreatedAtNs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, importID)
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}
	return &imp, nil
}

// ListImports returns the most recent imports, newest first.
func (s *Store) ListImports(limit int) ([]*Import, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT import_id, sparse_dir, image_dir, target,
		       camera_count, image_count, point_count, created_at_ns
		FROM imports
		ORDER BY created_at_ns DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var imports []*Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(
			&imp.ImportID,
			&imp.SparseDir,
			&imp.ImageDir,
			&imp.Target,
			&imp.CameraCount,
			&imp.ImageCount,
			&imp.PointCount,
			&imp.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, &imp)
	}
	return imports, rows.Err()
}

// ListViews returns the views of an import ordered by view id.
func (s *Store) ListViews(importID string) ([]View, error) {
	rows, err := s.db.Query(`
		SELECT view_id, file_name, width, height,
		       fov_x, fov_y, position_x, position_y, position_z
		FROM import_views
		WHERE import_id = ?
		ORDER BY view_id
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var v View
		if err := rows.Scan(
			&v.ViewID, &v.FileName, &v.Width, &v.Height,
			&v.FieldOfViewX, &v.FieldOfViewY,
			&v.Position[0], &v.Position[1], &v.Position[2],
		); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// DeleteImport removes an import and its views.
func (s *Store) DeleteImport(importID string) error {
	res, err := s.db.Exec(`DELETE FROM imports WHERE import_id = ?`, importID)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, importID)
	}
	return nil
}
