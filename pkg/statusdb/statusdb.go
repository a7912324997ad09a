// Package statusdb provides the JSON-backed status database recording which
// packages are installed, at which versions, with which features.
package statusdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
)

// Database is the in-memory view of the status file. It is loaded once per
// command, never mutated during planning, and updated action-by-action by the
// installer.
type Database struct {
	FormatVersion string                 `json:"format_version"`
	LastUpdate    time.Time              `json:"last_update"`
	Packages      []*model.InstalledPort `json:"packages"`
	rwMutex       sync.RWMutex
}

// New creates an empty status database.
func New() *Database {
	return &Database{
		FormatVersion: "1",
		LastUpdate:    time.Now(),
	}
}

// Load reads the status database from file. A missing file yields an empty
// database.
func (db *Database) Load(dbPath string) error {
	cleanPath := filepath.Clean(dbPath)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("status database path must be absolute: %s: %w", dbPath, errors.ErrInvalidPath)
	}

	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		return nil
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to open status database: %w", err)
	}
	defer func() { _ = file.Close() }()

	return db.parseFromReader(file)
}

// Save writes the status database atomically (temp file plus rename).
func (db *Database) Save(dbPath string) (err error) {
	cleanPath := filepath.Clean(dbPath)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("status database path must be absolute: %s: %w", dbPath, errors.ErrInvalidPath)
	}

	dbDir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create status database directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dbDir, "portman-status-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dbDir, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	db.rwMutex.RLock()
	data, err := json.MarshalIndent(db, "", "  ")
	db.rwMutex.RUnlock()
	if err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to marshal status database: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, cleanPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %s: %w", cleanPath, err)
	}
	return nil
}

// FindInstalled returns the record for a spec, or nil when the package is not
// installed.
func (db *Database) FindInstalled(spec model.PackageSpec) *model.InstalledPort {
	db.rwMutex.RLock()
	defer db.rwMutex.RUnlock()

	for _, pkg := range db.Packages {
		if pkg.Name == spec.Name && pkg.Triplet == spec.Triplet {
			return pkg
		}
	}
	return nil
}

// IsInstalled checks whether a spec is installed.
func (db *Database) IsInstalled(spec model.PackageSpec) bool {
	return db.FindInstalled(spec) != nil
}

// Add inserts or replaces the record for a package.
func (db *Database) Add(pkg *model.InstalledPort) {
	db.rwMutex.Lock()
	defer db.rwMutex.Unlock()

	if pkg.InstalledAt.IsZero() {
		pkg.InstalledAt = time.Now()
	}
	for i, existing := range db.Packages {
		if existing.Name == pkg.Name && existing.Triplet == pkg.Triplet {
			db.Packages[i] = pkg
			db.LastUpdate = time.Now()
			return
		}
	}
	db.Packages = append(db.Packages, pkg)
	db.LastUpdate = time.Now()
}

// Remove deletes the record for a spec. Returns false when no record existed.
func (db *Database) Remove(spec model.PackageSpec) bool {
	db.rwMutex.Lock()
	defer db.rwMutex.Unlock()

	for i, pkg := range db.Packages {
		if pkg.Name == spec.Name && pkg.Triplet == spec.Triplet {
			db.Packages = append(db.Packages[:i], db.Packages[i+1:]...)
			db.LastUpdate = time.Now()
			return true
		}
	}
	return false
}

// InstalledPackages returns a snapshot of all records, sorted by spec so that
// iteration order is stable across runs.
func (db *Database) InstalledPackages() []*model.InstalledPort {
	db.rwMutex.RLock()
	defer db.rwMutex.RUnlock()

	packages := make([]*model.InstalledPort, len(db.Packages))
	copy(packages, db.Packages)
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Spec().Compare(packages[j].Spec()) < 0
	})
	return packages
}

// parseFromReader parses the database from an io.Reader.
func (db *Database) parseFromReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read status database: %w", err)
	}
	if err := json.Unmarshal(data, db); err != nil {
		return fmt.Errorf("failed to parse status database: %w", err)
	}
	return nil
}
