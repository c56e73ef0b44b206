// internal/persistence/files.go

// Package persistence owns the on-disk layout: one binary file per
// collection, named after the collection, under a single data directory.
package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"querykv/internal/store"
)

// ErrPersistence marks any failure to write the data directory or a
// collection file in it.
var ErrPersistence = errors.New("persistence failure")

// SaveCollection writes one collection payload to dir/<name>. The payload
// lands in a temporary file and is renamed into place, so the final file is
// always a complete snapshot. The .tmp suffix cannot be a collection name,
// which keeps leftover temp files out of discovery.
func SaveCollection(dir, name string, payload []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create data directory '%s': %v", ErrPersistence, dir, err)
	}

	finalPath := filepath.Join(dir, name)
	tmpPath := finalPath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file '%s': %v", ErrPersistence, tmpPath, err)
	}
	defer file.Close()

	if _, err := file.Write(payload); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write collection '%s': %v", ErrPersistence, name, err)
	}
	if err := file.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to sync collection '%s' to disk: %v", ErrPersistence, name, err)
	}
	// Close explicitly before renaming, which matters on Windows.
	file.Close()

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to rename temporary file to '%s': %v", ErrPersistence, finalPath, err)
	}
	return nil
}

// LoadCollection reads the payload of one collection file. A missing file is
// not an error; the middle return reports whether the file existed.
func LoadCollection(dir, name string) ([]byte, bool, error) {
	path := filepath.Join(dir, name)
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read collection file '%s': %w", path, err)
	}
	return payload, true, nil
}

// DiscoverCollections lists the collection files already present in the data
// directory. Files whose names could not name a collection are skipped. A
// missing directory is an empty result, not an error.
func DiscoverCollections(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data directory '%s': %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !store.ValidCollectionName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// LoadAll populates a store at startup: every configured collection plus
// every collection file discovered on disk, configured names first. A
// collection that cannot be read or decoded starts empty with a warning;
// nothing here stops the server from booting.
func LoadAll(s *store.Store, dir string, configured []string) {
	names := make([]string, 0, len(configured))
	seen := make(map[string]struct{})
	for _, name := range configured {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	discovered, err := DiscoverCollections(dir)
	if err != nil {
		slog.Warn("Failed to scan data directory, loading configured collections only", "dir", dir, "error", err)
	}
	for _, name := range discovered {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, name := range names {
		if loadOne(s, dir, name) {
			continue
		}
		if err := s.CreateCollection(name); err != nil && !errors.Is(err, store.ErrCollectionExists) {
			slog.Warn("Cannot create configured collection", "collection", name, "error", err)
		}
	}
}

// loadOne restores one collection from disk, reporting whether it succeeded.
func loadOne(s *store.Store, dir, name string) bool {
	payload, found, err := LoadCollection(dir, name)
	if err != nil {
		slog.Warn("Failed to read collection file, starting empty", "collection", name, "error", err)
		return false
	}
	if !found {
		slog.Debug("No collection file on disk, starting empty", "collection", name)
		return false
	}
	if err := s.Restore(name, payload); err != nil {
		slog.Warn("Failed to decode collection file, starting empty", "collection", name, "error", err)
		return false
	}
	slog.Info("Loaded collection from disk", "collection", name, "bytes", len(payload))
	return true
}
