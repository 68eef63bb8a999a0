package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ChartArchive persists rendered seating charts on disk under a base
// directory, one file per scope.
type ChartArchive struct {
	baseDir string
}

// NewChartArchive ensures the base directory exists and returns a handle.
func NewChartArchive(baseDir string) (*ChartArchive, error) {
	if baseDir == "" {
		baseDir = "./charts"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}
	return &ChartArchive{baseDir: baseDir}, nil
}

// Save writes a chart under the base directory and returns its full path.
func (a *ChartArchive) Save(filename string, data []byte) (string, error) {
	path := a.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare chart directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write chart file: %w", err)
	}
	return path, nil
}

// Open returns a read-only handle for a stored chart.
func (a *ChartArchive) Open(filename string) (*os.File, error) {
	file, err := os.Open(a.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open chart file: %w", err)
	}
	return file, nil
}

// CleanupOlderThan removes charts older than the TTL and returns the
// deleted names. Scopes are re-runnable, so stale charts are disposable.
func (a *ChartArchive) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(a.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove stale chart: %w", err)
			}
			deleted = append(deleted, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup charts: %w", err)
	}
	return deleted, nil
}

func (a *ChartArchive) resolve(filename string) string {
	return filepath.Join(a.baseDir, filepath.Clean(filename))
}
