// Package backup snapshots the account file so a corrupted or fat-fingered
// data file can be restored from a recent copy.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Runner copies the accounts file into a backup directory and prunes the
// oldest copies beyond maxCount.
type Runner struct {
	sourcePath string
	dir        string
	maxCount   int

	now func() time.Time
}

// NewRunner creates a backup runner for the given source file.
func NewRunner(sourcePath, dir string, maxCount int) *Runner {
	return &Runner{
		sourcePath: sourcePath,
		dir:        dir,
		maxCount:   maxCount,
		now:        time.Now,
	}
}

// Run takes one snapshot. A missing source file is not an error: there is
// simply nothing to back up yet.
func (r *Runner) Run() (string, error) {
	src, err := os.Open(r.sourcePath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error opening source file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("error creating backup directory: %w", err)
	}

	name := fmt.Sprintf("accounts-%s.json", r.now().UTC().Format("20060102-150405"))
	destPath := filepath.Join(r.dir, name)

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("error creating backup file: %w", err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		return "", fmt.Errorf("error copying backup file: %w", err)
	}
	if err := dest.Close(); err != nil {
		return "", fmt.Errorf("error closing backup file: %w", err)
	}

	if err := r.prune(); err != nil {
		return destPath, fmt.Errorf("error pruning old backups: %w", err)
	}

	return destPath, nil
}

// prune removes the oldest snapshots until maxCount remain.
func (r *Runner) prune() error {
	matches, err := filepath.Glob(filepath.Join(r.dir, "accounts-*.json"))
	if err != nil {
		return err
	}

	if len(matches) <= r.maxCount {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(matches)

	for _, stale := range matches[:len(matches)-r.maxCount] {
		if err := os.Remove(stale); err != nil {
			return err
		}
	}

	return nil
}
