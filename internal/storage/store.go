// Local asset store for uploaded and processed videos
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store manages the upload and processed directories. Paths are handed
// through the call chain as explicit values; nothing here is process-wide.
type Store struct {
	uploadDir    string
	processedDir string
	logger       *logrus.Logger
}

// NewStore creates both asset directories if needed.
func NewStore(uploadDir, processedDir string, logger *logrus.Logger) (*Store, error) {
	for _, dir := range []string{uploadDir, processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create asset dir %s: %w", dir, err)
		}
	}

	return &Store{
		uploadDir:    uploadDir,
		processedDir: processedDir,
		logger:       logger,
	}, nil
}

func (s *Store) UploadDir() string    { return s.uploadDir }
func (s *Store) ProcessedDir() string { return s.processedDir }

// SaveUpload writes the uploaded stream into the upload directory under a
// unique name derived from the original filename.
func (s *Store) SaveUpload(r io.Reader, filename string) (string, int64, error) {
	base := sanitizeName(filename)
	if base == "" {
		return "", 0, fmt.Errorf("invalid upload filename: %q", filename)
	}

	name := fmt.Sprintf("%s_%s", uuid.NewString()[:8], base)
	path := filepath.Join(s.uploadDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path": path,
		"size": humanize.Bytes(uint64(size)),
	}).Info("upload saved")

	return path, size, nil
}

// ProcessedPath returns the output path convention for an uploaded asset:
// the processed directory plus a "processed_" prefix on the base name.
func (s *Store) ProcessedPath(uploadPath string) string {
	return filepath.Join(s.processedDir, "processed_"+filepath.Base(uploadPath))
}

// ProcessedFile resolves name inside the processed directory, rejecting
// path traversal, and verifies the file exists.
func (s *Store) ProcessedFile(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base != name {
		return "", fmt.Errorf("invalid asset name: %q", name)
	}

	path := filepath.Join(s.processedDir, base)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("asset %s: %w", base, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("asset %s is a directory", base)
	}

	return path, nil
}

// Sweep removes assets older than maxAge from both directories and returns
// the number of files removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, dir := range []string{s.uploadDir, s.processedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("read asset dir %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.WithError(err).WithField("path", path).Warn("failed to remove stale asset")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("swept stale assets")
	}
	return removed, nil
}

func sanitizeName(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
