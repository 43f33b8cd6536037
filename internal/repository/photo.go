package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"housing-backend/internal/models"
)

const sidecarSuffix = ".txt"

// ImageExtensions is the allow-list of listed photo files. Matching is case-sensitive.
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// IsImageFilename reports whether name carries an allowed image extension
func IsImageFilename(name string) bool {
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// PhotoRepository stores photos in a directory with a distance sidecar per photo
type PhotoRepository struct {
	dir string
}

// NewPhotoRepository creates the upload directory if missing
func NewPhotoRepository(dir string) (*PhotoRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &PhotoRepository{dir: dir}, nil
}

// Save writes the photo and then its sidecar. A nil distance removes any old sidecar.
// There is no rollback: if the sidecar write fails the photo stays written.
func (r *PhotoRepository) Save(ctx context.Context, filename string, data []byte, distanceKm *float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanFilename(filename)
	if err != nil {
		return err
	}
	if distanceKm != nil && !isFinite(*distanceKm) {
		return fmt.Errorf("distance must be a finite number: %w", ErrInvalidInput)
	}

	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write photo: %w: %w", ErrStorageUnavailable, err)
	}

	sidecar := filepath.Join(r.dir, name+sidecarSuffix)
	if distanceKm == nil {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove distance: %w: %w", ErrStorageUnavailable, err)
		}
		return nil
	}

	value := strconv.FormatFloat(*distanceKm, 'f', -1, 64)
	if err := os.WriteFile(sidecar, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write distance: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// List returns every image in directory-listing order with its distance.
// A missing, unreadable or non-finite sidecar leaves the distance unspecified.
func (r *PhotoRepository) List(ctx context.Context) ([]models.PhotoAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w: %w", ErrStorageUnavailable, err)
	}

	photos := []models.PhotoAsset{}
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFilename(entry.Name()) {
			continue
		}
		photos = append(photos, models.PhotoAsset{
			Filename:   entry.Name(),
			DistanceKm: r.readDistance(entry.Name()),
		})
	}
	return photos, nil
}

// Path returns the on-disk location of a stored photo
func (r *PhotoRepository) Path(ctx context.Context, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanFilename(filename)
	if err != nil {
		return "", err
	}
	if !IsImageFilename(name) {
		return "", fmt.Errorf("photo %q: %w", name, ErrNotFound)
	}

	path := filepath.Join(r.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("photo %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat photo: %w: %w", ErrStorageUnavailable, err)
	}
	return path, nil
}

func (r *PhotoRepository) readDistance(name string) *float64 {
	data, err := os.ReadFile(filepath.Join(r.dir, name+sidecarSuffix))
	if err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// cleanFilename rejects names that would escape the upload directory
func cleanFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid filename %q: %w", name, ErrInvalidInput)
	}
	return name, nil
}
