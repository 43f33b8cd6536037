package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"housing-backend/internal/models"
	"housing-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	priceStep       = 100
	presignedExpiry = 15 * time.Minute
)

// PhotoService handles photo uploads and the derived price view
type PhotoService struct {
	photoRepo *repository.PhotoRepository
	mirror    ObjectStore
	keyPrefix string
}

// NewPhotoService creates a new photo service. mirror may be nil.
func NewPhotoService(photoRepo *repository.PhotoRepository, mirror ObjectStore, keyPrefix string) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		mirror:    mirror,
		keyPrefix: keyPrefix,
	}
}

// UploadFile is one file of a multi-file upload
type UploadFile struct {
	Filename string
	Data     []byte
}

// Upload stores every file with the same distance.
// All files are validated before any is written.
func (s *PhotoService) Upload(ctx context.Context, files []UploadFile, distanceKm *float64) ([]models.PhotoAsset, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one file is required: %w", repository.ErrInvalidInput)
	}
	if distanceKm != nil {
		if math.IsNaN(*distanceKm) || math.IsInf(*distanceKm, 0) {
			return nil, fmt.Errorf("distance must be a finite number: %w", repository.ErrInvalidInput)
		}
		if *distanceKm < 0 {
			return nil, fmt.Errorf("distance must not be negative: %w", repository.ErrInvalidInput)
		}
	}
	for _, f := range files {
		if !repository.IsImageFilename(f.Filename) {
			return nil, fmt.Errorf("file %q is not a jpg, jpeg or png image: %w", f.Filename, repository.ErrInvalidInput)
		}
	}

	saved := make([]models.PhotoAsset, 0, len(files))
	for _, f := range files {
		if err := s.photoRepo.Save(ctx, f.Filename, f.Data, distanceKm); err != nil {
			return saved, fmt.Errorf("failed to save %q: %w", f.Filename, err)
		}
		saved = append(saved, models.PhotoAsset{Filename: f.Filename, DistanceKm: distanceKm})
		s.mirrorPhoto(ctx, f)
	}
	return saved, nil
}

// mirrorPhoto copies a photo to object storage. The local directory stays the
// source of truth, so failures are logged and not returned.
func (s *PhotoService) mirrorPhoto(ctx context.Context, f UploadFile) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Put(ctx, s.keyPrefix+f.Filename, f.Data, http.DetectContentType(f.Data)); err != nil {
		log.Warn().Err(err).Str("filename", f.Filename).Msg("Failed to mirror photo")
	}
}

// ListPhotos returns every stored photo in listing order
func (s *PhotoService) ListPhotos(ctx context.Context) ([]models.PhotoAsset, error) {
	return s.photoRepo.List(ctx)
}

// PriceIndex maps each photo to (rank+1)*100 by its current listing position.
// The value is a view: uploading another photo can shift every price.
func (s *PhotoService) PriceIndex(ctx context.Context) (map[string]int, error) {
	priced, err := s.ListPriced(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(priced))
	for _, p := range priced {
		index[p.Filename] = p.Price
	}
	return index, nil
}

// ListPriced returns photos in listing order with their derived price
func (s *PhotoService) ListPriced(ctx context.Context) ([]models.PricedPhoto, error) {
	photos, err := s.photoRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	priced := make([]models.PricedPhoto, 0, len(photos))
	for i, p := range photos {
		priced = append(priced, models.PricedPhoto{
			PhotoAsset: p,
			Price:      (i + 1) * priceStep,
			URL:        s.presign(ctx, p.Filename),
		})
	}
	return priced, nil
}

// FilterByPrice returns photos whose derived price lies in [minPrice, maxPrice].
// An inverted range yields no photos.
func (s *PhotoService) FilterByPrice(ctx context.Context, minPrice, maxPrice int) ([]models.PricedPhoto, error) {
	priced, err := s.ListPriced(ctx)
	if err != nil {
		return nil, err
	}

	filtered := []models.PricedPhoto{}
	for _, p := range priced {
		if minPrice <= p.Price && p.Price <= maxPrice {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// PhotoPath resolves a stored photo on disk
func (s *PhotoService) PhotoPath(ctx context.Context, filename string) (string, error) {
	return s.photoRepo.Path(ctx, filename)
}

func (s *PhotoService) presign(ctx context.Context, filename string) string {
	if s.mirror == nil {
		return ""
	}
	url, err := s.mirror.PresignGet(ctx, s.keyPrefix+filename, presignedExpiry)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Failed to presign photo URL")
		return ""
	}
	return url
}
