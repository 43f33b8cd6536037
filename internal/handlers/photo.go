package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"housing-backend/internal/models"
	"housing-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	maxUploadMemory = 32 << 20
	defaultMinPrice = 100
	defaultMaxPrice = 500
)

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// photoResponse adds the rendered distance label to a photo
type photoResponse struct {
	models.PhotoAsset
	Distance string `json:"distance"`
}

type pricedPhotoResponse struct {
	models.PricedPhoto
	Distance string `json:"distance"`
}

func toPricedResponse(photos []models.PricedPhoto) []pricedPhotoResponse {
	resp := make([]pricedPhotoResponse, 0, len(photos))
	for _, p := range photos {
		resp = append(resp, pricedPhotoResponse{PricedPhoto: p, Distance: p.DistanceLabel()})
	}
	return resp
}

// UploadPhotos handles POST /api/v1/photos (multipart: files, distance)
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	var distanceKm *float64
	if raw := strings.TrimSpace(r.FormValue("distance")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, "distance must be a number", http.StatusBadRequest)
			return
		}
		distanceKm = &v
	}

	headers := r.MultipartForm.File["files"]
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
		files = append(files, services.UploadFile{Filename: fh.Filename, Data: data})
	}

	saved, err := h.photoService.Upload(ctx, files, distanceKm)
	if err != nil {
		log.Error().
			Err(err).
			Int("files", len(files)).
			Int("saved", len(saved)).
			Msg("Failed to upload photos")
		respondServiceError(w, err, "Failed to upload photos")
		return
	}

	resp := make([]photoResponse, 0, len(saved))
	for _, p := range saved {
		log.Info().
			Str("filename", p.Filename).
			Str("distance", p.DistanceLabel()).
			Msg("Photo uploaded")
		resp = append(resp, photoResponse{PhotoAsset: p, Distance: p.DistanceLabel()})
	}

	respondJSON(w, map[string]interface{}{"photos": resp}, http.StatusCreated)
}

// GetPhotos handles GET /api/v1/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photoService.ListPhotos(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list photos")
		respondServiceError(w, err, "Failed to list photos")
		return
	}

	resp := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		resp = append(resp, photoResponse{PhotoAsset: p, Distance: p.DistanceLabel()})
	}

	respondJSON(w, map[string]interface{}{
		"photos": resp,
		"total":  len(resp),
	}, http.StatusOK)
}

// GetPrices handles GET /api/v1/photos/prices
func (h *PhotoHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	priced, err := h.photoService.ListPriced(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to price photos")
		respondServiceError(w, err, "Failed to price photos")
		return
	}
	respondJSON(w, map[string]interface{}{"photos": toPricedResponse(priced)}, http.StatusOK)
}

// FilterPhotos handles GET /api/v1/photos/filter?min=&max=
func (h *PhotoHandler) FilterPhotos(w http.ResponseWriter, r *http.Request) {
	minPrice, ok := intQuery(w, r, "min", defaultMinPrice)
	if !ok {
		return
	}
	maxPrice, ok := intQuery(w, r, "max", defaultMaxPrice)
	if !ok {
		return
	}

	photos, err := h.photoService.FilterByPrice(r.Context(), minPrice, maxPrice)
	if err != nil {
		log.Error().
			Err(err).
			Int("min", minPrice).
			Int("max", maxPrice).
			Msg("Failed to filter photos")
		respondServiceError(w, err, "Failed to filter photos")
		return
	}

	respondJSON(w, map[string]interface{}{
		"min":    minPrice,
		"max":    maxPrice,
		"photos": toPricedResponse(photos),
	}, http.StatusOK)
}

// GetPhoto handles GET /api/v1/photos/{filename}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.photoService.PhotoPath(r.Context(), filename)
	if err != nil {
		respondServiceError(w, err, "Failed to get photo")
		return
	}
	http.ServeFile(w, r, path)
}

// intQuery parses an integer query value. Bounds are not checked: prices start
// at 100, so a negative or oversized range just matches no photos.
func intQuery(w http.ResponseWriter, r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, key+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
