package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"housing-backend/internal/middleware"
	"housing-backend/internal/repository"
	"housing-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(ctx, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("username", req.Username).
			Msg("Failed to register user")
		respondServiceError(w, err, "Failed to register user")
		return
	}

	log.Info().
		Str("username", user.Username).
		Str("user_type", string(user.UserType)).
		Msg("User registered")

	respondJSON(w, user, http.StatusCreated)
}

// Login handles POST /api/v1/sessions
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.userService.Login(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to log in")
		respondServiceError(w, err, "Failed to log in")
		return
	}

	log.Info().
		Str("username", resp.Username).
		Str("access", resp.Access).
		Msg("User logged in")

	respondJSON(w, resp, http.StatusOK)
}

// GetUser handles GET /api/v1/users/{username}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.respondUser(w, r, chi.URLParam(r, "username"))
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respondUser(w, r, middleware.GetUsername(r.Context()))
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, username string) {
	user, err := h.userService.FindByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("username", username).Msg("Failed to get user")
		}
		respondServiceError(w, err, "Failed to get user")
		return
	}
	respondJSON(w, user, http.StatusOK)
}
