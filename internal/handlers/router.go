package handlers

import (
	"net/http"

	"housing-backend/internal/middleware"
	"housing-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services groups what the router needs
type Services struct {
	Users  *services.UserService
	Chat   *services.ChatService
	Photos *services.PhotoService
	Stats  *services.StatsService
}

// NewRouter builds the HTTP API
func NewRouter(svc Services) http.Handler {
	userHandler := NewUserHandler(svc.Users)
	chatHandler := NewChatHandler(svc.Chat)
	photoHandler := NewPhotoHandler(svc.Photos)
	statsHandler := NewStatsHandler(svc.Stats)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.Register)
		r.Get("/users/{username}", userHandler.GetUser)
		r.Post("/sessions", userHandler.Login)

		r.Post("/photos", photoHandler.UploadPhotos)
		r.Get("/photos", photoHandler.GetPhotos)
		r.Get("/photos/prices", photoHandler.GetPrices)
		r.Get("/photos/filter", photoHandler.FilterPhotos)
		r.Get("/photos/{filename}", photoHandler.GetPhoto)

		r.Post("/chats/{stream}/messages", chatHandler.SendMessage)
		r.Get("/chats/{stream}/messages", chatHandler.ListMessages)

		r.Get("/stats", statsHandler.GetStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))
			r.Get("/me", userHandler.Me)
		})
	})

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
