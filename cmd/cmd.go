package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"housing-backend/internal/config"
	"housing-backend/internal/handlers"
	"housing-backend/internal/repository"
	"housing-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the HTTP server using the config file at configPath
func Run(configPath string) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Initialize repositories
	userRepo := repository.NewUserRepository(cfg.Storage.UsersFile)
	if _, err := userRepo.LoadAll(context.Background()); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.UsersFile).Msg("Failed to open users file")
	}

	photoRepo, err := repository.NewPhotoRepository(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open upload directory")
	}

	messageRepo := newMessageRepository(cfg.Database)
	if err := messageRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to prepare chat database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Chat database ready")

	var mirror services.ObjectStore
	if cfg.AWS.S3Bucket != "" {
		s3Store, err := services.NewS3Store(context.Background(), services.S3Config{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 photo mirror")
		}
		mirror = s3Store
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Photo mirror enabled")
	}

	// Initialize services and router
	router := handlers.NewRouter(handlers.Services{
		Users:  services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TokenTTL),
		Chat:   services.NewChatService(messageRepo),
		Photos: services.NewPhotoService(photoRepo, mirror, cfg.AWS.S3Prefix),
		Stats:  services.NewStatsService(userRepo, messageRepo),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func newMessageRepository(cfg config.DatabaseConfig) repository.MessageRepository {
	if cfg.Driver == "postgres" {
		return repository.NewPostgresMessageRepository(cfg.DSN())
	}
	return repository.NewSQLiteMessageRepository(cfg.SQLitePath)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
