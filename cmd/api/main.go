//	@title			Uploader API
//	@version		1.0
//	@description	Moves staged audio files into object storage and records each upload.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/radif/uploader/internal/config"
	"github.com/radif/uploader/internal/db"
	"github.com/radif/uploader/internal/logging"
	"github.com/radif/uploader/internal/metrics"
	appMiddleware "github.com/radif/uploader/internal/middleware"
	"github.com/radif/uploader/internal/storage"
	"github.com/radif/uploader/internal/upload"

	_ "github.com/radif/uploader/docs/swagger"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.IsProduction())

	backend, err := config.LoadBackend(cfg.StorageConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("storage configuration invalid")
	}

	var connector storage.Connector
	if backend.Enabled() {
		connector, err = storage.NewConnector(backend)
		if err != nil {
			log.Fatal().Err(err).Msg("object storage init failed")
		}
	}

	uploader, err := upload.New(backend, connector, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("uploader init failed")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Wire dependencies: repository → service → handler
	uploadRepo := upload.NewRepository(pool)
	uploadSvc, err := upload.NewService(uploader, uploadRepo, cfg.StagingDir, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("upload service init failed")
	}
	uploadHandler := upload.NewHandler(uploadSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
		uploadHandler.Routes(r)
	})

	// No write timeout: a transfer to the object store lasts as long as it takes.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Str("backend", backend.Name).
			Bool("remote", backend.Enabled()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
