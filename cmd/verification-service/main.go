package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/seacrew/crewdocs-backend/internal/verification/classify"
	"github.com/seacrew/crewdocs-backend/internal/verification/compare"
	"github.com/seacrew/crewdocs-backend/internal/verification/engine"
	"github.com/seacrew/crewdocs-backend/internal/verification/events"
	"github.com/seacrew/crewdocs-backend/internal/verification/forgery"
	"github.com/seacrew/crewdocs-backend/internal/verification/handler"
	"github.com/seacrew/crewdocs-backend/internal/verification/mapper"
	"github.com/seacrew/crewdocs-backend/internal/verification/merge"
	"github.com/seacrew/crewdocs-backend/internal/verification/owner"
	"github.com/seacrew/crewdocs-backend/internal/verification/repository"
	"github.com/seacrew/crewdocs-backend/internal/verification/service"
	"github.com/seacrew/crewdocs-backend/pkg/config"
	"github.com/seacrew/crewdocs-backend/pkg/database"
	"github.com/seacrew/crewdocs-backend/pkg/httputil"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
	"github.com/seacrew/crewdocs-backend/pkg/messaging"
)

const forgeryTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadWithValidation("verification-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("verification-service", cfg.Server.Environment)
	log.Info().Msg("starting Verification Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Engine registration order is the merge tie-break order
	orchestrator := engine.NewOrchestrator(log,
		engine.TimedEngine{
			Engine:  engine.NewVisionEngine("vision-primary", cfg.Engines.VisionPrimary.URL, cfg.Engines.VisionPrimary.Timeout),
			Timeout: cfg.Engines.VisionPrimary.Timeout,
		},
		engine.TimedEngine{
			Engine:  engine.NewVisionEngine("vision-secondary", cfg.Engines.VisionSecondary.URL, cfg.Engines.VisionSecondary.Timeout),
			Timeout: cfg.Engines.VisionSecondary.Timeout,
		},
		engine.TimedEngine{
			Engine: engine.NewTextractEngine(
				cfg.Engines.TextractCloud.URL,
				cfg.Engines.TextractLocal.URL,
				cfg.Engines.TextractCloud.Timeout,
				log,
			),
			Timeout: cfg.Engines.TextractCloud.Timeout,
		},
	)

	crewRepo := repository.NewCrewRepository(db)

	var detector forgery.Detector
	if cfg.Engines.ForgeryURL != "" {
		detector = forgery.NewHTTPDetector(cfg.Engines.ForgeryURL, forgeryTimeout, log)
	}

	verificationService := service.New(
		orchestrator,
		mapper.New(log),
		merge.New(log),
		compare.New(log, cfg.Verification.AcceptScore, cfg.Verification.ManualCorrectionScore),
		classify.New(log),
		owner.New(service.CrewStoreAdapter{Repo: crewRepo}, owner.LevenshteinMatcher{}, log),
		detector,
		crewRepo,
		publisher,
		log,
	)

	verificationHandler := handler.NewHandler(verificationService, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "verification-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		verificationHandler.Routes(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
