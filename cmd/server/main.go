package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	httpapi "github.com/grievance_desk/backend/internal/http"
	"github.com/grievance_desk/backend/internal/service"
	"github.com/grievance_desk/backend/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "grievance-backend").Logger()

	ctx := context.Background()
	repo, err := db.Open(ctx, cfg.DatabaseURL, cfg.SeedDemo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer repo.Close()
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("using in-memory store with demo directory")
	}

	rules, err := triage.LoadRuleset(cfg.RulesetPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load ruleset")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}

	intake := service.NewIntake(repo, triage.NewClassifier(rules), service.Options{
		Hours:       service.WorkingHours{Start: cfg.WorkStartHour, End: cfg.WorkEndHour, Location: loc},
		Parallelism: cfg.ScoringParallelism,
		Logger:      logger,
	})
	logger.Info().Str("ruleset_version", rules.Version).Msg("triage ruleset loaded")

	router := httpapi.Router(cfg, repo, intake, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
