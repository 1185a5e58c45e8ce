package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/holiuunc/etf-justification-engine/internal/analysis"
	"github.com/holiuunc/etf-justification-engine/internal/clients/newsapi"
	"github.com/holiuunc/etf-justification-engine/internal/clients/summarizer"
	"github.com/holiuunc/etf-justification-engine/internal/clients/yahoo"
	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/scheduler"
	"github.com/holiuunc/etf-justification-engine/internal/server"
	"github.com/holiuunc/etf-justification-engine/internal/storage"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
	"github.com/holiuunc/etf-justification-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting ETF justification engine")

	db, err := storage.Open(filepath.Join(cfg.DataDir, "engine.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	store := storage.NewStore(db, log)
	catalog := universe.Default()

	market := yahoo.NewClient(log)
	news := newsapi.NewClient(cfg.NewsAPIKey, cfg.Scalpel.MaxArticles, log)
	llm := summarizer.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, log)

	runner := analysis.NewRunner(cfg, catalog, market, market, news, llm, store, log)

	if cfg.Schedule.Enabled {
		sched := scheduler.New(log)
		if err := sched.AddJob(cfg.Schedule.CronSpec, scheduler.NewAnalysisJob(runner, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register analysis job")
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Info().Msg("Scheduled analysis disabled")
	}

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Store:   store,
		Runner:  runner,
		Health:  db,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
