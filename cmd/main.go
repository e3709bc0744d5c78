package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"magic-scanner/config"
	"magic-scanner/internal/api"
	"magic-scanner/internal/container"
	"magic-scanner/internal/infrastructure/scryfall"
	"magic-scanner/internal/infrastructure/storage"
	"magic-scanner/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stdout)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	// Load the reference corpus before serving; a missing snapshot only
	// degrades matching, it never blocks startup.
	store := storage.NewFileCorpusStore(cfg.CorpusPath)
	corpus, err := store.Load(context.Background())
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CorpusPath).
			Msg("reference corpus unavailable, starting with an empty corpus")
	}
	log.Info().Int("cards", len(corpus)).Msg("reference corpus loaded")

	detector := vision.NewGoCVDetector(log)
	catalog := scryfall.NewClient(cfg.ScryfallBaseURL, log)

	services := container.New(corpus, detector, catalog, nil, container.Options{
		MatchThreshold: cfg.MatchThreshold,
		HashSize:       cfg.HashSize,
		MaxConcurrent:  cfg.MaxConcurrent,
	}, log)

	server := api.NewServer(cfg.Addr, services, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}
