// Command buildcorpus is the offline batch job that builds the reference
// corpus: it enumerates every known card, fingerprints each card image
// and writes the snapshot the scanner loads at startup.
//
// A full run takes hours and downloads every card image; use -limit for
// a small test corpus.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"magic-scanner/config"
	app "magic-scanner/internal/application"
	"magic-scanner/internal/infrastructure/scryfall"
	"magic-scanner/internal/infrastructure/storage"
)

func main() {
	var (
		limit         = flag.Int("limit", 0, "stop after this many cards (0 = all)")
		hashSize      = flag.Int("hash-size", 16, "perceptual hash grid size")
		includeTokens = flag.Bool("include-tokens", false, "include token cards")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := scryfall.NewClient(cfg.ScryfallBaseURL, log)
	store := storage.NewFileCorpusStore(cfg.CorpusPath)
	builder := app.NewCorpusBuilder(catalog, store, log)

	corpus, err := builder.Build(ctx, app.BuildOptions{
		Limit:         *limit,
		HashSize:      *hashSize,
		IncludeTokens: *includeTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("corpus build failed")
	}
	log.Info().Int("cards", len(corpus)).Str("path", cfg.CorpusPath).Msg("corpus written")
}
