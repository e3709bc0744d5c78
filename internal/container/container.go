package container

import (
	"github.com/rs/zerolog"

	app "magic-scanner/internal/application"
	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
)

// Options carries the tunables the services need at construction time.
type Options struct {
	MatchThreshold int
	HashSize       int
	MaxConcurrent  int
}

// Container wires the application services together.
type Container struct {
	Scanner    *app.ScannerService
	Cards      *app.CardService
	Identifier *app.MultiIdentifier
}

// New builds the service graph over the loaded corpus. providers may be
// empty; the vision path then reports itself unconfigured.
func New(corpus entity.Corpus, detector port.CardDetector, catalog port.Catalog, providers []port.VisionIdentifier, opts Options, log zerolog.Logger) *Container {
	matcher := app.NewMatcher(corpus, opts.MatchThreshold)

	return &Container{
		Scanner:    app.NewScannerService(detector, matcher, opts.HashSize, opts.MaxConcurrent, log),
		Cards:      app.NewCardService(catalog),
		Identifier: app.NewMultiIdentifier(providers, log),
	}
}
