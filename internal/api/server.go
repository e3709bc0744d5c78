// Package api exposes the scanner over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"magic-scanner/internal/container"
	"magic-scanner/internal/domain/entity"
)

const (
	serviceName    = "MagicScanner API"
	serviceVersion = "1.0.0"

	// Uploaded photos are capped well above any phone camera output.
	maxUploadBytes = 32 << 20
)

// Server handles HTTP requests and translates them into application
// service calls.
type Server struct {
	services *container.Container
	srv      *http.Server
	log      zerolog.Logger
}

// NewServer builds the router and wraps it in an http.Server on addr.
func NewServer(addr string, services *container.Container, log zerolog.Logger) *Server {
	s := &Server{services: services, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/scan", s.handleScan)
	r.Post("/identify-single", s.handleIdentifySingle)
	r.Get("/database/stats", s.handleDatabaseStats)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"cards_in_database": s.services.Scanner.CorpusSize(),
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total_cards": s.services.Scanner.CorpusSize(),
	})
}

// scannedCard is one entry of the /scan response.
type scannedCard struct {
	CardNumber      int            `json:"card_number"`
	Matched         bool           `json:"matched"`
	Confidence      int            `json:"confidence,omitempty"`
	Name            string         `json:"name,omitempty"`
	Set             string         `json:"set,omitempty"`
	SetCode         string         `json:"set_code,omitempty"`
	CollectorNumber string         `json:"collector_number,omitempty"`
	Rarity          string         `json:"rarity,omitempty"`
	ImageURL        string         `json:"image_url,omitempty"`
	ScryfallID      string         `json:"scryfall_id,omitempty"`
	ScryfallURI     string         `json:"scryfall_uri,omitempty"`
	Prices          *entity.Prices `json:"prices,omitempty"`
	Message         string         `json:"message,omitempty"`
	Error           string         `json:"error,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	imageData, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	results, err := s.services.Scanner.Scan(r.Context(), imageData)
	if err != nil {
		s.log.Error().Err(err).Msg("scan failed")
		writeError(w, http.StatusInternalServerError, "error processing image")
		return
	}

	cards := make([]scannedCard, 0, len(results))
	matched := 0
	for i, result := range results {
		cards = append(cards, s.enrich(r.Context(), i+1, result))
		if result.Matched {
			matched++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"cards_found":   len(results),
		"cards_matched": matched,
		"cards":         cards,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleIdentifySingle(w http.ResponseWriter, r *http.Request) {
	imageData, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.services.Scanner.IdentifySingle(r.Context(), imageData)
	if err != nil {
		s.log.Error().Err(err).Msg("identify failed")
		writeError(w, http.StatusInternalServerError, "error processing image")
		return
	}

	writeJSON(w, http.StatusOK, s.enrich(r.Context(), 1, result))
}

// enrich looks up catalog details and prices for a matched card. A
// catalog failure degrades to the bare match instead of failing the
// response.
func (s *Server) enrich(ctx context.Context, number int, result entity.MatchResult) scannedCard {
	card := scannedCard{
		CardNumber: number,
		Matched:    result.Matched,
		Confidence: result.Confidence,
		ScryfallID: result.ScryfallID,
	}
	if !result.Matched {
		card.Message = "could not identify this card"
		if result.Reason != "" {
			card.Message = result.Reason
		}
		return card
	}

	details, err := s.services.Cards.Details(ctx, result.ScryfallID)
	if err != nil {
		s.log.Warn().Err(err).Str("scryfall_id", result.ScryfallID).Msg("failed to fetch card details")
		card.Error = "failed to fetch card details"
		return card
	}
	card.Name = details.Name
	card.Set = details.SetName
	card.SetCode = details.Set
	card.CollectorNumber = details.CollectorNumber
	card.Rarity = details.Rarity
	card.ImageURL = details.ImageURL
	card.ScryfallURI = details.ScryfallURI

	if prices, err := s.services.Cards.Prices(ctx, result.ScryfallID); err == nil {
		card.Prices = prices
	}
	return card
}

// readUpload pulls the image file out of the multipart form and rejects
// non-image uploads.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return nil, false
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"success": false, "detail": detail})
}
