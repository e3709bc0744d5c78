package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	CorpusPath      string
	ScryfallBaseURL string
	MatchThreshold  int
	HashSize        int
	MaxConcurrent   int
	LogLevel        string
}

func Load() (*Config, error) {
	// Load .env if present (ignore the error when the file is missing).
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            getEnv("HTTP_ADDR", ":8000"),
		CorpusPath:      getEnv("CORPUS_PATH", "cache/card_corpus.json"),
		ScryfallBaseURL: os.Getenv("SCRYFALL_BASE_URL"),
		MatchThreshold:  getEnvInt("MATCH_THRESHOLD", 10),
		HashSize:        getEnvInt("HASH_SIZE", 16),
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT_SCANS", 4),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
