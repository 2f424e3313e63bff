package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string

	MatchDaysBack    int
	MatchMaxSamples  int
	SubjectWhitelist []string

	// Free-text extraction only runs on listings containing this marker.
	// Tied to the spare-parts vertical, so it is configurable rather than
	// hard-coded.
	DisplayKeyword string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "pricewatch.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		MatchDaysBack:    getEnvInt("MATCH_DAYS_BACK", 3),
		MatchMaxSamples:  getEnvInt("MATCH_MAX_SAMPLES", 20),
		SubjectWhitelist: getEnvList("MATCH_SUBJECT_WHITELIST"),

		DisplayKeyword: getEnv("MATCH_DISPLAY_KEYWORD", "дисплей"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
