package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level

	// tabla fuente (markdown); sin ninguna se usa la serie sintetica
	SourcePath         string
	SourceURL          string
	SourceHorizonWeeks int

	SeriesSeed    int64
	SeriesWeeks   int
	SeriesStart   time.Time
	ScheduleSeed  int64
	ScheduleStart time.Time

	ChatProvider   string
	ChatTimeout    time.Duration
	LLMEndpoint    string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	GeminiAPIKey   string
	GeminiModel    string
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) Config {
	// .env es opcional
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg := Config{
		Port:        envOr("PORT", "8080"),
		HTTPTimeout: seconds("HTTP_TIMEOUT_SECONDS", 15*time.Second),
		LogLevel:    lvl,

		SourcePath:         os.Getenv("SOURCE_PATH"),
		SourceURL:          os.Getenv("SOURCE_URL"),
		SourceHorizonWeeks: intOr("SOURCE_HORIZON_WEEKS", 104),

		SeriesSeed:    int64(intOr("SERIES_SEED", 42)),
		SeriesWeeks:   positiveIntOr("SERIES_WEEKS", 26),
		SeriesStart:   dateOr("SERIES_START", time.Date(2025, time.August, 18, 0, 0, 0, 0, time.UTC)),
		ScheduleSeed:  int64(intOr("SCHEDULE_SEED", 123)),
		ScheduleStart: dateOr("SCHEDULE_START", time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)),

		ChatProvider:   strings.ToLower(os.Getenv("CHAT_PROVIDER")),
		ChatTimeout:    seconds("CHAT_TIMEOUT_SECONDS", 120*time.Second),
		LLMEndpoint:    envOr("LLM_ENDPOINT", "https://api.openai.com/v1"),
		LLMAPIKey:      apiKey,
		LLMModel:       envOr("LLM_MODEL", "gpt-4o"),
		LLMTemperature: floatOr("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   intOr("LLM_MAX_TOKENS", 1500),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.5-flash"),
	}
	if cfg.ChatProvider == "" {
		cfg.ChatProvider = cfg.autoProvider()
	}
	return cfg
}

// autoProvider elige el proveedor segun las credenciales presentes.
func (c Config) autoProvider() string {
	switch {
	case c.LLMAPIKey != "":
		return "openai"
	case c.GeminiAPIKey != "":
		return "gemini"
	}
	return "scripted"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func intOr(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}

// positiveIntOr is intOr for counts; zero and negatives fall back to def.
func positiveIntOr(k string, def int) int {
	if v := intOr(k, def); v > 0 {
		return v
	}
	return def
}

func floatOr(k string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64)
	if err != nil {
		return def
	}
	return v
}

func seconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func dateOr(k string, def time.Time) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return t
}
