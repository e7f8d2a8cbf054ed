package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Form rendering
	TemplatePath string
	LayoutPath   string // empty uses the embedded default layout
	SheetName    string // empty reads the first sheet

	// Uploads
	UploadDir      string
	KeepUploads    bool
	MaxUploadBytes int64

	OutputFilename string

	// Auth for /api routes; empty disables it
	APIKey string

	// Batch reports and stats
	BatchTTL    time.Duration
	StatsWindow time.Duration

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		TemplatePath: envOr("TEMPLATE_PATH", "templates_pdf/plantilla.pdf"),
		LayoutPath:   os.Getenv("LAYOUT_PATH"),
		SheetName:    os.Getenv("SHEET_NAME"),

		UploadDir:      envOr("UPLOAD_DIR", "uploads"),
		KeepUploads:    envBool("KEEP_UPLOADS", true),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20<<20),

		OutputFilename: envOr("OUTPUT_FILENAME", "combined.pdf"),

		APIKey: os.Getenv("FORMFILL_API_KEY"),

		BatchTTL:    envDuration("BATCH_TTL", time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", time.Hour),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.BatchTTL <= 0 {
		cfg.BatchTTL = time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.TemplatePath == "" {
		return fmt.Errorf("TEMPLATE_PATH is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.OutputFilename == "" || strings.ContainsAny(c.OutputFilename, `/\"`) {
		return fmt.Errorf("OUTPUT_FILENAME %q is not a plain file name", c.OutputFilename)
	}
	if !strings.HasSuffix(strings.ToLower(c.OutputFilename), ".pdf") {
		return fmt.Errorf("OUTPUT_FILENAME %q must end in .pdf", c.OutputFilename)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envLevel accepts debug, info, warn or error.
func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
