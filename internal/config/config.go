package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Filesystem layout
	DownloadDir string
	OutputDir   string
	TempDir     string

	// Artifact naming
	CombinedName  string
	SectionPrefix string

	// Section set and traversal order for grouping and merge.
	Sections []string

	// Assembly constants
	TitleWidth        int
	SizeThresholdMB   int
	TOCStartPage      int
	FallbackPageCount int

	// Inspector
	MinTextChars int

	// OCR
	OCRScale    float64
	OCRLanguage string

	// Subsection prefixes excluded from assembly (administrative documents).
	ExcludeSubsections []string

	// Pipeline
	WorkerCount      int
	MaxQueueSize     int
	MaxConcurrentOCR int
	JobTTL           time.Duration

	// Downloads
	DownloadTimeout time.Duration

	// Manifest upload limit
	MaxManifestBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("AIPBUNDLER_API_KEY"),

		DownloadDir: envOr("DOWNLOAD_DIR", "./aip_downloads"),
		OutputDir:   envOr("OUTPUT_DIR", "./aip_output"),
		TempDir:     envOr("TEMP_DIR", "./temp_aip"),

		CombinedName:  envOr("COMBINED_NAME", "AIP_Argentina_Completo.pdf"),
		SectionPrefix: envOr("SECTION_PREFIX", "AIP_Argentina_"),

		Sections: envList("SECTIONS", []string{"GEN", "ENR", "AD"}),

		TitleWidth:        envInt("TITLE_WIDTH", 80),
		SizeThresholdMB:   envInt("SIZE_THRESHOLD_MB", 100),
		TOCStartPage:      envInt("TOC_START_PAGE", 3),
		FallbackPageCount: envInt("FALLBACK_PAGE_COUNT", 5),

		MinTextChars: envInt("MIN_TEXT_CHARS", 100),

		OCRScale:    envFloat("OCR_SCALE", 2.0),
		OCRLanguage: envOr("OCR_LANGUAGE", "spa"),

		ExcludeSubsections: envList("EXCLUDE_SUBSECTIONS", nil),

		WorkerCount:      envInt("WORKER_COUNT", 1),
		MaxQueueSize:     envInt("MAX_QUEUE_SIZE", 16),
		MaxConcurrentOCR: envInt("MAX_CONCURRENT_OCR", 2),
		JobTTL:           envDuration("JOB_TTL", 1*time.Hour),

		DownloadTimeout: envDuration("DOWNLOAD_TIMEOUT", 60*time.Second),

		MaxManifestBytes: envInt64("MAX_MANIFEST_BYTES", 10485760), // 10MB
	}

	if len(cfg.Sections) == 0 {
		cfg.Sections = []string{"GEN", "ENR", "AD"}
	}
	if cfg.TitleWidth <= 0 {
		cfg.TitleWidth = 80
	}
	if cfg.SizeThresholdMB <= 0 {
		cfg.SizeThresholdMB = 100
	}
	if cfg.TOCStartPage <= 0 {
		cfg.TOCStartPage = 3
	}
	if cfg.FallbackPageCount <= 0 {
		cfg.FallbackPageCount = 5
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 100
	}
	if cfg.OCRScale <= 0 {
		cfg.OCRScale = 2.0
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxConcurrentOCR <= 0 {
		cfg.MaxConcurrentOCR = 2
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.MaxManifestBytes <= 0 {
		cfg.MaxManifestBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("AIPBUNDLER_API_KEY is required")
	}
	return nil
}

// SizeThresholdBytes returns the combined-artifact split threshold in bytes.
func (c Config) SizeThresholdBytes() int64 {
	return int64(c.SizeThresholdMB) * 1024 * 1024
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
