package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const megabyte = 1 << 20

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Batch   BatchConfig
	LLM     LLMConfig
	NER     NERConfig
	Log     LogConfig
	CORS    CORSConfig
	Archive ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// BatchConfig holds archive limits and worker settings.
type BatchConfig struct {
	MaxArchiveMB   int64  `mapstructure:"max_archive_mb"`
	MaxEntryMB     int64  `mapstructure:"max_entry_mb"`
	MaxTotalMB     int64  `mapstructure:"max_total_mb"`
	MaxEntries     int    `mapstructure:"max_entries"`
	Workers        int    `mapstructure:"workers"`
	ReportFilename string `mapstructure:"report_filename"`
	CSVBOM         bool   `mapstructure:"csv_bom"`
}

// MaxArchiveBytes returns the archive ceiling in bytes.
func (b *BatchConfig) MaxArchiveBytes() int64 { return b.MaxArchiveMB * megabyte }

// MaxEntryBytes returns the per-member ceiling in bytes.
func (b *BatchConfig) MaxEntryBytes() int64 { return b.MaxEntryMB * megabyte }

// MaxTotalBytes returns the ceiling on the sum of uncompressed member sizes.
func (b *BatchConfig) MaxTotalBytes() int64 { return b.MaxTotalMB * megabyte }

// ProviderConfig holds settings for a single language-model provider.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-call timeout, falling back to def when unset.
func (p *ProviderConfig) Timeout(def time.Duration) time.Duration {
	if p.TimeoutSecs <= 0 {
		return def
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// LLMConfig holds the language-model strategy chain settings.
type LLMConfig struct {
	Primary       ProviderConfig `mapstructure:"primary"`
	Secondary     ProviderConfig `mapstructure:"secondary"`
	Tertiary      ProviderConfig `mapstructure:"tertiary"`
	TimeoutSecs   int            `mapstructure:"timeout_secs"`
	MaxInputChars int            `mapstructure:"max_input_chars"`
	Temperature   float64        `mapstructure:"temperature"`
	MaxTokens     int            `mapstructure:"max_tokens"`

	// OpenAIAPIKey is read from the bare OPENAI_API_KEY variable for
	// deployments that predate the CVBATCH_LLM_* settings.
	OpenAIAPIKey string `mapstructure:"-"`
}

// PrimaryConfig returns the primary provider config. When no primary provider
// is set but OPENAI_API_KEY is, an openai provider is implied. Returns nil
// when no language model is configured at all.
func (l *LLMConfig) PrimaryConfig() *ProviderConfig {
	if l.Primary.Provider != "" {
		return &l.Primary
	}
	if l.OpenAIAPIKey != "" {
		return &ProviderConfig{
			Provider:    "openai",
			APIKey:      l.OpenAIAPIKey,
			Model:       l.Primary.Model,
			BaseURL:     l.Primary.BaseURL,
			TimeoutSecs: l.Primary.TimeoutSecs,
		}
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *ProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *ProviderConfig {
	if l.Tertiary.Provider != "" {
		return &l.Tertiary
	}
	return nil
}

// Providers returns the configured providers in chain order.
func (l *LLMConfig) Providers() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{l.PrimaryConfig(), l.SecondaryConfig(), l.TertiaryConfig()} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Enabled reports whether at least one language-model provider is configured.
func (l *LLMConfig) Enabled() bool {
	return len(l.Providers()) > 0
}

// StrategyTimeout is the default deadline for one provider call.
func (l *LLMConfig) StrategyTimeout() time.Duration {
	if l.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(l.TimeoutSecs) * time.Second
}

// NERConfig holds named-entity recognizer settings.
type NERConfig struct {
	// ModelPath optionally points at a custom prose model directory.
	ModelPath string `mapstructure:"model_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ArchiveConfig holds settings for the S3 report archive and S3 batch sources.
type ArchiveConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Enabled reports whether generated reports should be archived.
func (a *ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads configuration from environment variables with the CVBATCH_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CVBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Batch defaults
	v.SetDefault("batch.max_archive_mb", 50)
	v.SetDefault("batch.max_entry_mb", 20)
	v.SetDefault("batch.max_total_mb", 200)
	v.SetDefault("batch.max_entries", 1000)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.report_filename", "resume_report")
	v.SetDefault("batch.csv_bom", false)

	// LLM defaults
	v.SetDefault("llm.timeout_secs", 30)
	v.SetDefault("llm.max_input_chars", 3000)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 500)
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("llm."+tier+".provider", "")
		v.SetDefault("llm."+tier+".api_key", "")
		v.SetDefault("llm."+tier+".model", "")
		v.SetDefault("llm."+tier+".base_url", "")
		v.SetDefault("llm."+tier+".timeout_secs", 0)
	}

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Archive defaults
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "reports")
	v.SetDefault("archive.presign_expiry", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "CVBATCH_SERVER_PORT",
		"server.read_timeout":        "CVBATCH_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "CVBATCH_SERVER_WRITE_TIMEOUT",
		"server.environment":         "CVBATCH_SERVER_ENVIRONMENT",
		"batch.max_archive_mb":       "CVBATCH_BATCH_MAX_ARCHIVE_MB",
		"batch.max_entry_mb":         "CVBATCH_BATCH_MAX_ENTRY_MB",
		"batch.max_total_mb":         "CVBATCH_BATCH_MAX_TOTAL_MB",
		"batch.max_entries":          "CVBATCH_BATCH_MAX_ENTRIES",
		"batch.workers":              "CVBATCH_BATCH_WORKERS",
		"batch.report_filename":      "CVBATCH_BATCH_REPORT_FILENAME",
		"batch.csv_bom":              "CVBATCH_BATCH_CSV_BOM",
		"llm.timeout_secs":           "CVBATCH_LLM_TIMEOUT_SECS",
		"llm.max_input_chars":        "CVBATCH_LLM_MAX_INPUT_CHARS",
		"llm.temperature":            "CVBATCH_LLM_TEMPERATURE",
		"llm.max_tokens":             "CVBATCH_LLM_MAX_TOKENS",
		"llm.primary.provider":       "CVBATCH_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":        "CVBATCH_LLM_PRIMARY_API_KEY",
		"llm.primary.model":          "CVBATCH_LLM_PRIMARY_MODEL",
		"llm.primary.base_url":       "CVBATCH_LLM_PRIMARY_BASE_URL",
		"llm.primary.timeout_secs":   "CVBATCH_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.secondary.provider":     "CVBATCH_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":      "CVBATCH_LLM_SECONDARY_API_KEY",
		"llm.secondary.model":        "CVBATCH_LLM_SECONDARY_MODEL",
		"llm.secondary.base_url":     "CVBATCH_LLM_SECONDARY_BASE_URL",
		"llm.secondary.timeout_secs": "CVBATCH_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.tertiary.provider":      "CVBATCH_LLM_TERTIARY_PROVIDER",
		"llm.tertiary.api_key":       "CVBATCH_LLM_TERTIARY_API_KEY",
		"llm.tertiary.model":         "CVBATCH_LLM_TERTIARY_MODEL",
		"llm.tertiary.base_url":      "CVBATCH_LLM_TERTIARY_BASE_URL",
		"llm.tertiary.timeout_secs":  "CVBATCH_LLM_TERTIARY_TIMEOUT_SECS",
		"ner.model_path":             "CVBATCH_NER_MODEL_PATH",
		"log.level":                  "CVBATCH_LOG_LEVEL",
		"log.format":                 "CVBATCH_LOG_FORMAT",
		"log.file":                   "CVBATCH_LOG_FILE",
		"log.max_size_mb":            "CVBATCH_LOG_MAX_SIZE_MB",
		"log.max_backups":            "CVBATCH_LOG_MAX_BACKUPS",
		"log.max_age_days":           "CVBATCH_LOG_MAX_AGE_DAYS",
		"cors.allowed_origins":       "CVBATCH_CORS_ALLOWED_ORIGINS",
		"archive.region":             "CVBATCH_ARCHIVE_REGION",
		"archive.bucket":             "CVBATCH_ARCHIVE_BUCKET",
		"archive.endpoint":           "CVBATCH_ARCHIVE_ENDPOINT",
		"archive.access_key":         "CVBATCH_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":         "CVBATCH_ARCHIVE_SECRET_KEY",
		"archive.prefix":             "CVBATCH_ARCHIVE_PREFIX",
		"archive.presign_expiry":     "CVBATCH_ARCHIVE_PRESIGN_EXPIRY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CVBATCH_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CVBATCH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}

	// MAX_ZIP_SIZE_MB is honoured for older deployments unless the prefixed key is set.
	maxArchiveMB := v.GetInt64("batch.max_archive_mb")
	if legacy := os.Getenv("MAX_ZIP_SIZE_MB"); legacy != "" && os.Getenv("CVBATCH_BATCH_MAX_ARCHIVE_MB") == "" {
		if mb, err := strconv.ParseInt(legacy, 10, 64); err == nil && mb > 0 {
			maxArchiveMB = mb
		}
	}

	cfg.Batch = BatchConfig{
		MaxArchiveMB:   maxArchiveMB,
		MaxEntryMB:     v.GetInt64("batch.max_entry_mb"),
		MaxTotalMB:     v.GetInt64("batch.max_total_mb"),
		MaxEntries:     v.GetInt("batch.max_entries"),
		Workers:        v.GetInt("batch.workers"),
		ReportFilename: v.GetString("batch.report_filename"),
		CSVBOM:         v.GetBool("batch.csv_bom"),
	}
	if cfg.Batch.Workers < 1 {
		cfg.Batch.Workers = 1
	}

	cfg.LLM = LLMConfig{
		Primary:       providerConfig(v, "primary"),
		Secondary:     providerConfig(v, "secondary"),
		Tertiary:      providerConfig(v, "tertiary"),
		TimeoutSecs:   v.GetInt("llm.timeout_secs"),
		MaxInputChars: v.GetInt("llm.max_input_chars"),
		Temperature:   v.GetFloat64("llm.temperature"),
		MaxTokens:     v.GetInt("llm.max_tokens"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
	}

	cfg.NER = NERConfig{
		ModelPath: v.GetString("ner.model_path"),
	}

	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Archive = ArchiveConfig{
		Region:        v.GetString("archive.region"),
		Bucket:        v.GetString("archive.bucket"),
		Endpoint:      v.GetString("archive.endpoint"),
		AccessKey:     v.GetString("archive.access_key"),
		SecretKey:     v.GetString("archive.secret_key"),
		Prefix:        v.GetString("archive.prefix"),
		PresignExpiry: v.GetInt64("archive.presign_expiry"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, tier string) ProviderConfig {
	return ProviderConfig{
		Provider:    v.GetString("llm." + tier + ".provider"),
		APIKey:      v.GetString("llm." + tier + ".api_key"),
		Model:       v.GetString("llm." + tier + ".model"),
		BaseURL:     v.GetString("llm." + tier + ".base_url"),
		TimeoutSecs: v.GetInt("llm." + tier + ".timeout_secs"),
	}
}
