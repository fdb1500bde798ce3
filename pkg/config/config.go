package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level shape of config.yaml.
type Config struct {
	Telegram      TelegramConfig      `yaml:"telegram"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Storage       StorageConfig       `yaml:"storage"`
	Dialog        DialogConfig        `yaml:"dialog"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
	// UpdateTimeout is the long polling timeout in seconds.
	UpdateTimeout int `yaml:"update_timeout"`
}

type DialogConfig struct {
	ExtractionTimeout    time.Duration `yaml:"extraction_timeout"`
	TranscriptionTimeout time.Duration `yaml:"transcription_timeout"`
	PersistenceTimeout   time.Duration `yaml:"persistence_timeout"`
	// RetryInPlace keeps the operator on the same record after a failed save
	// instead of abandoning the batch.
	RetryInPlace bool `yaml:"retry_in_place"`
	MailboxSize  int  `yaml:"mailbox_size"`
}

type ServerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables that override secrets from the file.
const (
	EnvTelegramToken = "TELEGRAM_SHIPMENT_DATA_BOT_TOKEN"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvDatabaseURL   = "DATABASE_URL"
)

// DefaultConfig returns a Config that runs the bot against OpenAI with a
// local SQLite ledger.
func DefaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{UpdateTimeout: 60},
		Extraction: ExtractionConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.4,
			MaxRetries:  3,
		},
		Transcription: TranscriptionConfig{
			Provider:   ProviderWhisper,
			Language:   "ru",
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: "shipments.db",
			FilePath:   "shipments.jsonl",
			Database:   DatabaseConfig{Port: 5432, SSLMode: "disable"},
			DynamoDB:   DynamoDBConfig{Table: "shipments"},
		},
		Dialog: DialogConfig{
			ExtractionTimeout:    60 * time.Second,
			TranscriptionTimeout: 60 * time.Second,
			PersistenceTimeout:   30 * time.Second,
			MailboxSize:          16,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load decodes the YAML file at path over the defaults and applies
// environment overrides. Keys absent from the file keep their default, while
// keys present win even when zero. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides secrets with values found through lookup. API keys go to
// whichever section uses the matching provider.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvTelegramToken); ok && v != "" {
		c.Telegram.Token = v
	}
	if v, ok := lookup(EnvOpenAIKey); ok && v != "" {
		if c.Extraction.Provider == ProviderOpenAI {
			c.Extraction.APIKey = v
		}
		if c.Transcription.Provider == ProviderWhisper {
			c.Transcription.APIKey = v
		}
	}
	if v, ok := lookup(EnvGeminiKey); ok && v != "" {
		if c.Extraction.Provider == ProviderGemini {
			c.Extraction.APIKey = v
		}
		if c.Transcription.Provider == ProviderGemini {
			c.Transcription.APIKey = v
		}
	}
	if v, ok := lookup(EnvDatabaseURL); ok && v != "" {
		c.Storage.Database.URL = v
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks enumerations and durations. Secrets are checked by the
// components that need them.
func (c *Config) Validate() error {
	switch c.Extraction.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown extraction provider %q", ErrInvalid, c.Extraction.Provider)
	}
	switch c.Transcription.Provider {
	case ProviderWhisper, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown transcription provider %q", ErrInvalid, c.Transcription.Provider)
	}
	switch c.Storage.Backend {
	case BackendPostgres, BackendSQLite, BackendFile, BackendDynamoDB:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	if c.Dialog.ExtractionTimeout <= 0 || c.Dialog.TranscriptionTimeout <= 0 || c.Dialog.PersistenceTimeout <= 0 {
		return fmt.Errorf("%w: dialog timeouts must be positive", ErrInvalid)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
