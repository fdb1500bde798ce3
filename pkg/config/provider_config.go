package config

import "time"

// Provider names shared by extraction and transcription.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderWhisper = "whisper"
)

// ExtractionConfig selects and tunes the language model that turns free text
// into shipment records.
type ExtractionConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TranscriptionConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
	// MaxRetries applies to rate limited and failed Whisper uploads.
	MaxRetries int `yaml:"max_retries"`
}
