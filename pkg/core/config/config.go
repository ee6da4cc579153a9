// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Tool modes for the tool_call feature.
const (
	ToolModeConditional = "conditional" // execute the tool only when the model asks for it
	ToolModeEager       = "eager"       // always look up the weather alongside the model call
)

// Config represents the main configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Weather    WeatherConfig    `yaml:"weather"`
	AudioStore AudioStoreConfig `yaml:"audio_store"`
	Journal    JournalConfig    `yaml:"journal"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	H2C     bool          `yaml:"h2c"` // serve HTTP/2 without TLS
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatewayConfig controls how each feature kind reaches the provider.
type GatewayConfig struct {
	BaseURL          string        `yaml:"base_url"` // empty means api.openai.com
	CredentialPrefix string        `yaml:"credential_prefix"`
	Timeout          time.Duration `yaml:"timeout"` // per external call

	ChatModel       string  `yaml:"chat_model"`
	ChatTemperature float64 `yaml:"chat_temperature"`

	VisionModel     string `yaml:"vision_model"`
	VisionMaxTokens int    `yaml:"vision_max_tokens"`
	VisionQuestion  string `yaml:"vision_question"`

	ImageModel   string `yaml:"image_model"`
	ImageQuality string `yaml:"image_quality"`

	SpeechModel  string `yaml:"speech_model"`
	SpeechFormat string `yaml:"speech_format"`
	SpeechFile   string `yaml:"speech_file"` // name written to the audio store

	TranscriptionModel string `yaml:"transcription_model"`
	ModerationModel    string `yaml:"moderation_model"`
	ReasoningModel     string `yaml:"reasoning_model"`

	ToolModel     string `yaml:"tool_model"`
	ToolMode      string `yaml:"tool_mode"` // "conditional" or "eager"
	MaxToolRounds int    `yaml:"max_tool_rounds"`
}

// WeatherConfig selects the weather lookup backend
type WeatherConfig struct {
	Provider string        `yaml:"provider"` // "open-meteo"
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AudioStoreConfig selects where synthesized speech is written
type AudioStoreConfig struct {
	Type       string `yaml:"type"`        // "filesystem" (default), "memory" or "s3"
	BaseDir    string `yaml:"base_dir"`    // filesystem only
	S3Bucket   string `yaml:"s3_bucket"`   // s3 only
	S3Region   string `yaml:"s3_region"`   // s3 only
	S3Prefix   string `yaml:"s3_prefix"`   // s3 only
	S3Endpoint string `yaml:"s3_endpoint"` // custom endpoint for MinIO
}

// JournalConfig selects the dispatch journal backend
type JournalConfig struct {
	Type string `yaml:"type"` // "none" (default), "memory", "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 120 * time.Second,
		},
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// Validate rejects settings no component can serve.
func (c *Config) Validate() error {
	switch c.Gateway.ToolMode {
	case ToolModeConditional, ToolModeEager:
	default:
		return fmt.Errorf("invalid gateway.tool_mode %q (want %q or %q)", c.Gateway.ToolMode, ToolModeConditional, ToolModeEager)
	}
	switch c.AudioStore.Type {
	case "filesystem", "memory", "s3":
	default:
		return fmt.Errorf("invalid audio_store.type %q", c.AudioStore.Type)
	}
	if c.AudioStore.Type == "s3" && c.AudioStore.S3Bucket == "" {
		return fmt.Errorf("audio_store.s3_bucket is required for the s3 audio store")
	}
	switch c.Journal.Type {
	case "none", "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid journal.type %q", c.Journal.Type)
	}
	if c.Journal.Type == "postgres" && c.Journal.DSN == "" {
		return fmt.Errorf("journal.dsn is required for the postgres journal")
	}
	if c.Gateway.MaxToolRounds < 1 {
		return fmt.Errorf("gateway.max_tool_rounds must be positive, got %d", c.Gateway.MaxToolRounds)
	}
	return nil
}

// applyEnv lets environment variables override file settings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_ENDPOINT"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WEATHER_ENDPOINT"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("AUDIO_STORE_DIR"); v != "" {
		cfg.AudioStore.BaseDir = v
	}
	if v := os.Getenv("JOURNAL_DSN"); v != "" {
		cfg.Journal.DSN = v
	}
}

func applyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyGatewayDefaults(&cfg.Gateway)
	applyWeatherDefaults(&cfg.Weather)
	applyAudioStoreDefaults(&cfg.AudioStore)
	if cfg.Journal.Type == "" {
		cfg.Journal.Type = "none"
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

func applyGatewayDefaults(cfg *GatewayConfig) {
	if cfg.CredentialPrefix == "" {
		cfg.CredentialPrefix = "sk-"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-3.5-turbo-instruct"
	}
	if cfg.ChatTemperature == 0 {
		cfg.ChatTemperature = 0.7
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o-mini"
	}
	if cfg.VisionMaxTokens == 0 {
		cfg.VisionMaxTokens = 300
	}
	if cfg.VisionQuestion == "" {
		cfg.VisionQuestion = "What's in this image?"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}
	if cfg.ImageQuality == "" {
		cfg.ImageQuality = "standard"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-audio-preview"
	}
	if cfg.SpeechFormat == "" {
		cfg.SpeechFormat = "wav"
	}
	if cfg.SpeechFile == "" {
		cfg.SpeechFile = "speech." + cfg.SpeechFormat
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}
	if cfg.ModerationModel == "" {
		cfg.ModerationModel = "omni-moderation-latest"
	}
	if cfg.ReasoningModel == "" {
		cfg.ReasoningModel = "o1-mini"
	}
	if cfg.ToolModel == "" {
		cfg.ToolModel = "gpt-4o-mini"
	}
	if cfg.ToolMode == "" {
		cfg.ToolMode = ToolModeConditional
	}
	if cfg.MaxToolRounds == 0 {
		cfg.MaxToolRounds = 5
	}
}

func applyWeatherDefaults(cfg *WeatherConfig) {
	if cfg.Provider == "" {
		cfg.Provider = "open-meteo"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
}

func applyAudioStoreDefaults(cfg *AudioStoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Type == "filesystem" && cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Join(os.TempDir(), "featuregw")
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
}
