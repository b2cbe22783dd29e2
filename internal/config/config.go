package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for pdfchat
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend"`
	Server     ServerConfig     `mapstructure:"server"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Log        LogConfig        `mapstructure:"log"`
	Speech     SpeechConfig     `mapstructure:"speech"`
}

// BackendConfig points at the remote document Q&A service
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AdminConfig holds API key authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ArchiveConfig controls transcript archiving
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ChatConfig holds chat defaults
type ChatConfig struct {
	EnableSummarization bool `mapstructure:"enable_summarization"`
}

// NormalizerConfig holds the answer cleanup rules
type NormalizerConfig struct {
	ClassificationMarker string   `mapstructure:"classification_marker"`
	ResponseMarker       string   `mapstructure:"response_marker"`
	Preambles            []string `mapstructure:"preambles"`
	EndSentinels         []string `mapstructure:"end_sentinels"`
}

// WorkspaceConfig controls how long idle browser workspaces are kept
type WorkspaceConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	Production bool   `mapstructure:"production"`
}

// SpeechConfig names an external text-to-speech command
type SpeechConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// DefaultPreambles are the relevance boilerplate lines the backend model
// tends to open an answer with.
var DefaultPreambles = []string{
	"The user input is a relevant question related to the document.",
	"The user input is a relevant question related to the document:",
	"The user input is a relevant question related to the document",
	"This is a relevant question related to the document.",
	"This is a relevant question related to the document:",
	"Relevant question related to the document.",
	"Relevant question related to the document:",
}

// DefaultEndSentinels are end-of-sequence tokens that leak into raw answers
var DefaultEndSentinels = []string{
	"</s>",
	"<｜end▁of▁sentence｜>",
}

// Load loads configuration from .env, file and environment
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("PDFCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.max_upload_bytes", 10*1024*1024)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/pdfchat.db")
	v.SetDefault("archive.enabled", false)

	v.SetDefault("chat.enable_summarization", false)

	v.SetDefault("normalizer.classification_marker", "Classification:")
	v.SetDefault("normalizer.response_marker", "Response:")
	v.SetDefault("normalizer.preambles", DefaultPreambles)
	v.SetDefault("normalizer.end_sentinels", DefaultEndSentinels)

	v.SetDefault("workspace.ttl", time.Hour)
	v.SetDefault("workspace.cleanup_interval", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.production", false)

	v.SetDefault("speech.command", "")
	v.SetDefault("speech.args", []string{})
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
