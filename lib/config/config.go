// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/sealed"
	"github.com/bureau-foundation/transcript/lib/truncate"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "BUREAU_TRANSCRIPT_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Summarizer provider names accepted in summarizer.provider.
const (
	ProviderAnthropic    = "anthropic"
	ProviderAnthropicSDK = "anthropic-sdk"
	ProviderOpenAI       = "openai"
	ProviderGemini       = "gemini"
)

// Providers lists every accepted provider name.
var Providers = []string{ProviderAnthropic, ProviderAnthropicSDK, ProviderOpenAI, ProviderGemini}

// Config is the configuration of bureau-transcript.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	Paths      PathsConfig      `yaml:"paths"`
	Truncation TruncationConfig `yaml:"truncation"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Backup     BackupConfig     `yaml:"backup"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths      *PathsConfig      `yaml:"paths,omitempty"`
	Truncation *TruncationConfig `yaml:"truncation,omitempty"`
	Summarizer *SummarizerConfig `yaml:"summarizer,omitempty"`
	Backup     *BackupConfig     `yaml:"backup,omitempty"`
	Logging    *LoggingConfig    `yaml:"logging,omitempty"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Root is the base directory for transcript data.
	Root string `yaml:"root"`

	// Database is the SQLite file holding transcripts, backups, and
	// the audit log. Default: ${BUREAU_TRANSCRIPT_ROOT}/transcripts.db
	Database string `yaml:"database"`
}

// TruncationConfig holds the defaults for truncation requests. Command
// line flags override them per call.
type TruncationConfig struct {
	// MaxTokensToKeep is the assistant-token budget of the kept slice.
	// Default: 64000
	MaxTokensToKeep int `yaml:"max_tokens_to_keep"`

	// SummaryLength is short, medium, or long. Default: long
	SummaryLength string `yaml:"summary_length"`

	// RequestSource is user or tool. Default: tool
	RequestSource string `yaml:"request_source"`
}

// BackendConfig selects one LLM endpoint.
type BackendConfig struct {
	// Provider is one of anthropic, anthropic-sdk, openai, gemini.
	Provider string `yaml:"provider"`

	// Model is passed through to the provider.
	Model string `yaml:"model"`

	// BaseURL overrides the provider's public endpoint, for gateways
	// and local proxies.
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Default depends on the provider (see [BackendConfig.KeyEnv]).
	APIKeyEnv string `yaml:"api_key_env"`
}

// SummarizerConfig configures the LLM that writes summaries.
type SummarizerConfig struct {
	BackendConfig `yaml:",inline"`

	// MaxOutputTokens caps the summary length. Default: 4096
	MaxOutputTokens int `yaml:"max_output_tokens"`

	// Temperature is passed through when set.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// Timeout bounds one truncation run, including the fallback
	// summarization attempt.
	// Default: 2m
	Timeout string `yaml:"timeout"`

	// Fallback is tried once when the primary backend fails.
	Fallback *BackendConfig `yaml:"fallback,omitempty"`
}

// BackupConfig configures pre-truncation backups.
type BackupConfig struct {
	// Compression is none, lz4, or zstd. Default: zstd
	Compression string `yaml:"compression"`

	// Recipients are age public keys. When set, backups are encrypted
	// to every recipient.
	Recipients []string `yaml:"recipients"`

	// IdentityFile is the age identity file used to read sealed
	// backups back. Only needed for verification and export.
	IdentityFile string `yaml:"identity_file"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

// KeyEnv returns the environment variable holding the backend's API
// key.
func (b BackendConfig) KeyEnv() string {
	if b.APIKeyEnv != "" {
		return b.APIKeyEnv
	}
	switch b.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// TimeoutDuration returns the parsed summarizer timeout.
func (s SummarizerConfig) TimeoutDuration() time.Duration {
	duration, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return duration
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "bureau", "transcript")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			Database: "${BUREAU_TRANSCRIPT_ROOT}/transcripts.db",
		},
		Truncation: TruncationConfig{
			MaxTokensToKeep: truncate.DefaultTokensToKeep,
			SummaryLength:   string(truncate.SummaryLong),
			RequestSource:   string(truncate.SourceTool),
		},
		Summarizer: SummarizerConfig{
			BackendConfig: BackendConfig{
				Provider: ProviderAnthropic,
				Model:    "claude-sonnet-4-5",
			},
			MaxOutputTokens: 4096,
			Timeout:         "2m",
		},
		Backup: BackupConfig{
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the BUREAU_TRANSCRIPT_CONFIG
// environment variable. There is no fallback: if the variable is not
// set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Files ending
// in .json or .jsonc may contain comments and trailing commas.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// YAML is a superset of JSON once comments and trailing
		// commas are gone.
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production logs are machine-read.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		override(&c.Paths.Root, overrides.Paths.Root)
		override(&c.Paths.Database, overrides.Paths.Database)
	}

	if overrides.Truncation != nil {
		if overrides.Truncation.MaxTokensToKeep != 0 {
			c.Truncation.MaxTokensToKeep = overrides.Truncation.MaxTokensToKeep
		}
		override(&c.Truncation.SummaryLength, overrides.Truncation.SummaryLength)
		override(&c.Truncation.RequestSource, overrides.Truncation.RequestSource)
	}

	if overrides.Summarizer != nil {
		summarizer := overrides.Summarizer
		override(&c.Summarizer.Provider, summarizer.Provider)
		override(&c.Summarizer.Model, summarizer.Model)
		override(&c.Summarizer.BaseURL, summarizer.BaseURL)
		override(&c.Summarizer.APIKeyEnv, summarizer.APIKeyEnv)
		override(&c.Summarizer.Timeout, summarizer.Timeout)
		if summarizer.MaxOutputTokens != 0 {
			c.Summarizer.MaxOutputTokens = summarizer.MaxOutputTokens
		}
		if summarizer.Temperature != nil {
			c.Summarizer.Temperature = summarizer.Temperature
		}
		if summarizer.Fallback != nil {
			c.Summarizer.Fallback = summarizer.Fallback
		}
	}

	if overrides.Backup != nil {
		override(&c.Backup.Compression, overrides.Backup.Compression)
		override(&c.Backup.IdentityFile, overrides.Backup.IdentityFile)
		if overrides.Backup.Recipients != nil {
			c.Backup.Recipients = overrides.Backup.Recipients
		}
	}

	if overrides.Logging != nil {
		override(&c.Logging.Level, overrides.Logging.Level)
		override(&c.Logging.Format, overrides.Logging.Format)
	}
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"BUREAU_TRANSCRIPT_ROOT": c.Paths.Root,
		"HOME":                   os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["BUREAU_TRANSCRIPT_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Backup.IdentityFile = expandVars(c.Backup.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Names in vars
// take precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}
	if c.Paths.Database == "" {
		errs = append(errs, errors.New("paths.database is required"))
	}

	if c.Truncation.MaxTokensToKeep < truncate.MinTokensToKeep || c.Truncation.MaxTokensToKeep > truncate.MaxTokensToKeep {
		errs = append(errs, fmt.Errorf("truncation.max_tokens_to_keep must be between %d and %d, got %d",
			truncate.MinTokensToKeep, truncate.MaxTokensToKeep, c.Truncation.MaxTokensToKeep))
	}
	if !truncate.SummaryLength(c.Truncation.SummaryLength).IsValid() {
		errs = append(errs, fmt.Errorf("truncation.summary_length must be one of short, medium, long, got %q", c.Truncation.SummaryLength))
	}
	if !truncate.RequestSource(c.Truncation.RequestSource).IsValid() {
		errs = append(errs, fmt.Errorf("truncation.request_source must be one of user, tool, got %q", c.Truncation.RequestSource))
	}

	errs = append(errs, validateBackend("summarizer", c.Summarizer.BackendConfig)...)
	if c.Summarizer.Fallback != nil {
		errs = append(errs, validateBackend("summarizer.fallback", *c.Summarizer.Fallback)...)
	}
	if c.Summarizer.MaxOutputTokens <= 0 {
		errs = append(errs, errors.New("summarizer.max_output_tokens must be positive"))
	}
	if duration, err := time.ParseDuration(c.Summarizer.Timeout); err != nil || duration <= 0 {
		errs = append(errs, fmt.Errorf("summarizer.timeout must be a positive duration, got %q", c.Summarizer.Timeout))
	}

	if _, err := codec.ParseCompressionTag(c.Backup.Compression); err != nil {
		errs = append(errs, fmt.Errorf("backup.compression: %w", err))
	}
	for _, recipient := range c.Backup.Recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			errs = append(errs, fmt.Errorf("backup.recipients: %w", err))
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	if !slices.Contains([]string{"text", "json"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of text, json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateBackend(prefix string, backend BackendConfig) []error {
	var errs []error
	if !slices.Contains(Providers, backend.Provider) {
		errs = append(errs, fmt.Errorf("%s.provider must be one of %s, got %q",
			prefix, strings.Join(Providers, ", "), backend.Provider))
	}
	if backend.Model == "" {
		errs = append(errs, fmt.Errorf("%s.model is required", prefix))
	}
	return errs
}

// EnsurePaths creates the root directory and the database's parent
// directory if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, filepath.Dir(c.Paths.Database)} {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// TruncationRequest returns the configured defaults as an engine
// request.
func (c *Config) TruncationRequest() truncate.Request {
	return truncate.Request{
		MaxTokensToKeep: c.Truncation.MaxTokensToKeep,
		SummaryLength:   truncate.SummaryLength(c.Truncation.SummaryLength),
		RequestSource:   truncate.RequestSource(c.Truncation.RequestSource),
	}
}
