// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/transcript/lib/clock"
	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/config"
	"github.com/bureau-foundation/transcript/lib/llm"
	"github.com/bureau-foundation/transcript/lib/sealed"
	"github.com/bureau-foundation/transcript/lib/summarizer"
	"github.com/bureau-foundation/transcript/lib/transcriptstore"
	"github.com/bureau-foundation/transcript/lib/transcriptui"
	"github.com/bureau-foundation/transcript/lib/version"
)

// app carries the process environment shared by every command. Tests
// build one directly with buffers and a fake environment.
type app struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// getenv looks up API keys. Config files are still read by
	// lib/config, which consults the real environment for variable
	// expansion.
	getenv func(string) string

	// httpClient is the base client for the HTTP providers. Its
	// transport is wrapped with credential headers per backend.
	httpClient *http.Client

	clock clock.Clock

	// color enables ANSI styling on stdout.
	color bool

	// configPath is bound to every command's --config flag.
	configPath string
}

func newApp(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *app {
	color := false
	if file, ok := stdout.(*os.File); ok {
		color = term.IsTerminal(int(file.Fd())) && os.Getenv("NO_COLOR") == ""
	}
	return &app{
		ctx:        ctx,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		getenv:     os.Getenv,
		httpClient: http.DefaultClient,
		clock:      clock.Real(),
		color:      color,
	}
}

// terminalWidth is the width used for previews when stdout is a
// terminal and no --width was given.
func (a *app) terminalWidth() int {
	if file, ok := a.stdout.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return transcriptui.DefaultWidth
}

func (a *app) renderer(width int) *transcriptui.Renderer {
	if width <= 0 {
		width = a.terminalWidth()
	}
	return transcriptui.NewRenderer(a.stdout, transcriptui.DefaultTheme, width, a.color)
}

// addConfigFlag registers --config on a command's flag set.
func (a *app) addConfigFlag(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&a.configPath, "config", "c", "",
		"config file (default: $"+config.EnvVar+")")
}

// session is an opened configuration: the validated config, the
// process logger, and the transcript store.
type session struct {
	config *config.Config
	logger *slog.Logger
	store  *transcriptstore.Store
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing transcript store", "error", err)
	}
}

// loadConfig reads and validates the configuration named by --config,
// falling back to the config environment variable.
func (a *app) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// open loads the configuration and opens the transcript store.
func (a *app) open() (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, a.stderr)

	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	compression, err := codec.ParseCompressionTag(cfg.Backup.Compression)
	if err != nil {
		return nil, err
	}
	store, err := transcriptstore.Open(a.ctx, transcriptstore.Config{
		Path:        cfg.Paths.Database,
		Compression: compression,
		Recipients:  cfg.Backup.Recipients,
		Clock:       a.clock,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("transcript store opened",
		"database", cfg.Paths.Database,
		"compression", compression.String(),
		"recipients", len(cfg.Backup.Recipients),
		"version", version.Short(),
	)
	return &session{config: cfg, logger: logger, store: store}, nil
}

// identities loads the age identity file named by path, or by
// backup.identity_file when path is empty. It returns nil identities
// when neither is set, which is enough to read unsealed backups.
func (s *session) identities(path string) (*sealed.Identities, error) {
	if path == "" {
		path = s.config.Backup.IdentityFile
	}
	if path == "" {
		return nil, nil
	}
	return sealed.LoadIdentities(path)
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, output io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(output, options))
	}
	return slog.New(slog.NewTextHandler(output, options))
}

// newSummarizer builds the summarizer described by the summarizer
// section: the primary backend and, when configured, the fallback.
func (a *app) newSummarizer(cfg config.SummarizerConfig, logger *slog.Logger) (*summarizer.Summarizer, error) {
	primary, err := a.newBackend(cfg.BackendConfig)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	var fallback *summarizer.Backend
	if cfg.Fallback != nil {
		backend, err := a.newBackend(*cfg.Fallback)
		if err != nil {
			return nil, fmt.Errorf("summarizer fallback: %w", err)
		}
		fallback = &backend
	}
	return summarizer.New(summarizer.Config{
		Primary:         primary,
		Fallback:        fallback,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		Logger:          logger,
	})
}

func (a *app) newBackend(cfg config.BackendConfig) (summarizer.Backend, error) {
	keyEnv := cfg.KeyEnv()
	key := a.getenv(keyEnv)
	if key == "" {
		return summarizer.Backend{}, fmt.Errorf("%s provider needs an API key in $%s", cfg.Provider, keyEnv)
	}

	var provider llm.Provider
	switch cfg.Provider {
	case config.ProviderAnthropic:
		provider = llm.NewAnthropic(a.credentialClient(map[string]string{
			"x-api-key": key,
		}), cfg.BaseURL)
	case config.ProviderOpenAI:
		provider = llm.NewOpenAI(a.credentialClient(map[string]string{
			"Authorization": "Bearer " + key,
		}), cfg.BaseURL)
	case config.ProviderAnthropicSDK:
		provider = llm.NewAnthropicSDK(llm.AnthropicSDKConfig{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			HTTPClient: a.httpClient,
		})
	case config.ProviderGemini:
		gemini, err := llm.NewGemini(a.ctx, llm.GeminiConfig{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			HTTPClient: a.httpClient,
		})
		if err != nil {
			return summarizer.Backend{}, err
		}
		provider = gemini
	default:
		return summarizer.Backend{}, fmt.Errorf("unknown provider %q (want %s)",
			cfg.Provider, strings.Join(config.Providers, ", "))
	}
	return summarizer.Backend{Provider: provider, Model: cfg.Model}, nil
}

// credentialClient returns an HTTP client that adds headers to every
// request, on top of the app's base transport.
func (a *app) credentialClient(headers map[string]string) *http.Client {
	base := a.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	headers["User-Agent"] = version.UserAgent()
	return &http.Client{
		Transport: &headerTransport{base: base, headers: headers},
		Timeout:   a.httpClient.Timeout,
	}
}

// headerTransport is an http.RoundTripper that sets fixed headers on
// each outgoing request. The request is cloned first, since a
// RoundTripper must not modify its input.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	clone := request.Clone(request.Context())
	for name, value := range t.headers {
		clone.Header.Set(name, value)
	}
	return t.base.RoundTrip(clone)
}
