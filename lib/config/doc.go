// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for bureau-transcript.
//
// Configuration is loaded from a single file specified by either the
// BUREAU_TRANSCRIPT_CONFIG environment variable (via [Load]) or a
// --config flag (via [LoadFile]). There is no automatic file search.
// Files are YAML; a .json or .jsonc extension additionally allows
// comments and trailing commas.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults to JSON logs.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${BUREAU_TRANSCRIPT_ROOT}, and ${VAR:-default} patterns are
// expanded. API keys are never stored in the file; each summarizer
// backend names the environment variable that holds its key.
//
// Key exports:
//
//   - [Config] -- paths, truncation defaults, summarizer, backup, logging
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every problem at once
package config
