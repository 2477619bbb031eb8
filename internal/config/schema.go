// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for llmbridge.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Providers lists provider module IDs in registration order. Order is
	// a routing contract: the first provider whose capability predicate
	// matches a model identifier wins, so reserved-prefix providers must
	// come before catch-alls.
	Providers []string `yaml:"providers"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "provider.aggregator").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Retry configures the catalog-refresh retry policy.
	Retry RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig controls the bounded exponential backoff applied to the
// idempotent catalog-refresh call. No other operation is retried.
type RetryConfig struct {
	// MaxAttempts is the total attempt count, including the first.
	// Default: 3.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the delay before the second attempt, doubling for each
	// further attempt. Accepts a duration string. Default: "500ms".
	BaseDelay string `yaml:"base_delay"`
}
