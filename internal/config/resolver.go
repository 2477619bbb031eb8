package config

import (
	"slices"
	"strings"
	"time"
)

// Resolve returns the module IDs to load, providers first in their declared
// order, then the remaining configured modules sorted by ID. Provider order
// is preserved because it is the router's first-match-wins contract; the
// rest is sorted for deterministic loading.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	seen := make(map[string]struct{}, len(cfg.Modules))

	for _, p := range cfg.Providers {
		id := p
		if !strings.Contains(id, ".") {
			id = "provider." + id
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	rest := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		if _, dup := seen[id]; dup {
			continue
		}
		rest = append(rest, id)
	}
	slices.Sort(rest)

	return append(ids, rest...)
}

// ProviderIDs returns the fully qualified provider module IDs in
// registration order.
func ProviderIDs(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if strings.Contains(p, ".") {
			ids = append(ids, p)
			continue
		}
		ids = append(ids, "provider."+p)
	}
	return ids
}

// Attempts returns the configured attempt count, defaulting to 3.
func (c RetryConfig) Attempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

// Delay parses BaseDelay, defaulting to 500ms.
func (c RetryConfig) Delay() time.Duration {
	if c.BaseDelay == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(c.BaseDelay)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
