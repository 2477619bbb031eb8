package aggregator

import (
	"strings"
	"time"
)

const (
	defaultBaseURL          = "https://openrouter.ai/api/v1"
	defaultTimeout          = 30 * time.Second
	defaultStreamTimeout    = 5 * time.Minute
	defaultResponsesTimeout = 5 * time.Minute
	defaultReferer          = "https://github.com/Phonezzzz/llmbridge"
	defaultTitle            = "llmbridge"
)

// Config holds the YAML configuration for the aggregator provider module.
type Config struct {
	// APIKey is the aggregator API key. When empty, every call fails
	// locally with an Authentication error before touching the network.
	APIKey string `yaml:"api_key"`

	// BaseURL is the aggregator API base URL.
	// Default: "https://openrouter.ai/api/v1".
	BaseURL string `yaml:"base_url"`

	// Referer is sent as the HTTP-Referer product header on every call.
	Referer string `yaml:"referer"`

	// Title is sent as the X-Title product header on every call.
	Title string `yaml:"title"`

	// Timeout bounds blocking calls and the catalog listing. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// StreamTimeout bounds a whole token stream. Default: 5m.
	StreamTimeout time.Duration `yaml:"stream_timeout"`

	// ResponsesTimeout bounds a whole multimodal stream. Default: 5m.
	ResponsesTimeout time.Duration `yaml:"responses_timeout"`
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Referer == "" {
		c.Referer = defaultReferer
	}
	if c.Title == "" {
		c.Title = defaultTitle
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.StreamTimeout <= 0 {
		c.StreamTimeout = defaultStreamTimeout
	}
	if c.ResponsesTimeout <= 0 {
		c.ResponsesTimeout = defaultResponsesTimeout
	}
}
