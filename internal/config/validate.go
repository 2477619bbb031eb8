package config

import (
	"errors"
	"fmt"

	"github.com/Phonezzzz/llmbridge/internal/core"
)

// Validate checks the structural validity of a Config. It verifies the
// version field, requires at least one provider, and checks that all
// referenced module IDs exist in the registry.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Providers) == 0 {
		errs = append(errs, errors.New("config: at least one provider must be listed"))
	}

	for _, id := range ProviderIDs(cfg) {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown provider module %q", id))
		}
	}

	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("config: retry.max_attempts must not be negative"))
	}

	return errors.Join(errs...)
}
