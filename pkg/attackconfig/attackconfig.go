// Package attackconfig supplies configuration fields shared across the
// probe packages. Embed Base in a package-specific Config struct to
// inherit common knobs and validation.
package attackconfig

import (
	"net/http"
	"time"

	"github.com/parascan/parascan/pkg/defaults"
	"github.com/parascan/parascan/pkg/duration"
)

// Base contains configuration fields shared across all probe packages.
type Base struct {
	Timeout     time.Duration `json:"timeout,omitempty"`
	UserAgent   string        `json:"user_agent,omitempty"`
	Client      *http.Client  `json:"-"`
	MaxPayloads int           `json:"max_payloads,omitempty"`
	Concurrency int           `json:"concurrency,omitempty"`
}

// DefaultBase returns a Base with production defaults.
func DefaultBase() Base {
	return Base{
		Timeout:     duration.HTTPScanning,
		UserAgent:   defaults.UAChrome,
		Concurrency: defaults.ConcurrencyMedium,
	}
}

// Validate fills zero-value fields with defaults.
// Call this in constructors to ensure sane values.
func (b *Base) Validate() {
	if b.Timeout <= 0 {
		b.Timeout = duration.HTTPScanning
	}
	if b.UserAgent == "" {
		b.UserAgent = defaults.UAChrome
	}
	if b.Concurrency <= 0 {
		b.Concurrency = defaults.ConcurrencyMedium
	}
}
