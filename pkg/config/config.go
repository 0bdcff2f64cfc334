// Package config holds the CLI configuration: library defaults,
// optionally overlaid with a YAML file, overlaid with flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parascan/parascan/pkg/defaults"
	"github.com/parascan/parascan/pkg/duration"
)

// Duration wraps time.Duration so YAML configs can say "20s" or a
// plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("%w: duration: %v", ErrInvalidConfig, err)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all scanner options.
type Config struct {
	// Target is the URL to scan.
	Target string `yaml:"target"`

	// PolicyFile is where the learned policy is persisted.
	PolicyFile string `yaml:"policy_file"`

	// FindingsFile receives findings as JSON lines. Empty disables it.
	FindingsFile string `yaml:"findings_file"`

	// Concurrency is the number of parallel probe workers.
	Concurrency int `yaml:"concurrency"`

	// Timeout bounds each HTTP request.
	Timeout Duration `yaml:"timeout"`

	// Epsilon is the exploration rate in [0, 1].
	Epsilon float64 `yaml:"epsilon"`

	// Alpha is the learning rate in (0, 1].
	Alpha float64 `yaml:"alpha"`

	// Discount is the future-reward discount factor in (0, 1],
	// reserved for a sequential formulation of the policy update.
	Discount float64 `yaml:"discount"`

	// Seed seeds exploration; 0 means time-based.
	Seed int64 `yaml:"seed"`

	// RateLimit is the probe request rate per second.
	RateLimit float64 `yaml:"rate_limit"`

	// IncludeForms also probes GET-form inputs found on the page.
	IncludeForms bool `yaml:"include_forms"`

	// UserAgent overrides the default request User-Agent.
	UserAgent string `yaml:"user_agent"`

	// Proxy routes probe traffic through an HTTP proxy.
	Proxy string `yaml:"proxy"`

	// SkipVerify disables TLS certificate verification.
	SkipVerify bool `yaml:"skip_verify"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`

	// NoColor disables styled terminal output.
	NoColor bool `yaml:"no_color"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// OTel configures OpenTelemetry trace export.
	OTel OTelConfig `yaml:"otel"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// OTelConfig configures OpenTelemetry export.
type OTelConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the configuration with library defaults applied.
func Default() *Config {
	return &Config{
		PolicyFile:   defaults.PolicyFile,
		FindingsFile: defaults.FindingsFile,
		Concurrency:  defaults.ConcurrencyMedium,
		Timeout:      Duration(duration.HTTPScanning),
		Epsilon:      defaults.Epsilon,
		Alpha:        defaults.LearningRate,
		Discount:     defaults.Discount,
		RateLimit:    defaults.RequestsPerSecond,
		IncludeForms: true,
		UserAgent:    defaults.UAChrome,
	}
}

// Load reads a YAML config file over the defaults. A missing file is
// an error; callers decide whether a config file is optional.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks semantic constraints.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target", ErrMissingRequired)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [0, 1], got %v", ErrInvalidConfig, c.Epsilon)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidConfig, c.Alpha)
	}
	if c.Discount <= 0 || c.Discount > 1 {
		return fmt.Errorf("%w: discount must be in (0, 1], got %v", ErrInvalidConfig, c.Discount)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive, got %v", ErrInvalidConfig, c.RateLimit)
	}
	return nil
}
