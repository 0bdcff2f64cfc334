// Package csrf checks pages for forms that submit state-changing
// requests without a recognizable anti-CSRF token field.
package csrf

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/httpclient"
	"github.com/parascan/parascan/pkg/iohelper"
	"github.com/parascan/parascan/pkg/param"
	"github.com/parascan/parascan/pkg/regexcache"
)

// tokenNamePatterns match common anti-CSRF token field names.
var tokenNamePatterns = []*regexp.Regexp{
	regexcache.MustGet(`(?i)csrf_token`),
	regexcache.MustGet(`(?i)csrftoken`),
	regexcache.MustGet(`(?i)authenticity_token`),
	regexcache.MustGet(`(?i)_token`),
	regexcache.MustGet(`(?i)xsrf_token`),
	regexcache.MustGet(`(?i)nonce`),
	regexcache.MustGet(`(?i)__RequestVerificationToken`),
}

// Form summarizes one HTML form for reporting.
type Form struct {
	Action   string
	Method   string
	Inputs   []string
	HasToken bool
}

// Config holds configuration for the CSRF checker.
type Config struct {
	attackconfig.Base
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{Base: attackconfig.DefaultBase()}
}

// Prober performs the page-level CSRF form check.
//
// Unlike the injection probes, the check is a property of the page, not
// of any one parameter; running it against different parameters of the
// same page yields the same result, which the policy learns quickly.
type Prober struct {
	cfg    *Config
	client *http.Client
}

// NewProber creates a CSRF prober.
func NewProber(cfg *Config) *Prober {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Validate()

	client := cfg.Client
	if client == nil {
		client = httpclient.Default()
	}

	return &Prober{cfg: cfg, client: client}
}

// Name implements the probe interface.
func (p *Prober) Name() string { return "csrf" }

// TestPage fetches the target and reports POST forms lacking an
// anti-CSRF token field.
func (p *Prober) TestPage(ctx context.Context, target string, obs param.Observation) ([]finding.Finding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request: %w", httpclient.ClassifyError(err))
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return nil, err
	}

	var findings []finding.Finding
	for _, form := range ExtractForms(string(body)) {
		if form.HasToken || !strings.EqualFold(form.Method, "POST") {
			continue
		}
		findings = append(findings, finding.Finding{
			Target:    target,
			Parameter: obs.Name,
			ParamKind: string(obs.Kind),
			Type:      "missing-csrf-token",
			Evidence: fmt.Sprintf("form action=%q method=%q inputs=%v has no anti-CSRF token field",
				form.Action, form.Method, form.Inputs),
			URL:       target,
			Severity:  finding.Medium,
			Timestamp: time.Now().UTC(),
		})
	}
	return findings, nil
}

// ExtractForms tokenizes HTML and returns every form with its inputs and
// whether any input name matches a known anti-CSRF token pattern.
func ExtractForms(htmlStr string) []Form {
	var forms []Form
	var current *Form

	z := html.NewTokenizer(strings.NewReader(htmlStr))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if current != nil {
				forms = append(forms, *current)
			}
			return forms
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			switch t.DataAtom.String() {
			case "form":
				if current != nil {
					forms = append(forms, *current)
				}
				method := strings.ToUpper(getAttr(t, "method"))
				if method == "" {
					method = "GET"
				}
				current = &Form{
					Action: getAttr(t, "action"),
					Method: method,
				}
			case "input", "textarea", "select":
				if current == nil {
					continue
				}
				name := getAttr(t, "name")
				if name == "" {
					continue
				}
				current.Inputs = append(current.Inputs, name)
				if isTokenName(name) {
					current.HasToken = true
				}
			}
		case html.EndTagToken:
			t := z.Token()
			if t.DataAtom.String() == "form" && current != nil {
				forms = append(forms, *current)
				current = nil
			}
		}
	}
}

// isTokenName reports whether an input name looks like an anti-CSRF token.
func isTokenName(name string) bool {
	for _, pattern := range tokenNamePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

func getAttr(t html.Token, name string) string {
	for _, a := range t.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
