package param

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/httpclient"
	"github.com/parascan/parascan/pkg/iohelper"
)

// Config configures the discoverer.
type Config struct {
	attackconfig.Base

	// IncludeForms also mines GET-form inputs from the target page body.
	IncludeForms bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Base:         attackconfig.DefaultBase(),
		IncludeForms: true,
	}
}

// Discoverer supplies the ordered parameter sequence for a target.
type Discoverer struct {
	cfg    *Config
	client *http.Client
}

// NewDiscoverer creates a parameter discoverer.
func NewDiscoverer(cfg *Config) *Discoverer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Validate()

	client := cfg.Client
	if client == nil {
		client = httpclient.Default()
	}

	return &Discoverer{cfg: cfg, client: client}
}

// Discover returns the parameters observable on the target: query-string
// parameters first in name order, then GET-form inputs in document order.
// The ordering is deterministic so repeated runs visit parameters the
// same way.
func (d *Discoverer) Discover(ctx context.Context, target string) ([]Observation, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}

	var obs []Observation
	seen := make(map[string]bool)

	// Query parameters on the target URL itself.
	query := parsed.Query()
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := ""
		if vs := query[name]; len(vs) > 0 {
			value = vs[0]
		}
		obs = append(obs, NewObservation(name, value, "query"))
		seen[name] = true
	}

	if !d.cfg.IncludeForms {
		return obs, nil
	}

	formParams, err := d.formInputs(ctx, target)
	if err != nil {
		// Form mining is best-effort; the query parameters alone are
		// still a valid discovery result.
		return obs, nil
	}
	for _, o := range formParams {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		obs = append(obs, o)
	}

	return obs, nil
}

// formInputs fetches the target page and extracts named inputs of GET forms.
func (d *Discoverer) formInputs(ctx context.Context, target string) ([]Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	// Form mining is best-effort; a truncated body still yields
	// whatever inputs were parseable.
	body := iohelper.ReadBodyOrLog(resp.Body, slog.Default())

	return ExtractFormInputs(string(body)), nil
}

// ExtractFormInputs tokenizes HTML and returns observations for named
// input, textarea, and select elements inside GET forms, in document
// order. POST forms are skipped; probing them means body fuzzing, which
// is out of scope for the GET parameter surface.
func ExtractFormInputs(htmlStr string) []Observation {
	var obs []Observation
	seen := make(map[string]bool)

	z := html.NewTokenizer(strings.NewReader(htmlStr))
	inGetForm := false
	formDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return obs
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			tag := t.DataAtom.String()

			if tag == "form" && tt == html.StartTagToken {
				formDepth++
				method := strings.ToUpper(getAttr(t, "method"))
				// Unspecified method defaults to GET per the HTML spec.
				inGetForm = method == "" || method == "GET"
				continue
			}

			if !inGetForm {
				continue
			}
			switch tag {
			case "input", "textarea", "select":
				name := getAttr(t, "name")
				if name == "" || seen[name] {
					continue
				}
				inputType := strings.ToLower(getAttr(t, "type"))
				if inputType == "submit" || inputType == "button" || inputType == "image" {
					continue
				}
				seen[name] = true
				obs = append(obs, NewObservation(name, getAttr(t, "value"), "form"))
			}
		case html.EndTagToken:
			t := z.Token()
			if t.DataAtom.String() == "form" && formDepth > 0 {
				formDepth--
				if formDepth == 0 {
					inGetForm = false
				}
			}
		}
	}
}

// getAttr returns the value of the named attribute, or "".
func getAttr(t html.Token, name string) string {
	for _, a := range t.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
