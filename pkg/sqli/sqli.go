// Package sqli provides error-based SQL injection detection for URL
// parameters. Payloads append SQL metacharacters to the parameter's
// observed value; responses are matched against per-DBMS error patterns.
package sqli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/httpclient"
	"github.com/parascan/parascan/pkg/iohelper"
	"github.com/parascan/parascan/pkg/param"
	"github.com/parascan/parascan/pkg/regexcache"
)

// DBMS represents a database management system.
type DBMS string

const (
	DBMSMySQL      DBMS = "mysql"
	DBMSPostgreSQL DBMS = "postgresql"
	DBMSMSSQL      DBMS = "mssql"
	DBMSOracle     DBMS = "oracle"
	DBMSGeneric    DBMS = "generic"
)

// Payload represents one SQL injection payload.
type Payload struct {
	Value       string
	Description string
}

// Config holds configuration for the SQL injection prober.
type Config struct {
	attackconfig.Base
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	cfg := &Config{Base: attackconfig.DefaultBase()}
	return cfg
}

// Prober tests individual parameters for error-based SQL injection.
type Prober struct {
	cfg      *Config
	client   *http.Client
	payloads []Payload
}

// NewProber creates a SQL injection prober.
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

// defaultPayloads returns the error-based payload set, cheapest first.
func defaultPayloads() []Payload {
	return []Payload{
		{"'", "Single quote injection"},
		{"\"", "Double quote injection"},
		{"--", "Comment terminator"},
		{";", "Statement terminator"},
		{"' OR '1'='1", "Classic OR injection"},
		{"\" OR \"1\"=\"1", "Double quote OR injection"},
		{"' OR 1=1--", "OR with comment"},
		{"' OR 1=1#", "OR with hash comment"},
		{"1' AND '1'='1", "AND true injection"},
		{"1' AND '1'='2", "AND false injection"},
		{"') OR ('1'='1", "Parenthesis escape"},
		{"' UNION SELECT NULL--", "Union NULL probe"},
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

// errorPatterns maps DBMS to their SQL error signatures.
var errorPatterns = map[DBMS][]*regexp.Regexp{
	DBMSMySQL: {
		regexcache.MustGet(`(?i)SQL syntax.*MySQL`),
		regexcache.MustGet(`(?i)Warning.*mysql_`),
		regexcache.MustGet(`(?i)You have an error in your SQL syntax`),
		regexcache.MustGet(`(?i)mysqli_`),
		regexcache.MustGet(`(?i)mysql_fetch_`),
	},
	DBMSPostgreSQL: {
		regexcache.MustGet(`(?i)PostgreSQL.*ERROR`),
		regexcache.MustGet(`(?i)Warning.*\Wpg_`),
		regexcache.MustGet(`(?i)ERROR:\s*syntax error at or near`),
		regexcache.MustGet(`(?i)org\.postgresql\.util\.PSQLException`),
	},
	DBMSMSSQL: {
		regexcache.MustGet(`(?i)Unclosed quotation mark`),
		regexcache.MustGet(`(?i)ODBC SQL Server Driver`),
		regexcache.MustGet(`(?i)\[SQLServer\]`),
		regexcache.MustGet(`(?i)Msg \d+, Level \d+, State \d+`),
		regexcache.MustGet(`(?i)nvarchar to int`),
	},
	DBMSOracle: {
		regexcache.MustGet(`(?i)\bORA-[0-9]{4,}`),
		regexcache.MustGet(`(?i)Oracle error`),
		regexcache.MustGet(`(?i)quoted string not properly terminated`),
	},
	DBMSGeneric: {
		regexcache.MustGet(`(?i)SQL error`),
		regexcache.MustGet(`(?i)SQL syntax`),
		regexcache.MustGet(`(?i)syntax error`),
		regexcache.MustGet(`(?i)SQLSTATE\[\d+\]`),
		regexcache.MustGet(`(?i)java\.sql\.SQLException`),
		regexcache.MustGet(`(?i)Incorrect syntax near`),
	},
}

// containsSQLKeyword is a fast pre-filter: if the lowercased body has no
// SQL-related keyword at all, skip the regex pass entirely.
func containsSQLKeyword(lowerBody string) bool {
	keywords := []string{
		"sql", "syntax", "error", "warning", "mysql", "postgresql",
		"oracle", "odbc", "ora-", "unclosed", "quotation",
	}
	for _, kw := range keywords {
		if strings.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}

// dbmsOrder fixes the attribution order: vendor-specific signatures are
// checked before the generic ones, so "SQL syntax" alone never claims a
// match that a MySQL pattern would have attributed precisely.
var dbmsOrder = []DBMS{DBMSMySQL, DBMSPostgreSQL, DBMSMSSQL, DBMSOracle, DBMSGeneric}

// containsError checks the body for SQL error signatures, returning the
// matched DBMS and an evidence snippet around the match.
func containsError(body string) (bool, DBMS, string) {
	if !containsSQLKeyword(strings.ToLower(body)) {
		return false, DBMSGeneric, ""
	}

	for _, dbms := range dbmsOrder {
		patterns := errorPatterns[dbms]
		for _, pattern := range patterns {
			if loc := pattern.FindStringIndex(body); loc != nil {
				start := loc[0] - 50
				if start < 0 {
					start = 0
				}
				end := loc[1] + 50
				if end > len(body) {
					end = len(body)
				}
				return true, dbms, strings.TrimSpace(body[start:end])
			}
		}
	}
	return false, DBMSGeneric, ""
}

// Name implements the probe interface.
func (p *Prober) Name() string { return "sqli" }

// TestParameter probes one parameter for error-based SQL injection.
// Each payload is appended to the parameter's observed value; a response
// matching a SQL error pattern that the baseline did not match confirms
// the finding. Returns at most one finding per parameter — the first
// confirming payload wins, cheaper payloads being tried first.
func (p *Prober) TestParameter(ctx context.Context, target string, obs param.Observation) ([]finding.Finding, error) {
	if len(p.payloads) == 0 {
		return nil, finding.ErrNoPayloads
	}

	baseBody, err := p.fetch(ctx, target, obs.Name, obs.Value)
	if err != nil {
		return nil, fmt.Errorf("baseline request: %w", err)
	}
	baseHash := murmur3.Sum64(baseBody)
	baseErrored, _, _ := containsError(string(baseBody))

	maxPayloads := len(p.payloads)
	if p.cfg.MaxPayloads > 0 && p.cfg.MaxPayloads < maxPayloads {
		maxPayloads = p.cfg.MaxPayloads
	}

	for _, payload := range p.payloads[:maxPayloads] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := p.fetch(ctx, target, obs.Name, obs.Value+payload.Value)
		if err != nil {
			return nil, fmt.Errorf("payload request: %w", err)
		}

		// Identical response body means the payload changed nothing;
		// skip the pattern pass.
		if murmur3.Sum64(body) == baseHash {
			continue
		}

		hasError, dbms, evidence := containsError(string(body))
		if !hasError || baseErrored {
			// A baseline that already shows SQL errors says nothing
			// about the payload.
			continue
		}

		return []finding.Finding{{
			Target:    target,
			Parameter: obs.Name,
			ParamKind: string(obs.Kind),
			Type:      fmt.Sprintf("sql-injection (%s)", dbms),
			Payload:   payload.Value,
			Evidence:  evidence,
			URL:       p.testURL(target, obs.Name, obs.Value+payload.Value),
			Severity:  finding.High,
			Timestamp: time.Now().UTC(),
		}}, nil
	}

	return nil, nil
}

// fetch issues a GET with the parameter set to value and returns the body.
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

// testURL rebuilds the target URL with the parameter overridden.
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
