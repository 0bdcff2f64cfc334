// Package param models discovered URL parameters and implements parameter
// discovery for a target page: query-string parameters on the target URL
// itself, plus inputs of GET forms found in the page body.
package param

import (
	"strings"
	"unicode"
)

// Kind classifies a parameter's observed value.
type Kind string

const (
	KindNumeric    Kind = "numeric"
	KindAlphabetic Kind = "alphabetic"
	KindMixed      Kind = "mixed"
	KindEmpty      Kind = "empty"
)

// Observation is one discovered parameter: its name, the value it carried
// when discovered, and the inferred value kind. Immutable once created.
type Observation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`

	// Source records where the parameter was found: "query" or "form".
	Source string `json:"source,omitempty"`
}

// NewObservation builds an Observation with the value kind inferred.
func NewObservation(name, value, source string) Observation {
	return Observation{
		Name:   name,
		Value:  value,
		Kind:   InferKind(value),
		Source: source,
	}
}

// InferKind classifies a raw parameter value. Empty values get their own
// bucket so the encoder stays total.
func InferKind(value string) Kind {
	if value == "" {
		return KindEmpty
	}

	digits, letters, other := 0, 0, 0
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		default:
			other++
		}
	}

	switch {
	case other == 0 && letters == 0:
		return KindNumeric
	case other == 0 && digits == 0:
		return KindAlphabetic
	default:
		return KindMixed
	}
}

// NameBucket groups parameter names that plausibly share a vulnerability
// surface. Order matters: more specific checks first, mirroring how the
// buckets were tuned. Contains-match for "id" catches userid, productId,
// item_id and the like.
func NameBucket(name string) string {
	lower := strings.ToLower(name)

	if strings.Contains(lower, "id") {
		return "idlike"
	}
	switch lower {
	case "q", "query", "search", "keyword", "term":
		return "searchlike"
	case "name", "user", "usr", "login", "email", "username", "pass", "password":
		return "userinput"
	case "file", "path", "document", "folder", "dir", "filename":
		return "filelike"
	case "url", "uri", "link", "redirect", "next", "goto", "page", "return", "ref":
		return "urllike"
	}
	return "other"
}
