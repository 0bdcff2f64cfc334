package policy

import "errors"

// Sentinel errors for policy persistence failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrParse indicates the persisted policy file exists but could not
	// be decoded. The caller decides whether to fall back to an empty
	// table; Load never silently discards learned state.
	ErrParse = errors.New("policy: malformed policy file")

	// ErrIO indicates the policy file could not be written, e.g. a
	// permission or disk error at save time.
	ErrIO = errors.New("policy: cannot write policy file")
)
