package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/parascan/parascan/pkg/finding"
)

// Sentinel errors for HTTP client failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake or certificate verification failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")
)

// ClassifyError wraps a transport error in the matching sentinel so
// callers can distinguish failure modes with errors.Is: DNS failures
// match both ErrDNS and finding.ErrTargetUnreachable, refused or
// unroutable connections match finding.ErrTargetUnreachable, deadline
// overruns match finding.ErrTimeout, and TLS failures match ErrTLS.
// Errors outside these classes pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w: %s", finding.ErrTargetUnreachable, ErrDNS, dnsErr.Err)
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}
	var recErr tls.RecordHeaderError
	if errors.As(err, &recErr) {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", finding.ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return fmt.Errorf("%w: %v", finding.ErrTargetUnreachable, err)
	}

	return err
}
