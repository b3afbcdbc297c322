package request

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"

	"github.com/rocketship-ai/shortcuts/internal/auth"
)

// TransportError reports a network-level failure: no HTTP response was received
type TransportError struct {
	Op  string // dns, timeout, connect, tls or io
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is or wraps a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func isAuthError(err error) bool {
	var ae *auth.AuthChallengeError
	return errors.As(err, &ae)
}

func newTransportError(err error) *TransportError {
	return &TransportError{Op: classify(err), Err: err}
}

func classify(err error) string {
	var (
		dnsErr      *net.DNSError
		netErr      net.Error
		opErr       *net.OpError
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &verifyErr), errors.As(err, &unknownCA), errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert), errors.As(err, &recordErr):
		return "tls"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "connect"
	}
	return "io"
}
