package microsoft

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"syscall"
)

// Error types for Microsoft API responses.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("microsoft: unauthorised")

	// ErrForbidden indicates the user lacks permission for the requested resource.
	ErrForbidden = errors.New("microsoft: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("microsoft: not found")

	// ErrRateLimited indicates the request was throttled.
	ErrRateLimited = errors.New("microsoft: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("microsoft: bad request")

	// ErrServerError indicates a server-side error.
	ErrServerError = errors.New("microsoft: server error")
)

// Programmer errors. These are returned as Go errors, never as ErrorResult data.
var (
	// ErrInvalidMethod indicates an HTTP method the gateway does not support.
	ErrInvalidMethod = errors.New("microsoft: invalid method")

	// ErrUnknownProfile indicates a profile name that is neither graph nor outlook.
	ErrUnknownProfile = errors.New("microsoft: unknown profile")

	// ErrInvalidState indicates a state value that does not decode to a JSON object.
	ErrInvalidState = errors.New("microsoft: invalid state")

	// ErrInvalidPayload indicates a request payload that could not be encoded.
	ErrInvalidPayload = errors.New("microsoft: invalid payload")
)

// Transport error codes carried in ErrorResult.Number. The values follow
// libcurl's numbering so stored codes stay comparable with older clients.
const (
	TransportCodeUnknown        = 1
	TransportCodeResolve        = 6
	TransportCodeConnect        = 7
	TransportCodeTimeout        = 28
	TransportCodeTLS            = 35
	TransportCodeCancelled      = 42
	TransportCodeReceiveFailure = 56
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsFailure reports whether a status code is treated as an HTTP error.
func IsFailure(statusCode int) bool {
	return statusCode >= http.StatusBadRequest
}

// IsUnauthorised checks if the status code indicates an authentication failure.
func IsUnauthorised(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// IsRateLimited checks if the status code indicates rate limiting.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsNotFound checks if the status code indicates a missing resource.
func IsNotFound(statusCode int) bool {
	return statusCode == http.StatusNotFound
}

// TransportCode classifies a transport failure.
func TransportCode(err error) int {
	var (
		dnsErr    *net.DNSError
		opErr     *net.OpError
		certErr   *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		netErr    net.Error
	)

	switch {
	case errors.Is(err, context.Canceled):
		return TransportCodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return TransportCodeTimeout
	case errors.As(err, &dnsErr):
		return TransportCodeResolve
	case errors.As(err, &certErr), errors.As(err, &recordErr),
		errors.As(err, &unknownCA), errors.As(err, &hostErr):
		return TransportCodeTLS
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return TransportCodeReceiveFailure
	case errors.Is(err, syscall.ECONNREFUSED):
		return TransportCodeConnect
	case errors.As(err, &netErr) && netErr.Timeout():
		return TransportCodeTimeout
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return TransportCodeConnect
	default:
		return TransportCodeUnknown
	}
}
