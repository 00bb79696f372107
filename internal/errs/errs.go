// Package errs normalizes raw failures from the record store into a small,
// closed taxonomy. Callers branch on Kind; end users only ever see the fixed
// safe message for a kind, never the underlying error.
package errs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of failure classifications.
type Kind string

const (
	RateLimited        Kind = "rate_limited"
	Unauthorized       Kind = "unauthorized"
	NotFound           Kind = "not_found"
	Timeout            Kind = "timeout"
	NetworkUnavailable Kind = "network_unavailable"
	MalformedResponse  Kind = "malformed_response"
	Unknown            Kind = "unknown"
)

// messages maps each kind to its fixed, user-safe template.
var messages = map[Kind]string{
	RateLimited:        "The data service is busy. Please try again in a moment.",
	Unauthorized:       "You are not authorized to access this data.",
	NotFound:           "The requested record was not found.",
	Timeout:            "The data service took too long to respond.",
	NetworkUnavailable: "The data service could not be reached.",
	MalformedResponse:  "The data service returned an unreadable response.",
	Unknown:            "An unexpected error occurred while fetching data.",
}

// StatusCoder is implemented by boundary errors carrying an HTTP status code.
type StatusCoder interface {
	HTTPStatusCode() int
}

// Error is a classified failure. It is immutable once constructed; the
// original error stays reachable through Unwrap for logging but is never
// rendered into Message.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	RequestID  string
	Op         string
	Timestamp  time.Time
	cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Classify maps a raw failure to a normalized Error. Already-classified
// errors pass through unchanged. op describes the operation for diagnostics,
// e.g. "select contacts".
func Classify(err error, op string) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	e := &Error{
		Kind:      Unknown,
		Op:        op,
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}

	var sc StatusCoder
	switch {
	case errors.As(err, &sc):
		e.StatusCode = sc.HTTPStatusCode()
		switch e.StatusCode {
		case 429:
			e.Kind = RateLimited
		case 401, 403:
			e.Kind = Unauthorized
		case 404:
			e.Kind = NotFound
		}
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		e.Kind = Timeout
	case isNetworkUnavailable(err):
		e.Kind = NetworkUnavailable
	case isMalformed(err):
		e.Kind = MalformedResponse
	}

	e.Message = messages[e.Kind]
	return e
}

// KindOf extracts the classification from an error chain, Unknown when the
// chain carries no normalized error.
func KindOf(err error) Kind {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return Unknown
}

// IsKind reports whether the error chain is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the failure is worth automatic retry. Only quota
// rejections qualify; everything else is permanent or better served stale.
func Retryable(err error) bool {
	return IsKind(err, RateLimited)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isNetworkUnavailable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
