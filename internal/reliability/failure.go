// Package reliability classifies backend failures so callers can pick a
// fallback by case analysis instead of string matching.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the failure class of a collaborator call.
type Kind string

const (
	// KindUnavailable means the backend was never configured (missing
	// credential, binary or library).
	KindUnavailable Kind = "unavailable"
	KindAuth        Kind = "auth"
	KindNetwork     Kind = "network"
	KindService     Kind = "service"
	// KindEmpty is a successful call that produced nothing usable.
	KindEmpty       Kind = "empty"
	KindRecognition Kind = "recognition"
)

// Failure is the typed error every backend adapter returns.
type Failure struct {
	Backend string
	Kind    Kind
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Backend, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Backend, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err as a Failure of the given kind.
func NewFailure(backend string, kind Kind, err error) *Failure {
	return &Failure{Backend: backend, Kind: kind, Err: err}
}

// Unavailable reports a backend that is disabled for this process.
func Unavailable(backend, reason string) *Failure {
	return &Failure{Backend: backend, Kind: KindUnavailable, Err: errors.New(reason)}
}

// Empty reports a call that succeeded without content.
func Empty(backend string) *Failure {
	return &Failure{Backend: backend, Kind: KindEmpty}
}

// KindOf extracts the failure kind from err. Untyped errors are classified by
// Classify.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Classify(err)
}

// Classify maps transport-level errors to a Kind. Anything unrecognised is a
// service failure.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}
	return KindService
}

// KindForHTTPStatus classifies a non-2xx HTTP status.
func KindForHTTPStatus(code int) Kind {
	switch code {
	case 401, 403:
		return KindAuth
	case 408, 502, 503, 504:
		return KindNetwork
	default:
		return KindService
	}
}

// Retryable reports whether a later attempt could succeed. Turns never retry;
// the flag only goes to the operator log.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindService:
		return true
	default:
		return false
	}
}
