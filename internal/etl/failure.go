package etl

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for retry and reporting.
type Kind string

const (
	KindNetwork     Kind = "network-error"
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate-limited"
	KindClient      Kind = "client-error"
	KindServer      Kind = "server-error"
	KindDecode      Kind = "decode-error"
	KindSink        Kind = "sink-error"
)

// Transient reports whether a retry may succeed.
func (k Kind) Transient() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// Failure is the error type produced by every stage of the pipeline.
type Failure struct {
	Kind       Kind
	Message    string
	Status     int
	Attempts   int
	RetryAfter time.Duration
	Err        error
}

func (f *Failure) Error() string {
	msg := f.Message
	if f.Err != nil {
		if msg == "" {
			msg = f.Err.Error()
		} else {
			msg = msg + ": " + f.Err.Error()
		}
	}
	if f.Attempts > 1 {
		return fmt.Sprintf("%s: %s (after %d attempts)", f.Kind, msg, f.Attempts)
	}
	return fmt.Sprintf("%s: %s", f.Kind, msg)
}

func (f *Failure) Unwrap() error { return f.Err }

func newFailure(kind Kind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsFailure extracts a *Failure from err, wrapping foreign errors as client errors.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindClient, Err: err}
}

// KindOf returns the failure kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsFailure(err).Kind
}
