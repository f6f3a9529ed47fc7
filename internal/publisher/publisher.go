// Package publisher defines the message publishing capability shared by the
// simulator and the HTTP proxy, and the error kinds backends report.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Message is one outbound pub/sub message
type Message struct {
	Topic   string
	Key     string
	Subject string
	Body    []byte
}

// Publisher publishes messages and returns a correlation id on success
type Publisher interface {
	Publish(ctx context.Context, msg Message) (string, error)
	Close() error
}

// Checker is implemented by publishers that can verify connectivity and
// credentials before any message is sent
type Checker interface {
	Check(ctx context.Context) error
}

// Kind classifies publish failures
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindAuth      Kind = "auth"
	KindThrottled Kind = "throttled"
	KindNetwork   Kind = "network"
	KindTimeout   Kind = "timeout"
	KindRejected  Kind = "rejected"
)

// Retryable reports whether a failure of this kind could succeed if repeated.
// The simulator never retries; it only reports the classification.
func (k Kind) Retryable() bool {
	switch k {
	case KindThrottled, KindNetwork, KindTimeout:
		return true
	}
	return false
}

// Error is a classified publish failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with op and kind. A nil err yields nil.
func NewError(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err. Errors not produced by a backend
// are classified from the context and network errors they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pubErr *Error
	if errors.As(err, &pubErr) {
		return pubErr.Kind
	}
	return ClassifyTransport(err)
}

// ClassifyTransport maps generic context and network errors to a kind
func ClassifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	return KindUnknown
}

// ConnectionError reports that a publisher could not be established or
// failed its pre-flight check
type ConnectionError struct {
	Backend string
	Hint    string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Preflight runs p's connectivity check when it implements Checker
func Preflight(ctx context.Context, backend, hint string, p Publisher) error {
	checker, ok := p.(Checker)
	if !ok {
		return nil
	}
	if err := checker.Check(ctx); err != nil {
		return &ConnectionError{Backend: backend, Hint: hint, Err: err}
	}
	return nil
}
