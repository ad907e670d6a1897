// Package apperror classifies failures so they can be shown to a user as a single message.
package apperror

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStorage
	KindTransport
	KindProtocol
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error carries a human-readable Message next to the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err.Error() == e.Message {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: errors.New(message)}
}

// Wrap attaches a stack to err unless it already has one.
func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Err: errors.WithStack(err)}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Storage(err error, message string) *Error { return Wrap(KindStorage, err, message) }

func Transport(err error, message string) *Error { return Wrap(KindTransport, err, message) }

func Protocol(err error, message string) *Error { return Wrap(KindProtocol, err, message) }

func Service(message string) *Error { return New(KindService, message) }

func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the message meant for display, falling back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
