// Package resource provides the tri-state container used to hand asynchronous outcomes to observers.
package resource

import (
	"encoding/json"
	"fmt"

	"github.com/debemdeboas/stylus/internal/apperror"
)

type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resource holds exactly one of: nothing requested yet, a pending request,
// a value, or an error message. The zero value is Empty.
type Resource[T any] struct {
	status  Status
	data    T
	message string
}

func Empty[T any]() Resource[T] {
	return Resource[T]{status: StatusEmpty}
}

func Loading[T any]() Resource[T] {
	return Resource[T]{status: StatusLoading}
}

func Success[T any](data T) Resource[T] {
	return Resource[T]{status: StatusSuccess, data: data}
}

func Error[T any](message string) Resource[T] {
	return Resource[T]{status: StatusError, message: message}
}

// FromError builds an Error resource carrying the display message of err.
func FromError[T any](err error) Resource[T] {
	return Error[T](apperror.MessageOf(err))
}

func (r Resource[T]) Status() Status { return r.status }

func (r Resource[T]) IsEmpty() bool { return r.status == StatusEmpty }

func (r Resource[T]) IsLoading() bool { return r.status == StatusLoading }

func (r Resource[T]) IsSuccess() bool { return r.status == StatusSuccess }

func (r Resource[T]) IsError() bool { return r.status == StatusError }

// Data returns the value of a Success resource.
func (r Resource[T]) Data() (T, bool) {
	if r.status != StatusSuccess {
		var zero T
		return zero, false
	}
	return r.data, true
}

// Message returns the message of an Error resource.
func (r Resource[T]) Message() (string, bool) {
	if r.status != StatusError {
		return "", false
	}
	return r.message, true
}

// Cases lists one handler per status. Every field must be set.
type Cases[T, R any] struct {
	Empty   func() R
	Loading func() R
	Success func(T) R
	Error   func(message string) R
}

// Match dispatches on the status of r. It panics when the handler for the
// current status is missing, so partial matches are caught by the first test
// that reaches them.
func Match[T, R any](r Resource[T], c Cases[T, R]) R {
	switch r.status {
	case StatusEmpty:
		if c.Empty != nil {
			return c.Empty()
		}
	case StatusLoading:
		if c.Loading != nil {
			return c.Loading()
		}
	case StatusSuccess:
		if c.Success != nil {
			return c.Success(r.data)
		}
	case StatusError:
		if c.Error != nil {
			return c.Error(r.message)
		}
	}
	panic(fmt.Sprintf("resource: no handler for status %s", r.status))
}

type wire[T any] struct {
	Status  string `json:"status"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r Resource[T]) MarshalJSON() ([]byte, error) {
	w := wire[T]{Status: r.status.String()}
	switch r.status {
	case StatusSuccess:
		data := r.data
		w.Data = &data
	case StatusError:
		w.Message = r.message
	}
	return json.Marshal(w)
}

func (r *Resource[T]) UnmarshalJSON(b []byte) error {
	var w wire[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	switch w.Status {
	case "empty", "":
		*r = Empty[T]()
	case "loading":
		*r = Loading[T]()
	case "success":
		var data T
		if w.Data != nil {
			data = *w.Data
		}
		*r = Success(data)
	case "error":
		*r = Error[T](w.Message)
	default:
		return fmt.Errorf("unknown resource status %q", w.Status)
	}
	return nil
}
