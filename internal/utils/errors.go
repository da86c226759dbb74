package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindUnavailable
	KindInternal
	KindUnauthorized
)

// RequestError carries a client-facing message and the status class it maps to.
type RequestError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is matches another RequestError with the same kind and message, so
// package level sentinels work with errors.Is.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

func Invalid(msg string) *RequestError   { return &RequestError{Kind: KindInvalid, Msg: msg} }
func NotFound(msg string) *RequestError  { return &RequestError{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) *RequestError { return &RequestError{Kind: KindForbidden, Msg: msg} }
func Conflict(msg string) *RequestError  { return &RequestError{Kind: KindConflict, Msg: msg} }

func Unauthorized(msg string) *RequestError {
	return &RequestError{Kind: KindUnauthorized, Msg: msg}
}

func Unavailable(msg string, err error) *RequestError {
	return &RequestError{Kind: KindUnavailable, Msg: msg, Err: err}
}

func Internal(msg string, err error) *RequestError {
	return &RequestError{Kind: KindInternal, Msg: msg, Err: err}
}

func StatusCode(err error) int {
	var re *RequestError
	if !errors.As(err, &re) {
		return http.StatusInternalServerError
	}
	switch re.Kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text sent to clients. Store failures keep their
// underlying message, everything else only the request message.
func PublicMessage(err error) string {
	var re *RequestError
	if !errors.As(err, &re) {
		return err.Error()
	}
	if re.Kind == KindInternal || re.Kind == KindUnavailable {
		return re.Error()
	}
	return re.Msg
}
