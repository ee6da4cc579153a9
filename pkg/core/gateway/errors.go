// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"fmt"

	"github.com/leseb/featuregw/pkg/core/schema"
)

// ErrorKind classifies a failed dispatch. The taxonomy is deliberately flat:
// provider errors are never split by status code or retryability.
type ErrorKind string

const (
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindTransport         ErrorKind = "transport_error"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrTransport         = &Error{Kind: KindTransport}
)

// ErrJournalDisabled is returned when dispatches are listed without a journal.
var ErrJournalDisabled = errors.New("dispatch journal is disabled")

// Error is a classified dispatch failure
type Error struct {
	Kind    ErrorKind
	Feature schema.Kind
	Message string // shown to the user when set
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the gateway error kind of err, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

func invalidCredential(feature schema.Kind) error {
	return &Error{Kind: KindInvalidCredential, Feature: feature, Message: "credential does not look like an API key"}
}

func invalidRequest(feature schema.Kind, err error) error {
	return &Error{Kind: KindInvalidRequest, Feature: feature, Message: err.Error(), Err: err}
}

func malformed(feature schema.Kind, format string, args ...interface{}) error {
	return &Error{Kind: KindMalformedResponse, Feature: feature, Message: fmt.Sprintf(format, args...)}
}

func transport(feature schema.Kind, err error) error {
	return &Error{Kind: KindTransport, Feature: feature, Err: err}
}
