/*
Package errs provides the client-side failure taxonomy and error code constants.

This file defines the ClientError struct, which implements the standard Go error
interface and carries a business code, a failure kind for classification, a
user-facing message, and an HTTP status used by the development gateway.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure into one of the client's documented categories.
type Kind string

const (
	// KindValidation marks failures resolved entirely locally, before any network call.
	KindValidation Kind = "validation"

	// KindAuth marks bad credentials or a rejected/expired bearer token.
	KindAuth Kind = "authentication"

	// KindAuthBusy marks a second authentication attempt while one is in flight.
	KindAuthBusy Kind = "auth_busy"

	// KindPartialRegistration marks an account created server-side whose
	// automatic follow-up login failed.
	KindPartialRegistration Kind = "partial_registration"

	// KindNetwork marks transport or connectivity failures on REST calls.
	KindNetwork Kind = "network"

	// KindChannel marks streaming connection failures, including sends on a
	// channel that is not open.
	KindChannel Kind = "channel"

	// KindUnknown marks unclassified failures.
	KindUnknown Kind = "unknown"
)

// ClientError is the error structure used throughout the client.
type ClientError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Kind is the failure category used for propagation decisions.
	Kind Kind

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code the development gateway responds with.
	Status int
}

// Error implements the standard Go error interface.
func (e ClientError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Kind, e.Code, e.Message)
}

// NewError constructs a *ClientError from a predefined error code.
// Optional details are applied printf-style when the message template has
// placeholders. An unknown code falls back to ErrUnknown.
func NewError(code int, details ...any) *ClientError {
	templateErr, ok := errorMap[code]
	if !ok {
		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	clientErr := templateErr

	if clientErr.Status == 0 {
		clientErr.Status = http.StatusOK
	}

	if len(details) > 0 && strings.Contains(clientErr.Message, "%") {
		clientErr.Message = fmt.Sprintf(clientErr.Message, details...)
	}

	return &clientErr
}

// KindOf returns the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return KindUnknown
}

// IsCode reports whether err is a ClientError with the given code.
func IsCode(err error, code int) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Code == code
}
