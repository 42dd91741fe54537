// Package oauth defines the RFC 6749 error taxonomy returned by the token
// endpoint.
package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes (RFC 6749 §5.2)
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidClient        = "invalid_client"
	CodeInvalidGrant         = "invalid_grant"
	CodeInvalidScope         = "invalid_scope"
	CodeUnauthorizedClient   = "unauthorized_client"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeServerError          = "server_error"
)

// Error is a protocol error. Two Errors match with errors.Is when their
// codes are equal.
type Error struct {
	Code        string
	Description string
	Hint        string
	Status      int
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Description, e.Hint)
	}
	return e.Code + ": " + e.Description
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithHint returns a copy of e carrying hint
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// Payload returns the JSON body for the error. The hint is only included
// when includeHint is set and a hint exists.
func (e *Error) Payload(includeHint bool) map[string]string {
	body := map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
		"message":           e.Description,
	}
	if includeHint && e.Hint != "" {
		body["hint"] = e.Hint
	}
	return body
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or server_error for anything that
// is not a protocol error.
func CodeOf(err error) string {
	if oe, ok := As(err); ok {
		return oe.Code
	}
	return CodeServerError
}

func InvalidRequest(parameter string) *Error {
	return &Error{
		Code:        CodeInvalidRequest,
		Description: "The request is missing a required parameter, includes an invalid parameter value, includes a parameter more than once, or is otherwise malformed.",
		Hint:        fmt.Sprintf("Check the `%s` parameter", parameter),
		Status:      http.StatusBadRequest,
	}
}

func InvalidClient() *Error {
	return &Error{
		Code:        CodeInvalidClient,
		Description: "Client authentication failed",
		Status:      http.StatusUnauthorized,
	}
}

func InvalidCredentials() *Error {
	return &Error{
		Code:        CodeInvalidGrant,
		Description: "The user credentials were incorrect.",
		Status:      http.StatusBadRequest,
	}
}

func InvalidGrant(hint string) *Error {
	return &Error{
		Code:        CodeInvalidGrant,
		Description: "The provided authorization grant (e.g., authorization code, resource owner credentials) or refresh token is invalid, expired, revoked, does not match the redirection URI used in the authorization request, or was issued to another client.",
		Hint:        hint,
		Status:      http.StatusBadRequest,
	}
}

func InvalidRefreshToken(hint string) *Error {
	return &Error{
		Code:        CodeInvalidGrant,
		Description: "The refresh token is invalid.",
		Hint:        hint,
		Status:      http.StatusBadRequest,
	}
}

func InvalidScope(scope string) *Error {
	return &Error{
		Code:        CodeInvalidScope,
		Description: "The requested scope is invalid, unknown, or malformed",
		Hint:        fmt.Sprintf("Check the `%s` scope", scope),
		Status:      http.StatusBadRequest,
	}
}

func UnauthorizedClient() *Error {
	return &Error{
		Code:        CodeUnauthorizedClient,
		Description: "The authenticated client is not authorized to use this authorization grant type.",
		Status:      http.StatusBadRequest,
	}
}

func UnsupportedGrantType() *Error {
	return &Error{
		Code:        CodeUnsupportedGrantType,
		Description: "The authorization grant type is not supported by the authorization server.",
		Hint:        "Check that all required parameters have been provided",
		Status:      http.StatusBadRequest,
	}
}

func ServerError(hint string) *Error {
	return &Error{
		Code:        CodeServerError,
		Description: "The authorization server encountered an unexpected condition which prevented it from fulfilling the request.",
		Hint:        hint,
		Status:      http.StatusInternalServerError,
	}
}
