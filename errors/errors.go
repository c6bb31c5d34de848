// Package errors defines the broker's OAuth error values and their wire
// representation.
package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by the authorization flow. Handlers translate them
// to status codes and response bodies via Descriptions and StatusCodes.
var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrInvalidGrant         = errors.New("invalid_grant")
	ErrAuthenticationFailed = errors.New("authentication_failed")
	ErrServerError          = errors.New("server_error")
)

// Descriptions maps an error to its error_description. Upstream failure
// detail never appears here; the specifics are logged server-side only.
var Descriptions = map[error]string{
	ErrInvalidRequest:       "The request is missing a required parameter or is otherwise malformed",
	ErrUnsupportedGrantType: "The authorization grant type is not supported",
	ErrInvalidGrant:         "The provided authorization grant is invalid, expired or already used",
	ErrAuthenticationFailed: "Authentication with WordPress.com failed",
	ErrServerError:          "The server encountered an unexpected condition",
}

// StatusCodes maps an error to its HTTP status code.
var StatusCodes = map[error]int{
	ErrInvalidRequest:       http.StatusBadRequest,
	ErrUnsupportedGrantType: http.StatusBadRequest,
	ErrInvalidGrant:         http.StatusBadRequest,
	ErrAuthenticationFailed: http.StatusInternalServerError,
	ErrServerError:          http.StatusInternalServerError,
}

// Data returns the response body, status code for err. Unknown errors are
// reported as server_error.
func Data(err error) (map[string]interface{}, int) {
	for _, known := range []error{
		ErrInvalidRequest,
		ErrUnsupportedGrantType,
		ErrInvalidGrant,
		ErrAuthenticationFailed,
		ErrServerError,
	} {
		if errors.Is(err, known) {
			return map[string]interface{}{
				"error":             known.Error(),
				"error_description": Descriptions[known],
			}, StatusCodes[known]
		}
	}
	return map[string]interface{}{
		"error":             ErrServerError.Error(),
		"error_description": Descriptions[ErrServerError],
	}, StatusCodes[ErrServerError]
}

// New and Is re-export the standard library helpers so callers need a single
// errors import.
func New(text string) error { return errors.New(text) }

func Is(err, target error) bool { return errors.Is(err, target) }
