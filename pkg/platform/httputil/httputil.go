// Package httputil holds the JSON envelope shared by every handler.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "refeera/pkg/domain-errors"
)

// ErrorResponse is the error envelope. Error carries the human-readable
// message; Code is the stable machine-readable classification.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its status and envelope.
// Internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)

	message := "internal server error"
	if de, ok := dErrors.As(err); ok && code != dErrors.CodeInternal {
		message = de.Message
	}
	WriteJSON(w, status, ErrorResponse{Error: message, Code: string(code)})
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest,
		dErrors.CodeInvalidInput,
		dErrors.CodeMissingFields,
		dErrors.CodeInvalidOffer,
		dErrors.CodeInvalidPartner,
		dErrors.CodeInvalidReferral,
		dErrors.CodeInvalidPagination,
		dErrors.CodeInvariantViolation,
		dErrors.CodeConflict:
		// Duplicate emails surface as 400 for compatibility with existing clients.
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
