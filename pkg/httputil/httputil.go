// Package httputil contains JSON request/response helpers shared by all
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "absher/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all error payloads.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON encodes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error code to an HTTP status and writes the
// error payload. Uncoded errors become 500s with a generic message so
// internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: string(code), Detail: messageOf(err)})
	case dErrors.CodeUnauthorized:
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: string(code), Detail: messageOf(err)})
	case dErrors.CodeNotFound:
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: string(code), Detail: messageOf(err)})
	case dErrors.CodeConflict:
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: string(code), Detail: messageOf(err)})
	case dErrors.CodeUnavailable:
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: string(code), Detail: messageOf(err)})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(dErrors.CodeInternal), Detail: "internal server error"})
	}
}

func messageOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// DecodeJSON decodes the request body into v. Malformed bodies surface as
// bad request domain errors.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
