// Package httputil centralizes JSON encoding and error mapping for HTTP
// handlers so every module answers with the same response shapes.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "legatum/pkg/domain-errors"
)

// maxBodyBytes caps request bodies; allocation payloads are tiny.
const maxBodyBytes = 1 << 20

// WriteJSON serializes v with the given status. Encoding failures are ignored
// at this point because the status line is already committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Decode reads a JSON request body into dst, rejecting unknown fields so
// typos surface as errors instead of silently dropped input.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "malformed request body")
	}
	return nil
}

// WriteError maps a coded error onto an HTTP status and JSON payload.
// Structured details (remaining_percentage, beneficiary_id) are flattened
// into the payload so clients can render actionable messages. Descriptions
// of internal errors are suppressed.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
	}

	status := statusFor(code)
	body := map[string]any{"error": errorName(code)}
	if status < http.StatusInternalServerError && de != nil {
		body["error_description"] = de.Message
		for k, v := range de.Details {
			body[k] = v
		}
	}
	WriteJSON(w, status, body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeCapacity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorName(code dErrors.Code) string {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return string(code)
	case dErrors.CodeNotFound, dErrors.CodeConflict, dErrors.CodeCapacity:
		return string(code)
	default:
		return "internal_error"
	}
}
