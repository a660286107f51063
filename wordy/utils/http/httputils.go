// Package httputils holds the JSON request/response plumbing shared by the
// route handlers.
package httputils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"wordy/wordy/utils/apperrors"
	"wordy/wordy/utils/logging"

	"go.uber.org/zap"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 10 << 20

// ErrorPayload is the body of every failed response.
type ErrorPayload struct {
	Status  int               `json:"status"`
	Name    string            `json:"name"`
	Message string            `json:"message,omitempty"`
	Issues  map[string]string `json:"issues,omitempty"`
	Cause   string            `json:"cause,omitempty"`
}

// ParseJSON decodes the request body into dest.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return &apperrors.ValidationError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// RespondJSON marshals first so an encoding failure never leaves a
// half-written body behind.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		WriteError(w, fmt.Errorf("encode response: %w", err), false)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// WriteError classifies err and writes the structured payload. showCause adds
// the wrapped error text and must be false in production.
func WriteError(w http.ResponseWriter, err error, showCause bool) {
	p := ErrorPayload{
		Status: http.StatusInternalServerError,
		Name:   "InternalError",
	}

	var maxBytes *http.MaxBytesError
	if httpErr, ok := apperrors.Classify(err); ok {
		p.Status = httpErr.StatusCode()
		p.Name = httpErr.Name()
		p.Message = httpErr.Error()
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			p.Issues = ve.Issues
		}
	} else if errors.As(err, &maxBytes) {
		p.Status = http.StatusRequestEntityTooLarge
		p.Name = "PayloadTooLarge"
		p.Message = fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit)
	} else {
		logging.ErrorLogger.Error("internal error", zap.Error(err))
		p.Message = "internal server error"
	}
	if showCause {
		p.Cause = err.Error()
	}

	payload, mErr := json.Marshal(p)
	if mErr != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}
