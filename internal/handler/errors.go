package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fleetops/dispatch/internal/domain"
)

// ErrorResponse is the JSON body every error endpoint returns.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status. Encoding failures are
// swallowed: the status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse with the given code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondError translates a service-layer error into an HTTP response.
// notFoundMessage is what a 404 should say, because the handler is the layer
// that knows what was being looked up (e.g. "trip not found").
func respondError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFoundMessage)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrEligibility):
		writeError(w, http.StatusUnprocessableEntity, "eligibility_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrMissingResource):
		writeError(w, http.StatusUnprocessableEntity, "missing_resource", unwrapMessage(err))
	case errors.Is(err, domain.ErrComputation):
		writeError(w, http.StatusUnprocessableEntity, "computation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", unwrapMessage(err))
	case errors.Is(err, domain.ErrResourceUnavailable):
		writeError(w, http.StatusConflict, "resource_unavailable", unwrapMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// sentinelPrefixes are the sentinel texts that prefix the human-readable part
// of a wrapped domain error.
var sentinelPrefixes = []string{
	"validation error: ",
	"eligibility error: ",
	"missing resource: ",
	"computation error: ",
	"invalid transition: ",
	"resource unavailable: ",
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Schedule: validation error: origin is required"
// → "origin is required". The code field already classifies the error, so the
// sentinel text itself is dropped.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, prefix := range sentinelPrefixes {
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
