package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapped from it.
// Warnings are flagged so that clients can show them instead of failing.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)

	l := logger.FromContext(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		l.Error().Err(err).Int("status", status).Msg(message)
	case domain.IsWarning(err):
		l.Warn().Err(err).Msg(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Warning: domain.IsWarning(err),
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case domain.IsWarning(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCompanyNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrJournalNotFound),
		errors.Is(err, domain.ErrMoveNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyReversed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotRevaluationMove),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingDate),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrRateTooLarge),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidIDFormat),
		errors.Is(err, domain.ErrInvalidLabel),
		errors.Is(err, domain.ErrInvalidReversalPolicy),
		errors.Is(err, domain.ErrForeignAccount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeRequest decodes the JSON body into req and validates it.
// It writes a 400 response and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := dto.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}

	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
