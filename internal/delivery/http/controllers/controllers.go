package controllers

import (
	"log/slog"
	"net/http"
	"regexp"

	"eventreserve/internal/delivery/http/helpers"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// respondError maps a service error to its HTTP status and writes the
// envelope. Internal errors are logged and their details withheld from
// the response.
func respondError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, code := helpers.MapDomainError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, status, code, "internal error")
		return
	}
	helpers.WriteJSONError(w, status, code, err.Error())
}
