package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
)

// writeError maps engine errors to HTTP responses. Configuration and unexpected errors are logged
// with detail and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "not found")
	case errors.Is(err, booking.ErrSlotUnavailable):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeSlotUnavailable, "slot is no longer available, pick another")
	case errors.Is(err, booking.ErrIdempotencyConflict):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeIdempotencyReused, "idempotency key was already used for a different reservation")
	case errors.Is(err, booking.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeInvalidTransition, err.Error())
	case errors.Is(err, booking.ErrConfiguration):
		logger.ErrorContext(r.Context(), "company configuration error",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "this company's schedule is misconfigured, please try again later")
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal server error")
	}
}
