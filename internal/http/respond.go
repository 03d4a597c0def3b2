package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/example/rolo/internal/auth"
	"github.com/example/rolo/internal/booking"
	"github.com/example/rolo/internal/guard"
	"github.com/example/rolo/internal/lifecycle"
	"github.com/example/rolo/internal/payments"
	"github.com/example/rolo/internal/reconcile"
	"github.com/example/rolo/internal/session"
	"github.com/example/rolo/internal/storage"
)

type errorBody struct {
	Error    string          `json:"error"`
	Path     string          `json:"path,omitempty"`
	Decision *guard.Decision `json:"decision,omitempty"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var noVehicle *reconcile.NoValidVehicleError
	var backend *lifecycle.BackendError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, lifecycle.ErrIncompleteBooking),
		errors.Is(err, lifecycle.ErrInvalidRating),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, booking.ErrUnknownVehicle),
		errors.Is(err, payments.ErrPaymentMethodRequired):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, lifecycle.ErrPaymentCancelled):
		return http.StatusPaymentRequired
	case errors.As(err, &backend):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrNoCurrentBooking),
		errors.Is(err, lifecycle.ErrInvalidState),
		errors.Is(err, lifecycle.ErrNoPayment),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &noVehicle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "route", routeTemplate(r), "request_id", requestIDFromContext(r.Context()), "error", err)
		msg = "internal error"
	} else if status == http.StatusBadGateway {
		s.logger.Warn("backend call failed", "route", routeTemplate(r), "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) writeBlocked(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	s.logger.Warn("booking step blocked, redirecting",
		"required", d.Required, "canonical", d.Canonical, "redirect", d.Canonical.Path(),
		"request_id", requestIDFromContext(r.Context()))
	writeJSON(w, http.StatusConflict, errorBody{Error: d.Message, Decision: &d})
}

const maxBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
