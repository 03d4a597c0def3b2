package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/rolo/internal/booking"
	"github.com/example/rolo/internal/guard"
	"github.com/example/rolo/internal/lifecycle"
	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/pricing"
)

type bookingView struct {
	Flow           models.BookingFlow `json:"flow"`
	CurrentBooking *models.Ride       `json:"current_booking"`
	Step           guard.Step         `json:"step"`
	Breakdown      *pricing.Breakdown `json:"breakdown,omitempty"`
	PaymentHeld    bool               `json:"payment_held"`
}

func viewOf(st booking.State) bookingView {
	v := bookingView{
		Flow:           st.Flow,
		CurrentBooking: st.CurrentBooking,
		Step:           guard.Canonical(st.Flow),
		PaymentHeld:    st.PaymentRef != "",
	}
	if st.Flow.EstimatedPrice != nil {
		b := pricing.BreakdownOf(*st.Flow.EstimatedPrice)
		v.Breakdown = &b
	}
	return v
}

func (s *Server) handleBookingState(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	st, err := s.flows.Get(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	step, ok := guard.ParseStep(mux.Vars(r)["step"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown booking step", Path: r.URL.Path})
		return
	}
	sess, _ := sessionFromContext(r.Context())
	st, err := s.flows.Get(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d := guard.Check(st.Flow, step)
	if !d.Allowed {
		s.writeBlocked(w, r, d)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// requireStep loads the rider's state and writes the recovery card if step is
// not reachable yet.
func (s *Server) requireStep(w http.ResponseWriter, r *http.Request, userID string, step guard.Step) (booking.State, bool) {
	st, err := s.flows.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return booking.State{}, false
	}
	if d := guard.Check(st.Flow, step); !d.Allowed {
		s.writeBlocked(w, r, d)
		return booking.State{}, false
	}
	return st, true
}

type locationRequest struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pickup, dropoff := strings.TrimSpace(req.Pickup), strings.TrimSpace(req.Dropoff)
	if pickup == "" || dropoff == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "pickup and dropoff are required"})
		return
	}
	st, err := s.flows.UpdateBookingFlow(r.Context(), sess.UserID, booking.FlowPatch{Pickup: &pickup, Dropoff: &dropoff})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

type vehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

func (s *Server) handleSelectVehicle(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, ok := s.requireStep(w, r, sess.UserID, guard.StepVehicle); !ok {
		return
	}
	sel, err := s.catalog.Select(r.Context(), req.VehicleID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	price := sel.Price
	st, err := s.flows.UpdateBookingFlow(r.Context(), sess.UserID, booking.FlowPatch{SelectedVehicle: &sel, EstimatedPrice: &price})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	st, err := s.flows.ResetBookingFlow(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

type confirmRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var req confirmRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if _, ok := s.requireStep(w, r, sess.UserID, guard.StepConfirmation); !ok {
		return
	}
	ride, err := s.rides.Confirm(r.Context(), sess, lifecycle.ConfirmRequest{PaymentMethod: req.PaymentMethod})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

// The flow never derives a step past confirmation; the runner checks the ride status.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	if _, ok := s.requireStep(w, r, sess.UserID, guard.StepConfirmation); !ok {
		return
	}
	ride, err := s.runner.StartSearch(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ride)
}

func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	if _, ok := s.requireStep(w, r, sess.UserID, guard.StepConfirmation); !ok {
		return
	}
	ride, err := s.runner.StartTrip(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ride)
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ride, err := s.rides.Rate(r.Context(), sess.UserID, req.Rating)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	ride, err := s.rides.CapturePayment(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}
