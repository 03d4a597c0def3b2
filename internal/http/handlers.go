package httpapi

import (
	"net/http"
	"strings"

	"github.com/example/rolo/internal/guard"
	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/storage"
)

const dashboardRecentRides = 3

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Session models.Session `json:"session"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.auth.SignUp(r.Context(), c.Email, c.Password, c.FullName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.login(w, r, sess, http.StatusCreated)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.login(w, r, sess, http.StatusOK)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, sess models.Session, status int) {
	token, err := s.sessions.Login(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, Session: sess})
}

// handleSignOut revokes the token and drops the rider's booking state.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Logout(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.runner != nil {
		s.runner.Stop(sess.UserID)
	}
	if err := s.flows.Clear(r.Context(), sess.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardResponse struct {
	Session        models.Session     `json:"session"`
	CurrentBooking *models.Ride       `json:"current_booking"`
	Step           guard.Step         `json:"step"`
	RecentRides    []models.Ride      `json:"recent_rides"`
	Activity       []models.RideEvent `json:"activity,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	st, err := s.flows.Get(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := dashboardResponse{
		Session:        sess,
		CurrentBooking: st.CurrentBooking,
		Step:           guard.Canonical(st.Flow),
		RecentRides:    []models.Ride{},
	}
	if rides, err := s.rides.History(r.Context(), sess.UserID); err != nil {
		s.logger.Warn("dashboard ride history unavailable", "user_id", sess.UserID, "error", err)
	} else {
		if len(rides) > dashboardRecentRides {
			rides = rides[:dashboardRecentRides]
		}
		resp.RecentRides = rides
	}
	if s.activity != nil {
		if evs, err := s.activity.Recent(r.Context(), sess.UserID, 10); err != nil {
			s.logger.Warn("dashboard activity unavailable", "user_id", sess.UserID, "error", err)
		} else {
			resp.Activity = evs
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type profileResponse struct {
	models.Profile
	Email string `json:"email"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	p, err := s.data.GetProfile(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: p, Email: sess.Contact})
}

type profileUpdate struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var req profileUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "full_name cannot be empty"})
			return
		}
		req.FullName = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		req.Phone = &phone
	}
	p, err := s.data.UpdateProfile(r.Context(), sess.UserID, storage.ProfilePatch{FullName: req.FullName, Phone: req.Phone})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: p, Email: sess.Contact})
}

func (s *Server) handleRideHistory(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	rides, err := s.rides.History(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rides": rides})
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"distance_km": s.catalog.DistanceKm(),
		"vehicles":    s.catalog.Selections(r.Context()),
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"routes": guard.Routes, "steps": guard.Steps})
}
