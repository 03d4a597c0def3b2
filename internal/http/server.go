package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/rolo/internal/auth"
	"github.com/example/rolo/internal/booking"
	"github.com/example/rolo/internal/dispatch"
	"github.com/example/rolo/internal/lifecycle"
	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/session"
	"github.com/example/rolo/internal/storage"
)

// ActivityReader serves the dashboard activity feed.
type ActivityReader interface {
	Recent(ctx context.Context, userID string, n int) ([]models.RideEvent, error)
}

type Deps struct {
	Auth         *auth.Service
	Sessions     *session.Manager
	Flows        *booking.Service
	Catalog      *booking.Catalog
	Data         storage.DataService
	Orchestrator *lifecycle.Orchestrator
	Runner       *lifecycle.Runner
	Hub          *dispatch.Hub
	// Activity is optional; without it the dashboard has no activity feed.
	Activity    ActivityReader
	Logger      *slog.Logger
	CORSOrigins []string
	// Ready is probed by /healthz when set.
	Ready func(ctx context.Context) error
}

type Server struct {
	auth     *auth.Service
	sessions *session.Manager
	flows    *booking.Service
	catalog  *booking.Catalog
	data     storage.DataService
	rides    *lifecycle.Orchestrator
	runner   *lifecycle.Runner
	hub      *dispatch.Hub
	activity ActivityReader
	ready    func(ctx context.Context) error
	logger   *slog.Logger

	origins []string
	mux     *mux.Router
	handler http.Handler
}

func NewServer(d Deps) *Server {
	s := &Server{
		auth:     d.Auth,
		sessions: d.Sessions,
		flows:    d.Flows,
		catalog:  d.Catalog,
		data:     d.Data,
		rides:    d.Orchestrator,
		runner:   d.Runner,
		hub:      d.Hub,
		activity: d.Activity,
		ready:    d.Ready,
		logger:   d.Logger,
		mux:      mux.NewRouter(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.registerMiddleware()
	s.routes()

	s.origins = d.CORSOrigins
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	s.handler = c.Handler(s.mux)
	return s
}

func (s *Server) routes() {
	authed := alice.New(s.authMiddleware)

	s.mux.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/routes", s.handleRoutes).Methods(http.MethodGet)
	s.mux.Handle("/ws", authed.ThenFunc(s.handleWS)).Methods(http.MethodGet)

	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	api.Handle("/auth/signout", authed.ThenFunc(s.handleSignOut)).Methods(http.MethodPost)

	api.Handle("/dashboard", authed.ThenFunc(s.handleDashboard)).Methods(http.MethodGet)
	api.Handle("/profile", authed.ThenFunc(s.handleGetProfile)).Methods(http.MethodGet)
	api.Handle("/profile", authed.ThenFunc(s.handleUpdateProfile)).Methods(http.MethodPatch)
	api.Handle("/rides", authed.ThenFunc(s.handleRideHistory)).Methods(http.MethodGet)
	api.Handle("/vehicles", authed.ThenFunc(s.handleVehicles)).Methods(http.MethodGet)

	api.Handle("/booking", authed.ThenFunc(s.handleBookingState)).Methods(http.MethodGet)
	api.Handle("/booking/steps/{step}", authed.ThenFunc(s.handleStep)).Methods(http.MethodGet)
	api.Handle("/booking/location", authed.ThenFunc(s.handleSetLocation)).Methods(http.MethodPut)
	api.Handle("/booking/vehicle", authed.ThenFunc(s.handleSelectVehicle)).Methods(http.MethodPut)
	api.Handle("/booking/reset", authed.ThenFunc(s.handleReset)).Methods(http.MethodPost)
	api.Handle("/booking/confirm", authed.ThenFunc(s.handleConfirm)).Methods(http.MethodPost)
	api.Handle("/booking/search", authed.ThenFunc(s.handleSearch)).Methods(http.MethodPost)
	api.Handle("/booking/trip", authed.ThenFunc(s.handleTrip)).Methods(http.MethodPost)
	api.Handle("/booking/rating", authed.ThenFunc(s.handleRate)).Methods(http.MethodPost)
	api.Handle("/booking/payment/capture", authed.ThenFunc(s.handleCapture)).Methods(http.MethodPost)

	s.mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Path: r.URL.Path})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
