// Package lifecycle drives a ride from confirmation through payment capture.
// Every step writes to the data service first and only then updates the
// rider's current booking, so a failed call leaves local state as it was.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/rolo/internal/booking"
	"github.com/example/rolo/internal/dispatch"
	"github.com/example/rolo/internal/events"
	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/observability"
	"github.com/example/rolo/internal/payments"
	"github.com/example/rolo/internal/pricing"
	"github.com/example/rolo/internal/reconcile"
	"github.com/example/rolo/internal/storage"
)

var (
	ErrIncompleteBooking = errors.New("booking is missing pickup, dropoff, vehicle or price")
	ErrPaymentCancelled  = errors.New("payment was cancelled")
	ErrNoCurrentBooking  = errors.New("no current booking")
	ErrInvalidState      = errors.New("ride is not in the required state")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrNoPayment         = errors.New("no held payment for this ride")
)

// BackendError wraps a failed data service or payment provider call.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *BackendError) Unwrap() error { return e.Err }

// Notifier pushes live updates to a rider.
type Notifier interface {
	Notify(userID string, ev dispatch.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, dispatch.Event) {}

type ConfirmRequest struct {
	PaymentMethod string
}

type Deps struct {
	Data       storage.DataService
	Flows      *booking.Service
	Reconciler *reconcile.Reconciler
	Checkout   payments.Checkout
	Search     dispatch.DriverSearch
	Trips      dispatch.TripTracker
	Events     events.Publisher
	Notifier   Notifier
	Logger     *slog.Logger
	Currency   string
}

type Orchestrator struct {
	data       storage.DataService
	flows      *booking.Service
	reconciler *reconcile.Reconciler
	checkout   payments.Checkout
	search     dispatch.DriverSearch
	trips      dispatch.TripTracker
	events     events.Publisher
	notifier   Notifier
	logger     *slog.Logger
	currency   string
	now        func() time.Time
}

func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		data:       d.Data,
		flows:      d.Flows,
		reconciler: d.Reconciler,
		checkout:   d.Checkout,
		search:     d.Search,
		trips:      d.Trips,
		events:     d.Events,
		notifier:   d.Notifier,
		logger:     d.Logger,
		currency:   d.Currency,
		now:        time.Now,
	}
	if o.events == nil {
		o.events = events.NopPublisher{}
	}
	if o.notifier == nil {
		o.notifier = nopNotifier{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.currency == "" {
		o.currency = "inr"
	}
	if o.reconciler == nil {
		o.reconciler = reconcile.New(d.Data, o.logger)
	}
	return o
}

// Confirm takes payment for the booking flow and creates the ride. The ride
// is only created once the hold succeeds. If creating the ride or storing it
// as the current booking fails, the hold is released.
func (o *Orchestrator) Confirm(ctx context.Context, sess models.Session, req ConfirmRequest) (models.Ride, error) {
	st, err := o.flows.Get(ctx, sess.UserID)
	if err != nil {
		return models.Ride{}, err
	}
	flow := st.Flow
	if strings.TrimSpace(flow.Pickup) == "" || strings.TrimSpace(flow.Dropoff) == "" ||
		flow.SelectedVehicle == nil || flow.EstimatedPrice == nil {
		return models.Ride{}, ErrIncompleteBooking
	}

	known, err := o.data.ListVehicles(ctx)
	if err != nil {
		return models.Ride{}, &BackendError{Op: "list vehicles", Err: err}
	}
	vehicle, err := o.reconciler.Reconcile(ctx, *flow.SelectedVehicle, known)
	if err != nil {
		observability.ReconciliationsTotal.WithLabelValues("failed").Inc()
		return models.Ride{}, err
	}
	observability.ReconciliationsTotal.WithLabelValues("ok").Inc()

	price := *flow.EstimatedPrice
	ref, err := o.checkout.Open(ctx, payments.CheckoutRequest{
		AmountMinorUnits: pricing.MinorUnits(price),
		Currency:         o.currency,
		Description:      fmt.Sprintf("Ride from %s to %s", flow.Pickup, flow.Dropoff),
		Prefill:          payments.Prefill{Name: sess.DisplayName, Email: sess.Contact},
		PaymentMethod:    req.PaymentMethod,
		UserID:           sess.UserID,
	})
	if errors.Is(err, payments.ErrDismissed) {
		observability.PaymentsTotal.WithLabelValues("dismissed").Inc()
		return models.Ride{}, ErrPaymentCancelled
	}
	if errors.Is(err, payments.ErrPaymentMethodRequired) {
		return models.Ride{}, err
	}
	if err != nil {
		observability.PaymentsTotal.WithLabelValues("failed").Inc()
		return models.Ride{}, &BackendError{Op: "open payment", Err: err}
	}
	observability.PaymentsTotal.WithLabelValues("held").Inc()

	row, err := o.data.CreateRide(ctx, storage.NewRideFrom(sess.UserID, flow, vehicle.ID))
	if err != nil {
		o.release(ctx, ref)
		return models.Ride{}, &BackendError{Op: "create ride", Err: err}
	}

	ride := storage.ToDomainRide(row)
	ride.Vehicle = *flow.SelectedVehicle
	ride.Vehicle.ID = vehicle.ID
	ride.Price = price
	ride.Status = models.StatusUpcoming
	ride.Driver = nil

	if _, err := o.flows.Update(ctx, sess.UserID, func(s *booking.State) error {
		s.CurrentBooking = &ride
		s.PaymentRef = ref
		return nil
	}); err != nil {
		o.logger.Error("store current booking failed", "ride_id", ride.ID, "payment_ref", ref, "error", err)
		o.release(ctx, ref)
		o.abandon(ctx, ride.ID)
		return models.Ride{}, err
	}
	o.logger.Info("ride confirmed", "ride_id", ride.ID, "user_id", sess.UserID, "vehicle_id", vehicle.ID, "price", price)
	o.emit(ctx, sess.UserID, ride, "")
	return ride, nil
}

// Search finds a driver for the upcoming ride and starts it.
func (o *Orchestrator) Search(ctx context.Context, userID string) (models.Ride, error) {
	cur, err := o.current(ctx, userID, models.StatusUpcoming)
	if err != nil {
		return models.Ride{}, err
	}
	start := o.now()
	driver, err := o.search.FindDriver(ctx, cur, func(p int) {
		o.notifier.Notify(userID, dispatch.Event{Type: dispatch.EventSearchProgress, RideID: cur.ID, Progress: p})
	})
	if err != nil {
		return models.Ride{}, err
	}
	observability.DriverSearchSeconds.Observe(time.Since(start).Seconds())

	status := storage.StatusToBackend(models.StatusInProgress)
	startedAt := o.now()
	patch := storage.RidePatch{Status: &status, StartedAt: &startedAt}
	if reconcile.IsValidID(driver.ID) {
		patch.DriverID = &driver.ID
	}
	return o.apply(ctx, userID, cur, patch, func(r *models.Ride) {
		d := driver
		r.Driver = &d
	})
}

// Trip waits out the ride and marks it completed.
func (o *Orchestrator) Trip(ctx context.Context, userID string) (models.Ride, error) {
	cur, err := o.current(ctx, userID, models.StatusInProgress)
	if err != nil {
		return models.Ride{}, err
	}
	if cur.Driver == nil {
		return models.Ride{}, fmt.Errorf("%w: in-progress ride has no driver", ErrInvalidState)
	}
	if err := o.trips.Track(ctx, cur); err != nil {
		return models.Ride{}, err
	}
	status := storage.StatusToBackend(models.StatusCompleted)
	completedAt := o.now()
	return o.apply(ctx, userID, cur, storage.RidePatch{Status: &status, CompletedAt: &completedAt}, nil)
}

// Rate records the rider's 1..5 rating of a completed ride.
func (o *Orchestrator) Rate(ctx context.Context, userID string, rating int) (models.Ride, error) {
	if rating < 1 || rating > 5 {
		return models.Ride{}, ErrInvalidRating
	}
	cur, err := o.current(ctx, userID, models.StatusCompleted)
	if err != nil {
		return models.Ride{}, err
	}
	return o.apply(ctx, userID, cur, storage.RidePatch{Rating: &rating}, func(r *models.Ride) {
		v := rating
		r.Rating = &v
	})
}

// CapturePayment captures the hold placed at confirmation and records the final price.
func (o *Orchestrator) CapturePayment(ctx context.Context, userID string) (models.Ride, error) {
	st, err := o.flows.Get(ctx, userID)
	if err != nil {
		return models.Ride{}, err
	}
	if st.CurrentBooking == nil {
		return models.Ride{}, ErrNoCurrentBooking
	}
	if st.PaymentRef == "" {
		return models.Ride{}, ErrNoPayment
	}
	cur := *st.CurrentBooking
	if cur.Status != models.StatusCompleted {
		return models.Ride{}, fmt.Errorf("%w: payment is captured after the ride completes", ErrInvalidState)
	}
	if err := o.checkout.Capture(ctx, st.PaymentRef); err != nil {
		observability.PaymentsTotal.WithLabelValues("capture_failed").Inc()
		return models.Ride{}, &BackendError{Op: "capture payment", Err: err}
	}
	observability.PaymentsTotal.WithLabelValues("captured").Inc()

	price := cur.Price
	row, updateErr := o.data.UpdateRide(ctx, cur.ID, storage.RidePatch{FinalPrice: &price})
	// The ref is cleared even when recording the price fails: the charge is already captured.
	st, err = o.flows.Update(ctx, userID, func(s *booking.State) error {
		if s.CurrentBooking == nil || s.CurrentBooking.ID != cur.ID {
			return fmt.Errorf("%w: current booking changed", ErrInvalidState)
		}
		s.PaymentRef = ""
		if updateErr == nil {
			merge(s.CurrentBooking, row)
		}
		return nil
	})
	if err != nil {
		return models.Ride{}, err
	}
	if updateErr != nil {
		o.logger.Error("record final price failed", "ride_id", cur.ID, "error", updateErr)
		return models.Ride{}, &BackendError{Op: "update ride", Err: updateErr}
	}
	o.logger.Info("payment captured", "ride_id", cur.ID, "user_id", userID, "amount", price)
	return *st.CurrentBooking, nil
}

// History lists the rider's rides, newest first.
func (o *Orchestrator) History(ctx context.Context, userID string) ([]models.Ride, error) {
	rows, err := o.data.ListRides(ctx, userID)
	if err != nil {
		return nil, &BackendError{Op: "list rides", Err: err}
	}
	out := make([]models.Ride, 0, len(rows))
	for _, r := range rows {
		out = append(out, storage.ToDomainRide(r))
	}
	return out, nil
}

// current returns the current booking if it is in the wanted status.
func (o *Orchestrator) current(ctx context.Context, userID string, want models.RideStatus) (models.Ride, error) {
	st, err := o.flows.Get(ctx, userID)
	if err != nil {
		return models.Ride{}, err
	}
	if st.CurrentBooking == nil {
		return models.Ride{}, ErrNoCurrentBooking
	}
	if st.CurrentBooking.Status != want {
		return models.Ride{}, fmt.Errorf("%w: ride is %s, want %s", ErrInvalidState, st.CurrentBooking.Status, want)
	}
	return *st.CurrentBooking, nil
}

// apply persists patch and, on success, merges the result into the current booking.
func (o *Orchestrator) apply(ctx context.Context, userID string, cur models.Ride, patch storage.RidePatch, mutate func(*models.Ride)) (models.Ride, error) {
	row, err := o.data.UpdateRide(ctx, cur.ID, patch)
	if err != nil {
		return models.Ride{}, &BackendError{Op: "update ride", Err: err}
	}
	var updated models.Ride
	if _, err := o.flows.Update(ctx, userID, func(s *booking.State) error {
		if s.CurrentBooking == nil || s.CurrentBooking.ID != cur.ID {
			return fmt.Errorf("%w: current booking changed", ErrInvalidState)
		}
		r := *s.CurrentBooking
		merge(&r, row)
		if mutate != nil {
			mutate(&r)
		}
		s.CurrentBooking = &r
		updated = r
		return nil
	}); err != nil {
		return models.Ride{}, err
	}
	if updated.Status != cur.Status {
		o.emit(ctx, userID, updated, cur.Status)
	} else {
		o.notifier.Notify(userID, dispatch.Event{Type: dispatch.EventRideUpdated, RideID: updated.ID, Ride: &updated})
	}
	return updated, nil
}

// merge copies the backend-owned fields of row onto r.
func merge(r *models.Ride, row storage.RideRow) {
	r.Status = storage.StatusFromBackend(row.Status)
	if row.Rating != nil {
		v := *row.Rating
		r.Rating = &v
	}
	if row.Driver != nil {
		d := storage.DriverFromRecord(*row.Driver)
		r.Driver = &d
	}
}

func (o *Orchestrator) emit(ctx context.Context, userID string, ride models.Ride, from models.RideStatus) {
	observability.RideTransitionsTotal.WithLabelValues(string(ride.Status)).Inc()
	ev := models.RideEvent{RideID: ride.ID, UserID: userID, From: from, To: ride.Status, At: o.now().UTC()}
	if err := o.events.PublishRideEvent(ctx, ev); err != nil {
		o.logger.Warn("publish ride event failed", "ride_id", ride.ID, "error", err)
	}
	r := ride
	o.notifier.Notify(userID, dispatch.Event{Type: dispatch.EventRideUpdated, RideID: ride.ID, Ride: &r})
}

// abandon marks a ride that never became the current booking as cancelled.
func (o *Orchestrator) abandon(ctx context.Context, rideID string) {
	status := storage.StatusToBackend(models.StatusCancelled)
	if _, err := o.data.UpdateRide(ctx, rideID, storage.RidePatch{Status: &status}); err != nil {
		o.logger.Error("cancel abandoned ride failed", "ride_id", rideID, "error", err)
	}
}

func (o *Orchestrator) release(ctx context.Context, ref string) {
	if err := o.checkout.Cancel(ctx, ref); err != nil {
		o.logger.Error("release payment hold failed", "payment_ref", ref, "error", err)
		return
	}
	observability.PaymentsTotal.WithLabelValues("released").Inc()
}
