// Package booking holds each rider's in-progress booking flow and current booking.
package booking

import (
	"context"
	"sync"

	"github.com/example/rolo/internal/models"
)

// State is the per-rider application state mutated by the booking screens.
type State struct {
	Flow           models.BookingFlow `json:"flow"`
	CurrentBooking *models.Ride       `json:"current_booking,omitempty"`
	// PaymentRef is the held payment backing CurrentBooking.
	PaymentRef string `json:"payment_ref,omitempty"`
}

// EmptyFlow is the flow after a reset.
func EmptyFlow() models.BookingFlow {
	return models.BookingFlow{Pickup: "", Dropoff: ""}
}

// FlowPatch is a shallow update of a BookingFlow. Nil fields are left untouched.
type FlowPatch struct {
	Pickup          *string
	Dropoff         *string
	SelectedVehicle *models.VehicleSelection
	EstimatedPrice  *float64
}

// Apply merges p into f.
func (p FlowPatch) Apply(f models.BookingFlow) models.BookingFlow {
	if p.Pickup != nil {
		f.Pickup = *p.Pickup
	}
	if p.Dropoff != nil {
		f.Dropoff = *p.Dropoff
	}
	if p.SelectedVehicle != nil {
		v := *p.SelectedVehicle
		f.SelectedVehicle = &v
	}
	if p.EstimatedPrice != nil {
		v := *p.EstimatedPrice
		f.EstimatedPrice = &v
	}
	return f
}

// StateStore persists State per user. Load returns a zero State for unknown users.
type StateStore interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, s State) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStateStore keeps state in process memory; it does not survive a restart.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]State)}
}

func (m *MemoryStateStore) Load(ctx context.Context, userID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneState(m.states[userID]), nil
}

func (m *MemoryStateStore) Save(ctx context.Context, userID string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = cloneState(s)
	return nil
}

func (m *MemoryStateStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// cloneState copies the pointer fields so callers cannot mutate stored state.
func cloneState(s State) State {
	if s.Flow.SelectedVehicle != nil {
		v := *s.Flow.SelectedVehicle
		s.Flow.SelectedVehicle = &v
	}
	if s.Flow.EstimatedPrice != nil {
		p := *s.Flow.EstimatedPrice
		s.Flow.EstimatedPrice = &p
	}
	if s.CurrentBooking != nil {
		r := *s.CurrentBooking
		if r.Driver != nil {
			d := *r.Driver
			r.Driver = &d
		}
		if r.Rating != nil {
			v := *r.Rating
			r.Rating = &v
		}
		s.CurrentBooking = &r
	}
	return s
}
