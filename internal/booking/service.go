package booking

import (
	"context"
	"sync"

	"github.com/example/rolo/internal/models"
)

// Service exposes the booking-flow actions. Updates for one user are serialized.
type Service struct {
	store StateStore
	locks sync.Map // userID -> *sync.Mutex
}

func NewService(store StateStore) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID string) (State, error) {
	return s.store.Load(ctx, userID)
}

// Update runs fn on the user's state and saves the result if fn succeeds.
func (s *Service) Update(ctx context.Context, userID string, fn func(*State) error) (State, error) {
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.store.Load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, userID, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// UpdateBookingFlow shallow-merges p into the flow. No validation happens here.
func (s *Service) UpdateBookingFlow(ctx context.Context, userID string, p FlowPatch) (State, error) {
	return s.Update(ctx, userID, func(st *State) error {
		st.Flow = p.Apply(st.Flow)
		return nil
	})
}

// ResetBookingFlow clears the flow to empty locations with no vehicle or price.
func (s *Service) ResetBookingFlow(ctx context.Context, userID string) (State, error) {
	return s.Update(ctx, userID, func(st *State) error {
		st.Flow = EmptyFlow()
		return nil
	})
}

// SetCurrentBooking replaces the current booking; nil clears it along with its payment.
func (s *Service) SetCurrentBooking(ctx context.Context, userID string, ride *models.Ride) (State, error) {
	return s.Update(ctx, userID, func(st *State) error {
		st.CurrentBooking = ride
		if ride == nil {
			st.PaymentRef = ""
		}
		return nil
	})
}

func (s *Service) SetPaymentRef(ctx context.Context, userID, ref string) (State, error) {
	return s.Update(ctx, userID, func(st *State) error {
		st.PaymentRef = ref
		return nil
	})
}

// Clear drops all booking state for the user, as on logout.
func (s *Service) Clear(ctx context.Context, userID string) error {
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.store.Delete(ctx, userID)
}

func (s *Service) lock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
