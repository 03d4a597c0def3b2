package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrDismissed means the rider closed the payment widget or the payment was declined.
var ErrDismissed = errors.New("payment dismissed")

var ErrUnknownPayment = errors.New("unknown payment")

type Prefill struct {
	Name    string
	Email   string
	Contact string
}

type CheckoutRequest struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	Prefill          Prefill
	PaymentMethod    string
	UserID           string
}

// Checkout places a hold for a ride and later captures or releases it.
type Checkout interface {
	Open(ctx context.Context, req CheckoutRequest) (string, error)
	Capture(ctx context.Context, ref string) error
	Cancel(ctx context.Context, ref string) error
}

type HoldState string

const (
	HoldHeld      HoldState = "held"
	HoldCaptured  HoldState = "captured"
	HoldCancelled HoldState = "cancelled"
)

// FakeCheckout approves every payment unless told otherwise. Used for local runs and tests.
type FakeCheckout struct {
	mu sync.Mutex
	// Dismiss makes Open return ErrDismissed.
	Dismiss bool
	// OpenErr, if set, is returned by Open instead.
	OpenErr error
	holds   map[string]HoldState
	amounts map[string]int64
}

func NewFakeCheckout() *FakeCheckout {
	return &FakeCheckout{holds: make(map[string]HoldState), amounts: make(map[string]int64)}
}

func (f *FakeCheckout) Open(ctx context.Context, req CheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return "", f.OpenErr
	}
	if f.Dismiss || req.PaymentMethod == "dismiss" {
		return "", ErrDismissed
	}
	if req.AmountMinorUnits <= 0 {
		return "", fmt.Errorf("invalid amount %d", req.AmountMinorUnits)
	}
	ref := "pay_" + uuid.NewString()
	f.holds[ref] = HoldHeld
	f.amounts[ref] = req.AmountMinorUnits
	return ref, nil
}

func (f *FakeCheckout) Capture(ctx context.Context, ref string) error {
	return f.transition(ref, HoldCaptured)
}

func (f *FakeCheckout) Cancel(ctx context.Context, ref string) error {
	return f.transition(ref, HoldCancelled)
}

func (f *FakeCheckout) State(ref string) (HoldState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.holds[ref]
	return s, ok
}

// Each calls fn for every payment opened so far.
func (f *FakeCheckout) Each(fn func(ref string, s HoldState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ref, s := range f.holds {
		fn(ref, s)
	}
}

func (f *FakeCheckout) Amount(ref string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amounts[ref]
}

func (f *FakeCheckout) transition(ref string, to HoldState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.holds[ref]
	if !ok {
		return ErrUnknownPayment
	}
	if s != HoldHeld {
		return fmt.Errorf("payment %s already %s", ref, s)
	}
	f.holds[ref] = to
	return nil
}
