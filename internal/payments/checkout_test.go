package payments

import (
	"context"
	"errors"
	"testing"

	stripe "github.com/stripe/stripe-go/v74"
)

func TestFakeCheckoutHoldCapture(t *testing.T) {
	ctx := context.Background()
	f := NewFakeCheckout()
	ref, err := f.Open(ctx, CheckoutRequest{AmountMinorUnits: 1500, Currency: "inr"})
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := f.State(ref); s != HoldHeld {
		t.Fatalf("state = %s", s)
	}
	if f.Amount(ref) != 1500 {
		t.Fatalf("amount = %d", f.Amount(ref))
	}
	if err := f.Capture(ctx, ref); err != nil {
		t.Fatal(err)
	}
	if err := f.Cancel(ctx, ref); err == nil {
		t.Fatal("cancel after capture should fail")
	}
}

func TestFakeCheckoutDismiss(t *testing.T) {
	ctx := context.Background()
	f := NewFakeCheckout()
	f.Dismiss = true
	if _, err := f.Open(ctx, CheckoutRequest{AmountMinorUnits: 100}); !errors.Is(err, ErrDismissed) {
		t.Fatalf("expected ErrDismissed, got %v", err)
	}
	f.Dismiss = false
	if _, err := f.Open(ctx, CheckoutRequest{AmountMinorUnits: 100, PaymentMethod: "dismiss"}); !errors.Is(err, ErrDismissed) {
		t.Fatalf("expected ErrDismissed, got %v", err)
	}
}

func TestFakeCheckoutUnknownRef(t *testing.T) {
	if err := NewFakeCheckout().Capture(context.Background(), "nope"); !errors.Is(err, ErrUnknownPayment) {
		t.Fatalf("expected ErrUnknownPayment, got %v", err)
	}
}

func TestIsDecline(t *testing.T) {
	if !isDecline(&stripe.Error{Type: stripe.ErrorTypeCard}) {
		t.Fatal("card errors are declines")
	}
	if isDecline(&stripe.Error{Type: stripe.ErrorTypeAPI}) || isDecline(errors.New("x")) {
		t.Fatal("only card errors are declines")
	}
}
