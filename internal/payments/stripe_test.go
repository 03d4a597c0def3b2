package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	stripe "github.com/stripe/stripe-go/v74"

	"github.com/example/rolo/internal/logging"
)

// fakeStripe answers payment intent creation with status and records cancels.
type fakeStripe struct {
	status string

	mu        sync.Mutex
	creates   int
	cancelled []string
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		f.creates++
		fmt.Fprintf(w, `{"id":"pi_123","object":"payment_intent","status":%q}`, f.status)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/"), "/cancel")
		f.cancelled = append(f.cancelled, id)
		fmt.Fprintf(w, `{"id":%q,"object":"payment_intent","status":"canceled"}`, id)
	default:
		http.NotFound(w, r)
	}
}

func withStripeServer(t *testing.T, h http.Handler) *StripeClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	prev := stripe.GetBackend(stripe.APIBackend)
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}))
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, prev) })
	return NewStripeClient("sk_test_123", logging.Discard())
}

func TestStripeOpenRequiresPaymentMethod(t *testing.T) {
	fs := &fakeStripe{status: "requires_capture"}
	c := withStripeServer(t, fs)

	ref, err := c.Open(context.Background(), CheckoutRequest{AmountMinorUnits: 1500, Currency: "inr"})
	if !errors.Is(err, ErrPaymentMethodRequired) {
		t.Fatalf("expected ErrPaymentMethodRequired, got ref=%q err=%v", ref, err)
	}
	if fs.creates != 0 {
		t.Fatalf("no intent should be created, got %d", fs.creates)
	}
}

func TestStripeOpenUnheldIntentIsCancelled(t *testing.T) {
	fs := &fakeStripe{status: "requires_payment_method"}
	c := withStripeServer(t, fs)

	ref, err := c.Open(context.Background(), CheckoutRequest{AmountMinorUnits: 1500, Currency: "inr", PaymentMethod: "pm_card_visa"})
	if !errors.Is(err, ErrDismissed) {
		t.Fatalf("expected ErrDismissed, got ref=%q err=%v", ref, err)
	}
	if len(fs.cancelled) != 1 || fs.cancelled[0] != "pi_123" {
		t.Fatalf("cancelled = %v", fs.cancelled)
	}
}

func TestStripeOpenHeld(t *testing.T) {
	fs := &fakeStripe{status: "requires_capture"}
	c := withStripeServer(t, fs)

	ref, err := c.Open(context.Background(), CheckoutRequest{AmountMinorUnits: 1500, Currency: "inr", PaymentMethod: "pm_card_visa"})
	if err != nil {
		t.Fatal(err)
	}
	if ref != "pi_123" {
		t.Fatalf("ref = %q", ref)
	}
	if len(fs.cancelled) != 0 {
		t.Fatalf("held intent cancelled: %v", fs.cancelled)
	}
}
