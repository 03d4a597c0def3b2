package payments

import (
	"context"
	"errors"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// ErrPaymentMethodRequired is returned when a hold is requested without a
// payment method to confirm it with.
var ErrPaymentMethodRequired = errors.New("payment method is required")

// StripeClient implements Checkout with PaymentIntents held via capture_method=manual.
type StripeClient struct {
	logger *slog.Logger
}

// NewStripeClient sets the process-wide stripe key.
func NewStripeClient(apiKey string, logger *slog.Logger) *StripeClient {
	stripe.Key = apiKey
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeClient{logger: logger}
}

// Open creates and confirms the hold. Only an intent in requires_capture counts
// as held; anything else is cancelled and reported as dismissed.
func (s *StripeClient) Open(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PaymentMethod == "" {
		return "", ErrPaymentMethodRequired
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinorUnits),
		Currency:      stripe.String(req.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethod: stripe.String(req.PaymentMethod),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.Prefill.Email != "" {
		params.ReceiptEmail = stripe.String(req.Prefill.Email)
	}
	if req.UserID != "" {
		params.AddMetadata("user_id", req.UserID)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		if isDecline(err) {
			return "", ErrDismissed
		}
		return "", err
	}
	if pi.Status != stripe.PaymentIntentStatusRequiresCapture {
		s.logger.Warn("payment intent not held", "payment_intent", pi.ID, "status", pi.Status)
		if err := s.Cancel(ctx, pi.ID); err != nil {
			s.logger.Error("cancel unheld payment intent failed", "payment_intent", pi.ID, "error", err)
		}
		return "", ErrDismissed
	}
	return pi.ID, nil
}

// Capture finalizes a previously-held PaymentIntent.
func (s *StripeClient) Capture(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err := paymentintent.Capture(paymentIntentID, params)
	return err
}

// Cancel releases the hold on a PaymentIntent.
func (s *StripeClient) Cancel(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(paymentIntentID, params)
	return err
}

func isDecline(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Type == stripe.ErrorTypeCard
}
