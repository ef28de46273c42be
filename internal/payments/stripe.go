package payments

import (
	"context"
	"fmt"
	"sync"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeCharger implements Charger on Stripe PaymentIntents with manual
// capture. Intent ids are tracked per ride for the later capture/cancel.
type StripeCharger struct {
	mu      sync.Mutex
	intents map[int64]string // ride id -> payment intent id
}

// NewStripeCharger initializes the stripe client with the given API key.
func NewStripeCharger(apiKey string) *StripeCharger {
	stripe.Key = apiKey
	return &StripeCharger{intents: make(map[int64]string)}
}

// Hold creates a PaymentIntent with capture_method=manual to hold funds
// for the ride.
func (s *StripeCharger) Hold(ctx context.Context, rideID int64, amountMinor int64, currency string) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountMinor),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return fmt.Errorf("stripe hold for ride %d: %w", rideID, err)
	}
	s.mu.Lock()
	s.intents[rideID] = pi.ID
	s.mu.Unlock()
	return nil
}

// Capture finalizes the hold placed for the ride.
func (s *StripeCharger) Capture(ctx context.Context, rideID int64) error {
	id, ok := s.take(rideID)
	if !ok {
		return fmt.Errorf("no hold for ride %d", rideID)
	}
	if _, err := paymentintent.Capture(id, nil); err != nil {
		return fmt.Errorf("stripe capture for ride %d: %w", rideID, err)
	}
	return nil
}

// Cancel releases the hold placed for the ride.
func (s *StripeCharger) Cancel(ctx context.Context, rideID int64) error {
	id, ok := s.take(rideID)
	if !ok {
		return nil // nothing held, nothing to release
	}
	if _, err := paymentintent.Cancel(id, nil); err != nil {
		return fmt.Errorf("stripe cancel for ride %d: %w", rideID, err)
	}
	return nil
}

func (s *StripeCharger) take(rideID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.intents[rideID]
	if ok {
		delete(s.intents, rideID)
	}
	return id, ok
}
