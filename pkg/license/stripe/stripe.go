// Package stripe verifies license keys as Stripe PaymentIntent ids.
package stripe

import (
	"context"
	"errors"
	"fmt"

	stripego "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/license"
)

// paymentIntents is the part of the Stripe client the verifier uses.
type paymentIntents interface {
	Get(id string, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
}

// Verifier looks up PaymentIntents.
type Verifier struct {
	intents paymentIntents
}

// Ensure Verifier implements license.Verifier at compile time.
var _ license.Verifier = (*Verifier)(nil)

// New creates a Stripe verifier with the given secret key.
func New(secretKey string) (*Verifier, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Verifier{intents: sc.PaymentIntents}, nil
}

// Name returns "stripe".
func (v *Verifier) Name() string { return "stripe" }

// Verify retrieves the PaymentIntent. Only succeeded payments are active.
func (v *Verifier) Verify(ctx context.Context, key string) (*license.Result, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := v.intents.Get(key, params)
	if err != nil {
		var serr *stripego.Error
		if errors.As(err, &serr) && serr.Code == stripego.ErrorCodeResourceMissing {
			return nil, &license.NotFoundError{
				Backend: v.Name(),
				Details: []map[string]string{{
					"code":    string(serr.Code),
					"message": serr.Msg,
				}},
			}
		}
		return nil, fmt.Errorf("stripe: retrieving payment intent: %w", err)
	}
	debug.Log("license", "stripe payment intent", "id", pi.ID, "status", pi.Status)

	if pi.Status != stripego.PaymentIntentStatusSucceeded {
		return &license.Result{
			Valid:  false,
			Status: license.StatusInactive,
			Reason: fmt.Sprintf("Payment status is %s (not succeeded)", pi.Status),
		}, nil
	}

	res := &license.Result{Valid: true, Status: license.StatusActive}
	if pi.Customer != nil {
		res.CustomerID = pi.Customer.ID
	}
	return res, nil
}
