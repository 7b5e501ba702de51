// Package license verifies purchase keys against a payment processor.
// A key is the processor's id for the purchase (a Square order id or a
// Stripe PaymentIntent id).
package license

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/askgate/pkg/observability"
)

// Status values reported in Result.Status.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = errors.New("license not found")

// NotFoundError reports that the processor does not know the key. Details
// carries the processor's own error list for the client.
type NotFoundError struct {
	Backend string
	Details any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: license not found", e.Backend)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Result is the outcome for a key the processor knows about.
type Result struct {
	Valid      bool
	Status     string
	CustomerID string
	Reason     string // set when Valid is false
}

// Verifier checks a license key.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, key string) (*Result, error)
}

// Instrument counts every verification by backend and outcome.
func Instrument(v Verifier) Verifier {
	return &instrumented{Verifier: v}
}

type instrumented struct {
	Verifier
}

func (i *instrumented) Verify(ctx context.Context, key string) (*Result, error) {
	res, err := i.Verifier.Verify(ctx, key)
	observability.LicenseVerificationsTotal.WithLabelValues(i.Name(), outcome(res, err)).Inc()
	return res, err
}

func outcome(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case err != nil:
		return "error"
	case res.Valid:
		return "valid"
	default:
		return "invalid"
	}
}
