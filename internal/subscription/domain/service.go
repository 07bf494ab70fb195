package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// CodeCurrenciesDoesNotMatch is returned when the customer's currency
// differs from the plan's currency.
const CodeCurrenciesDoesNotMatch = "currencies_does_not_match"

// Upserter creates or updates a subscription on the billing service.
// A non-nil error means the call itself failed (transport level).
type Upserter interface {
	Upsert(ctx context.Context, req SubmissionRequest) (UpsertResult, error)
}

// Submitter turns a request into an Outcome. It never returns an error:
// every failure is data.
type Submitter interface {
	Submit(ctx context.Context, req SubmissionRequest) Outcome
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Subscription, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Subscription, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID string) ([]Subscription, error)
	FindCustomer(ctx context.Context, db *gorm.DB, id string) (*Customer, error)
	SetCustomerCurrency(ctx context.Context, db *gorm.DB, id, currency string) error
}

var (
	ErrInvalidBillingTime   = errors.New("invalid_billing_time")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrSubmissionInFlight   = errors.New("submission_in_flight")
	ErrFormDisposed         = errors.New("form_disposed")
	ErrFormCompleted        = errors.New("form_completed")
	ErrSubscriptionMissing  = errors.New("subscription_not_found")
	ErrIdempotencyKeyReused = errors.New("idempotency_key_reused")
)

// TransportError describes a failed call to the subscription service
// that produced no structured business error.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "transport_error"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
