package service

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/zap"
)

type FormState string

const (
	FormIdle             FormState = "idle"
	FormSubmitting       FormState = "submitting"
	FormSucceeded        FormState = "succeeded"
	FormCurrencyMismatch FormState = "currency_mismatch"
	FormFailed           FormState = "failed"
	FormDisposed         FormState = "disposed"
)

// FormErrorCurrency is reported by ErrorCode after a currency mismatch.
const FormErrorCurrency = "currency_error"

// Form owns the single-flight discipline for one subscription form
// instance: idle -> submitting -> {succeeded, currency_mismatch, failed}.
// A form may be disposed at any time; results that arrive afterwards are
// dropped.
type Form struct {
	mu sync.Mutex

	id        string
	log       *zap.Logger
	submitter subscriptiondomain.Submitter
	existing  *subscriptiondomain.ExistingSubscription

	state FormState
	last  *subscriptiondomain.Outcome
}

func NewForm(submitter subscriptiondomain.Submitter, existing *subscriptiondomain.ExistingSubscription, log *zap.Logger) *Form {
	id := ulid.Make().String()
	if log == nil {
		log = zap.NewNop()
	}
	return &Form{
		id:        id,
		log:       log.Named("subscription.form").With(zap.String("form_id", id)),
		submitter: submitter,
		existing:  existing,
		state:     FormIdle,
	}
}

func (f *Form) ID() string {
	return f.id
}

// ExistingSubscriptionID is the subscription the form edits, empty when
// it creates one.
func (f *Form) ExistingSubscriptionID() string {
	if f.existing == nil {
		return ""
	}
	return f.existing.SubscriptionID
}

// Submit runs one submission. It fails fast with ErrSubmissionInFlight
// while another submission is pending.
func (f *Form) Submit(ctx context.Context, req subscriptiondomain.SubmissionRequest) (subscriptiondomain.Outcome, error) {
	f.mu.Lock()
	switch f.state {
	case FormSubmitting:
		f.mu.Unlock()
		return subscriptiondomain.Outcome{}, subscriptiondomain.ErrSubmissionInFlight
	case FormDisposed:
		f.mu.Unlock()
		return subscriptiondomain.Outcome{}, subscriptiondomain.ErrFormDisposed
	case FormSucceeded:
		f.mu.Unlock()
		return subscriptiondomain.Outcome{}, subscriptiondomain.ErrFormCompleted
	}
	f.state = FormSubmitting
	f.mu.Unlock()

	outcome := f.submitter.Submit(ctx, req.WithExisting(f.existing))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormDisposed {
		f.log.Debug("discarding submission result after dispose", zap.String("outcome", string(outcome.Kind)))
		return subscriptiondomain.Outcome{}, subscriptiondomain.ErrFormDisposed
	}

	switch outcome.Kind {
	case subscriptiondomain.OutcomeSuccess:
		f.state = FormSucceeded
	case subscriptiondomain.OutcomeCurrencyMismatch:
		f.state = FormCurrencyMismatch
	default:
		f.state = FormFailed
	}
	f.last = &outcome
	return outcome, nil
}

// Dispose closes the form. Pending submissions are not cancelled.
func (f *Form) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FormDisposed
}

func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Outcome returns the last settled outcome, if any.
func (f *Form) Outcome() (subscriptiondomain.Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return subscriptiondomain.Outcome{}, false
	}
	return *f.last, true
}

func (f *Form) ErrorCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormCurrencyMismatch {
		return FormErrorCurrency
	}
	return ""
}
