package service_test

import (
	"context"
	"sync"
	"testing"

	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"github.com/railzwaylabs/subscribe/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSubmitter holds every Submit until release is closed.
type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
	outcome subscriptiondomain.Outcome

	mu   sync.Mutex
	seen []subscriptiondomain.SubmissionRequest
}

func newBlockingSubmitter(outcome subscriptiondomain.Outcome) *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		outcome: outcome,
	}
}

func (b *blockingSubmitter) Submit(ctx context.Context, req subscriptiondomain.SubmissionRequest) subscriptiondomain.Outcome {
	b.mu.Lock()
	b.seen = append(b.seen, req)
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
	return b.outcome
}

type staticSubmitter struct {
	outcome subscriptiondomain.Outcome
	last    subscriptiondomain.SubmissionRequest
}

func (s *staticSubmitter) Submit(ctx context.Context, req subscriptiondomain.SubmissionRequest) subscriptiondomain.Outcome {
	s.last = req
	return s.outcome
}

var baseRequest = subscriptiondomain.SubmissionRequest{
	CustomerID:      "cus_1",
	PlanID:          "plan_b",
	BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
}

func TestForm_RejectsConcurrentSubmit(t *testing.T) {
	submitter := newBlockingSubmitter(subscriptiondomain.Success("sub_1", subscriptiondomain.ActionCreated))
	form := service.NewForm(submitter, nil, nil)

	done := make(chan subscriptiondomain.Outcome)
	go func() {
		outcome, err := form.Submit(context.Background(), baseRequest)
		assert.NoError(t, err)
		done <- outcome
	}()

	<-submitter.started
	assert.Equal(t, service.FormSubmitting, form.State())

	_, err := form.Submit(context.Background(), baseRequest)
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubmissionInFlight)

	close(submitter.release)
	outcome := <-done
	assert.Equal(t, subscriptiondomain.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, service.FormSucceeded, form.State())
	assert.Len(t, submitter.seen, 1)
}

func TestForm_DisposeDiscardsLateResult(t *testing.T) {
	submitter := newBlockingSubmitter(subscriptiondomain.Success("sub_1", subscriptiondomain.ActionCreated))
	form := service.NewForm(submitter, nil, nil)

	errs := make(chan error)
	go func() {
		_, err := form.Submit(context.Background(), baseRequest)
		errs <- err
	}()

	<-submitter.started
	form.Dispose()
	close(submitter.release)

	assert.ErrorIs(t, <-errs, subscriptiondomain.ErrFormDisposed)
	assert.Equal(t, service.FormDisposed, form.State())
	_, ok := form.Outcome()
	assert.False(t, ok)
}

func TestForm_CurrencyMismatchAllowsRetry(t *testing.T) {
	submitter := &staticSubmitter{outcome: subscriptiondomain.CurrencyMismatch()}
	form := service.NewForm(submitter, nil, nil)

	outcome, err := form.Submit(context.Background(), baseRequest)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.OutcomeCurrencyMismatch, outcome.Kind)
	assert.Equal(t, service.FormCurrencyMismatch, form.State())
	assert.Equal(t, "currency_error", form.ErrorCode())

	submitter.outcome = subscriptiondomain.Success("sub_2", subscriptiondomain.ActionCreated)
	retry := baseRequest
	retry.PlanID = "plan_usd"
	outcome, err = form.Submit(context.Background(), retry)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.OutcomeSuccess, outcome.Kind)
	assert.Empty(t, form.ErrorCode())

	_, err = form.Submit(context.Background(), retry)
	assert.ErrorIs(t, err, subscriptiondomain.ErrFormCompleted)
}

func TestForm_FailureAllowsRetry(t *testing.T) {
	submitter := &staticSubmitter{outcome: subscriptiondomain.Failure("boom")}
	form := service.NewForm(submitter, nil, nil)

	_, err := form.Submit(context.Background(), baseRequest)
	require.NoError(t, err)
	assert.Equal(t, service.FormFailed, form.State())

	last, ok := form.Outcome()
	require.True(t, ok)
	assert.Equal(t, "boom", last.Message)

	_, err = form.Submit(context.Background(), baseRequest)
	assert.NoError(t, err)
}

func TestForm_CarriesExistingSubscription(t *testing.T) {
	submitter := &staticSubmitter{outcome: subscriptiondomain.Success("sub_7", subscriptiondomain.ActionUpdated)}
	existing := &subscriptiondomain.ExistingSubscription{SubscriptionID: "sub_7", ExistingPlanID: "plan_a"}
	form := service.NewForm(submitter, existing, nil)

	_, err := form.Submit(context.Background(), baseRequest)
	require.NoError(t, err)
	assert.Equal(t, "sub_7", submitter.last.ExistingSubscriptionID)
	assert.Equal(t, "sub_7", existing.SubscriptionID)
	assert.NotEmpty(t, form.ID())
}
