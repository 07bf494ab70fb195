package server

import (
	"context"
	"testing"

	"github.com/railzwaylabs/subscribe/internal/clock"
	"github.com/railzwaylabs/subscribe/internal/config"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	subscriptionservice "github.com/railzwaylabs/subscribe/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type staticSubmitter struct{}

func (staticSubmitter) Submit(ctx context.Context, req subscriptiondomain.SubmissionRequest) subscriptiondomain.Outcome {
	return subscriptiondomain.Failure("unused")
}

func TestFormFor_EvictionDisposesForm(t *testing.T) {
	s := NewServer(Params{
		Config:    config.Config{Backend: config.BackendLocal},
		Log:       zap.NewNop(),
		Clock:     clock.SystemClock{},
		Submitter: staticSubmitter{},
	})

	form := s.formFor("k1", nil)
	assert.Same(t, form, s.formFor("k1", nil))
	assert.Equal(t, subscriptionservice.FormIdle, form.State())

	s.forms.Remove("k1")
	assert.Equal(t, subscriptionservice.FormDisposed, form.State())

	_, err := form.Submit(context.Background(), subscriptiondomain.SubmissionRequest{})
	assert.ErrorIs(t, err, subscriptiondomain.ErrFormDisposed)
}
