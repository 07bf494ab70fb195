package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	subscriptionservice "github.com/railzwaylabs/subscribe/internal/subscription/service"
)

type submitSubscriptionRequest struct {
	CustomerID     string     `json:"customer_id"`
	PlanID         string     `json:"plan_id"`
	BillingTime    string     `json:"billing_time"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	ExistingPlanID string     `json:"existing_plan_id,omitempty"`
	Name           string     `json:"name,omitempty"`
	ExternalID     string     `json:"external_id,omitempty"`
	SubscriptionAt *time.Time `json:"subscription_at,omitempty"`
}

type submitSubscriptionResponse struct {
	subscriptiondomain.Outcome
	Confirmation string `json:"confirmation,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
}

var confirmations = map[subscriptiondomain.Action]string{
	subscriptiondomain.ActionCreated: "Subscription successfully created",
	subscriptiondomain.ActionUpdated: "Subscription successfully updated",
}

// SubmitSubscription creates a subscription, or updates one when
// subscription_id is set. Retries carrying the same Idempotency-Key share
// one form: a retry while the first call is pending gets 409, and a retry
// after success replays the stored outcome.
func (s *Server) SubmitSubscription(c *gin.Context) {
	var req submitSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	mode, err := subscriptiondomain.ParseBillingTimeMode(req.BillingTime)
	if err != nil {
		AbortWithError(c, newValidationError("billing_time", "invalid_billing_time", "billing_time must be calendar or anniversary"))
		return
	}

	var existing *subscriptiondomain.ExistingSubscription
	if id := strings.TrimSpace(req.SubscriptionID); id != "" {
		existing = &subscriptiondomain.ExistingSubscription{
			SubscriptionID: id,
			ExistingPlanID: strings.TrimSpace(req.ExistingPlanID),
		}
	}

	key := idempotencyKey(c)
	form := s.formFor(key, existing)
	if form.ExistingSubscriptionID() != strings.TrimSpace(req.SubscriptionID) {
		AbortWithError(c, subscriptiondomain.ErrIdempotencyKeyReused)
		return
	}

	outcome, err := form.Submit(c.Request.Context(), subscriptiondomain.SubmissionRequest{
		CustomerID:      req.CustomerID,
		PlanID:          req.PlanID,
		BillingTimeMode: mode,
		Name:            req.Name,
		ExternalID:      req.ExternalID,
		SubscriptionAt:  req.SubscriptionAt,
		IdempotencyKey:  key,
	})
	if errors.Is(err, subscriptiondomain.ErrFormCompleted) {
		if last, ok := form.Outcome(); ok {
			outcome, err = last, nil
		}
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := submitSubscriptionResponse{Outcome: outcome}
	switch outcome.Kind {
	case subscriptiondomain.OutcomeSuccess:
		resp.Confirmation = confirmations[outcome.Action]
		respondData(c, resp)
	case subscriptiondomain.OutcomeCurrencyMismatch:
		resp.ErrorCode = form.ErrorCode()
		respondStatus(c, http.StatusUnprocessableEntity, resp)
	default:
		if outcome.Transport {
			respondStatus(c, http.StatusBadGateway, resp)
			return
		}
		respondStatus(c, http.StatusBadRequest, resp)
	}
}

func (s *Server) formFor(key string, existing *subscriptiondomain.ExistingSubscription) *subscriptionservice.Form {
	s.formsMu.Lock()
	defer s.formsMu.Unlock()

	if form, ok := s.forms.Get(key); ok {
		return form
	}
	form := subscriptionservice.NewForm(s.submitter, existing, s.log)
	s.forms.Add(key, form)
	return form
}
