package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/subscribe/internal/billinganchor"
	"github.com/railzwaylabs/subscribe/internal/clock"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
)

// ListPlanOptions returns the plan picker entries. existing_plan_id marks
// the plan the subscription being edited is already on.
func (s *Server) ListPlanOptions(c *gin.Context) {
	var existing *plandomain.ExistingPlan
	if planID := strings.TrimSpace(c.Query("existing_plan_id")); planID != "" {
		existing = &plandomain.ExistingPlan{PlanID: planID}
	}

	options, err := s.plans.Options(c.Request.Context(), existing)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, options)
}

type billingAnchorResponse struct {
	PlanID        string                   `json:"plan_id"`
	BillingTime   string                   `json:"billing_time"`
	Anchor        billinganchor.Descriptor `json:"anchor"`
	Description   string                   `json:"description"`
	NextBillingAt *time.Time               `json:"next_billing_at,omitempty"`
}

// GetBillingAnchor previews when a subscription on the plan would bill.
// The optional "at" query (RFC3339) pins the evaluation time.
func (s *Server) GetBillingAnchor(c *gin.Context) {
	mode, err := subscriptiondomain.ParseBillingTimeMode(c.Query("billing_time"))
	if err != nil {
		AbortWithError(c, newValidationError("billing_time", "invalid_billing_time", "billing_time must be calendar or anniversary"))
		return
	}

	ctx := c.Request.Context()
	if at := strings.TrimSpace(c.Query("at")); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			AbortWithError(c, newValidationError("at", "invalid_at", "at must be an RFC3339 timestamp"))
			return
		}
		ctx = clock.WithNow(ctx, parsed)
	}

	plan, err := s.plans.Resolve(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := s.clock.Now(ctx)
	descriptor := billinganchor.Compute(&plan, mode, now)
	resp := billingAnchorResponse{
		PlanID:      plan.ID,
		BillingTime: string(mode),
		Anchor:      descriptor,
		Description: billinganchor.Describe(descriptor),
	}
	if next, ok := billinganchor.Next(descriptor, now); ok {
		resp.NextBillingAt = &next
	}
	respondData(c, resp)
}

type createPlanRequest struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Interval       string `json:"interval"`
	AmountCents    int64  `json:"amount_cents"`
	AmountCurrency string `json:"amount_currency"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.creator.Create(c.Request.Context(), plandomain.CreateRequest{
		Name:           req.Name,
		Code:           req.Code,
		Interval:       req.Interval,
		AmountCents:    req.AmountCents,
		AmountCurrency: req.AmountCurrency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondStatus(c, http.StatusCreated, plan)
}
