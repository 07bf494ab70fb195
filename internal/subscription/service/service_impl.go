package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/railzwaylabs/subscribe/internal/observability"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("subscribe/subscription/service")

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Upserter subscriptiondomain.Upserter
	Metrics  *observability.Metrics `optional:"true"`
}

// Coordinator submits one create-or-update request and classifies the
// result. It keeps no state between calls; callers that need
// single-flight discipline wrap it in a Form.
type Coordinator struct {
	log      *zap.Logger
	upserter subscriptiondomain.Upserter
	metrics  *observability.Metrics
}

func NewService(p ServiceParam) *Coordinator {
	return &Coordinator{
		log:      p.Log.Named("subscription.service"),
		upserter: p.Upserter,
		metrics:  p.Metrics,
	}
}

func (c *Coordinator) Submit(ctx context.Context, req subscriptiondomain.SubmissionRequest) subscriptiondomain.Outcome {
	req = normalizeRequest(req)

	action := subscriptiondomain.ActionCreated
	if req.IsUpdate() {
		action = subscriptiondomain.ActionUpdated
	}

	ctx, span := tracer.Start(ctx, "subscription.submit", trace.WithAttributes(
		attribute.String("customer_id", req.CustomerID),
		attribute.String("plan_id", req.PlanID),
		attribute.String("action", string(action)),
	))
	defer span.End()

	log := c.log.With(
		zap.String("customer_id", req.CustomerID),
		zap.String("plan_id", req.PlanID),
		zap.String("action", string(action)),
	)

	outcome := c.submit(ctx, log, req, action)

	span.SetAttributes(attribute.String("outcome", string(outcome.Kind)))
	if outcome.Kind == subscriptiondomain.OutcomeFailure {
		span.SetStatus(codes.Error, outcome.Message)
	} else {
		span.SetStatus(codes.Ok, string(outcome.Kind))
	}
	c.metrics.ObserveSubmission(string(outcome.Kind), string(outcome.Action))

	return outcome
}

func (c *Coordinator) submit(
	ctx context.Context,
	log *zap.Logger,
	req subscriptiondomain.SubmissionRequest,
	action subscriptiondomain.Action,
) subscriptiondomain.Outcome {
	if err := validateRequest(req); err != nil {
		log.Info("subscription request rejected", zap.Error(err))
		return subscriptiondomain.Failure(err.Error())
	}

	result, err := c.upserter.Upsert(ctx, req)
	if err != nil {
		log.Error("subscription upsert failed", zap.Error(err))
		return ClassifyTransport(err)
	}

	if len(result.Errors) > 0 {
		outcome := Classify(result.Errors)
		if outcome.Kind == subscriptiondomain.OutcomeCurrencyMismatch {
			log.Info("subscription currency does not match plan")
		} else {
			log.Warn("subscription upsert rejected",
				zap.String("code", result.Errors[0].Code),
				zap.String("message", outcome.Message),
			)
		}
		return outcome
	}

	subscriptionID := strings.TrimSpace(result.SubscriptionID)
	if action == subscriptiondomain.ActionUpdated {
		if subscriptionID == "" {
			subscriptionID = req.ExistingSubscriptionID
		}
		if subscriptionID != req.ExistingSubscriptionID {
			log.Error("subscription identity changed on update",
				zap.String("existing_subscription_id", req.ExistingSubscriptionID),
				zap.String("returned_subscription_id", subscriptionID),
			)
			return subscriptiondomain.Failure("subscription identity changed on update")
		}
	}
	if subscriptionID == "" {
		log.Error("subscription service acknowledged without an id")
		return subscriptiondomain.Failure(genericFailureMessage)
	}

	log.Info("subscription saved", zap.String("subscription_id", subscriptionID))
	outcome := subscriptiondomain.Success(subscriptionID, action)
	outcome.RefreshCustomer = req.CustomerID
	return outcome
}

func normalizeRequest(req subscriptiondomain.SubmissionRequest) subscriptiondomain.SubmissionRequest {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.PlanID = strings.TrimSpace(req.PlanID)
	req.ExistingSubscriptionID = strings.TrimSpace(req.ExistingSubscriptionID)
	req.Name = strings.TrimSpace(req.Name)
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	return req
}

func validateRequest(req subscriptiondomain.SubmissionRequest) error {
	if req.CustomerID == "" {
		return subscriptiondomain.ErrInvalidCustomer
	}
	if req.PlanID == "" {
		return subscriptiondomain.ErrInvalidPlan
	}
	if _, err := subscriptiondomain.ParseBillingTimeMode(string(req.BillingTimeMode)); err != nil {
		return err
	}
	return nil
}
