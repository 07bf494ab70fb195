package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/subscribe/internal/clock"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	codeCustomerNotFound     = "customer_not_found"
	codePlanNotFound         = "plan_not_found"
	codeSubscriptionNotFound = "subscription_not_found"
	codeIdempotencyKeyReused = "idempotency_key_reused"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	PlanRepo         plandomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
}

// Backend serves the plan catalog and subscription upserts from the
// service's own database.
type Backend struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	planRepo         plandomain.Repository
	subscriptionRepo subscriptiondomain.Repository
}

func New(p Params) *Backend {
	return &Backend{
		db:               p.DB,
		log:              p.Log.Named("providers.local"),
		genID:            p.GenID,
		clock:            p.Clock,
		planRepo:         p.PlanRepo,
		subscriptionRepo: p.SubscriptionRepo,
	}
}

func (b *Backend) FetchPlans(ctx context.Context, page, limit int) (plandomain.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 100
	}

	items, total, err := b.planRepo.List(ctx, b.db, page, limit)
	if err != nil {
		return plandomain.Page{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages == 0 {
		totalPages = 1
	}
	if items == nil {
		items = []plandomain.Plan{}
	}
	return plandomain.Page{
		Collection:  items,
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

func (b *Backend) Upsert(ctx context.Context, req subscriptiondomain.SubmissionRequest) (subscriptiondomain.UpsertResult, error) {
	var result subscriptiondomain.UpsertResult
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = b.upsertTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return subscriptiondomain.UpsertResult{}, fmt.Errorf("local upsert: %w", err)
	}
	return result, nil
}

func (b *Backend) upsertTx(ctx context.Context, tx *gorm.DB, req subscriptiondomain.SubmissionRequest) (subscriptiondomain.UpsertResult, error) {
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		existing, err := b.subscriptionRepo.FindByIdempotencyKey(ctx, tx, key)
		if err != nil {
			return subscriptiondomain.UpsertResult{}, err
		}
		if existing != nil {
			if !replays(existing, req) {
				b.log.Warn("idempotency key reused for a different submission",
					zap.String("subscription_id", existing.ID),
					zap.String("customer_id", req.CustomerID),
				)
				return rejected(codeIdempotencyKeyReused, "Idempotency key already used for another subscription"), nil
			}
			return subscriptiondomain.UpsertResult{SubscriptionID: existing.ID}, nil
		}
	}

	customer, err := b.subscriptionRepo.FindCustomer(ctx, tx, req.CustomerID)
	if err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}
	if customer == nil {
		return rejected(codeCustomerNotFound, "Customer not found"), nil
	}

	plan, err := b.planRepo.FindByID(ctx, tx, req.PlanID)
	if err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}
	if plan == nil {
		return rejected(codePlanNotFound, "Plan not found"), nil
	}

	if customer.Currency != nil && *customer.Currency != "" && *customer.Currency != plan.AmountCurrency {
		b.log.Info("customer currency does not match plan",
			zap.String("customer_id", customer.ID),
			zap.String("customer_currency", *customer.Currency),
			zap.String("plan_currency", plan.AmountCurrency),
		)
		return rejected(subscriptiondomain.CodeCurrenciesDoesNotMatch, "Currencies does not match"), nil
	}
	if customer.Currency == nil || *customer.Currency == "" {
		if err := b.subscriptionRepo.SetCustomerCurrency(ctx, tx, customer.ID, plan.AmountCurrency); err != nil {
			return subscriptiondomain.UpsertResult{}, err
		}
	}

	if req.IsUpdate() {
		return b.update(ctx, tx, req, plan)
	}
	return b.create(ctx, tx, req, plan)
}

func (b *Backend) create(ctx context.Context, tx *gorm.DB, req subscriptiondomain.SubmissionRequest, plan *plandomain.Plan) (subscriptiondomain.UpsertResult, error) {
	now := b.clock.Now(ctx)
	subscriptionAt := now
	if req.SubscriptionAt != nil {
		subscriptionAt = req.SubscriptionAt.UTC()
	}

	subscription := &subscriptiondomain.Subscription{
		ID:              b.genID.Generate().String(),
		CustomerID:      req.CustomerID,
		PlanID:          plan.ID,
		BillingTimeMode: req.BillingTimeMode,
		Name:            optionalString(req.Name),
		ExternalID:      optionalString(req.ExternalID),
		IdempotencyKey:  optionalString(req.IdempotencyKey),
		Currency:        plan.AmountCurrency,
		SubscriptionAt:  subscriptionAt,
		Metadata:        datatypes.JSONMap{"plan_code": plan.Code},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := b.subscriptionRepo.Insert(ctx, tx, subscription); err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}
	return subscriptiondomain.UpsertResult{SubscriptionID: subscription.ID}, nil
}

func (b *Backend) update(ctx context.Context, tx *gorm.DB, req subscriptiondomain.SubmissionRequest, plan *plandomain.Plan) (subscriptiondomain.UpsertResult, error) {
	subscription, err := b.subscriptionRepo.FindByID(ctx, tx, req.ExistingSubscriptionID)
	if err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}
	if subscription == nil || subscription.CustomerID != req.CustomerID {
		return rejected(codeSubscriptionNotFound, "Subscription not found"), nil
	}

	subscription.PlanID = plan.ID
	subscription.BillingTimeMode = req.BillingTimeMode
	subscription.Currency = plan.AmountCurrency
	if name := optionalString(req.Name); name != nil {
		subscription.Name = name
	}
	if externalID := optionalString(req.ExternalID); externalID != nil {
		subscription.ExternalID = externalID
	}
	if req.SubscriptionAt != nil {
		subscription.SubscriptionAt = req.SubscriptionAt.UTC()
	}
	if subscription.Metadata == nil {
		subscription.Metadata = datatypes.JSONMap{}
	}
	subscription.Metadata["plan_code"] = plan.Code
	subscription.UpdatedAt = b.clock.Now(ctx)

	if err := b.subscriptionRepo.Update(ctx, tx, subscription); err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}
	return subscriptiondomain.UpsertResult{SubscriptionID: subscription.ID}, nil
}

// replays reports whether req is a retry of the submission that stored
// existing: same customer, and for updates the same subscription.
func replays(existing *subscriptiondomain.Subscription, req subscriptiondomain.SubmissionRequest) bool {
	if existing.CustomerID != req.CustomerID {
		return false
	}
	if req.IsUpdate() && existing.ID != strings.TrimSpace(req.ExistingSubscriptionID) {
		return false
	}
	return true
}

func rejected(code, message string) subscriptiondomain.UpsertResult {
	return subscriptiondomain.UpsertResult{
		Errors: []subscriptiondomain.ErrorEntry{{Code: code, Message: message}},
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
