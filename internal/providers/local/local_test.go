package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/subscribe/internal/clock"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	planrepository "github.com/railzwaylabs/subscribe/internal/plan/repository"
	"github.com/railzwaylabs/subscribe/internal/providers/local"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	subscriptionrepository "github.com/railzwaylabs/subscribe/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

func setupBackend(t *testing.T) (*local.Backend, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&plandomain.Plan{},
		&subscriptiondomain.Customer{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	backend := local.New(local.Params{
		DB:               db,
		Log:              zap.NewNop(),
		GenID:            node,
		Clock:            clock.SystemClock{},
		PlanRepo:         planrepository.Provide(),
		SubscriptionRepo: subscriptionrepository.Provide(),
	})
	return backend, db
}

func seedPlan(t *testing.T, db *gorm.DB, id, code, currency string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, planrepository.Provide().Insert(context.Background(), db, &plandomain.Plan{
		ID:             id,
		Name:           code,
		Code:           code,
		Interval:       plandomain.IntervalMonthly,
		AmountCents:    1000,
		AmountCurrency: currency,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}))
}

func seedCustomer(t *testing.T, db *gorm.DB, id string, currency *string) {
	t.Helper()
	require.NoError(t, db.Create(&subscriptiondomain.Customer{ID: id, Name: id, Currency: currency, CreatedAt: fixedNow}).Error)
}

func strPtr(v string) *string { return &v }

func TestFetchPlans_Pages(t *testing.T) {
	backend, db := setupBackend(t)
	for i, code := range []string{"a", "b", "c"} {
		seedPlan(t, db, "plan_"+code, code, "USD", fixedNow.Add(time.Duration(i)*time.Minute))
	}

	page, err := backend.FetchPlans(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasMore())
	require.Len(t, page.Collection, 2)
	assert.Equal(t, "plan_a", page.Collection[0].ID)

	page, err = backend.FetchPlans(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.False(t, page.HasMore())
	require.Len(t, page.Collection, 1)
	assert.Equal(t, "plan_c", page.Collection[0].ID)
}

func TestFetchPlans_Empty(t *testing.T) {
	backend, _ := setupBackend(t)

	page, err := backend.FetchPlans(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Collection)
	assert.False(t, page.HasMore())
}

func TestUpsert_CreateAssignsCurrency(t *testing.T) {
	backend, db := setupBackend(t)
	seedPlan(t, db, "plan_usd", "usd", "USD", fixedNow)
	seedCustomer(t, db, "cus_1", nil)

	ctx := context.Background()
	result, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_1",
		PlanID:          "plan_usd",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
		Name:            "Main",
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.NotEmpty(t, result.SubscriptionID)

	repo := subscriptionrepository.Provide()
	customer, err := repo.FindCustomer(ctx, db, "cus_1")
	require.NoError(t, err)
	require.NotNil(t, customer.Currency)
	assert.Equal(t, "USD", *customer.Currency)

	stored, err := repo.FindByID(ctx, db, result.SubscriptionID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, subscriptiondomain.BillingTimeCalendar, stored.BillingTimeMode)
	assert.Equal(t, "USD", stored.Currency)
	require.NotNil(t, stored.Name)
	assert.Equal(t, "Main", *stored.Name)

	replay, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_1",
		PlanID:          "plan_usd",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, result.SubscriptionID, replay.SubscriptionID)

	items, err := repo.ListByCustomer(ctx, db, "cus_1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpsert_CurrencyMismatch(t *testing.T) {
	backend, db := setupBackend(t)
	seedPlan(t, db, "plan_eur", "eur", "EUR", fixedNow)
	seedCustomer(t, db, "cus_1", strPtr("USD"))

	result, err := backend.Upsert(context.Background(), subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_1",
		PlanID:          "plan_eur",
		BillingTimeMode: subscriptiondomain.BillingTimeAnniversary,
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, subscriptiondomain.CodeCurrenciesDoesNotMatch, result.Errors[0].Code)
	assert.Empty(t, result.SubscriptionID)
}

func TestUpsert_UpdateKeepsID(t *testing.T) {
	backend, db := setupBackend(t)
	seedPlan(t, db, "plan_a", "a", "USD", fixedNow)
	seedPlan(t, db, "plan_b", "b", "USD", fixedNow.Add(time.Minute))
	seedCustomer(t, db, "cus_1", strPtr("USD"))

	ctx := context.Background()
	created, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_1",
		PlanID:          "plan_a",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
	})
	require.NoError(t, err)

	updated, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:             "cus_1",
		PlanID:                 "plan_b",
		BillingTimeMode:        subscriptiondomain.BillingTimeAnniversary,
		ExistingSubscriptionID: created.SubscriptionID,
	})
	require.NoError(t, err)
	require.Empty(t, updated.Errors)
	assert.Equal(t, created.SubscriptionID, updated.SubscriptionID)

	stored, err := subscriptionrepository.Provide().FindByID(ctx, db, created.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, "plan_b", stored.PlanID)
	assert.Equal(t, subscriptiondomain.BillingTimeAnniversary, stored.BillingTimeMode)
	assert.Equal(t, "b", stored.Metadata["plan_code"])
}

func TestUpsert_Rejections(t *testing.T) {
	backend, db := setupBackend(t)
	seedPlan(t, db, "plan_a", "a", "USD", fixedNow)
	seedCustomer(t, db, "cus_1", nil)
	seedCustomer(t, db, "cus_2", nil)

	cases := []struct {
		name string
		req  subscriptiondomain.SubmissionRequest
		code string
	}{
		{
			name: "unknown customer",
			req:  subscriptiondomain.SubmissionRequest{CustomerID: "cus_x", PlanID: "plan_a"},
			code: "customer_not_found",
		},
		{
			name: "unknown plan",
			req:  subscriptiondomain.SubmissionRequest{CustomerID: "cus_1", PlanID: "plan_x"},
			code: "plan_not_found",
		},
		{
			name: "unknown subscription",
			req:  subscriptiondomain.SubmissionRequest{CustomerID: "cus_2", PlanID: "plan_a", ExistingSubscriptionID: "sub_x"},
			code: "subscription_not_found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.BillingTimeMode = subscriptiondomain.BillingTimeCalendar
			result, err := backend.Upsert(context.Background(), tc.req)
			require.NoError(t, err)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tc.code, result.Errors[0].Code)
		})
	}
}

func TestUpsert_IdempotencyKeyBoundToSubmission(t *testing.T) {
	backend, db := setupBackend(t)
	seedPlan(t, db, "plan_usd", "usd", "USD", fixedNow)
	seedPlan(t, db, "plan_eur", "eur", "EUR", fixedNow.Add(time.Minute))
	seedCustomer(t, db, "cus_a", nil)
	seedCustomer(t, db, "cus_b", strPtr("USD"))

	ctx := context.Background()
	first, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_a",
		PlanID:          "plan_usd",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
		IdempotencyKey:  "k1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.SubscriptionID)

	other, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_b",
		PlanID:          "plan_eur",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
		IdempotencyKey:  "k1",
	})
	require.NoError(t, err)
	assert.Empty(t, other.SubscriptionID)
	require.Len(t, other.Errors, 1)
	assert.Equal(t, "idempotency_key_reused", other.Errors[0].Code)

	seedPlan(t, db, "plan_usd_2", "usd-2", "USD", fixedNow.Add(2*time.Minute))
	second, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:      "cus_a",
		PlanID:          "plan_usd_2",
		BillingTimeMode: subscriptiondomain.BillingTimeCalendar,
		IdempotencyKey:  "k2",
	})
	require.NoError(t, err)

	wrongTarget, err := backend.Upsert(ctx, subscriptiondomain.SubmissionRequest{
		CustomerID:             "cus_a",
		PlanID:                 "plan_usd",
		BillingTimeMode:        subscriptiondomain.BillingTimeCalendar,
		ExistingSubscriptionID: second.SubscriptionID,
		IdempotencyKey:         "k1",
	})
	require.NoError(t, err)
	require.Len(t, wrongTarget.Errors, 1)
	assert.Equal(t, "idempotency_key_reused", wrongTarget.Errors[0].Code)

	items, err := subscriptionrepository.Provide().ListByCustomer(ctx, db, "cus_b")
	require.NoError(t, err)
	assert.Empty(t, items)
}
