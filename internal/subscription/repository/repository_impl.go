package repository

import (
	"context"

	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, customer_id, plan_id, billing_time, name, external_id,
	idempotency_key, currency, subscription_at, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, customer_id, plan_id, billing_time, name, external_id,
			idempotency_key, currency, subscription_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.CustomerID,
		s.PlanID,
		s.BillingTimeMode,
		s.Name,
		s.ExternalID,
		s.IdempotencyKey,
		s.Currency,
		s.SubscriptionAt,
		s.Metadata,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET plan_id = ?, billing_time = ?, name = ?, external_id = ?,
		     currency = ?, subscription_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		s.PlanID,
		s.BillingTimeMode,
		s.Name,
		s.ExternalID,
		s.Currency,
		s.SubscriptionAt,
		s.Metadata,
		s.UpdatedAt,
		s.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return subscriptiondomain.ErrSubscriptionMissing
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*subscriptiondomain.Subscription, error) {
	var s subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*subscriptiondomain.Subscription, error) {
	var s subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE idempotency_key = ? LIMIT 1`,
		key,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID string) ([]subscriptiondomain.Subscription, error) {
	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE customer_id = ?
		 ORDER BY created_at ASC, id ASC`,
		customerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, id string) (*subscriptiondomain.Customer, error) {
	var c subscriptiondomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, currency, created_at FROM customers WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) SetCustomerCurrency(ctx context.Context, db *gorm.DB, id, currency string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET currency = ? WHERE id = ? AND currency IS NULL`,
		currency,
		id,
	).Error
}
