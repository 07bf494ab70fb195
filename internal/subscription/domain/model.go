package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type BillingTimeMode string

const (
	BillingTimeCalendar    BillingTimeMode = "calendar"
	BillingTimeAnniversary BillingTimeMode = "anniversary"
)

func ParseBillingTimeMode(value string) (BillingTimeMode, error) {
	switch BillingTimeMode(strings.ToLower(strings.TrimSpace(value))) {
	case BillingTimeCalendar:
		return BillingTimeCalendar, nil
	case BillingTimeAnniversary:
		return BillingTimeAnniversary, nil
	default:
		return "", ErrInvalidBillingTime
	}
}

// ExistingSubscription is owned by the caller and never mutated here.
type ExistingSubscription struct {
	SubscriptionID string `json:"subscription_id"`
	ExistingPlanID string `json:"existing_plan_id"`
}

// SubmissionRequest is built once per submit action.
type SubmissionRequest struct {
	CustomerID             string          `json:"customer_id"`
	PlanID                 string          `json:"plan_id"`
	BillingTimeMode        BillingTimeMode `json:"billing_time"`
	ExistingSubscriptionID string          `json:"subscription_id,omitempty"`
	Name                   string          `json:"name,omitempty"`
	ExternalID             string          `json:"external_id,omitempty"`
	SubscriptionAt         *time.Time      `json:"subscription_at,omitempty"`
	IdempotencyKey         string          `json:"-"`
}

func (r SubmissionRequest) IsUpdate() bool {
	return strings.TrimSpace(r.ExistingSubscriptionID) != ""
}

// WithExisting copies the existing subscription reference into the request.
func (r SubmissionRequest) WithExisting(existing *ExistingSubscription) SubmissionRequest {
	if existing != nil {
		r.ExistingSubscriptionID = existing.SubscriptionID
	}
	return r
}

// ErrorEntry is one structured error returned by the subscription service.
type ErrorEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpsertResult carries either the acknowledged subscription ID or the
// business errors returned by the service.
type UpsertResult struct {
	SubscriptionID string
	Errors         []ErrorEntry
}

// Subscription and Customer back the local catalog service.
type Subscription struct {
	ID              string            `gorm:"primaryKey;column:id;size:64"`
	CustomerID      string            `gorm:"column:customer_id;size:64;index"`
	PlanID          string            `gorm:"column:plan_id"`
	BillingTimeMode BillingTimeMode   `gorm:"column:billing_time"`
	Name            *string           `gorm:"column:name"`
	ExternalID      *string           `gorm:"column:external_id"`
	IdempotencyKey  *string           `gorm:"column:idempotency_key;size:191;uniqueIndex"`
	Currency        string            `gorm:"column:currency"`
	SubscriptionAt  time.Time         `gorm:"column:subscription_at"`
	Metadata        datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type Customer struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Name      string    `gorm:"column:name"`
	Currency  *string   `gorm:"column:currency"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Customer) TableName() string {
	return "customers"
}
