package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Source is a paged catalog, local or remote.
type Source interface {
	FetchPlans(ctx context.Context, page, limit int) (Page, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *Plan) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Plan, error)
	List(ctx context.Context, db *gorm.DB, page, limit int) ([]Plan, int64, error)
}

type Service interface {
	// Load fetches the whole catalog once; concurrent callers share the result.
	Load(ctx context.Context) ([]Plan, error)
	Resolve(ctx context.Context, planID string) (Plan, error)
	Options(ctx context.Context, existing *ExistingPlan) ([]Option, error)
	Invalidate(ctx context.Context) error
}

type CreateRequest struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Interval       string `json:"interval"`
	AmountCents    int64  `json:"amount_cents"`
	AmountCurrency string `json:"amount_currency"`
}

var (
	ErrNotFound        = errors.New("plan_not_found")
	ErrInvalidInterval = errors.New("invalid_interval")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
