package repository

import (
	"context"

	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *plandomain.Plan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plans (
			id, name, code, billing_interval, amount_cents, amount_currency, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Code,
		p.Interval,
		p.AmountCents,
		p.AmountCurrency,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*plandomain.Plan, error) {
	var p plandomain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, billing_interval, amount_cents, amount_currency, created_at, updated_at
		 FROM plans WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}

// List returns one 1-based page ordered by creation, plus the total count.
func (r *repo) List(ctx context.Context, db *gorm.DB, page, limit int) ([]plandomain.Plan, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM plans`).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []plandomain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, billing_interval, amount_cents, amount_currency, created_at, updated_at
		 FROM plans
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		(page-1)*limit,
	).Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
