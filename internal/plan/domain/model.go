package domain

import (
	"strings"
	"time"
)

type Interval string

const (
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// ParseInterval accepts the catalog spelling in any case.
func ParseInterval(value string) (Interval, error) {
	switch Interval(strings.ToLower(strings.TrimSpace(value))) {
	case IntervalWeekly:
		return IntervalWeekly, nil
	case IntervalMonthly:
		return IntervalMonthly, nil
	case IntervalYearly:
		return IntervalYearly, nil
	default:
		return "", ErrInvalidInterval
	}
}

// Plan is read-only to this module; it mirrors a catalog entry.
type Plan struct {
	ID             string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	Name           string    `gorm:"column:name" json:"name"`
	Code           string    `gorm:"column:code;size:191;uniqueIndex" json:"code"`
	Interval       Interval  `gorm:"column:billing_interval" json:"interval"`
	AmountCents    int64     `gorm:"column:amount_cents" json:"amount_cents"`
	AmountCurrency string    `gorm:"column:amount_currency" json:"amount_currency"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// Page is one slice of a paged catalog fetch.
type Page struct {
	Collection  []Plan `json:"collection"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
}

func (p Page) HasMore() bool {
	return p.CurrentPage > 0 && p.CurrentPage < p.TotalPages
}
