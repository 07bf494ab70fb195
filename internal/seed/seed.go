package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/railzwaylabs/subscribe/internal/clock"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DemoCustomerID   = "cus_demo"
	demoCustomerName = "Demo Customer"
)

type demoPlan struct {
	name        string
	interval    plandomain.Interval
	amountCents int64
	currency    string
}

var demoPlans = []demoPlan{
	{name: "Starter Weekly", interval: plandomain.IntervalWeekly, amountCents: 900, currency: "USD"},
	{name: "Team Monthly", interval: plandomain.IntervalMonthly, amountCents: 4900, currency: "USD"},
	{name: "Business Yearly", interval: plandomain.IntervalYearly, amountCents: 49000, currency: "USD"},
	{name: "Europe Monthly", interval: plandomain.IntervalMonthly, amountCents: 4500, currency: "EUR"},
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Seeder fills an empty local catalog with a demo customer and plans.
type Seeder struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) *Seeder {
	return &Seeder{
		db:    p.DB,
		log:   p.Log.Named("seed"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// EnsureDemoCatalog is safe to run repeatedly; rows are matched by
// customer ID and plan code.
func (s *Seeder) EnsureDemoCatalog(ctx context.Context) error {
	if s.db == nil {
		return errors.New("seed database handle is required")
	}

	now := s.clock.Now(ctx)
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCustomer(ctx, tx, now); err != nil {
			return err
		}
		for _, item := range demoPlans {
			inserted, err := s.ensurePlan(ctx, tx, item, now)
			if err != nil {
				return err
			}
			if inserted {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("demo catalog ready", zap.String("customer_id", DemoCustomerID), zap.Int("plans_created", created))
	return nil
}

func ensureCustomer(ctx context.Context, tx *gorm.DB, now time.Time) error {
	var customer subscriptiondomain.Customer
	err := tx.WithContext(ctx).Where("id = ?", DemoCustomerID).First(&customer).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	customer = subscriptiondomain.Customer{
		ID:        DemoCustomerID,
		Name:      demoCustomerName,
		CreatedAt: now,
	}
	return tx.WithContext(ctx).Create(&customer).Error
}

func (s *Seeder) ensurePlan(ctx context.Context, tx *gorm.DB, item demoPlan, now time.Time) (bool, error) {
	code := slug.Make(item.name)

	var plan plandomain.Plan
	err := tx.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	plan = plandomain.Plan{
		ID:             s.genID.Generate().String(),
		Name:           item.name,
		Code:           code,
		Interval:       item.interval,
		AmountCents:    item.amountCents,
		AmountCurrency: item.currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
		return false, err
	}
	return true, nil
}
