package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/railzwaylabs/subscribe/internal/clock"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreatorParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    plandomain.Repository
	Catalog plandomain.Service
}

// Creator adds plans to the local catalog.
type Creator struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    plandomain.Repository
	catalog plandomain.Service
}

func NewCreator(p CreatorParam) *Creator {
	return &Creator{
		db:      p.DB,
		log:     p.Log.Named("plan.creator"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

func (c *Creator) Create(ctx context.Context, req plandomain.CreateRequest) (*plandomain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, plandomain.ErrInvalidName
	}

	interval, err := plandomain.ParseInterval(req.Interval)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.AmountCurrency))
	if len(currency) != 3 {
		return nil, plandomain.ErrInvalidCurrency
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = slug.Make(name)
	}

	now := c.clock.Now(ctx)
	plan := &plandomain.Plan{
		ID:             c.genID.Generate().String(),
		Name:           name,
		Code:           code,
		Interval:       interval,
		AmountCents:    req.AmountCents,
		AmountCurrency: currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.repo.Insert(ctx, c.db, plan); err != nil {
		return nil, err
	}

	if c.catalog != nil {
		if err := c.catalog.Invalidate(ctx); err != nil {
			c.log.Warn("plan catalog invalidation failed", zap.Error(err))
		}
	}

	c.log.Info("plan created", zap.String("plan_id", plan.ID), zap.String("code", plan.Code))
	return plan, nil
}
