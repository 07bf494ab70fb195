package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/railzwaylabs/subscribe/internal/config"
	"github.com/railzwaylabs/subscribe/internal/observability"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheKey  = "subscribe:plans:catalog"
	defaultPageLimit = 100
)

var tracer = otel.Tracer("subscribe/plan/service")

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Source  plandomain.Source
	Redis   *redis.Client          `optional:"true"`
	Metrics *observability.Metrics `optional:"true"`
}

// Catalog serves the full plan list. Concurrent loads share one fetch;
// when Redis is configured the assembled list is cached for CacheTTL.
type Catalog struct {
	log     *zap.Logger
	source  plandomain.Source
	redis   *redis.Client
	metrics *observability.Metrics

	pageLimit int
	ttl       time.Duration

	group singleflight.Group
}

func NewService(p ServiceParam) plandomain.Service {
	return New(p)
}

func New(p ServiceParam) *Catalog {
	pageLimit := p.Config.Catalog.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	return &Catalog{
		log:       p.Log.Named("plan.service"),
		source:    p.Source,
		redis:     p.Redis,
		metrics:   p.Metrics,
		pageLimit: pageLimit,
		ttl:       p.Config.Catalog.CacheTTL,
	}
}

func (s *Catalog) Load(ctx context.Context) ([]plandomain.Plan, error) {
	result, err, shared := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("plan catalog load shared")
	}
	plans := result.([]plandomain.Plan)

	out := make([]plandomain.Plan, len(plans))
	copy(out, plans)
	return out, nil
}

func (s *Catalog) Resolve(ctx context.Context, planID string) (plandomain.Plan, error) {
	plans, err := s.Load(ctx)
	if err != nil {
		return plandomain.Plan{}, err
	}
	plan, ok := plandomain.Resolve(planID, plans)
	if !ok {
		return plandomain.Plan{}, plandomain.ErrNotFound
	}
	return plan, nil
}

func (s *Catalog) Options(ctx context.Context, existing *plandomain.ExistingPlan) ([]plandomain.Option, error) {
	plans, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return plandomain.Options(plans, existing), nil
}

func (s *Catalog) Invalidate(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, catalogCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate plan catalog: %w", err)
	}
	return nil
}

func (s *Catalog) load(ctx context.Context) ([]plandomain.Plan, error) {
	ctx, span := tracer.Start(ctx, "plan.catalog.load")
	defer span.End()

	if plans, ok := s.readCache(ctx); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return plans, nil
	}

	start := time.Now()
	plans, err := s.fetchAll(ctx)
	s.metrics.ObserveCatalogFetch(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error("failed to fetch plan catalog", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("plans", len(plans)))
	s.writeCache(ctx, plans)
	return plans, nil
}

// fetchAll walks every page of the source in order.
func (s *Catalog) fetchAll(ctx context.Context) ([]plandomain.Plan, error) {
	plans := make([]plandomain.Plan, 0)
	for page := 1; ; page++ {
		result, err := s.source.FetchPlans(ctx, page, s.pageLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch plans page %d: %w", page, err)
		}
		plans = append(plans, result.Collection...)
		if !result.HasMore() || result.CurrentPage < page {
			break
		}
	}
	return plans, nil
}

func (s *Catalog) readCache(ctx context.Context) ([]plandomain.Plan, bool) {
	if s.redis == nil {
		return nil, false
	}

	raw, err := s.redis.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("plan catalog cache read failed", zap.Error(err))
			s.metrics.ObserveCatalogCache("error")
		} else {
			s.metrics.ObserveCatalogCache("miss")
		}
		return nil, false
	}

	var plans []plandomain.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		s.log.Warn("plan catalog cache entry is corrupt", zap.Error(err))
		s.metrics.ObserveCatalogCache("error")
		return nil, false
	}
	s.metrics.ObserveCatalogCache("hit")
	return plans, true
}

func (s *Catalog) writeCache(ctx context.Context, plans []plandomain.Plan) {
	if s.redis == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(plans)
	if err != nil {
		s.log.Warn("plan catalog cache encode failed", zap.Error(err))
		return
	}
	if err := s.redis.Set(ctx, catalogCacheKey, raw, s.ttl).Err(); err != nil {
		s.log.Warn("plan catalog cache write failed", zap.Error(err))
	}
}
