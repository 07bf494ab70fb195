package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/railzwaylabs/subscribe/internal/clock"
	"github.com/railzwaylabs/subscribe/internal/config"
	"github.com/railzwaylabs/subscribe/internal/observability"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	planservice "github.com/railzwaylabs/subscribe/internal/plan/service"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	subscriptionservice "github.com/railzwaylabs/subscribe/internal/subscription/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	formCacheSize = 4096
	formCacheTTL  = 15 * time.Minute
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RegisterLifecycle),
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Clock     clock.Clock
	Plans     plandomain.Service
	Submitter subscriptiondomain.Submitter
	Metrics   *observability.Metrics `optional:"true"`
	Creator   *planservice.Creator   `optional:"true"`
	DB        *gorm.DB               `optional:"true"`
	Redis     *redis.Client          `optional:"true"`
}

type Server struct {
	cfg       config.Config
	log       *zap.Logger
	clock     clock.Clock
	plans     plandomain.Service
	submitter subscriptiondomain.Submitter
	metrics   *observability.Metrics
	creator   *planservice.Creator
	db        *gorm.DB
	redis     *redis.Client

	formsMu sync.Mutex
	forms   *expirable.LRU[string, *subscriptionservice.Form]

	engine *gin.Engine
}

func NewServer(p Params) *Server {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Evicted forms are disposed so a late result is never recorded.
	forms := expirable.NewLRU(formCacheSize, func(_ string, form *subscriptionservice.Form) {
		form.Dispose()
	}, formCacheTTL)

	s := &Server{
		cfg:       p.Config,
		log:       p.Log.Named("server"),
		clock:     p.Clock,
		plans:     p.Plans,
		submitter: p.Submitter,
		metrics:   p.Metrics,
		creator:   p.Creator,
		db:        p.DB,
		redis:     p.Redis,
		forms:     forms,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/plans", s.ListPlanOptions)
	v1.GET("/plans/:id/billing-anchor", s.GetBillingAnchor)
	if s.creator != nil {
		v1.POST("/plans", s.CreatePlan)
	}
	v1.POST("/subscriptions", s.SubmitSubscription)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Error("request failed", fields...)
			return
		}
		s.log.Debug("request served", fields...)
	}
}

func RegisterLifecycle(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			s.log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
