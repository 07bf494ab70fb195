package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Backend   string            `json:"backend"`
	Checks    map[string]string `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Backend:   s.cfg.Backend,
		Checks:    map[string]string{},
		CheckedAt: s.clock.Now(ctx),
	}

	if s.db != nil {
		resp.Checks["database"] = "ok"
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			s.log.Warn("database health check failed", zap.Error(err))
			resp.Checks["database"] = "unavailable"
			resp.Status = "degraded"
		}
	}

	if s.redis != nil {
		resp.Checks["redis"] = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.log.Warn("redis health check failed", zap.Error(err))
			resp.Checks["redis"] = "unavailable"
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
