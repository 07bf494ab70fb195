package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

// idempotencyKey returns the caller's key, minting one when absent. The key
// is echoed back so a client can retry with it.
func idempotencyKey(c *gin.Context) string {
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if key == "" {
		key = uuid.NewString()
	}
	c.Header(idempotencyHeader, key)
	return key
}
