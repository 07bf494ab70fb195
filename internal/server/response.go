package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondStatus(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}
