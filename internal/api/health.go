package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler checks db and, when not nil, redis.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "healthy", "database": "connected"}

	if err := database.HealthCheck(ctx, h.db); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = err.Error()
	}

	if h.redis == nil {
		body["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		// Redis only backs optional features, so it degrades rather than fails.
		body["redis"] = err.Error()
		if status == http.StatusOK {
			body["status"] = "degraded"
		}
	} else {
		body["redis"] = "connected"
	}

	c.JSON(status, body)
}
