package controllers

import (
	"context"
	"time"

	"github.com/aihub/answerai-go/internal/database"
)

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

// Health 检查数据库与Redis连通性
// GET /health
func (c *HealthController) Health() {
	ctx, cancel := context.WithTimeout(c.Ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status":   "ok",
		"database": "ok",
		"redis":    "ok",
	}

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			status["status"] = "degraded"
		}
	} else {
		status["database"] = "not initialized"
		status["status"] = "degraded"
	}

	if database.RedisClient != nil {
		if err := database.RedisClient.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
			status["status"] = "degraded"
		}
	} else {
		status["redis"] = "not initialized"
		status["status"] = "degraded"
	}

	c.JSONSuccess(status)
}
