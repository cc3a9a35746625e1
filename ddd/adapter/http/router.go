package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"encoding-service/pkg/config"
	"encoding-service/pkg/middleware"
)

// SetupEngine 创建并配置gin引擎：通用中间件与健康检查。
// 业务路由由各控制器通过manager挂载。
func SetupEngine() *gin.Engine {
	if cfg := config.GetGlobalConfig(); cfg != nil && cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestContextMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "encoding-service",
		})
	})

	return engine
}
