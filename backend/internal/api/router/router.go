package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liberal-checkin/backend/config"
	"liberal-checkin/backend/internal/api/handler"
	"liberal-checkin/backend/internal/api/middleware"
	"liberal-checkin/backend/pkg/jwt"
	"liberal-checkin/backend/pkg/redis"
	"liberal-checkin/backend/web"
)

const adminRole = "admin"

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流与 Token 黑名单降级为不生效
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("server.trusted_proxies 无效: %w", err)
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var checkInLimit, loginLimit gin.HandlerFunc = passThrough, passThrough
	if cfg.RateLimit.Enabled {
		checkInLimit = middleware.RateLimit(rdb, cfg.RateLimit.CheckInLimit, cfg.RateLimit.Window)
		loginLimit = middleware.RateLimit(rdb, cfg.RateLimit.LoginLimit, cfg.RateLimit.Window)
	}

	api := r.Group("/api")
	{
		// 登记（自助终端，无需认证）
		api.POST("/checkin", checkInLimit, h.CheckIn.Create)

		// 管理端路由：认证开启时需要管理员 Token
		admin := api.Group("")
		if cfg.Auth.Enabled && h.Auth != nil {
			auth := api.Group("/auth")
			{
				auth.POST("/login", loginLimit, h.Auth.Login)
				auth.POST("/logout", middleware.JWTAuth(jwtMgr, rdb), h.Auth.Logout)
			}
			admin.Use(middleware.JWTAuth(jwtMgr, rdb), middleware.RoleAuth(adminRole))
		}
		{
			admin.GET("/checkins", h.CheckIn.List)
			admin.POST("/checkins/clear", h.CheckIn.Clear)
			admin.GET("/checkins/export", h.Export.ExportCheckIns)
		}
	}

	// ── 自助页面（内嵌静态资源） ──
	if err := web.Register(r); err != nil {
		return nil, err
	}

	return r, nil
}

func passThrough(c *gin.Context) { c.Next() }
