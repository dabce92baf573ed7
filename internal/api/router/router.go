package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ojt-report/backend/config"
	"ojt-report/backend/internal/api/handler"
	"ojt-report/backend/internal/api/middleware"
	"ojt-report/backend/internal/model"
	"ojt-report/backend/pkg/jwt"
	"ojt-report/backend/pkg/metrics"
	"ojt-report/backend/pkg/redis"
)

// Pinger 健康检查依赖（数据库）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps 路由装配所需依赖；Redis、Metrics 可为 nil
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Redis   *redis.Client
	Metrics *metrics.Metrics
	DB      Pinger
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	r := gin.New()
	h := d.Handler

	// nil *redis.Client 不能直接当接口传入
	var (
		blacklist middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if d.Redis != nil {
		blacklist = d.Redis
		limiter = d.Redis
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders(d.Config.Server.HSTSMaxAge))
	r.Use(middleware.CORS(&d.Config.Server.CORS))
	r.Use(middleware.BodyLimit(d.Config.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── 指标 ──
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(limiter, d.Config.Auth.LoginRateLimit, time.Minute), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 周循环模块
			cycle := authorized.Group("/week-cycle")
			{
				cycle.GET("", h.WeekCycle.GetCycleView) // 学生只看到自己（Service 层过滤）
				cycle.GET("/state", h.WeekCycle.GetState)
				cycle.GET("/weeks", h.WeekCycle.ListWeeks)
				cycle.POST("/start", middleware.RoleAuth(model.RoleAdmin), h.WeekCycle.Start)
				cycle.POST("/stop", middleware.RoleAuth(model.RoleAdmin), h.WeekCycle.Stop)
				cycle.POST("/advance", middleware.RoleAuth(model.RoleAdmin), h.WeekCycle.Advance)
			}

			// 周报模块
			reports := authorized.Group("/weekly-reports")
			{
				reports.POST("", middleware.RoleAuth(model.RoleStudent), h.WeeklyReport.Submit)
				reports.GET("/me", middleware.RoleAuth(model.RoleStudent), h.WeeklyReport.ListMine)
				reports.GET("", middleware.RoleAuth(model.RoleAdmin), h.WeeklyReport.ListByWeek)
			}
		}
	}

	return r
}
