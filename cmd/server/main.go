package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ojt-report/backend/config"
	"ojt-report/backend/internal/api/handler"
	"ojt-report/backend/internal/api/router"
	"ojt-report/backend/internal/repository"
	"ojt-report/backend/internal/scheduler"
	"ojt-report/backend/internal/service"
	"ojt-report/backend/pkg/clock"
	"ojt-report/backend/pkg/database"
	"ojt-report/backend/pkg/jwt"
	applogger "ojt-report/backend/pkg/logger"
	"ojt-report/backend/pkg/metrics"
	"ojt-report/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("OJT_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("scheduler_timezone", cfg.Scheduler.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
		rdb = nil
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	// 5. 初始化 JWT 管理器与指标
	jwtMgr := jwt.NewManager(&cfg.Auth)
	m := metrics.New()
	clk := clock.Real{}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, clk, m, logger)
	h := handler.NewHandler(svc)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	state, err := svc.WeekCycle.LoadLoopState(bootCtx)
	bootCancel()
	if err != nil {
		logger.Fatal("读取周循环状态失败", zap.Error(err))
	}
	m.SetLoopActive(state.Active)

	// 7. 周循环定时任务
	var cycleCron *scheduler.WeekCycleCron
	if cfg.Scheduler.Enabled {
		cycleCron, err = scheduler.NewWeekCycleCron(&cfg.Scheduler, svc.WeekCycle, clk, logger)
		if err != nil {
			logger.Fatal("初始化周循环定时任务失败", zap.Error(err))
		}
		// 启动时补跑一次，覆盖停机期间错过的触发
		cycleCron.RunOnce(context.Background())
		cycleCron.Start()
	} else {
		logger.Info("周循环定时任务已禁用")
	}

	// 8. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     jwtMgr,
		Redis:   rdb,
		Metrics: m,
		DB:      repo,
		Logger:  logger,
	})

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cycleCron != nil {
		cycleCron.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
