package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/attendance"
	"github.com/yusuke-yano-01/Timelog/internal/audit"
	"github.com/yusuke-yano-01/Timelog/internal/auth"
	"github.com/yusuke-yano-01/Timelog/internal/config"
	"github.com/yusuke-yano-01/Timelog/internal/correction"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"
	"github.com/yusuke-yano-01/Timelog/internal/rbac/infra"
	"github.com/yusuke-yano-01/Timelog/internal/report"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"
	"github.com/yusuke-yano-01/Timelog/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()
	clk := clock.New(cfg.Location)

	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	timeRecordRepo := timerecord.NewRepository(gormDB)
	correctionRepo := correction.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	monthCache := report.NewMonthCache(rdb, cfg.ReportCacheTTL, logger)
	authService := auth.NewService(userRepo, cfg.JWTSecret, clk, logger)
	userService := user.NewService(userRepo, logger)
	attendanceService := attendance.NewService(db, timeRecordRepo, clk, monthCache, logger)
	correctionService := correction.NewService(correction.Deps{
		DB:          db,
		Records:     timeRecordRepo,
		Corrections: correctionRepo,
		Users:       userRepo,
		Outbox:      outboxRepo,
		Clock:       clk,
		Cache:       monthCache,
	}, logger)
	reportService := report.NewService(timeRecordRepo, correctionRepo, userRepo, clk, monthCache, logger)
	auditService := audit.NewService(auditRepo, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction())
	userHandler := user.NewHandler(userService, logger)
	attendanceHandler := attendance.NewHandler(attendanceService)
	correctionHandler := correction.NewHandler(correctionService, rdb)
	reportHandler := report.NewHandler(reportService)
	auditHandler := audit.NewHandler(auditService)

	// --- Middleware ---
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Idempotency-Key", "X-Request-ID", "X-Client-Type"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig), middleware.RequestID(), middleware.ContextLogger(logger))

	authMW := middleware.AuthMiddleware(cfg.JWTSecret)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW)
		user.RegisterRoutes(api, userHandler, rbacService, authMW)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService, authMW)
		correction.RegisterRoutes(api, correctionHandler, rbacService, authMW, rdb)
		report.RegisterRoutes(api, reportHandler, rbacService, authMW)
		audit.RegisterRoutes(api, auditHandler, rbacService, authMW)
	}

	return nil
}
