package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yusuke-yano-01/Timelog/internal/app"
	"github.com/yusuke-yano-01/Timelog/internal/bootstrap"
	"github.com/yusuke-yano-01/Timelog/internal/config"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger := bootstrap.NewLogger()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	apperror.Init()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	cleanup, err := app.BuildApp(r, cfg)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit := bootstrap.NewStdoutAuditLogger(clock.New(cfg.Location))
	if err := bootstrap.RunHTTPServer(ctx, r, bootstrap.DefaultServerConfig(cfg.Port), audit); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
