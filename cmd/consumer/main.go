package main

import (
	"github.com/yusuke-yano-01/Timelog/internal/app"
	"github.com/yusuke-yano-01/Timelog/internal/bootstrap"
	"github.com/yusuke-yano-01/Timelog/internal/config"

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

	if err := app.RunConsumer(cfg); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
