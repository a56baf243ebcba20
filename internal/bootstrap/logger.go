package bootstrap

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds a production logger when APP_ENV=production and a
// development logger otherwise. It runs before configuration is loaded.
func NewLogger() *zap.Logger {
	build := zap.NewDevelopment
	if os.Getenv("APP_ENV") == "production" {
		build = zap.NewProduction
	}
	logger, err := build()
	if err != nil {
		panic(err)
	}
	return logger
}
