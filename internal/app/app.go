package app

import (
	"database/sql"

	"github.com/yusuke-yano-01/Timelog/internal/config"
	"github.com/yusuke-yano-01/Timelog/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildApp connects the stores, migrates when asked to and registers every
// route on router. The returned func releases the connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	log := zap.L().Named("app")

	gormDB, sqlDB, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	} else {
		log.Warn("REDIS_ADDR not set: report cache and idempotency keys disabled")
	}

	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = sqlDB.Close()
	}

	if cfg.AutoMigrate {
		if err := Migrate(gormDB); err != nil {
			cleanup()
			return nil, err
		}
		log.Info("database migrated")
	}

	if err := registerModules(router, cfg, sqlDB, gormDB, rdb); err != nil {
		cleanup()
		return nil, err
	}
	return cleanup, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}
