package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yusuke-yano-01/Timelog/internal/audit"
	"github.com/yusuke-yano-01/Timelog/internal/config"
	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const auditConsumerGroup = "timelog-audit"

// RunConsumer stores correction lifecycle events in the audit trail until
// the process is signalled.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gormDB, sqlDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	auditService := audit.NewService(audit.NewRepository(gormDB), logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.CorrectionLifecycleTopic,
		GroupID:        auditConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer.ConsumeCorrectionLifecycle(ctx, reader, auditService, logger)

	logger.Info("consumer shut down")
	return nil
}
