package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/audit"
	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Retry delays for a message whose audit row could not be stored.
var (
	initialRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
)

// ConsumeCorrectionLifecycle writes every correction lifecycle event into the
// audit trail. Offsets are committed only after the audit row is stored, and a
// failing message is retried before the next one is fetched, because a later
// commit would move the group offset past it. A crash redelivers and the event
// key deduplicates.
func ConsumeCorrectionLifecycle(
	ctx context.Context,
	reader MessageReader,
	auditService audit.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.correction_lifecycle")
	log.Info("correction lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("correction lifecycle consumer stopped")
				return
			}
			log.Error("fetch correction lifecycle message failed", zap.Error(err))
			continue
		}

		if !recordWithRetry(ctx, msg, auditService, log) {
			log.Info("correction lifecycle consumer stopped", zap.Int64("uncommitted_offset", msg.Offset))
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit correction lifecycle message failed", zap.Error(err))
		}
	}
}

// recordWithRetry runs handleMessage until it succeeds, backing off between
// attempts. It reports false when ctx ends first.
func recordWithRetry(ctx context.Context, msg kafkago.Message, auditService audit.Service, log *zap.Logger) bool {
	delay := initialRetryDelay
	for attempt := 1; ; attempt++ {
		err := handleMessage(ctx, msg, auditService, log)
		if err == nil {
			return true
		}
		log.Error("record audit event failed",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

// handleMessage returns an error only for failures worth redelivering.
// Undecodable payloads are logged and dropped.
func handleMessage(ctx context.Context, msg kafkago.Message, auditService audit.Service, log *zap.Logger) error {
	var event events.CorrectionLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode correction lifecycle event failed", zap.Error(err))
		return nil
	}

	key := kafka.HeaderValue(msg, kafka.HeaderOutboxID)
	if key == "" {
		key = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}

	recorded, err := auditService.Record(ctx, key, event)
	if err != nil {
		return err
	}
	if recorded {
		log.Info("audit event recorded",
			zap.String("event_type", event.EventType),
			zap.String("event_key", key),
			zap.String("request_id", event.RequestID),
			zap.String("time_record_id", event.TimeRecordID),
		)
	}
	return nil
}
