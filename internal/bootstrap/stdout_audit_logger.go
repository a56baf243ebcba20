package bootstrap

import (
	"context"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes lifecycle entries through zap.
type StdoutAuditLogger struct {
	clock  clock.Clock
	logger *zap.Logger
}

func NewStdoutAuditLogger(clk clock.Clock, logger ...*zap.Logger) *StdoutAuditLogger {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &StdoutAuditLogger{clock: clk, logger: l}
}

func (l *StdoutAuditLogger) Log(_ context.Context, entry AuditLog) {
	l.logger.Info("audit event",
		zap.String("timestamp", l.clock.Now().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}
