package timerecord

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MonthInvalidator drops any cached read model covering the user's month
// containing day. Writers call it after their transaction commits.
type MonthInvalidator interface {
	InvalidateMonth(ctx context.Context, userID uuid.UUID, day time.Time)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateMonth(context.Context, uuid.UUID, time.Time) {}

// OrNoop returns inv, or an invalidator that does nothing when inv is nil.
func OrNoop(inv MonthInvalidator) MonthInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}
