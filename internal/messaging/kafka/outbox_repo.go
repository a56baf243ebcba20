package kafka

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	OutboxStatusDead    = "dead"

	MaxOutboxAttempts = 10
)

// OutboxEvent is one lifecycle message waiting to be relayed. RetryCount is
// only populated by ListPending.
type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	RetryCount    int
}

// NewOutboxEvent marshals payload and returns a pending event ready to be
// written in the caller's transaction.
func NewOutboxEvent(requestID, aggregateType, aggregateID, eventType, topic string, payload any) (OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       body,
	}
	return event, validate(event)
}

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

const insertOutboxSQL = `INSERT INTO outbox_events
	(id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Rows still due for delivery: new ones and failed ones whose backoff elapsed.
// Dead rows are left for an operator.
const listPendingSQL = `SELECT id::text, COALESCE(request_id, ''), aggregate_type, aggregate_id,
	event_type, topic, payload, retry_count
	FROM outbox_events
	WHERE status IN ($1, $2) AND (next_retry_at IS NULL OR next_retry_at <= NOW())
	ORDER BY created_at
	LIMIT $3`

const markSentSQL = `UPDATE outbox_events
	SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
	WHERE id = $1`

// Backoff grows 15s per attempt; the row goes dead on attempt MaxOutboxAttempts.
const markFailedSQL = `UPDATE outbox_events
	SET status = CASE WHEN retry_count + 1 >= $4 THEN $5 ELSE $2 END,
		retry_count = retry_count + 1,
		error_message = LEFT($3, 500),
		next_retry_at = NOW() + (retry_count + 1) * INTERVAL '15 seconds',
		updated_at = NOW()
	WHERE id = $1`

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := validate(event); err != nil {
		return err
	}
	var exec interface {
		ExecContext(context.Context, string, ...any) (sql.Result, error)
	} = r.db
	if r.tx != nil {
		exec = r.tx
	}
	_, err := exec.ExecContext(ctx, insertOutboxSQL,
		event.ID, event.RequestID, event.AggregateType, event.AggregateID,
		event.EventType, event.Topic, event.Payload, OutboxStatusPending,
	)
	return err
}

// ListPending returns events due for (re)delivery, oldest first.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, listPendingSQL, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		err := rows.Scan(&e.ID, &e.RequestID, &e.AggregateType, &e.AggregateID,
			&e.EventType, &e.Topic, &e.Payload, &e.RetryCount)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, markSentSQL, id, OutboxStatusSent)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, markFailedSQL, id, OutboxStatusFailed, reason, MaxOutboxAttempts, OutboxStatusDead)
	return err
}

func validate(event OutboxEvent) error {
	switch {
	case event.ID == "":
		return errors.New("outbox id is required")
	case event.Topic == "":
		return errors.New("outbox topic is required")
	case event.EventType == "":
		return errors.New("outbox event type is required")
	case len(event.Payload) == 0:
		return errors.New("outbox payload is required")
	}
	return nil
}
