package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/audit"
	"github.com/yusuke-yano-01/Timelog/internal/events"
	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAudit struct {
	recordFn func(ctx context.Context, key string, e events.CorrectionLifecycleEvent) (bool, error)
}

func (f *fakeAudit) Record(ctx context.Context, key string, e events.CorrectionLifecycleEvent) (bool, error) {
	return f.recordFn(ctx, key, e)
}
func (f *fakeAudit) List(ctx context.Context, page, limit int) ([]audit.AuditLogResponse, int64, error) {
	return nil, 0, nil
}

// scriptedReader serves msgs in order, then blocks until ctx is cancelled.
type scriptedReader struct {
	msgs      []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *scriptedReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func message(t *testing.T, outboxID string, e events.CorrectionLifecycleEvent, offset int64) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(e)
	assert.NoError(t, err)
	return kafkago.Message{
		Topic:   events.CorrectionLifecycleTopic,
		Offset:  offset,
		Value:   body,
		Headers: []kafkago.Header{{Key: kafka.HeaderOutboxID, Value: []byte(outboxID)}},
	}
}

func fastRetries(t *testing.T) {
	t.Helper()
	initial, maxDelay := initialRetryDelay, maxRetryDelay
	initialRetryDelay, maxRetryDelay = time.Millisecond, 2*time.Millisecond
	t.Cleanup(func() { initialRetryDelay, maxRetryDelay = initial, maxDelay })
}

func TestConsumeCorrectionLifecycle(t *testing.T) {
	fastRetries(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	approved := events.CorrectionLifecycleEvent{EventType: events.CorrectionApproved, WorkDate: "2024-05-10"}
	reader := &scriptedReader{
		cancel: cancel,
		msgs: []kafkago.Message{
			message(t, "ob-1", approved, 1),
			{Topic: events.CorrectionLifecycleTopic, Offset: 2, Value: []byte("not json")},
			message(t, "ob-2", approved, 3),
			message(t, "ob-3", approved, 4),
		},
	}

	attempts := map[string]int{}
	var keys []string
	svc := &fakeAudit{recordFn: func(ctx context.Context, key string, e events.CorrectionLifecycleEvent) (bool, error) {
		attempts[key]++
		keys = append(keys, key)
		if key == "ob-2" && attempts[key] < 3 {
			return false, errors.New("db down")
		}
		return true, nil
	}}

	ConsumeCorrectionLifecycle(ctx, reader, svc, zap.NewNop())

	// ob-2 is retried in place before ob-3 is fetched.
	assert.Equal(t, []string{"ob-1", "ob-2", "ob-2", "ob-2", "ob-3"}, keys)
	assert.Equal(t, 3, attempts["ob-2"])

	var offsets []int64
	for _, m := range reader.committed {
		offsets = append(offsets, m.Offset)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, offsets)
}

func TestConsumeCorrectionLifecycle_FailingEventBlocksLaterCommits(t *testing.T) {
	fastRetries(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submitted := events.CorrectionLifecycleEvent{EventType: events.CorrectionSubmitted, WorkDate: "2024-05-20"}
	reader := &scriptedReader{
		cancel: cancel,
		msgs: []kafkago.Message{
			message(t, "ob-1", submitted, 10),
			message(t, "ob-2", submitted, 11),
		},
	}

	attempts := map[string]int{}
	svc := &fakeAudit{recordFn: func(ctx context.Context, key string, e events.CorrectionLifecycleEvent) (bool, error) {
		attempts[key]++
		if key == "ob-1" {
			if attempts[key] == 5 {
				cancel()
			}
			return false, errors.New("db down")
		}
		return true, nil
	}}

	ConsumeCorrectionLifecycle(ctx, reader, svc, zap.NewNop())

	assert.GreaterOrEqual(t, attempts["ob-1"], 5)
	assert.Zero(t, attempts["ob-2"], "next message must not be fetched while ob-1 is unrecorded")
	assert.Empty(t, reader.committed)
	assert.Len(t, reader.msgs, 1)
}

func TestHandleMessage_FallsBackToOffsetKey(t *testing.T) {
	var got string
	svc := &fakeAudit{recordFn: func(ctx context.Context, key string, e events.CorrectionLifecycleEvent) (bool, error) {
		got = key
		return true, nil
	}}
	msg := message(t, "", events.CorrectionLifecycleEvent{EventType: events.CorrectionSubmitted}, 7)
	msg.Headers = nil
	msg.Partition = 2

	err := handleMessage(context.Background(), msg, svc, zap.NewNop())

	assert.NoError(t, err)
	assert.Equal(t, events.CorrectionLifecycleTopic+"/2/7", got)
}
