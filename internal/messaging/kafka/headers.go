package kafka

import kafkago "github.com/segmentio/kafka-go"

const (
	HeaderOutboxID      = "outbox_id"
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderRequestID     = "request_id"
)

// HeaderValue returns the first header named key, or "".
func HeaderValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
