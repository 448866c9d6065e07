package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"mfe-publish/src/contracts"
)

// EventPublisher encodes job events as JSON and publishes them keyed by job id.
type EventPublisher struct {
	broker Broker
	now    func() time.Time
}

// NewEventPublisher wraps b.
func NewEventPublisher(b Broker) *EventPublisher {
	return &EventPublisher{broker: b, now: time.Now}
}

// PublishLogChunk publishes to contracts.TopicJobLogs.
func (p *EventPublisher) PublishLogChunk(ctx context.Context, ev contracts.LogChunkEvent) error {
	if ev.Timestamp == "" {
		ev.Timestamp = p.now().UTC().Format(time.RFC3339Nano)
	}
	return p.publish(ctx, contracts.TopicJobLogs, ev.JobID, ev)
}

// PublishJobFinished publishes to contracts.TopicJobResults.
func (p *EventPublisher) PublishJobFinished(ctx context.Context, ev contracts.JobFinishedEvent) error {
	if ev.Timestamp == "" {
		ev.Timestamp = p.now().UTC().Format(time.RFC3339Nano)
	}
	return p.publish(ctx, contracts.TopicJobResults, ev.JobID, ev)
}

func (p *EventPublisher) publish(ctx context.Context, topic string, jobID int64, ev any) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}
	return p.broker.Publish(ctx, topic, strconv.FormatInt(jobID, 10), data)
}
