package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mfe-publish/src/contracts"
)

func TestEventPublisher_LogChunk(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	ch, _ := b.Subscribe(ctx, contracts.TopicJobLogs, "test")

	p := NewEventPublisher(b)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := p.PublishLogChunk(ctx, contracts.LogChunkEvent{
		ProjectID: "fe/snhy",
		JobID:     987,
		JobName:   "simulate",
		Sequence:  2,
		Content:   "CD",
	})
	if err != nil {
		t.Fatalf("PublishLogChunk() error = %v", err)
	}

	msg := <-ch
	if msg.Key != "987" {
		t.Errorf("Key = %q, want job id", msg.Key)
	}

	var got contracts.LogChunkEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Content != "CD" || got.Sequence != 2 || got.ProjectID != "fe/snhy" {
		t.Errorf("event = %+v", got)
	}
	if got.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
}

func TestEventPublisher_JobFinished(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	logs, _ := b.Subscribe(ctx, contracts.TopicJobLogs, "test")
	results, _ := b.Subscribe(ctx, contracts.TopicJobResults, "test")

	p := NewEventPublisher(b)
	err := p.PublishJobFinished(ctx, contracts.JobFinishedEvent{
		JobID:     5,
		Status:    "failed",
		Timestamp: "fixed",
	})
	if err != nil {
		t.Fatalf("PublishJobFinished() error = %v", err)
	}

	select {
	case msg := <-results:
		var got contracts.JobFinishedEvent
		if err := json.Unmarshal(msg.Value, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Status != "failed" || got.Timestamp != "fixed" {
			t.Errorf("event = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no result event")
	}

	select {
	case msg := <-logs:
		t.Errorf("unexpected message on logs topic: %s", msg.Value)
	default:
	}
}

func TestEventPublisher_ClosedBroker(t *testing.T) {
	b := NewInMemoryBroker()
	b.Close()

	p := NewEventPublisher(b)
	if err := p.PublishJobFinished(context.Background(), contracts.JobFinishedEvent{JobID: 1}); err == nil {
		t.Error("expected error publishing to closed broker")
	}
}
