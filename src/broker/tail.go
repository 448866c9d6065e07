package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"mfe-publish/src/contracts"
)

// Tail subscribes to the job topics and passes every log chunk of jobID to onChunk until
// that job's result has arrived along with all of its chunks. jobID 0 follows every job
// and only returns when ctx ends or the broker closes.
//
// groupID prefixes the consumer groups; use a fresh one per tail so each reader gets
// the whole stream.
func Tail(ctx context.Context, b Broker, groupID string, jobID int64, onChunk func(contracts.LogChunkEvent)) (*contracts.JobFinishedEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logs, err := b.Subscribe(ctx, contracts.TopicJobLogs, groupID+"-logs")
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicJobLogs, err)
	}
	results, err := b.Subscribe(ctx, contracts.TopicJobResults, groupID+"-results")
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicJobResults, err)
	}

	return tailEvents(ctx, logs, results, jobID, onChunk)
}

// tailEvents reads the two subscriptions. Topics are not ordered against each other, so
// a result only ends the tail once the job's last chunk has been seen on the log topic.
func tailEvents(ctx context.Context, logs, results <-chan Message, jobID int64, onChunk func(contracts.LogChunkEvent)) (*contracts.JobFinishedEvent, error) {
	key := ""
	if jobID > 0 {
		key = strconv.FormatInt(jobID, 10)
	}

	var (
		last     = -1
		finished *contracts.JobFinishedEvent
	)
	for {
		select {
		case <-ctx.Done():
			return finished, ctx.Err()

		case msg, ok := <-logs:
			if !ok {
				return finished, ErrClosed
			}
			if key != "" && msg.Key != key {
				continue
			}
			var ev contracts.LogChunkEvent
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				return finished, fmt.Errorf("malformed log chunk at offset %d: %w", msg.Offset, err)
			}
			onChunk(ev)
			last = max(last, ev.Sequence)

		case msg, ok := <-results:
			if !ok {
				return finished, ErrClosed
			}
			if key == "" || msg.Key != key {
				continue
			}
			var ev contracts.JobFinishedEvent
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				return nil, fmt.Errorf("malformed job result at offset %d: %w", msg.Offset, err)
			}
			finished = &ev
			// A nil channel blocks, so only the log topic is read from here on.
			results = nil
		}

		if finished != nil && last >= finished.Chunks-1 {
			return finished, nil
		}
	}
}
