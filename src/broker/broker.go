// Package broker moves job output between mfepub and other consumers.
//
// Events are JSON records keyed by job id on the topics named in contracts.
// InMemoryBroker serves local runs and tests; RedpandaBroker shares the stream over
// a Kafka-compatible cluster.
package broker

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("broker is closed")

// Broker publishes keyed records and hands out subscriptions.
type Broker interface {
	// Publish sends value to topic. Records with the same key keep their order.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe streams topic to the caller until ctx ends or the broker closes.
	// groupID names the consumer group; the in-memory broker ignores it.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	Close() error
}

// Message is one consumed record.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	// Timestamp is in Unix milliseconds.
	Timestamp int64
}
