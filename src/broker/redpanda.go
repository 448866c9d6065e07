package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"mfe-publish/src/logger"
)

// clientID identifies mfepub producers and consumers to the cluster.
const clientID = "mfepub"

// RedpandaBroker publishes and consumes through a Kafka-compatible cluster with
// franz-go. Records are partitioned by key, so every chunk of one job lands on the
// same partition and is consumed in the order it was published.
type RedpandaBroker struct {
	producer *kgo.Client
	seeds    []string
	log      logger.Logger

	mu        sync.Mutex
	consumers map[string]*kgo.Client // "topic/group" -> client
	closed    bool
}

// NewRedpandaBroker connects a producer to the seed brokers, e.g. ["localhost:19092"].
// Consumer fetch errors are reported to log; a nil log discards them.
func NewRedpandaBroker(seeds []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(seeds) == 0 {
		return nil, errors.New("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		producer:  producer,
		seeds:     seeds,
		log:       log,
		consumers: make(map[string]*kgo.Client),
	}, nil
}

// Publish produces one record and waits for the cluster to acknowledge it.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	rec := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if err := b.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		if errors.Is(err, kgo.ErrClientClosed) {
			return ErrClosed
		}
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins groupID on topic, starting from the oldest retained record for a
// new group. One subscription per topic and group is allowed.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	name := topic + "/" + groupID
	if _, ok := b.consumers[name]; ok {
		return nil, fmt.Errorf("already subscribed to %s as %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.seeds...),
		kgo.ClientID(clientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	b.consumers[name] = consumer

	out := make(chan Message, 100)
	go b.consume(ctx, consumer, out)
	return out, nil
}

// consume forwards fetched records to out until ctx ends or the consumer is closed.
func (b *RedpandaBroker) consume(ctx context.Context, consumer *kgo.Client, out chan<- Message) {
	defer close(out)

	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}

		stop := false
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stop = true
				return
			}
			b.log.Warn("fetch error on %s/%d: %v", topic, partition, err)
		})
		if stop {
			return
		}

		for iter := fetches.RecordIter(); !iter.Done(); {
			rec := iter.Next()
			msg := Message{
				Topic:     rec.Topic,
				Key:       string(rec.Key),
				Value:     rec.Value,
				Offset:    rec.Offset,
				Partition: rec.Partition,
				Timestamp: rec.Timestamp.UnixMilli(),
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops every consumer and then the producer. Closing twice is a no-op.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for name, consumer := range b.consumers {
		consumer.Close()
		delete(b.consumers, name)
	}
	b.producer.Close()
	return nil
}
