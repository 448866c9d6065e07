// Package pipeline wires the storage and event backends shared by the CLI and the
// MCP server.
//
// With no backends configured everything stays in process: runs live in memory and
// events go to an in-memory broker that only subscribers in the same process see. A
// Postgres DSN persists run history across invocations, and Redpanda brokers stream log
// chunks and job results to other consumers such as `mfepub tail`.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"mfe-publish/src/broker"
	"mfe-publish/src/config"
	"mfe-publish/src/logger"
	"mfe-publish/src/store"
)

// Mode describes where events go.
type Mode int

const (
	// LocalMode publishes events to an in-memory broker.
	LocalMode Mode = iota
	// DistributedMode publishes events to Redpanda.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode picks the mode from the configured brokers.
func DetectMode(cfg *config.Config) Mode {
	if len(cfg.RedpandaBrokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// Backends holds the opened run store, broker and event publisher.
type Backends struct {
	Mode   Mode
	Store  store.Store
	Broker broker.Broker
	Events *broker.EventPublisher
}

// OpenStore opens Postgres when cfg has a DSN and a MemoryStore otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.PostgresDSN == "" {
		return store.NewMemoryStore(), nil
	}

	pg, err := store.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres store: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	log.Debug("run history in Postgres")
	return pg, nil
}

// Setup opens the store and the broker cfg asks for. Callers must Close the result.
func Setup(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backends, error) {
	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	b := &Backends{Mode: DetectMode(cfg), Store: st}

	if b.Mode == DistributedMode {
		rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		log.Debug("publishing events to %v", cfg.RedpandaBrokers)
		b.Broker = rp
	} else {
		b.Broker = broker.NewInMemoryBroker()
	}
	b.Events = broker.NewEventPublisher(b.Broker)

	return b, nil
}

// Close releases the broker and the store.
func (b *Backends) Close() error {
	var errs []error
	if b.Broker != nil {
		if err := b.Broker.Close(); err != nil && !errors.Is(err, broker.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}
