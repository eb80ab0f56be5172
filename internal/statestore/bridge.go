package statestore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"salespilot/internal/db"
)

// Durable is the durable side of the bridge. Get returns
// db.ErrControlStateNotFound when the key is absent.
type Durable interface {
	GetControlState(ctx context.Context, key string) ([]byte, error)
	SetControlState(ctx context.Context, key string, value []byte) error
	DeleteControlState(ctx context.Context, key string) error
}

// Bridge unifies the fast expiring store with the durable store. Reads
// fall back to the durable store on a cache miss and re-populate the fast
// store; writes go to both, durable best-effort. There is no cross-store
// transaction — consistency is eventual via re-population.
type Bridge struct {
	fast          Storage
	durable       Durable
	timeout       time.Duration
	repopulateTTL time.Duration
	log           *slog.Logger
}

// NewBridge creates a bridge over the given stores.
func NewBridge(fast Storage, durable Durable, timeout, repopulateTTL time.Duration, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		fast:          fast,
		durable:       durable,
		timeout:       timeout,
		repopulateTTL: repopulateTTL,
		log:           log.With("component", "statestore"),
	}
}

// Get reads a key, consulting the durable store on a fast-store miss or
// error. A durable hit re-populates the fast store before returning.
// Returns nil with no error when the key is absent from both stores.
func (b *Bridge) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := GetTimeout(b.fast, key, b.timeout)
	if err != nil {
		b.log.Warn("fast store read failed, falling back", "key", key, "error", err)
	} else if val != nil {
		return val, nil
	}

	val, err = b.durable.GetControlState(ctx, key)
	if errors.Is(err, db.ErrControlStateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Self-heal the fast store. A failure here only costs the next read
	// another durable lookup.
	if serr := SetTimeout(b.fast, key, val, b.repopulateTTL, b.timeout); serr != nil {
		b.log.Warn("fast store re-population failed", "key", key, "error", serr)
	}

	return val, nil
}

// Set writes a key to both stores. The durable write is best-effort: a
// failure is logged and does not block the fast-store write.
func (b *Bridge) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := b.durable.SetControlState(ctx, key, val); err != nil {
		b.log.Error("durable store write failed", "key", key, "error", err)
	}
	return SetTimeout(b.fast, key, val, ttl, b.timeout)
}

// Delete removes a key from both stores.
func (b *Bridge) Delete(ctx context.Context, key string) error {
	if err := b.durable.DeleteControlState(ctx, key); err != nil {
		b.log.Error("durable store delete failed", "key", key, "error", err)
	}
	return DeleteTimeout(b.fast, key, b.timeout)
}
