package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"salespilot/internal/db"
	"salespilot/internal/statestore"
)

type fakeDurable struct {
	data map[string][]byte
	err  error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{data: map[string][]byte{}}
}

func (f *fakeDurable) GetControlState(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	val, ok := f.data[key]
	if !ok {
		return nil, db.ErrControlStateNotFound
	}
	return val, nil
}

func (f *fakeDurable) SetControlState(_ context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeDurable) DeleteControlState(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

func newTestController(fast statestore.Storage, durable statestore.Durable) *Controller {
	bridge := statestore.NewBridge(fast, durable, 200*time.Millisecond, time.Minute, nil)
	return New(bridge, time.Hour, 72*time.Hour, nil)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	ctrl := newTestController(statestore.NewMemory(), newFakeDurable())
	ctx := context.Background()
	id := uuid.New()

	if ctrl.IsPaused(ctx, id) {
		t.Fatal("new conversation reported paused")
	}

	if err := ctrl.Pause(ctx, id, "operator@example.com"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if !ctrl.IsPaused(ctx, id) {
		t.Error("IsPaused() = false after Pause()")
	}

	if err := ctrl.Resume(ctx, id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if ctrl.IsPaused(ctx, id) {
		t.Error("IsPaused() = true after Resume()")
	}
}

func TestIsPaused_SurvivesFastStoreExpiry(t *testing.T) {
	fast := statestore.NewMemory()
	durable := newFakeDurable()
	ctrl := newTestController(fast, durable)
	ctx := context.Background()
	id := uuid.New()

	if err := ctrl.Pause(ctx, id, "operator"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	// Simulate the fast-store copy aging out before the operator hands
	// the conversation back.
	fast.Expire(pauseKey(id))

	if !ctrl.IsPaused(ctx, id) {
		t.Fatal("IsPaused() = false after fast-store expiry, durable fallback lost")
	}

	// The durable hit must have re-populated the fast store.
	if val, _ := fast.Get(pauseKey(id)); val == nil {
		t.Error("fast store not re-populated after fallback read")
	}
}

func TestIsPaused_FailsClosed(t *testing.T) {
	durable := newFakeDurable()
	durable.err = errors.New("db down")
	ctrl := newTestController(statestore.NewMemory(), durable)

	if !ctrl.IsPaused(context.Background(), uuid.New()) {
		t.Error("IsPaused() = false when control state is unreadable, want true")
	}
}

func TestIsSuppressed_FailsOpen(t *testing.T) {
	durable := newFakeDurable()
	durable.err = errors.New("db down")
	ctrl := newTestController(statestore.NewMemory(), durable)

	if ctrl.IsSuppressed(context.Background(), uuid.New()) {
		t.Error("IsSuppressed() = true when control state is unreadable, want false")
	}
}

func TestSuppressUnsuppressRoundTrip(t *testing.T) {
	ctrl := newTestController(statestore.NewMemory(), newFakeDurable())
	ctx := context.Background()
	id := uuid.New()

	if err := ctrl.SuppressForCampaign(ctx, id, "campaign-42"); err != nil {
		t.Fatalf("SuppressForCampaign() error = %v", err)
	}
	if !ctrl.IsSuppressed(ctx, id) {
		t.Error("IsSuppressed() = false after SuppressForCampaign()")
	}

	if err := ctrl.Unsuppress(ctx, id); err != nil {
		t.Fatalf("Unsuppress() error = %v", err)
	}
	if ctrl.IsSuppressed(ctx, id) {
		t.Error("IsSuppressed() = true after Unsuppress()")
	}
}

func TestIsPaused_CorruptStateFailsClosed(t *testing.T) {
	fast := statestore.NewMemory()
	ctrl := newTestController(fast, newFakeDurable())
	id := uuid.New()

	fast.Set(pauseKey(id), []byte("not json"), time.Minute)

	if !ctrl.IsPaused(context.Background(), id) {
		t.Error("IsPaused() = false for corrupt state, want true")
	}
}
