package engine

import (
	"context"
	"testing"
	"time"

	"scribekit/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewXPAwarded(core.WriterID("w"), 1, 1, "test"))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewXPAwarded(core.WriterID("w"), 1, 1, "test"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	cancel := bus.Subscribe(core.EventBadgeUnlocked, func(ctx context.Context, e core.Event) { count++ })
	cancel()
	bus.Publish(context.Background(), core.NewBadgeUnlocked(core.WriterID("w"), core.BadgeFirstDraft))
	if count != 0 {
		t.Fatalf("handler ran after unsubscribe: %d", count)
	}
}
