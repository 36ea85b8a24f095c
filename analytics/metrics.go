package analytics

import (
	"context"

	"scribekit/core"
	"scribekit/engine"
)

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// AttachAll subscribes the hook to every achievement event type on the bus
// and returns a func detaching all subscriptions.
func AttachAll(bus *engine.EventBus, hook Hook) func() {
	types := []core.EventType{
		core.EventXPAwarded,
		core.EventLevelUp,
		core.EventStreakMilestone,
		core.EventStreakBroken,
		core.EventBadgeUnlocked,
	}
	cancels := make([]func(), 0, len(types))
	for _, typ := range types {
		cancels = append(cancels, bus.Subscribe(typ, func(_ context.Context, e core.Event) { hook.OnEvent(e) }))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
