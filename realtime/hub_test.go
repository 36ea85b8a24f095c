package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"scribekit/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewXPAwarded("bob", 10, 10, "story published")
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.Writer != "bob" || received.Type != core.EventXPAwarded {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewBadgeUnlocked("alice", core.BadgeFirstPublish)
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Badge != core.BadgeFirstPublish {
		t.Fatalf("unexpected badge: %s", out.Badge)
	}
	if out.ID == "" {
		t.Fatal("event id should survive the round trip")
	}
}
