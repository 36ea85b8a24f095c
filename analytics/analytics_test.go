package analytics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scribekit/core"
	"scribekit/engine"
)

func eventAt(typ core.EventType, writer core.WriterID, at time.Time) core.Event {
	return core.Event{ID: "test", Type: typ, Time: at, Writer: writer}
}

func TestDailyActiveWriters(t *testing.T) {
	d := NewDailyActiveWriters()
	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	d.OnEvent(eventAt(core.EventXPAwarded, "a", day))
	d.OnEvent(eventAt(core.EventXPAwarded, "a", day.Add(time.Hour)))
	d.OnEvent(eventAt(core.EventBadgeUnlocked, "b", day))

	if got := d.Count("2025-06-15"); got != 2 {
		t.Fatalf("want 2 active writers, got %d", got)
	}
	if got := d.Count("2025-06-16"); got != 0 {
		t.Fatalf("want 0 for untouched day, got %d", got)
	}
}

func TestPublishingMetricsXPFlow(t *testing.T) {
	m := NewPublishingMetrics()
	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	ev := core.NewXPAwarded("a", 50, 50, "weekly streak milestone")
	ev.Time = at
	m.OnEvent(ev)
	ev2 := core.NewXPAwarded("b", 10, 10, "streak started")
	ev2.Time = at
	m.OnEvent(ev2)

	if got := m.XPAwarded("2025-06-15"); got != 60 {
		t.Fatalf("xp by day = %d", got)
	}
	if got := m.XPByReason("weekly streak milestone"); got != 50 {
		t.Fatalf("xp by reason = %d", got)
	}
	if got := m.ActiveWriters("2025-06-15"); got != 2 {
		t.Fatalf("active writers = %d", got)
	}
}

func TestPublishingMetricsBadgesAndLevels(t *testing.T) {
	m := NewPublishingMetrics()
	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	b := core.NewBadgeUnlocked("a", core.BadgeFirstPublish)
	b.Time = at
	m.OnEvent(b)
	b2 := core.NewBadgeUnlocked("b", core.BadgeFirstPublish)
	b2.Time = at
	m.OnEvent(b2)

	lvl := core.NewLevelUp("a", core.LevelUp{OldLevel: 1, NewLevel: 3})
	lvl.Time = at
	m.OnEvent(lvl)

	if got := m.BadgeUnlocks(core.BadgeFirstPublish); got != 2 {
		t.Fatalf("badge unlocks = %d", got)
	}
	if got := m.BadgeHolders(core.BadgeFirstPublish); got != 2 {
		t.Fatalf("badge holders = %d", got)
	}
	if got := m.LevelTransitions(3); got != 1 {
		t.Fatalf("level transitions = %d", got)
	}

	snap := m.Snapshot()
	if snap["total_badge_unlocks"].(int64) != 2 {
		t.Fatalf("snapshot wrong: %+v", snap)
	}
}

func TestAttachAllBridgesBusEvents(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	m := NewPublishingMetrics()
	detach := AttachAll(bus, NewBridge(m))
	defer detach()

	bus.Publish(context.Background(), core.NewXPAwarded("a", 5, 5, "comment"))

	if got := m.XPByReason("comment"); got != 5 {
		t.Fatalf("bridge did not deliver: %d", got)
	}
}

func TestHTTPExporterBatches(t *testing.T) {
	var batches [][]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]any
		_ = json.Unmarshal(body, &batch)
		batches = append(batches, batch)
	}))
	defer srv.Close()

	e := NewHTTPExporter(srv.URL, "secret", 2)
	ctx := context.Background()

	if err := e.Export(ctx, map[string]any{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Fatal("flushed before batch size reached")
	}
	if err := e.Export(ctx, map[string]any{"n": 2}); err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("unexpected batches: %+v", batches)
	}
}
