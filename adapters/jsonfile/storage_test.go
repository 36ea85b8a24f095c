package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scribekit/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	total, err := store.AddXP(context.Background(), "alice", 50)
	if err != nil || total != 50 {
		t.Fatalf("add xp: total=%d err=%v", total, err)
	}

	published := core.ContentItem{
		Status:    core.StatusPublished,
		CreatedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		WordCount: 1200,
	}
	if err := store.AddContent(context.Background(), "alice", published); err != nil {
		t.Fatalf("add content: %v", err)
	}
	if err := store.MarkUnlocked(context.Background(), "alice", core.BadgeFirstPublish); err != nil {
		t.Fatalf("mark badge: %v", err)
	}
	if err := store.SetLevel(context.Background(), "alice", 2); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if err := store.SetStreak(context.Background(), "alice", 1, published.CreatedAt); err != nil {
		t.Fatalf("set streak: %v", err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	prof, err := reloaded.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if prof.XP != 50 || prof.Level != 2 || prof.WritingStreak != 1 {
		t.Fatalf("profile not round-tripped: %+v", prof)
	}
	items, err := reloaded.ContentItems(context.Background(), "alice")
	if err != nil || len(items) != 1 || items[0].WordCount != 1200 {
		t.Fatalf("content not round-tripped: %v %v", items, err)
	}
	badges, err := reloaded.UnlockedBadges(context.Background(), "alice")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if _, ok := badges[core.BadgeFirstPublish]; !ok {
		t.Fatalf("expected badge first-publish")
	}
}
