package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scribekit/core"
)

func TestClient_AwardXPRecordStoryGetWriterHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	total, err := client.AwardXP(ctx, "alice", 50, "editor_pick")
	if err != nil || total != 50 {
		t.Fatalf("award xp got total=%d err=%v", total, err)
	}

	if err := client.RecordStory(ctx, "alice", StoryInput{Status: "published", WordCount: 700}); err != nil {
		t.Fatalf("record story: %v", err)
	}

	profile, err := client.GetWriter(ctx, "alice")
	if err != nil {
		t.Fatalf("get writer: %v", err)
	}
	if profile.ID != "alice" || profile.XP != 50 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	badges, err := client.GetBadges(ctx, "alice")
	if err != nil || len(badges) != 1 || badges[0].ID != "first-publish" {
		t.Fatalf("badges: %+v err=%v", badges, err)
	}

	entries, err := client.Leaderboard(ctx, 5)
	if err != nil || len(entries) != 1 || entries[0].Writer != "alice" {
		t.Fatalf("leaderboard: %+v err=%v", entries, err)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_RejectsEmptyWriterID(t *testing.T) {
	client, err := NewClient("http://localhost:9")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	if _, err := client.AwardXP(ctx, " ", 5, ""); err != ErrEmptyWriterID {
		t.Fatalf("expected ErrEmptyWriterID, got %v", err)
	}
	if err := client.RecordStory(ctx, "", StoryInput{}); err != ErrEmptyWriterID {
		t.Fatalf("expected ErrEmptyWriterID, got %v", err)
	}
	if _, err := client.GetWriter(ctx, ""); err != ErrEmptyWriterID {
		t.Fatalf("expected ErrEmptyWriterID, got %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventXPAwarded {
			t.Fatalf("unexpected event type: %s", evt.Type)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"storage":"ok"}}`))
	})
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[{"writer_id":"alice","xp":50}]}`))
	})
	mux.HandleFunc("/api/writers/", func(w http.ResponseWriter, r *http.Request) {
		// /api/writers/{id}[/xp|/stories|/badges]
		path := r.URL.Path[len("/api/writers/"):]
		parts := strings.Split(path, "/")
		if len(parts) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writerID := parts[0]
		if len(parts) == 1 && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + writerID + `","xp":50,"level":1,"writing_streak":1}`))
			return
		}
		if len(parts) >= 2 && parts[1] == "xp" && r.Method == http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total":50}`))
			return
		}
		if len(parts) >= 2 && parts[1] == "stories" && r.Method == http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		if len(parts) >= 2 && parts[1] == "badges" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"badges":[{"id":"first-publish","unlocked":true,"progress":1,"requirement":1}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		evt := core.NewXPAwarded("alice", 10, 10, "editor_pick")
		_ = conn.WriteJSON(evt)
	})

	return httptest.NewServer(mux)
}
