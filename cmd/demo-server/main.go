package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	mem "scribekit/adapters/memory"
	ws "scribekit/adapters/websocket"
	"scribekit/core"
	"scribekit/engine"
	"scribekit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	store := mem.New()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewAchievementService(store, bus, nil, nil)
	hub := realtime.NewHub()

	// Forward achievement events to WebSocket clients
	bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventStreakMilestone, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventBadgeUnlocked, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/writers/", func(w http.ResponseWriter, r *http.Request) {
		// routes: /writers/{id}/xp?amount=50, /writers/{id}/stories, GET /writers/{id}, GET /writers/{id}/badges
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		writer := core.WriterID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "xp" {
				amount, _ := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
				total, err := svc.AwardXP(ctx, writer, amount, "demo")
				writeJSON(w, map[string]any{"total": total, "err": errString(err)})
				return
			}
			if len(parts) >= 3 && parts[2] == "stories" {
				var item core.ContentItem
				if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
					http.Error(w, err.Error(), 400)
					return
				}
				err := svc.RecordContent(ctx, writer, item)
				writeJSON(w, map[string]any{"ok": err == nil, "err": errString(err)})
				return
			}
		case http.MethodGet:
			if len(parts) >= 3 && parts[2] == "badges" {
				badges, err := svc.Badges(ctx, writer)
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				writeJSON(w, badges)
				return
			}
			profile, err := svc.GetProfile(ctx, writer)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, profile)
			return
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
