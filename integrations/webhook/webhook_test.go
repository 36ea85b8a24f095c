package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"scribekit/core"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		lastBody, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewStreakMilestone("u1", 7, 50, "weekly streak milestone"))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
	var ev core.Event
	if err := json.Unmarshal(lastBody, &ev); err != nil {
		t.Fatalf("decode posted event: %v", err)
	}
	if ev.Type != core.EventStreakMilestone || ev.Streak != 7 || ev.Amount != 50 {
		t.Fatalf("unexpected payload: %+v", ev)
	}
}

func TestSink_NoEndpointsIsNoop(t *testing.T) {
	sink := New(nil)
	sink.OnEvent(core.NewXPAwarded("u1", 5, 5, "comment"))
}
