package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WriterProfile mirrors the public JSON surface of core.Profile.
type WriterProfile struct {
	ID            string    `json:"id"`
	XP            int64     `json:"xp"`
	Level         int64     `json:"level"`
	WritingStreak int       `json:"writing_streak"`
	LastWriteDate time.Time `json:"last_write_date,omitempty"`
	Updated       time.Time `json:"updated"`
}

// BadgeState mirrors the public JSON surface of core.BadgeState.
type BadgeState struct {
	ID          string `json:"id"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int64  `json:"progress"`
	Requirement int64  `json:"requirement"`
}

// StoryInput is the body of a story submission.
type StoryInput struct {
	Status    string     `json:"status"`
	WordCount int64      `json:"word_count"`
	Votes     int64      `json:"votes,omitempty"`
	Bookmarks int64      `json:"bookmarks,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// LeaderboardEntry mirrors the public JSON surface of leaderboard.Entry.
type LeaderboardEntry struct {
	Writer string `json:"writer_id"`
	XP     int64  `json:"xp"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyWriterID is returned when writer id is empty.
var ErrEmptyWriterID = errors.New("writer id is required")
