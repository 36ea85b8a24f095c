package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain events delivered to notification collaborators.
type EventType string

const (
	EventXPAwarded       EventType = "xp_awarded"
	EventLevelUp         EventType = "level_up"
	EventStreakMilestone EventType = "streak_milestone"
	EventStreakBroken    EventType = "streak_broken"
	EventBadgeUnlocked   EventType = "badge_unlocked"
)

// Event represents an immutable domain event. The ID lets delivery sinks
// deduplicate retried sends; the engine itself performs no deduplication of
// the underlying awards.
type Event struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Writer   WriterID       `json:"writer_id"`
	Amount   int64          `json:"amount,omitempty"`
	Total    int64          `json:"total,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	OldLevel int64          `json:"old_level,omitempty"`
	NewLevel int64          `json:"new_level,omitempty"`
	Streak   int            `json:"streak,omitempty"`
	Badge    BadgeID        `json:"badge,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func newEvent(typ EventType, writer WriterID) Event {
	return Event{ID: uuid.NewString(), Type: typ, Time: time.Now().UTC(), Writer: writer}
}

func NewXPAwarded(writer WriterID, amount, total int64, reason string) Event {
	ev := newEvent(EventXPAwarded, writer)
	ev.Amount = amount
	ev.Total = total
	ev.Reason = reason
	return ev
}

func NewLevelUp(writer WriterID, lu LevelUp) Event {
	ev := newEvent(EventLevelUp, writer)
	ev.OldLevel = lu.OldLevel
	ev.NewLevel = lu.NewLevel
	return ev
}

func NewStreakMilestone(writer WriterID, streak int, bonus int64, reason string) Event {
	ev := newEvent(EventStreakMilestone, writer)
	ev.Streak = streak
	ev.Amount = bonus
	ev.Reason = reason
	return ev
}

func NewStreakBroken(writer WriterID, previous int) Event {
	ev := newEvent(EventStreakBroken, writer)
	ev.Streak = previous
	return ev
}

func NewBadgeUnlocked(writer WriterID, badge BadgeID) Event {
	ev := newEvent(EventBadgeUnlocked, writer)
	ev.Badge = badge
	return ev
}
