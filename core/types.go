package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// WriterID uniquely identifies a writer in the publishing domain.
type WriterID string

// ContentStatus is the publication state of a story.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
)

// Profile is an immutable snapshot of a writer's gamification counters.
// Level, WritingStreak, and the badge set are always derivable from XP and
// the content history; they are stored alongside so callers can diff against
// the last persisted values.
type Profile struct {
	ID            WriterID  `json:"id"`
	XP            int64     `json:"xp"`
	Level         int64     `json:"level"`
	WritingStreak int       `json:"writing_streak"`
	LastWriteDate time.Time `json:"last_write_date,omitempty"`
	Updated       time.Time `json:"updated"`
}

// ContentItem is a snapshot of a single story for streak and badge purposes.
type ContentItem struct {
	Status        ContentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	WordCount     int64         `json:"word_count"`
	VoteCount     int64         `json:"vote_count"`
	BookmarkCount int64         `json:"bookmark_count"`
}

// Published reports whether the item counts toward the writing streak.
func (c ContentItem) Published() bool { return c.Status == StatusPublished }

// Stats aggregates a writer's content history for badge evaluation.
type Stats struct {
	Drafts    int64 `json:"drafts"`
	Published int64 `json:"published"`
	Words     int64 `json:"words"`
	Votes     int64 `json:"votes"`
	Bookmarks int64 `json:"bookmarks"`
	Streak    int64 `json:"streak"`
}

// StatsFromHistory folds a content history into badge-evaluation counters.
// Word, vote, and bookmark totals cover all authored items; the streak is
// supplied by the caller since it depends on the evaluation time.
func StatsFromHistory(items []ContentItem, streak int) Stats {
	s := Stats{Streak: int64(streak)}
	for _, it := range items {
		if it.Published() {
			s.Published++
		} else {
			s.Drafts++
		}
		s.Words += it.WordCount
		s.Votes += it.VoteCount
		s.Bookmarks += it.BookmarkCount
	}
	return s
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeWriterID trims and lowercases writer identifiers.
func NormalizeWriterID(id WriterID) (WriterID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty writer id")
	}
	return WriterID(strings.ToLower(s)), nil
}
