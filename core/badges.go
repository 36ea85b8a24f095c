package core

import (
	"errors"
	"strings"
)

// BadgeID names an achievement in the fixed catalog.
type BadgeID string

const (
	BadgeFirstDraft        BadgeID = "first-draft"
	BadgeFirstPublish      BadgeID = "first-publish"
	BadgeProlificWriter    BadgeID = "prolific-writer"
	BadgeWordMaster        BadgeID = "word-master"
	BadgeStreakStarter     BadgeID = "streak-starter"
	BadgeConsistentWriter  BadgeID = "consistent-writer"
	BadgeDedicatedWriter   BadgeID = "dedicated-writer"
	BadgeUnstoppable       BadgeID = "unstoppable"
	BadgeCommunityFavorite BadgeID = "community-favorite"
	BadgeBookworm          BadgeID = "bookworm"
)

// BadgeSpec is one entry of the static catalog: a threshold plus a selector
// extracting the relevant counter from the aggregate stats.
type BadgeSpec struct {
	ID          BadgeID
	Requirement int64
	selector    func(Stats) int64
}

// Catalog is the fixed badge table. It is not user-configurable.
var Catalog = []BadgeSpec{
	{ID: BadgeFirstDraft, Requirement: 1, selector: func(s Stats) int64 { return s.Drafts }},
	{ID: BadgeFirstPublish, Requirement: 1, selector: func(s Stats) int64 { return s.Published }},
	{ID: BadgeProlificWriter, Requirement: 5, selector: func(s Stats) int64 { return s.Published }},
	{ID: BadgeWordMaster, Requirement: 10000, selector: func(s Stats) int64 { return s.Words }},
	{ID: BadgeStreakStarter, Requirement: 3, selector: func(s Stats) int64 { return s.Streak }},
	{ID: BadgeConsistentWriter, Requirement: 7, selector: func(s Stats) int64 { return s.Streak }},
	{ID: BadgeDedicatedWriter, Requirement: 30, selector: func(s Stats) int64 { return s.Streak }},
	{ID: BadgeUnstoppable, Requirement: 100, selector: func(s Stats) int64 { return s.Streak }},
	{ID: BadgeCommunityFavorite, Requirement: 100, selector: func(s Stats) int64 { return s.Votes }},
	{ID: BadgeBookworm, Requirement: 20, selector: func(s Stats) int64 { return s.Bookmarks }},
}

// BadgeState is the derived view of one badge; never persisted partially,
// always recomputed in full from the current stats.
type BadgeState struct {
	ID          BadgeID `json:"id"`
	Unlocked    bool    `json:"unlocked"`
	Progress    int64   `json:"progress"`
	Requirement int64   `json:"requirement"`
}

// EvaluateBadges recomputes the whole catalog against the given stats. The
// evaluation is total and stateless; callers diff against the previously
// unlocked set themselves to detect newly earned badges.
func EvaluateBadges(stats Stats) []BadgeState {
	out := make([]BadgeState, 0, len(Catalog))
	for _, spec := range Catalog {
		val := spec.selector(stats)
		progress := val
		if progress > spec.Requirement {
			progress = spec.Requirement
		}
		if progress < 0 {
			progress = 0
		}
		out = append(out, BadgeState{
			ID:          spec.ID,
			Unlocked:    val >= spec.Requirement,
			Progress:    progress,
			Requirement: spec.Requirement,
		})
	}
	return out
}

// ValidateBadgeID ensures non-empty badge id with simple charset check.
func ValidateBadgeID(b BadgeID) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return errors.New("empty badge id")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid badge id")
	}
	return nil
}
