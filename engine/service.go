package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scribekit/core"
)

// AchievementService wires storage, event bus, and the pure core functions
// into a cohesive API. All derived values (level, streak, badges) are fully
// recomputed from fresh reads; only the XP counter itself is mutated, through
// the storage layer's atomic increment.
type AchievementService struct {
	storage Storage
	bus     *EventBus
	clock   Clock
	loc     *time.Location
}

func NewAchievementService(storage Storage, bus *EventBus, clock Clock, loc *time.Location) *AchievementService {
	if storage == nil || bus == nil {
		panic("NewAchievementService requires non-nil storage and bus")
	}
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AchievementService{storage: storage, bus: bus, clock: clock, loc: loc}
}

// Subscribe convenience method.
func (s *AchievementService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *AchievementService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// AwardXP atomically adds amount to the writer's XP and re-derives the level.
// A crossed boundary is reported as a single level-up event carrying the full
// old/new delta regardless of how many levels the award spanned. There is no
// award deduplication: a retried call double-awards.
func (s *AchievementService) AwardXP(ctx context.Context, writer core.WriterID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	normalized, err := core.NormalizeWriterID(writer)
	if err != nil {
		return 0, err
	}
	prof, err := s.storage.Profile(ctx, normalized)
	if err != nil {
		return 0, err
	}
	total, err := s.storage.AddXP(ctx, normalized, amount)
	if err != nil {
		return 0, err
	}
	s.bus.Publish(ctx, core.NewXPAwarded(normalized, amount, total, reason))

	if newLevel := core.LevelForXP(total); newLevel > prof.Level {
		if err := s.storage.SetLevel(ctx, normalized, newLevel); err != nil {
			return total, fmt.Errorf("persist level: %w", err)
		}
		s.bus.Publish(ctx, core.NewLevelUp(normalized, core.LevelUp{OldLevel: prof.Level, NewLevel: newLevel}))
	}
	return total, nil
}

// RecordContent appends a story to the writer's history and re-evaluates the
// derived achievement state. Publishing refreshes the streak and may trigger
// milestone XP; drafts still feed badge evaluation.
func (s *AchievementService) RecordContent(ctx context.Context, writer core.WriterID, item core.ContentItem) error {
	normalized, err := core.NormalizeWriterID(writer)
	if err != nil {
		return err
	}
	switch item.Status {
	case core.StatusDraft, core.StatusPublished:
	default:
		return fmt.Errorf("unknown content status %q", item.Status)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.clock.Now()
	}
	if item.WordCount < 0 {
		return errors.New("word count cannot be negative")
	}
	if err := s.storage.AddContent(ctx, normalized, item); err != nil {
		return err
	}
	return s.refresh(ctx, normalized)
}

// RefreshStreak recomputes the streak and badge state from the stored
// history. Call it on profile load so a day of inactivity is reflected
// without waiting for the next publish.
func (s *AchievementService) RefreshStreak(ctx context.Context, writer core.WriterID) error {
	normalized, err := core.NormalizeWriterID(writer)
	if err != nil {
		return err
	}
	return s.refresh(ctx, normalized)
}

func (s *AchievementService) refresh(ctx context.Context, writer core.WriterID) error {
	items, err := s.storage.ContentItems(ctx, writer)
	if err != nil {
		return err
	}
	prof, err := s.storage.Profile(ctx, writer)
	if err != nil {
		return err
	}

	streak := core.CurrentStreak(items, s.clock.Now(), s.loc)
	switch {
	case streak > prof.WritingStreak:
		bonus, reason := core.MilestoneXP(streak)
		s.bus.Publish(ctx, core.NewStreakMilestone(writer, streak, bonus, reason))
		if _, err := s.AwardXP(ctx, writer, bonus, reason); err != nil {
			return fmt.Errorf("award streak bonus: %w", err)
		}
	case streak < prof.WritingStreak:
		// broken streak awards nothing; the notification layer surfaces it
		s.bus.Publish(ctx, core.NewStreakBroken(writer, prof.WritingStreak))
	}
	if err := s.storage.SetStreak(ctx, writer, streak, lastPublished(items)); err != nil {
		return fmt.Errorf("persist streak: %w", err)
	}

	return s.unlockNewBadges(ctx, writer, core.StatsFromHistory(items, streak))
}

func (s *AchievementService) unlockNewBadges(ctx context.Context, writer core.WriterID, stats core.Stats) error {
	prev, err := s.storage.UnlockedBadges(ctx, writer)
	if err != nil {
		return err
	}
	for _, state := range core.EvaluateBadges(stats) {
		if !state.Unlocked {
			continue
		}
		if _, seen := prev[state.ID]; seen {
			continue
		}
		if err := s.storage.MarkUnlocked(ctx, writer, state.ID); err != nil {
			return fmt.Errorf("persist badge %s: %w", state.ID, err)
		}
		s.bus.Publish(ctx, core.NewBadgeUnlocked(writer, state.ID))
	}
	return nil
}

// Badges returns the full derived badge view, recomputed from the current
// history and streak on every call.
func (s *AchievementService) Badges(ctx context.Context, writer core.WriterID) ([]core.BadgeState, error) {
	normalized, err := core.NormalizeWriterID(writer)
	if err != nil {
		return nil, err
	}
	items, err := s.storage.ContentItems(ctx, normalized)
	if err != nil {
		return nil, err
	}
	streak := core.CurrentStreak(items, s.clock.Now(), s.loc)
	return core.EvaluateBadges(core.StatsFromHistory(items, streak)), nil
}

func (s *AchievementService) GetProfile(ctx context.Context, writer core.WriterID) (core.Profile, error) {
	normalized, err := core.NormalizeWriterID(writer)
	if err != nil {
		return core.Profile{}, err
	}
	return s.storage.Profile(ctx, normalized)
}

func (s *AchievementService) Close() { s.bus.Close() }

func lastPublished(items []core.ContentItem) time.Time {
	var last time.Time
	for _, it := range items {
		if it.Published() && it.CreatedAt.After(last) {
			last = it.CreatedAt
		}
	}
	return last
}
