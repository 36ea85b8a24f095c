package engine

import (
	"context"
	"time"

	"scribekit/core"
)

// Storage abstracts the persistence collaborator. Implementations must make
// AddXP an atomic increment; every other counter the engine writes (level,
// streak, badges) is a derived value recomputed from fresh reads.
type Storage interface {
	AddXP(ctx context.Context, writer core.WriterID, delta int64) (newTotal int64, err error)
	Profile(ctx context.Context, writer core.WriterID) (core.Profile, error)
	SetLevel(ctx context.Context, writer core.WriterID, level int64) error
	SetStreak(ctx context.Context, writer core.WriterID, streak int, lastWrite time.Time) error
	AddContent(ctx context.Context, writer core.WriterID, item core.ContentItem) error
	// ContentItems returns the writer's full history ordered by creation time.
	ContentItems(ctx context.Context, writer core.WriterID) ([]core.ContentItem, error)
	UnlockedBadges(ctx context.Context, writer core.WriterID) (map[core.BadgeID]struct{}, error)
	MarkUnlocked(ctx context.Context, writer core.WriterID, badge core.BadgeID) error
}

// Clock supplies evaluation time for streak derivation so tests stay
// deterministic and production pins a single policy.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
func SystemClock() Clock { return ClockFunc(func() time.Time { return time.Now().UTC() }) }
