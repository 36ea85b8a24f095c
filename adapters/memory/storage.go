package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"scribekit/core"
)

// Store is a concurrent in-memory Storage implementation.
type Store struct {
	writers sync.Map // map[core.WriterID]*writerRecord
}

type writerRecord struct {
	mu      sync.Mutex
	profile core.Profile
	items   []core.ContentItem
	badges  map[core.BadgeID]struct{}
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(writer core.WriterID) *writerRecord {
	if v, ok := s.writers.Load(writer); ok {
		return v.(*writerRecord)
	}
	rec := &writerRecord{
		profile: core.Profile{ID: writer, Level: 1, Updated: time.Now().UTC()},
		badges:  map[core.BadgeID]struct{}{},
	}
	actual, _ := s.writers.LoadOrStore(writer, rec)
	return actual.(*writerRecord)
}

func (s *Store) AddXP(_ context.Context, writer core.WriterID, delta int64) (int64, error) {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := core.AddSafe(rec.profile.XP, delta)
	if err != nil {
		return 0, err
	}
	rec.profile.XP = next
	rec.profile.Updated = time.Now().UTC()
	return next, nil
}

func (s *Store) Profile(_ context.Context, writer core.WriterID) (core.Profile, error) {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.profile, nil
}

func (s *Store) SetLevel(_ context.Context, writer core.WriterID, level int64) error {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.Level = level
	rec.profile.Updated = time.Now().UTC()
	return nil
}

func (s *Store) SetStreak(_ context.Context, writer core.WriterID, streak int, lastWrite time.Time) error {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.profile.WritingStreak = streak
	rec.profile.LastWriteDate = lastWrite
	rec.profile.Updated = time.Now().UTC()
	return nil
}

func (s *Store) AddContent(_ context.Context, writer core.WriterID, item core.ContentItem) error {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.items = append(rec.items, item)
	return nil
}

func (s *Store) ContentItems(_ context.Context, writer core.WriterID) ([]core.ContentItem, error) {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.ContentItem, len(rec.items))
	copy(out, rec.items)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UnlockedBadges(_ context.Context, writer core.WriterID) (map[core.BadgeID]struct{}, error) {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make(map[core.BadgeID]struct{}, len(rec.badges))
	for b := range rec.badges {
		out[b] = struct{}{}
	}
	return out, nil
}

func (s *Store) MarkUnlocked(_ context.Context, writer core.WriterID, badge core.BadgeID) error {
	rec := s.getOrCreate(writer)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.badges[badge] = struct{}{}
	return nil
}
