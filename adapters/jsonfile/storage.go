package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"scribekit/core"
)

// Store persists entire state to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.WriterID]*writerState
}

type writerState struct {
	Profile core.Profile             `json:"profile"`
	Items   []core.ContentItem       `json:"items,omitempty"`
	Badges  map[core.BadgeID]struct{} `json:"badges,omitempty"`
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.WriterID]*writerState{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]*writerState
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if v.Badges == nil {
			v.Badges = map[core.BadgeID]struct{}{}
		}
		s.data[core.WriterID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]*writerState, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(writer core.WriterID) *writerState {
	if st, ok := s.data[writer]; ok {
		return st
	}
	st := &writerState{
		Profile: core.Profile{ID: writer, Level: 1, Updated: time.Now().UTC()},
		Badges:  map[core.BadgeID]struct{}{},
	}
	s.data[writer] = st
	return st
}

func (s *Store) AddXP(_ context.Context, writer core.WriterID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	next, err := core.AddSafe(st.Profile.XP, delta)
	if err != nil {
		return 0, err
	}
	st.Profile.XP = next
	st.Profile.Updated = time.Now().UTC()
	if err := s.persist(); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) Profile(_ context.Context, writer core.WriterID) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(writer).Profile, nil
}

func (s *Store) SetLevel(_ context.Context, writer core.WriterID, level int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	st.Profile.Level = level
	st.Profile.Updated = time.Now().UTC()
	return s.persist()
}

func (s *Store) SetStreak(_ context.Context, writer core.WriterID, streak int, lastWrite time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	st.Profile.WritingStreak = streak
	st.Profile.LastWriteDate = lastWrite
	st.Profile.Updated = time.Now().UTC()
	return s.persist()
}

func (s *Store) AddContent(_ context.Context, writer core.WriterID, item core.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	st.Items = append(st.Items, item)
	return s.persist()
}

func (s *Store) ContentItems(_ context.Context, writer core.WriterID) ([]core.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	out := make([]core.ContentItem, len(st.Items))
	copy(out, st.Items)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UnlockedBadges(_ context.Context, writer core.WriterID) (map[core.BadgeID]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	out := make(map[core.BadgeID]struct{}, len(st.Badges))
	for b := range st.Badges {
		out[b] = struct{}{}
	}
	return out, nil
}

func (s *Store) MarkUnlocked(_ context.Context, writer core.WriterID, badge core.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(writer)
	st.Badges[badge] = struct{}{}
	return s.persist()
}
