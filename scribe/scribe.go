package scribe

import (
	"context"
	"sort"
	"sync"
	"time"

	"scribekit/core"
	"scribekit/engine"
	"scribekit/realtime"
)

// Option configures the achievement service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	clock   engine.Clock
	loc     *time.Location
	hub     *realtime.Hub
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithClock sets the evaluation clock.
func WithClock(clk engine.Clock) Option { return func(c *config) { c.clock = clk } }

// WithTimezone sets the zone used for streak day bucketing.
func WithTimezone(loc *time.Location) Option { return func(c *config) { c.loc = loc } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// New builds a configured AchievementService. If not provided, defaults are used:
//   - storage: in-memory
//   - clock: system clock (UTC)
//   - timezone: UTC
//   - dispatch: async
func New(opts ...Option) *engine.AchievementService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		// implementors should pass explicit storage in prod
		cfg.storage = &memStore{}
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewAchievementService(cfg.storage, bus, cfg.clock, cfg.loc)
	if cfg.hub != nil {
		// Bridge all primary events to realtime
		bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventStreakMilestone, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventStreakBroken, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventBadgeUnlocked, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
	}
	return svc
}

// memStore is a tiny local storage mirroring adapters/memory so New() stays
// usable without external deps.
type memStore struct {
	mu      sync.Mutex
	writers map[core.WriterID]*memWriter
}

type memWriter struct {
	profile core.Profile
	items   []core.ContentItem
	badges  map[core.BadgeID]struct{}
}

func (s *memStore) get(w core.WriterID) *memWriter {
	if s.writers == nil {
		s.writers = map[core.WriterID]*memWriter{}
	}
	rec, ok := s.writers[w]
	if !ok {
		rec = &memWriter{
			profile: core.Profile{ID: w, Level: 1},
			badges:  map[core.BadgeID]struct{}{},
		}
		s.writers[w] = rec
	}
	return rec
}

func (s *memStore) AddXP(_ context.Context, w core.WriterID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(w)
	next, err := core.AddSafe(rec.profile.XP, delta)
	if err != nil {
		return 0, err
	}
	rec.profile.XP = next
	rec.profile.Updated = time.Now().UTC()
	return next, nil
}

func (s *memStore) Profile(_ context.Context, w core.WriterID) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(w).profile, nil
}

func (s *memStore) SetLevel(_ context.Context, w core.WriterID, level int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(w).profile.Level = level
	return nil
}

func (s *memStore) SetStreak(_ context.Context, w core.WriterID, streak int, lastWrite time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(w)
	rec.profile.WritingStreak = streak
	rec.profile.LastWriteDate = lastWrite
	return nil
}

func (s *memStore) AddContent(_ context.Context, w core.WriterID, item core.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(w)
	rec.items = append(rec.items, item)
	return nil
}

func (s *memStore) ContentItems(_ context.Context, w core.WriterID) ([]core.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(w)
	items := make([]core.ContentItem, len(rec.items))
	copy(items, rec.items)
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *memStore) UnlockedBadges(_ context.Context, w core.WriterID) (map[core.BadgeID]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(w)
	out := make(map[core.BadgeID]struct{}, len(rec.badges))
	for b := range rec.badges {
		out[b] = struct{}{}
	}
	return out, nil
}

func (s *memStore) MarkUnlocked(_ context.Context, w core.WriterID, badge core.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(w).badges[badge] = struct{}{}
	return nil
}

var _ engine.Storage = (*memStore)(nil)
