package analytics

import (
	"fmt"
	"sync"
	"time"

	"scribekit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DailyActiveWriters tracks writers with at least one event per day.
type DailyActiveWriters struct {
	mu   sync.Mutex
	days map[string]map[core.WriterID]struct{}
}

func NewDailyActiveWriters() *DailyActiveWriters {
	return &DailyActiveWriters{days: map[string]map[core.WriterID]struct{}{}}
}

func (d *DailyActiveWriters) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.WriterID]struct{}{}
		d.days[day] = m
	}
	m[e.Writer] = struct{}{}
}

func (d *DailyActiveWriters) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// PublishingMetrics aggregates engine events into the counters the product
// dashboards read: XP flow, level distribution, badge unlocks, and streak
// milestones.
type PublishingMetrics struct {
	mu sync.RWMutex

	// Writer engagement
	activeByDay   map[string]map[core.WriterID]struct{}
	activeByWeek  map[string]map[core.WriterID]struct{}
	activeByMonth map[string]map[core.WriterID]struct{}

	// XP flow
	xpByDay    map[string]int64
	xpByReason map[string]int64

	// Levels
	levelUpsByDay     map[string]int64
	levelDistribution map[int64]int // new level -> count of transitions

	// Badges
	badgesByDay  map[string]int64
	badgesByID   map[core.BadgeID]int64
	badgeHolders map[core.BadgeID]map[core.WriterID]struct{}

	// Streaks
	milestonesByDay map[string]int64
	brokenByDay     map[string]int64
}

func NewPublishingMetrics() *PublishingMetrics {
	return &PublishingMetrics{
		activeByDay:       make(map[string]map[core.WriterID]struct{}),
		activeByWeek:      make(map[string]map[core.WriterID]struct{}),
		activeByMonth:     make(map[string]map[core.WriterID]struct{}),
		xpByDay:           make(map[string]int64),
		xpByReason:        make(map[string]int64),
		levelUpsByDay:     make(map[string]int64),
		levelDistribution: make(map[int64]int),
		badgesByDay:       make(map[string]int64),
		badgesByID:        make(map[core.BadgeID]int64),
		badgeHolders:      make(map[core.BadgeID]map[core.WriterID]struct{}),
		milestonesByDay:   make(map[string]int64),
		brokenByDay:       make(map[string]int64),
	}
}

func (m *PublishingMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	m.trackEngagement(e.Writer, day, weekKey(e.Time), monthKey(e.Time))

	switch e.Type {
	case core.EventXPAwarded:
		if e.Amount > 0 {
			m.xpByDay[day] += e.Amount
			m.xpByReason[e.Reason] += e.Amount
		}
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
		m.levelDistribution[e.NewLevel]++
	case core.EventBadgeUnlocked:
		m.badgesByDay[day]++
		m.badgesByID[e.Badge]++
		if m.badgeHolders[e.Badge] == nil {
			m.badgeHolders[e.Badge] = make(map[core.WriterID]struct{})
		}
		m.badgeHolders[e.Badge][e.Writer] = struct{}{}
	case core.EventStreakMilestone:
		m.milestonesByDay[day]++
	case core.EventStreakBroken:
		m.brokenByDay[day]++
	}
}

func (m *PublishingMetrics) trackEngagement(writer core.WriterID, day, week, month string) {
	for key, bucket := range map[string]map[string]map[core.WriterID]struct{}{
		day:   m.activeByDay,
		week:  m.activeByWeek,
		month: m.activeByMonth,
	} {
		if bucket[key] == nil {
			bucket[key] = make(map[core.WriterID]struct{})
		}
		bucket[key][writer] = struct{}{}
	}
}

// ActiveWriters returns the distinct writer count for a day key (2006-01-02).
func (m *PublishingMetrics) ActiveWriters(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.activeByDay[day])
}

// XPAwarded returns total XP granted on the given day.
func (m *PublishingMetrics) XPAwarded(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpByDay[day]
}

// XPByReason returns total XP granted for an audit reason string.
func (m *PublishingMetrics) XPByReason(reason string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpByReason[reason]
}

// BadgeUnlocks returns how many times the badge was unlocked.
func (m *PublishingMetrics) BadgeUnlocks(badge core.BadgeID) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.badgesByID[badge]
}

// BadgeHolders returns the count of distinct writers holding the badge.
func (m *PublishingMetrics) BadgeHolders(badge core.BadgeID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.badgeHolders[badge])
}

// LevelTransitions returns how many level-ups landed on the given level.
func (m *PublishingMetrics) LevelTransitions(level int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelDistribution[level]
}

// StreaksBroken returns the streak-broken count for a day key.
func (m *PublishingMetrics) StreaksBroken(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.brokenByDay[day]
}

// Snapshot returns a flattened copy of the headline counters for export.
func (m *PublishingMetrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totalXP int64
	for _, v := range m.xpByReason {
		totalXP += v
	}
	var totalBadges int64
	for _, v := range m.badgesByID {
		totalBadges += v
	}
	return map[string]any{
		"total_xp_awarded":      totalXP,
		"total_badge_unlocks":   totalBadges,
		"tracked_days":          len(m.xpByDay),
		"level_transition_span": len(m.levelDistribution),
	}
}

func weekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
