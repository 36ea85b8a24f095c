package engine_test

import (
	"context"
	"testing"
	"time"

	mem "scribekit/adapters/memory"
	"scribekit/core"
	"scribekit/engine"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T) (*engine.AchievementService, *testClock, *eventRecorder) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	bus := engine.NewEventBus(engine.DispatchSync)
	svc := engine.NewAchievementService(mem.New(), bus, clock, time.UTC)
	rec := &eventRecorder{}
	for _, typ := range []core.EventType{
		core.EventXPAwarded, core.EventLevelUp, core.EventStreakMilestone,
		core.EventStreakBroken, core.EventBadgeUnlocked,
	} {
		svc.Subscribe(typ, rec.record)
	}
	return svc, clock, rec
}

type eventRecorder struct{ events []core.Event }

func (r *eventRecorder) record(_ context.Context, e core.Event) { r.events = append(r.events, e) }

func (r *eventRecorder) byType(typ core.EventType) []core.Event {
	var out []core.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestAwardXPLevelUpSingleEvent(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	total, err := svc.AwardXP(ctx, "carol", 250, "story published")
	if err != nil {
		t.Fatal(err)
	}
	if total != 250 {
		t.Fatalf("total = %d", total)
	}

	ups := rec.byType(core.EventLevelUp)
	if len(ups) != 1 {
		t.Fatalf("want exactly one level-up event, got %d", len(ups))
	}
	if ups[0].OldLevel != 1 || ups[0].NewLevel != 2 {
		t.Fatalf("want 1->2, got %d->%d", ups[0].OldLevel, ups[0].NewLevel)
	}

	prof, err := svc.GetProfile(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if prof.Level != core.LevelForXP(prof.XP) {
		t.Fatal("stored level out of sync with curve")
	}
}

func TestAwardXPMultiLevelJump(t *testing.T) {
	svc, _, rec := newTestService(t)

	if _, err := svc.AwardXP(context.Background(), "carol", 10_000, "import bonus"); err != nil {
		t.Fatal(err)
	}
	ups := rec.byType(core.EventLevelUp)
	if len(ups) != 1 {
		t.Fatalf("multi-level jump must emit one event, got %d", len(ups))
	}
	if ups[0].OldLevel != 1 || ups[0].NewLevel != 11 {
		t.Fatalf("want 1->11, got %d->%d", ups[0].OldLevel, ups[0].NewLevel)
	}
}

func TestAwardXPRejectsNonPositive(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.AwardXP(context.Background(), "carol", 0, "noop"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := svc.AwardXP(context.Background(), "carol", -5, "refund"); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestFirstPublishAwardsStreakStartAndBadge(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	err := svc.RecordContent(ctx, "dana", core.ContentItem{Status: core.StatusPublished, WordCount: 900})
	if err != nil {
		t.Fatal(err)
	}

	prof, err := svc.GetProfile(ctx, "dana")
	if err != nil {
		t.Fatal(err)
	}
	if prof.WritingStreak != 1 {
		t.Fatalf("streak = %d, want 1", prof.WritingStreak)
	}
	if prof.XP != core.MilestoneStartXP {
		t.Fatalf("xp = %d, want fresh-start bonus %d", prof.XP, core.MilestoneStartXP)
	}

	milestones := rec.byType(core.EventStreakMilestone)
	if len(milestones) != 1 || milestones[0].Amount != core.MilestoneStartXP {
		t.Fatalf("unexpected milestones: %+v", milestones)
	}

	var unlocked []core.BadgeID
	for _, e := range rec.byType(core.EventBadgeUnlocked) {
		unlocked = append(unlocked, e.Badge)
	}
	if len(unlocked) != 1 || unlocked[0] != core.BadgeFirstPublish {
		t.Fatalf("want [first-publish], got %v", unlocked)
	}
}

func TestThreeDayStreakUnlocksStarterTier(t *testing.T) {
	svc, clock, rec := newTestService(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		err := svc.RecordContent(ctx, "dana", core.ContentItem{Status: core.StatusPublished, WordCount: 100})
		if err != nil {
			t.Fatal(err)
		}
		clock.advance(24 * time.Hour)
	}
	clock.advance(-24 * time.Hour) // evaluation time back to the last publish day

	prof, err := svc.GetProfile(ctx, "dana")
	if err != nil {
		t.Fatal(err)
	}
	if prof.WritingStreak != 3 {
		t.Fatalf("streak = %d, want 3", prof.WritingStreak)
	}
	// day 1 start bonus plus two continuation bonuses
	want := int64(core.MilestoneStartXP + 2*core.MilestoneDailyXP)
	if prof.XP != want {
		t.Fatalf("xp = %d, want %d", prof.XP, want)
	}

	found := false
	for _, e := range rec.byType(core.EventBadgeUnlocked) {
		if e.Badge == core.BadgeStreakStarter {
			found = true
		}
	}
	if !found {
		t.Fatal("3-day streak should unlock streak-starter")
	}
}

func TestBrokenStreakEmitsEventWithoutXP(t *testing.T) {
	svc, clock, rec := newTestService(t)
	ctx := context.Background()

	if err := svc.RecordContent(ctx, "dana", core.ContentItem{Status: core.StatusPublished}); err != nil {
		t.Fatal(err)
	}
	before, _ := svc.GetProfile(ctx, "dana")

	clock.advance(72 * time.Hour)
	if err := svc.RefreshStreak(ctx, "dana"); err != nil {
		t.Fatal(err)
	}

	after, err := svc.GetProfile(ctx, "dana")
	if err != nil {
		t.Fatal(err)
	}
	if after.WritingStreak != 0 {
		t.Fatalf("streak = %d, want 0", after.WritingStreak)
	}
	if after.XP != before.XP {
		t.Fatalf("broken streak must not change xp: %d -> %d", before.XP, after.XP)
	}
	broken := rec.byType(core.EventStreakBroken)
	if len(broken) != 1 || broken[0].Streak != 1 {
		t.Fatalf("unexpected streak-broken events: %+v", broken)
	}
}

func TestBadgeUnlockedOnlyOnce(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	if err := svc.RecordContent(ctx, "dana", core.ContentItem{Status: core.StatusDraft, WordCount: 50}); err != nil {
		t.Fatal(err)
	}
	if err := svc.RefreshStreak(ctx, "dana"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RefreshStreak(ctx, "dana"); err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, e := range rec.byType(core.EventBadgeUnlocked) {
		if e.Badge == core.BadgeFirstDraft {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("first-draft unlocked %d times", count)
	}
}

func TestBadgesViewRecomputedFully(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	err := svc.RecordContent(ctx, "erin", core.ContentItem{Status: core.StatusPublished, WordCount: 4000, VoteCount: 40})
	if err != nil {
		t.Fatal(err)
	}
	states, err := svc.Badges(ctx, "erin")
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != len(core.Catalog) {
		t.Fatalf("got %d badge states", len(states))
	}
	for _, st := range states {
		if st.ID == core.BadgeWordMaster {
			if st.Progress != 4000 || st.Unlocked {
				t.Fatalf("word-master state wrong: %+v", st)
			}
		}
	}
}

func TestRecordContentRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.RecordContent(ctx, "erin", core.ContentItem{Status: "archived"}); err == nil {
		t.Fatal("expected unknown status error")
	}
	if err := svc.RecordContent(ctx, "erin", core.ContentItem{Status: core.StatusDraft, WordCount: -1}); err == nil {
		t.Fatal("expected negative word count error")
	}
	if err := svc.RecordContent(ctx, "  ", core.ContentItem{Status: core.StatusDraft}); err == nil {
		t.Fatal("expected empty writer id error")
	}
}
