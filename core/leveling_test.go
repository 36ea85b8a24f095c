package core

import "testing"

func TestLevelBoundariesAreExactInverses(t *testing.T) {
	for l := int64(1); l <= 200; l++ {
		if got := LevelForXP(XPForLevel(l)); got != l {
			t.Fatalf("LevelForXP(XPForLevel(%d)) = %d", l, got)
		}
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := int64(1); xp <= 50_000; xp += 37 {
		cur := LevelForXP(xp)
		if cur < prev {
			t.Fatalf("level decreased: xp=%d level=%d prev=%d", xp, cur, prev)
		}
		prev = cur
	}
}

func TestLevelForXPEdges(t *testing.T) {
	if LevelForXP(-5) != 1 || LevelForXP(0) != 1 {
		t.Fatal("non-positive xp must map to level 1")
	}
	if XPForLevel(0) != 0 || XPForLevel(1) != 0 {
		t.Fatal("levels <= 1 cost nothing")
	}
	if XPForLevel(3) != 400 {
		t.Fatalf("XPForLevel(3) = %d, want 400", XPForLevel(3))
	}
}

func TestLevelProgressClamped(t *testing.T) {
	for xp := int64(0); xp <= 2_000; xp += 13 {
		pct := LevelProgress(xp, LevelForXP(xp))
		if pct < 0 || pct > 100 {
			t.Fatalf("progress out of range: xp=%d pct=%f", xp, pct)
		}
	}
	// stale level argument must still clamp
	if LevelProgress(10_000, 1) != 100 {
		t.Fatal("overshoot should clamp to 100")
	}
	if LevelProgress(0, 5) != 0 {
		t.Fatal("undershoot should clamp to 0")
	}
}

func TestAwardXPScenario(t *testing.T) {
	// 250 XP from zero lands in level 2 (boundary 100), halfway to level 3
	// (boundary 400), with a single level-up transition.
	p := Profile{ID: "w1", XP: 0, Level: 1}
	p, lu := AwardXP(p, 250)
	if p.XP != 250 || p.Level != 2 {
		t.Fatalf("got xp=%d level=%d", p.XP, p.Level)
	}
	if lu == nil || lu.OldLevel != 1 || lu.NewLevel != 2 {
		t.Fatalf("unexpected level up: %+v", lu)
	}
	if pct := LevelProgress(p.XP, p.Level); pct != 50 {
		t.Fatalf("expected 50%% progress, got %f", pct)
	}
}

func TestAwardXPNoSpuriousLevelUp(t *testing.T) {
	p := Profile{ID: "w1", XP: 150, Level: 2}
	p, lu := AwardXP(p, 10)
	if lu != nil {
		t.Fatalf("no boundary crossed, got %+v", lu)
	}
	if p.Level != 2 {
		t.Fatalf("level changed to %d", p.Level)
	}
}

func TestAwardXPMultiLevelJumpSingleEvent(t *testing.T) {
	p := Profile{ID: "w1", XP: 0, Level: 1}
	p, lu := AwardXP(p, 10_000) // boundary for level 11
	if lu == nil || lu.OldLevel != 1 || lu.NewLevel != 11 {
		t.Fatalf("expected one transition 1->11, got %+v", lu)
	}
	if p.Level != LevelForXP(p.XP) {
		t.Fatal("stored level out of sync with curve")
	}
}
