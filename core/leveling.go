package core

import "math"

// The leveling curve is quadratic: reaching level n costs (n-1)^2 * 100 XP.
// Level boundaries: 0, 100, 400, 900, 1600, ...

// XPForLevel returns the cumulative XP required to reach the given level.
// Levels at or below 1 cost nothing.
func XPForLevel(level int64) int64 {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * 100
}

// LevelForXP maps cumulative XP to a level. It is the exact inverse of
// XPForLevel at boundary values: LevelForXP(XPForLevel(n)) == n for n >= 1.
func LevelForXP(xp int64) int64 {
	if xp <= 0 {
		return 1
	}
	return int64(math.Floor(math.Sqrt(float64(xp)/100.0))) + 1
}

// LevelProgress returns how far xp has advanced through the given level as a
// percentage, clamped to [0, 100].
func LevelProgress(xp int64, level int64) float64 {
	if level < 1 {
		level = 1
	}
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)
	if ceil <= floor {
		return 0
	}
	pct := float64(xp-floor) / float64(ceil-floor) * 100.0
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// LevelUp describes a level transition caused by a single XP award. A jump
// spanning several levels is reported as one transition carrying the full
// delta, never one per level.
type LevelUp struct {
	OldLevel int64 `json:"old_level"`
	NewLevel int64 `json:"new_level"`
}

// AwardXP folds an XP amount into the profile and re-derives the level.
// It returns the updated profile and a non-nil LevelUp when the stored level
// increased. The amount must be positive; validation belongs to the caller,
// the arithmetic here never fails.
func AwardXP(p Profile, amount int64) (Profile, *LevelUp) {
	p.XP += amount
	newLevel := LevelForXP(p.XP)
	if newLevel > p.Level {
		lu := &LevelUp{OldLevel: p.Level, NewLevel: newLevel}
		p.Level = newLevel
		return p, lu
	}
	// level never decreases on an award; correct upward drift only
	if p.Level < 1 {
		p.Level = 1
	}
	return p, nil
}
