package core

import "time"

// The writing streak is a read-time projection over the published content
// history, never an independently incremented counter. Recomputing from
// source data on every evaluation avoids the drift a missed counter update
// would cause.

const dayLayout = "2006-01-02"

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// CurrentStreak derives the consecutive-day writing streak from the content
// history. Only published items count, multiple items on one day count once,
// and days are bucketed in loc relative to the evaluation time now.
//
// The streak survives one day of grace: if the most recent published day is
// neither today nor yesterday the chain is broken and the result is 0.
func CurrentStreak(items []ContentItem, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]struct{}, len(items))
	for _, it := range items {
		if !it.Published() {
			continue
		}
		days[dayKey(it.CreatedAt, loc)] = struct{}{}
	}
	if len(days) == 0 {
		return 0
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if _, ok := days[start.Format(dayLayout)]; !ok {
		start = start.AddDate(0, 0, -1)
		if _, ok := days[start.Format(dayLayout)]; !ok {
			return 0
		}
	}

	streak := 0
	for cursor := start; ; cursor = cursor.AddDate(0, 0, -1) {
		if _, ok := days[cursor.Format(dayLayout)]; !ok {
			break
		}
		streak++
	}
	return streak
}

// Streak milestone bonuses, largest tier first so a day that is both a
// multiple of 30 and of 7 only earns the monthly bonus.
const (
	MilestoneMonthlyXP = 200
	MilestoneWeeklyXP  = 50
	MilestoneStartXP   = 10
	MilestoneDailyXP   = 5
)

// MilestoneXP returns the bonus owed when the streak grows to the given day
// count, with a reason string for audit logging. It is only meaningful for
// streaks that increased over the previously stored value; a shrunken streak
// earns nothing.
func MilestoneXP(streak int) (int64, string) {
	switch {
	case streak <= 0:
		return 0, ""
	case streak%30 == 0:
		return MilestoneMonthlyXP, "monthly streak milestone"
	case streak%7 == 0:
		return MilestoneWeeklyXP, "weekly streak milestone"
	case streak == 1:
		return MilestoneStartXP, "streak started"
	default:
		return MilestoneDailyXP, "streak continued"
	}
}
