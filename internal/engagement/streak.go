// Package engagement derives streaks, points, levels and achievements from
// a reader's aggregate stats.
package engagement

import (
	"fmt"
	"time"
)

// Day returns the civil date of t in loc, expressed as midnight UTC so that
// day arithmetic never crosses a DST transition.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole civil days from last to today. Both must come
// from Day.
func DaysBetween(last, today time.Time) int {
	return int(today.Sub(last).Hours() / 24)
}

// NextStreak returns the streak after reading on today.
//   - no prior read: 1
//   - same day (or earlier, after a clock or timezone change): unchanged
//   - the day after: +1
//   - any longer gap: reset to 1
func NextStreak(lastRead *time.Time, streak int, today time.Time) int {
	if lastRead == nil {
		return 1
	}
	diff := DaysBetween(*lastRead, today)
	switch {
	case diff <= 0:
		return streak
	case diff == 1:
		return streak + 1
	default:
		return 1
	}
}

// Multiplier is a streak bonus expressed in quarters, so 4 is x1.0.
type Multiplier int

const (
	MultiplierBase   Multiplier = 4
	MultiplierStreak Multiplier = 5 // 3+ days
	MultiplierHot    Multiplier = 6 // 7+ days
)

func (m Multiplier) Float64() float64 {
	return float64(m) / 4
}

func (m Multiplier) String() string {
	return fmt.Sprintf("x%.2f", m.Float64())
}

// MultiplierFor returns the bonus a streak of the given length earns.
func MultiplierFor(streak int) Multiplier {
	switch {
	case streak >= 7:
		return MultiplierHot
	case streak >= 3:
		return MultiplierStreak
	default:
		return MultiplierBase
	}
}

// Points is floor(minutes * multiplier), computed in integers.
func Points(minutes int, m Multiplier) int {
	if minutes <= 0 {
		return 0
	}
	return minutes * int(m) / 4
}

// Outcome is everything the accounting write needs for one session.
type Outcome struct {
	Day        time.Time
	Streak     int
	Multiplier Multiplier
	Points     int
}

// Calculate derives the streak and point yield of a session of the given
// length finishing at now. With bonus false the yield is one point per
// minute, but the streak still advances.
func Calculate(lastRead *time.Time, streak int, now time.Time, loc *time.Location, minutes int, bonus bool) Outcome {
	today := Day(now, loc)
	next := NextStreak(lastRead, streak, today)

	m := MultiplierBase
	if bonus {
		m = MultiplierFor(next)
	}
	return Outcome{
		Day:        today,
		Streak:     next,
		Multiplier: m,
		Points:     Points(minutes, m),
	}
}
