package engagement

// Level is a named rank reached at a cumulative reading total.
type Level struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	MinMinutes int    `json:"min_minutes"`
}

// Levels is ordered by MinMinutes.
var Levels = []Level{
	{1, "Page Turner", 0},
	{2, "Story Seeker", 60},
	{3, "Chapter Champion", 300},
	{4, "Book Explorer", 900},
	{5, "Library Legend", 2400},
	{6, "Master Reader", 6000},
}

// LevelView is the progress-bar view of a reading total. Derived on read,
// never stored.
type LevelView struct {
	Level         Level   `json:"level"`
	Next          *Level  `json:"next,omitempty"`
	TotalMinutes  int     `json:"total_minutes"`
	MinutesToNext int     `json:"minutes_to_next"`
	ProgressPct   float64 `json:"progress_pct"`
}

// LevelFor maps cumulative minutes to a level view. Progress is 0-100 and
// pinned at 100 on the last level.
func LevelFor(totalMinutes int) LevelView {
	if totalMinutes < 0 {
		totalMinutes = 0
	}

	idx := 0
	for i, l := range Levels {
		if totalMinutes >= l.MinMinutes {
			idx = i
		}
	}

	v := LevelView{Level: Levels[idx], TotalMinutes: totalMinutes}
	if idx == len(Levels)-1 {
		v.ProgressPct = 100
		return v
	}

	next := Levels[idx+1]
	v.Next = &next
	v.MinutesToNext = next.MinMinutes - totalMinutes
	span := next.MinMinutes - v.Level.MinMinutes
	v.ProgressPct = float64(totalMinutes-v.Level.MinMinutes) / float64(span) * 100
	return v
}
