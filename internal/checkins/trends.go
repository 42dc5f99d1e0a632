package checkins

import (
	"slices"

	"github.com/justestif/go-wellness-mood/internal/db"
)

const dayFormat = "2006-01-02"

// DayCount is the number of check-ins per mood on one UTC day.
type DayCount struct {
	Date  string         `json:"date"`
	Moods map[string]int `json:"moods"`
}

// DailyCounts aggregates check-ins per UTC day, sorted by date.
func DailyCounts(checkins []db.Checkin) []DayCount {
	byDay := make(map[string]map[string]int)
	for _, c := range checkins {
		day := c.CreatedAt.UTC().Format(dayFormat)
		if byDay[day] == nil {
			byDay[day] = make(map[string]int)
		}
		m := c.Mood
		if m == "" {
			m = "neutral"
		}
		byDay[day][m]++
	}

	counts := make([]DayCount, 0, len(byDay))
	for day, moods := range byDay {
		counts = append(counts, DayCount{Date: day, Moods: moods})
	}
	slices.SortFunc(counts, func(a, b DayCount) int {
		if a.Date < b.Date {
			return -1
		}
		if a.Date > b.Date {
			return 1
		}
		return 0
	})
	return counts
}
