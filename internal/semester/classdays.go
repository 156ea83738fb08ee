package semester

import (
	"time"

	"regcal/internal/dates"
	"regcal/internal/model"
)

// ClassDayCounts holds per-weekday class-day counts over the class
// period. Matches the registrar's official "class days" tallies.
type ClassDayCounts struct {
	ByWeekday map[time.Weekday]int `json:"by_weekday"`
	Total     int                  `json:"total"`
}

// CountClassDays walks the class period (inclusive) and counts class
// days per weekday:
//
//   - weekends never count
//   - designated-break days never count
//   - holidays never count, except schedule-substitution markers, which
//     count toward the substituted weekday instead of the actual one
func CountClassDays(sem *model.Semester) ClassDayCounts {
	c := NewClassifier(sem)
	counts := ClassDayCounts{ByWeekday: make(map[time.Weekday]int)}

	for date := sem.StartDate; date != "" && date <= sem.LastClassDate; date = dates.AddDays(date, 1) {
		wd := dates.Weekday(date)
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if c.InDesignatedBreak(date) {
			continue
		}
		if sub, ok := c.SubstituteWeekday(date); ok {
			counts.ByWeekday[sub]++
			counts.Total++
			continue
		}
		if _, holiday := c.Holiday(date); holiday {
			continue
		}
		counts.ByWeekday[wd]++
		counts.Total++
	}

	return counts
}
