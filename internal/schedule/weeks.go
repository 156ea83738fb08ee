// Package schedule builds the week sequence, tracks the session's event
// ledger, and renders the full semester grid. Rendering is a pure
// function of (semester, theme, ledger); every user action recomputes
// the grid from scratch.
package schedule

import (
	"fmt"
	"time"

	"regcal/internal/dates"
)

// weekdayCount is the number of rendered weekdays per week (Mon-Fri).
const weekdayCount = 5

// Day is one weekday cell source: its ISO date and short display form.
type Day struct {
	Date    string `json:"date"`
	Display string `json:"display"`
}

// Week is a Monday-start window of five weekdays.
type Week struct {
	Index int              `json:"index"`
	Days  [weekdayCount]Day `json:"days"`
}

// ConfigWarning is a non-fatal data inconsistency surfaced to the user.
// Rendering proceeds using the supplied (possibly wrong) data; nothing
// is auto-corrected.
type ConfigWarning string

func (w ConfigWarning) Error() string { return string(w) }

// FirstMonday derives the Monday of the calendar week containing the
// semester's start date.
func FirstMonday(startDate string) string {
	return dates.MondayOf(startDate)
}

// BuildWeeks emits consecutive Monday-start five-weekday windows,
// advancing seven calendar days per iteration, while the window's
// Monday is on or before endDate. The trailing week may extend past
// endDate; downstream filtering handles those days.
//
// firstMonday is expected to actually be a Monday. If it is not, that is
// a semester-data inconsistency: a ConfigWarning is returned alongside
// the weeks and the supplied date is used as-is.
func BuildWeeks(firstMonday, endDate string) ([]Week, []ConfigWarning) {
	var warnings []ConfigWarning
	if wd := dates.Weekday(firstMonday); wd != time.Monday {
		warnings = append(warnings, ConfigWarning(
			fmt.Sprintf("first Monday %s is a %s, not a Monday; check the semester data", firstMonday, wd)))
	}

	var weeks []Week
	for monday := firstMonday; monday != "" && monday <= endDate; monday = dates.AddDays(monday, 7) {
		w := Week{Index: len(weeks)}
		for i := 0; i < weekdayCount; i++ {
			d := dates.AddDays(monday, i)
			w.Days[i] = Day{Date: d, Display: dates.DisplayShort(d)}
		}
		weeks = append(weeks, w)
	}
	return weeks, warnings
}
