package semester

import (
	"strings"
	"time"

	"regcal/internal/model"
)

// Classifier answers per-date questions about a semester: holiday
// membership, finals/class-period/designated-break range tests, weekday
// substitutions, and milestone labels. It holds no mutable state; every
// answer is a pure function of the semester document and the date.
type Classifier struct {
	sem *model.Semester

	holidaysByDate map[string]model.Holiday
	substitutions  map[string]time.Weekday

	breakStart string
	breakEnd   string
}

// NewClassifier indexes the semester's holiday list for exact-date
// lookup, detects schedule-substitution markers, and locates the
// designated-break boundary pair if one exists.
func NewClassifier(sem *model.Semester) *Classifier {
	c := &Classifier{
		sem:            sem,
		holidaysByDate: make(map[string]model.Holiday, len(sem.Holidays)),
		substitutions:  make(map[string]time.Weekday),
	}

	for _, h := range sem.Holidays {
		c.holidaysByDate[h.Date] = h
		if wd, ok := substitutionWeekday(h.Name); ok {
			c.substitutions[h.Date] = wd
		}

		lower := strings.ToLower(h.Name)
		if strings.Contains(lower, "break start") {
			c.breakStart = h.Date
		}
		if strings.Contains(lower, "break end") {
			c.breakEnd = h.Date
		}
	}

	return c
}

// Holiday returns the holiday record on date, if any.
func (c *Classifier) Holiday(date string) (model.Holiday, bool) {
	h, ok := c.holidaysByDate[date]
	return h, ok
}

// SubstituteWeekday reports whether date carries a schedule-substitution
// marker (e.g. "Monday Schedule of Classes Held") and, if so, which
// weekday's schedule runs that day.
func (c *Classifier) SubstituteWeekday(date string) (time.Weekday, bool) {
	wd, ok := c.substitutions[date]
	return wd, ok
}

// BeforeClassPeriod reports date < startDate.
func (c *Classifier) BeforeClassPeriod(date string) bool {
	return date < c.sem.StartDate
}

// AfterClassPeriod reports date > lastClassDate.
func (c *Classifier) AfterClassPeriod(date string) bool {
	return date > c.sem.LastClassDate
}

// InClassPeriod reports startDate <= date <= lastClassDate.
func (c *Classifier) InClassPeriod(date string) bool {
	return !c.BeforeClassPeriod(date) && !c.AfterClassPeriod(date)
}

// InFinalPeriod reports whether date falls inside the finals period,
// inclusive on both ends. Unset period fields yield false.
func (c *Classifier) InFinalPeriod(date string) bool {
	if c.sem.FinalPeriodStart == "" || c.sem.FinalPeriodEnd == "" {
		return false
	}
	return date >= c.sem.FinalPeriodStart && date <= c.sem.FinalPeriodEnd
}

// InDesignatedBreak reports whether date falls inside the break range
// bounded by a "... break start" / "... break end" holiday pair. If
// either boundary holiday is absent, no break is recognized.
func (c *Classifier) InDesignatedBreak(date string) bool {
	if c.breakStart == "" || c.breakEnd == "" {
		return false
	}
	return date >= c.breakStart && date <= c.breakEnd
}

// MilestoneLabels returns the milestone keys whose date equals the given
// date, in enumeration order, filtered by the final-exam flag:
//
//   - hasFinal: the no-final grades-due key is suppressed.
//   - no final: the has-final due/grades keys and the finals-period
//     boundary keys are suppressed, and the last class day additionally
//     carries the synthetic lastDueDate label.
func (c *Classifier) MilestoneLabels(date string, hasFinal bool) []model.MilestoneKey {
	var labels []model.MilestoneKey
	for _, key := range model.MilestoneKeys {
		if suppressed(key, hasFinal) {
			continue
		}
		if d := key.DateOf(c.sem); d != "" && d == date {
			labels = append(labels, key)
		}
	}
	if !hasFinal && date == c.sem.LastClassDate {
		labels = append(labels, model.MilestoneLastDueDate)
	}
	return labels
}

func suppressed(key model.MilestoneKey, hasFinal bool) bool {
	if hasFinal {
		return key == model.MilestoneGradesDueNoFinal
	}
	switch key {
	case model.MilestoneGradesDueHasFinal,
		model.MilestoneLastDueHasFinal,
		model.MilestoneFinalPeriodStart,
		model.MilestoneFinalPeriodEnd:
		return true
	}
	return false
}

// substitutionWeekday detects "<Weekday> schedule" markers the way the
// registrar words them: the name mentions "schedule" together with
// "shift", "classes" or "held", plus a weekday name.
func substitutionWeekday(name string) (time.Weekday, bool) {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "schedule") {
		return 0, false
	}
	if !strings.Contains(lower, "shift") &&
		!strings.Contains(lower, "classes") &&
		!strings.Contains(lower, "held") {
		return 0, false
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if strings.Contains(lower, strings.ToLower(wd.String())) {
			return wd, true
		}
	}
	return 0, false
}
