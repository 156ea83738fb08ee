// Package model defines the semester and theme documents and the
// milestone-key enumeration built on top of them. These are the two
// externally supplied inputs; both are immutable for a session.
package model

// Holiday is a single no-class day (or a schedule-substitution marker)
// from the semester document.
type Holiday struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required"`
}

// Semester is the semester description document. All date fields are ISO
// "YYYY-MM-DD" strings. Optional milestone fields may be empty, in which
// case they simply do not apply.
type Semester struct {
	Name string `json:"name" validate:"required"`

	// StartDate / LastClassDate bound the class period, inclusive.
	StartDate     string `json:"startDate" validate:"required,datetime=2006-01-02"`
	LastClassDate string `json:"lastClassDate" validate:"required,datetime=2006-01-02"`

	FinalPeriodStart string `json:"finalPeriodStart" validate:"omitempty,datetime=2006-01-02"`
	FinalPeriodEnd   string `json:"finalPeriodEnd" validate:"omitempty,datetime=2006-01-02"`

	GradesDueHasFinal string `json:"gradesDueHasFinal" validate:"omitempty,datetime=2006-01-02"`
	GradesDueNoFinal  string `json:"gradesDueNoFinal" validate:"omitempty,datetime=2006-01-02"`
	LastDueHasFinal   string `json:"lastDueHasFinal" validate:"omitempty,datetime=2006-01-02"`

	// Holidays need not be sorted; lookups are by exact date match.
	Holidays []Holiday `json:"holidays" validate:"dive"`
}

// Importance levels used by the theme for milestones and holidays.
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
)

// Theme is the color/importance document.
type Theme struct {
	// Milestones maps a milestone key to an importance level.
	Milestones map[string]string `json:"milestones"`

	// Holidays maps a holiday name to an importance level. The special
	// "default" entry is a color reference (not a level) used as the
	// fallback for unlisted holidays.
	Holidays map[string]string `json:"holidays"`

	// Events maps an event type (lecture/lab/recitation) to a color or
	// palette reference.
	Events map[string]string `json:"events"`

	// Palette maps palette name -> shade name -> hex color.
	Palette map[string]map[string]string `json:"palette"`

	// Levels maps an importance level to a color reference.
	Levels map[string]string `json:"levels"`
}

// MilestoneKey identifies a named date drawn from the semester document.
//
// The mapping to semester fields is an explicit enumeration with
// accessors so that a typo in the theme or semester document cannot
// silently invent or drop a milestone.
type MilestoneKey string

const (
	MilestoneStartDate         MilestoneKey = "startDate"
	MilestoneLastClassDate     MilestoneKey = "lastClassDate"
	MilestoneFinalPeriodStart  MilestoneKey = "finalPeriodStart"
	MilestoneFinalPeriodEnd    MilestoneKey = "finalPeriodEnd"
	MilestoneGradesDueHasFinal MilestoneKey = "gradesDueHasFinal"
	MilestoneGradesDueNoFinal  MilestoneKey = "gradesDueNoFinal"
	MilestoneLastDueHasFinal   MilestoneKey = "lastDueHasFinal"

	// MilestoneLastDueDate is synthetic: when no final applies, the last
	// class day doubles as the final due date. It has no backing field.
	MilestoneLastDueDate MilestoneKey = "lastDueDate"
)

// MilestoneKeys is the fixed enumeration order used wherever milestone
// labels are scanned. The synthetic lastDueDate key is appended by the
// classifier, not scanned.
var MilestoneKeys = []MilestoneKey{
	MilestoneStartDate,
	MilestoneLastClassDate,
	MilestoneFinalPeriodStart,
	MilestoneFinalPeriodEnd,
	MilestoneGradesDueHasFinal,
	MilestoneGradesDueNoFinal,
	MilestoneLastDueHasFinal,
}

// DateOf returns the semester date backing k, or "" when the key is
// synthetic or the field is unset.
func (k MilestoneKey) DateOf(sem *Semester) string {
	if sem == nil {
		return ""
	}
	switch k {
	case MilestoneStartDate:
		return sem.StartDate
	case MilestoneLastClassDate:
		return sem.LastClassDate
	case MilestoneFinalPeriodStart:
		return sem.FinalPeriodStart
	case MilestoneFinalPeriodEnd:
		return sem.FinalPeriodEnd
	case MilestoneGradesDueHasFinal:
		return sem.GradesDueHasFinal
	case MilestoneGradesDueNoFinal:
		return sem.GradesDueNoFinal
	case MilestoneLastDueHasFinal:
		return sem.LastDueHasFinal
	default:
		return ""
	}
}

// DisplayName returns the label text rendered for k.
func (k MilestoneKey) DisplayName() string {
	switch k {
	case MilestoneStartDate:
		return "First Day of Classes"
	case MilestoneLastClassDate:
		return "Last Day of Classes"
	case MilestoneFinalPeriodStart:
		return "Finals Begin"
	case MilestoneFinalPeriodEnd:
		return "Finals End"
	case MilestoneGradesDueHasFinal, MilestoneGradesDueNoFinal:
		return "Grades Due"
	case MilestoneLastDueHasFinal, MilestoneLastDueDate:
		return "Last Due Date"
	default:
		return string(k)
	}
}
