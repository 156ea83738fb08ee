// Package export serializes the current schedule as an iCalendar feed:
// each active event type becomes a weekly recurring all-day VEVENT with
// EXDATEs for holidays, substitution days appear as standalone events,
// and milestones/midterms become single all-day VEVENTs.
package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gosimple/slug"
	"github.com/teambition/rrule-go"

	"regcal/internal/dates"
	"regcal/internal/model"
	"regcal/internal/schedule"
	"regcal/internal/semester"
)

const prodID = "-//regcal//Semester Calendar//EN"

// Filename returns a file-safe download name for the semester's feed.
func Filename(sem *model.Semester) string {
	name := slug.Make(sem.Name)
	if name == "" {
		name = "semester"
	}
	return name + ".ics"
}

// WriteSchedule serializes the semester + ledger state as ICS.
func WriteSchedule(w io.Writer, sem *model.Semester, led *schedule.Ledger) error {
	cl := semester.NewClassifier(sem)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName(sem.Name)

	base := slug.Make(sem.Name)
	stamp := time.Now().UTC()

	for _, t := range schedule.EventTypes {
		if !led.Active(t) {
			continue
		}
		if err := addRecurringEvent(cal, cl, sem, led, t, base, stamp); err != nil {
			return err
		}
	}

	addMilestoneEvents(cal, cl, sem, led, base, stamp)
	addMidtermEvents(cal, led, base, stamp)

	return cal.SerializeTo(w)
}

// addRecurringEvent emits one weekly VEVENT per event type covering the
// class period, with EXDATEs for the holidays (and substitution days)
// that fall on its weekdays. Substitution days whose substituted weekday
// is assigned get standalone one-off events instead.
func addRecurringEvent(cal *ical.Calendar, cl *semester.Classifier, sem *model.Semester, led *schedule.Ledger, t schedule.EventType, base string, stamp time.Time) error {
	days := led.EventDays(t)

	assigned := make(map[time.Weekday]bool, len(days))
	byday := make([]rrule.Weekday, 0, len(days))
	for _, wd := range days {
		assigned[wd] = true
		rwd, ok := rruleWeekday(wd)
		if !ok {
			continue
		}
		byday = append(byday, rwd)
	}
	if len(byday) == 0 {
		return nil
	}

	// First calendar day of the class period matching an assigned weekday.
	first := ""
	for d := sem.StartDate; d != "" && d <= sem.LastClassDate; d = dates.AddDays(d, 1) {
		if assigned[dates.Weekday(d)] {
			first = d
			break
		}
	}
	if first == "" {
		return nil
	}

	start, err := dates.Parse(first)
	if err != nil {
		return err
	}
	until, err := dates.Parse(sem.LastClassDate)
	if err != nil {
		return err
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     until,
		Byweekday: byday,
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return fmt.Errorf("export: bad recurrence for %s: %w", t, err)
	}

	ev := cal.AddEvent(fmt.Sprintf("%s-%s@regcal", base, t))
	ev.SetDtStampTime(stamp)
	ev.SetSummary(t.Display())
	ev.SetAllDayStartAt(start)
	ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
	ev.AddRrule(opt.RRuleString())

	for d := sem.StartDate; d != "" && d <= sem.LastClassDate; d = dates.AddDays(d, 1) {
		if !assigned[dates.Weekday(d)] {
			continue
		}
		_, isHoliday := cl.Holiday(d)
		_, isSub := cl.SubstituteWeekday(d)
		// An actual holiday cancels the event; a substitution day runs a
		// different weekday's schedule, so the actual weekday's event is
		// cancelled there too. Designated-break interior days are not
		// listed as holidays but cancel all the same.
		if isHoliday || isSub || cl.InDesignatedBreak(d) {
			ev.AddProperty(ical.ComponentPropertyExdate, compactDate(d),
				&ical.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
		}
	}

	// Standalone events for substitution days running an assigned weekday.
	for _, h := range sem.Holidays {
		sub, ok := cl.SubstituteWeekday(h.Date)
		if !ok || !assigned[sub] {
			continue
		}
		if h.Date < sem.StartDate || h.Date > sem.LastClassDate {
			continue
		}
		day, err := dates.Parse(h.Date)
		if err != nil {
			continue
		}
		one := cal.AddEvent(fmt.Sprintf("%s-%s-%s@regcal", base, t, h.Date))
		one.SetDtStampTime(stamp)
		one.SetSummary(t.Display() + " (" + h.Name + ")")
		one.SetAllDayStartAt(day)
		one.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	return nil
}

func addMilestoneEvents(cal *ical.Calendar, cl *semester.Classifier, sem *model.Semester, led *schedule.Ledger, base string, stamp time.Time) {
	seen := make(map[string]bool)
	for _, key := range model.MilestoneKeys {
		d := key.DateOf(sem)
		if d == "" {
			continue
		}
		labels := cl.MilestoneLabels(d, led.HasFinal())
		for _, label := range labels {
			if label != key || seen[string(key)] {
				continue
			}
			seen[string(key)] = true
			day, err := dates.Parse(d)
			if err != nil {
				continue
			}
			ev := cal.AddEvent(fmt.Sprintf("%s-%s@regcal", base, key))
			ev.SetDtStampTime(stamp)
			ev.SetSummary(key.DisplayName())
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}
}

func addMidtermEvents(cal *ical.Calendar, led *schedule.Ledger, base string, stamp time.Time) {
	for _, id := range []int{1, 2} {
		d := led.MidtermDate(id)
		if d == "" {
			continue
		}
		day, err := dates.Parse(d)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-midterm%d@regcal", base, id))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf("Midterm %d", id))
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}
}

// compactDate renders an ISO date as the ICS DATE form (20060102).
func compactDate(d string) string {
	t, err := dates.Parse(d)
	if err != nil {
		return d
	}
	return t.Format("20060102")
}

func rruleWeekday(wd time.Weekday) (rrule.Weekday, bool) {
	switch wd {
	case time.Monday:
		return rrule.MO, true
	case time.Tuesday:
		return rrule.TU, true
	case time.Wednesday:
		return rrule.WE, true
	case time.Thursday:
		return rrule.TH, true
	case time.Friday:
		return rrule.FR, true
	}
	return rrule.Weekday{}, false
}
