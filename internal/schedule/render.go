package schedule

import (
	"strconv"
	"strings"
	"time"

	"regcal/internal/dates"
	"regcal/internal/model"
	"regcal/internal/semester"
	"regcal/internal/theme"
)

// finalsBackground shades in-finals days that carry no holiday color.
const finalsBackground = "#fff9c4"

// RowKind discriminates the rendered row types.
type RowKind string

const (
	RowDate   RowKind = "date"
	RowLabel  RowKind = "label"
	RowEvents RowKind = "events"
	RowBreak  RowKind = "break"
)

// EmittedEvent is one numbered occurrence shown in an event cell.
type EmittedEvent struct {
	Type   EventType `json:"type"`
	Number int       `json:"number"`
	Text   string    `json:"text"`
}

// Cell is one rendered grid cell. Span > 1 merges the cell across
// adjacent weekday columns.
type Cell struct {
	Span       int            `json:"span"`
	Text       string         `json:"text,omitempty"`
	Background string         `json:"background,omitempty"`
	Foreground string         `json:"foreground,omitempty"`
	Events     []EmittedEvent `json:"events,omitempty"`
	Midterms   []int          `json:"midterms,omitempty"`
	Removable  []Occurrence   `json:"removable,omitempty"`
}

// Row is one rendered grid row. WeekNumber is the user-visible week
// counter (1-based); break weeks carry 0 and do not consume a number.
type Row struct {
	Kind       RowKind `json:"kind"`
	Week       int     `json:"week"`
	WeekNumber int     `json:"week_number"`
	Cells      []Cell  `json:"cells"`
}

// RenderResult is the full rendered grid plus the running occurrence
// counters and any non-fatal warnings.
type RenderResult struct {
	SemesterName   string            `json:"semester_name"`
	EndDate        string            `json:"end_date"`
	Rows           []Row             `json:"rows"`
	DisplayedWeeks int               `json:"displayed_weeks"`
	HighestOrdinal map[EventType]int `json:"highest_ordinal"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// dayFacts caches the classifier's answers for one day of one week.
type dayFacts struct {
	day Day

	holiday      model.Holiday
	isHoliday    bool
	isSubstitute bool
	substitute   time.Weekday

	inFinals bool
	inBreak  bool
	before   bool
	afterEnd bool

	labels   []model.MilestoneKey
	midterms []int

	background string
	foreground string
}

// Render produces the full grid for the current semester + theme +
// ledger state. It is a pure function of its inputs; callers invoke it
// after every state change.
func Render(sem *model.Semester, res *theme.Resolver, led *Ledger) *RenderResult {
	if res == nil {
		res = theme.NewResolver(nil)
	}

	cl := semester.NewClassifier(sem)
	hasFinal := led.HasFinal()
	end := calendarEnd(sem, hasFinal)

	weeks, warns := BuildWeeks(FirstMonday(sem.StartDate), end)

	out := &RenderResult{
		SemesterName:   sem.Name,
		EndDate:        end,
		HighestOrdinal: make(map[EventType]int),
	}
	for _, w := range warns {
		out.Warnings = append(out.Warnings, w.Error())
	}

	// Occurrence counters run across the whole term and never reset.
	counters := make(map[EventType]int, len(EventTypes))
	for _, t := range EventTypes {
		counters[t] = 1
	}

	for _, wk := range weeks {
		facts := weekFacts(cl, res, led, wk, end, hasFinal)

		if isBreakWeek(cl, wk) {
			out.Rows = append(out.Rows, breakRow(cl, res, led, wk))
			continue
		}

		out.DisplayedWeeks++
		number := out.DisplayedWeeks

		out.Rows = append(out.Rows, dateRow(sem, wk, number, facts))
		if labelRow, ok := buildLabelRow(sem, cl, wk, number, facts, hasFinal); ok {
			out.Rows = append(out.Rows, labelRow)
		}
		if eventsRow, ok := buildEventsRow(cl, res, led, wk, number, facts, end, counters); ok {
			out.Rows = append(out.Rows, eventsRow)
		}
	}

	for _, t := range EventTypes {
		out.HighestOrdinal[t] = counters[t] - 1
	}
	return out
}

// calendarEnd applies the end-date policy: with a final, the calendar
// extends to the grades-due day when it trails finals by at most a week,
// otherwise it stops at the finals-period end (grades due is then shown
// with its year inside the finals cell). Without a final it ends at the
// no-final grades-due day.
func calendarEnd(sem *model.Semester, hasFinal bool) string {
	if hasFinal {
		if sem.GradesDueHasFinal != "" && sem.FinalPeriodEnd != "" &&
			dates.DaysBetween(sem.FinalPeriodEnd, sem.GradesDueHasFinal) <= 7 {
			return sem.GradesDueHasFinal
		}
		if sem.FinalPeriodEnd != "" {
			return sem.FinalPeriodEnd
		}
		return sem.LastClassDate
	}
	if sem.GradesDueNoFinal != "" {
		return sem.GradesDueNoFinal
	}
	return sem.LastClassDate
}

func weekFacts(cl *semester.Classifier, res *theme.Resolver, led *Ledger, wk Week, end string, hasFinal bool) []dayFacts {
	facts := make([]dayFacts, weekdayCount)
	for i, day := range wk.Days {
		f := dayFacts{day: day}

		if h, ok := cl.Holiday(day.Date); ok {
			f.holiday = h
			f.isHoliday = true
		}
		if wd, ok := cl.SubstituteWeekday(day.Date); ok {
			f.isSubstitute = true
			f.substitute = wd
		}

		f.inFinals = hasFinal && cl.InFinalPeriod(day.Date)
		f.inBreak = cl.InDesignatedBreak(day.Date)
		f.before = cl.BeforeClassPeriod(day.Date)
		f.afterEnd = day.Date > end
		f.labels = cl.MilestoneLabels(day.Date, hasFinal)
		f.midterms = led.MidtermsOn(day.Date)

		f.background, f.foreground = dayColors(res, f)
		facts[i] = f
	}
	return facts
}

// dayColors applies the per-day precedence: holiday background first,
// then the finals shading when no holiday color is set, then the
// milestone tiers (High overwrites the background, Medium sets the
// text color).
func dayColors(res *theme.Resolver, f dayFacts) (bg, fg string) {
	if f.isHoliday {
		bg = res.ColorForHoliday(f.holiday.Name)
	}
	if bg == "" && f.inFinals {
		bg = finalsBackground
	}
	mbg, mfg := res.ColorsForDate(f.labels)
	if mbg != "" {
		bg = mbg
	}
	if mfg != "" {
		fg = mfg
	}
	return bg, fg
}

// isBreakWeek reports whether the week contains both boundary markers of
// a designated break (e.g. Spring Break).
func isBreakWeek(cl *semester.Classifier, wk Week) bool {
	var hasStart, hasEnd bool
	for _, day := range wk.Days {
		h, ok := cl.Holiday(day.Date)
		if !ok {
			continue
		}
		lower := strings.ToLower(h.Name)
		if strings.Contains(lower, "break start") {
			hasStart = true
		}
		if strings.Contains(lower, "break end") {
			hasEnd = true
		}
	}
	return hasStart && hasEnd
}

// breakRow renders a designated-break week as a single merged label row:
// no date row, no event rows, no week-counter increment.
func breakRow(cl *semester.Classifier, res *theme.Resolver, led *Ledger, wk Week) Row {
	cell := Cell{Span: weekdayCount}
	for _, day := range wk.Days {
		if h, ok := cl.Holiday(day.Date); ok && cell.Text == "" {
			cell.Text = breakLabel(h.Name)
			cell.Background = res.ColorForHoliday(h.Name)
		}
		cell.Midterms = append(cell.Midterms, led.MidtermsOn(day.Date)...)
	}
	if cell.Text == "" {
		cell.Text = "Break"
	}
	return Row{Kind: RowBreak, Week: wk.Index, Cells: []Cell{cell}}
}

// breakLabel strips the boundary word from a break marker name:
// "Spring Break Start" -> "Spring Break".
func breakLabel(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{" start", " end"} {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(name[:len(name)-len(suffix)])
		}
	}
	return name
}

// dateRow renders each day's display date. Only the course-start
// milestone annotates the date row inline; every other label belongs to
// the label row.
func dateRow(sem *model.Semester, wk Week, number int, facts []dayFacts) Row {
	cells := make([]Cell, 0, weekdayCount)
	for _, f := range facts {
		c := Cell{Span: 1, Text: f.day.Display, Background: f.background, Foreground: f.foreground}
		if f.day.Date == sem.StartDate {
			c.Text += " (" + model.MilestoneStartDate.DisplayName() + ")"
		}
		cells = append(cells, c)
	}
	return Row{Kind: RowDate, Week: wk.Index, WeekNumber: number, Cells: cells}
}

// buildLabelRow renders holiday names, milestone labels, finals markers
// and midterm markers. Week shape drives the merge layout: a week whose
// Thursday and Friday are both closed merges those two cells; a finals
// week merges the contiguous in-finals run into one cell. The
// Thursday+Friday closure is checked first, so it wins when a finals
// week also has both days closed.
func buildLabelRow(sem *model.Semester, cl *semester.Classifier, wk Week, number int, facts []dayFacts, hasFinal bool) (Row, bool) {
	display := false
	for _, f := range facts {
		if f.before || f.afterEnd {
			continue
		}
		if labelText(f) != "" || f.inFinals || len(f.midterms) > 0 {
			display = true
			break
		}
	}
	if !display {
		return Row{}, false
	}

	row := Row{Kind: RowLabel, Week: wk.Index, WeekNumber: number}

	runStart, runEnd, isFinalsWeek := finalsRun(facts)
	switch {
	case isLongHolidayWeek(facts):
		for i := 0; i < 3; i++ {
			row.Cells = append(row.Cells, labelCell(facts[i]))
		}
		merged := labelCell(facts[3])
		merged.Span = 2
		if other := labelText(facts[4]); other != "" && other != labelText(facts[3]) {
			merged.Text = joinParts(merged.Text, other)
		}
		merged.Midterms = append(merged.Midterms, facts[4].midterms...)
		row.Cells = append(row.Cells, merged)

	case isFinalsWeek:
		for i := 0; i < runStart; i++ {
			row.Cells = append(row.Cells, labelCell(facts[i]))
		}
		row.Cells = append(row.Cells, finalsCell(sem, facts, runStart, runEnd))
		for i := runEnd + 1; i < weekdayCount; i++ {
			row.Cells = append(row.Cells, labelCell(facts[i]))
		}

	default:
		for i := 0; i < weekdayCount; i++ {
			row.Cells = append(row.Cells, labelCell(facts[i]))
		}
	}

	return row, true
}

// finalsRun locates the contiguous run of in-finals days in the week.
func finalsRun(facts []dayFacts) (start, end int, ok bool) {
	start, end = -1, -1
	for i, f := range facts {
		if f.inFinals {
			if start == -1 {
				start = i
			}
			end = i
		}
	}
	return start, end, start != -1
}

// isLongHolidayWeek reports the paired Thursday+Friday closure shape
// (e.g. Thanksgiving). Substitution markers do not count as closures.
func isLongHolidayWeek(facts []dayFacts) bool {
	thu, fri := facts[3], facts[4]
	return thu.isHoliday && !thu.isSubstitute && fri.isHoliday && !fri.isSubstitute
}

// finalsCell builds the merged finals cell. When the grades-due day
// trails finals by more than a week the calendar has already stopped at
// finals end, so the date is spelled out with its year; otherwise the
// plain label suffices (the day itself is on the calendar).
func finalsCell(sem *model.Semester, facts []dayFacts, runStart, runEnd int) Cell {
	cell := Cell{Span: runEnd - runStart + 1, Text: "Finals", Background: finalsBackground}

	includesEnd := false
	for i := runStart; i <= runEnd; i++ {
		if facts[i].day.Date == sem.FinalPeriodEnd {
			includesEnd = true
		}
		cell.Midterms = append(cell.Midterms, facts[i].midterms...)
	}
	if includesEnd && sem.GradesDueHasFinal != "" {
		if dates.DaysBetween(sem.FinalPeriodEnd, sem.GradesDueHasFinal) > 7 {
			cell.Text += " / Grades Due " + dates.DisplayWithYear(sem.GradesDueHasFinal)
		} else {
			cell.Text += " / Grades Due"
		}
	}
	return cell
}

func labelCell(f dayFacts) Cell {
	return Cell{
		Span:       1,
		Text:       labelText(f),
		Background: f.background,
		Foreground: f.foreground,
		Midterms:   f.midterms,
	}
}

// labelText joins a day's holiday name and milestone labels. The
// course-start milestone is excluded (it annotates the date row).
func labelText(f dayFacts) string {
	var parts []string
	if f.isHoliday {
		parts = append(parts, f.holiday.Name)
	}
	for _, key := range f.labels {
		if key == model.MilestoneStartDate {
			continue
		}
		parts = append(parts, key.DisplayName())
	}
	return strings.Join(parts, " / ")
}

func joinParts(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " / " + b
}

// buildEventsRow emits the numbered occurrences for one week. Counters
// are shared across the whole term; removal handling follows the locked
// removal mode: skip retires the ordinal (counter advances, nothing
// emitted), shift leaves the counter alone so the next real occurrence
// reuses the number.
func buildEventsRow(cl *semester.Classifier, res *theme.Resolver, led *Ledger, wk Week, number int, facts []dayFacts, end string, counters map[EventType]int) (Row, bool) {
	anyActive := false
	for _, t := range EventTypes {
		if led.Active(t) {
			anyActive = true
			break
		}
	}
	if !anyActive {
		return Row{}, false
	}

	row := Row{Kind: RowEvents, Week: wk.Index, WeekNumber: number}
	emittedAny := false

	for i, f := range facts {
		cell := Cell{Span: 1}

		if !eventEligible(cl, f, end) {
			row.Cells = append(row.Cells, cell)
			continue
		}

		// Generator index 0-4 maps to Mon-Fri; a substitution marker
		// overrides the effective weekday for event matching.
		effective := time.Monday + time.Weekday(i)
		if f.isSubstitute {
			effective = f.substitute
		}

		var texts []string
		for _, t := range EventTypes {
			if !led.Active(t) || !led.HasEventOn(t, effective) {
				continue
			}
			occ := Occurrence{Date: f.day.Date, Type: t}
			if led.IsRemoved(occ) {
				if led.RemovalPolicy() == RemovalSkip {
					counters[t]++
				}
				continue
			}
			ev := EmittedEvent{
				Type:   t,
				Number: counters[t],
				Text:   t.Display() + " " + strconv.Itoa(counters[t]),
			}
			counters[t]++
			cell.Events = append(cell.Events, ev)
			cell.Removable = append(cell.Removable, occ)
			texts = append(texts, ev.Text)
			// First emitted event type's color wins for the cell.
			if cell.Background == "" {
				cell.Background = res.ColorForEvent(string(t))
			}
		}

		if len(texts) > 0 {
			cell.Text = strings.Join(texts, " / ")
			emittedAny = true
		}
		row.Cells = append(row.Cells, cell)
	}

	if !emittedAny {
		return Row{}, false
	}
	return row, true
}

// eventEligible applies the per-day skip rules: outside the class
// period, past the calendar end, an actual holiday (substitution markers
// excepted), or inside a designated break.
func eventEligible(cl *semester.Classifier, f dayFacts, end string) bool {
	if f.before || cl.AfterClassPeriod(f.day.Date) {
		return false
	}
	if f.day.Date > end {
		return false
	}
	if f.isHoliday && !f.isSubstitute {
		return false
	}
	if f.inBreak {
		return false
	}
	return true
}
