package schedule

import (
	"errors"
	"sort"
	"time"
)

// EventType is a recurring class event category.
type EventType string

const (
	EventLecture    EventType = "lecture"
	EventLab        EventType = "lab"
	EventRecitation EventType = "recitation"
)

// EventTypes is the fixed declaration order; occurrence emission and
// numbering always follow it.
var EventTypes = []EventType{EventLecture, EventLab, EventRecitation}

// Display returns the capitalized form used in rendered cells.
func (t EventType) Display() string {
	switch t {
	case EventLecture:
		return "Lecture"
	case EventLab:
		return "Lab"
	case EventRecitation:
		return "Recitation"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventLecture, EventLab, EventRecitation:
		return true
	}
	return false
}

// RemovalMode governs how suppressed occurrences affect subsequent
// numbering. It is chosen on the first removal and fixed for the rest of
// the session.
type RemovalMode string

const (
	// RemovalUnset means no occurrence has been removed yet.
	RemovalUnset RemovalMode = ""
	// RemovalShift renumbers later occurrences to fill the gap.
	RemovalShift RemovalMode = "shift"
	// RemovalSkip permanently retires the removed ordinal.
	RemovalSkip RemovalMode = "skip"
)

// ErrRemovalModeRequired is returned by Remove when no removal mode has
// been chosen yet and none was supplied.
var ErrRemovalModeRequired = errors.New("removal mode required for first removal")

// Occurrence identifies one scheduled instance of an event type on a
// specific date.
type Occurrence struct {
	Date string    `json:"date"`
	Type EventType `json:"type"`
}

// Ledger is the session's only durable mutable state: which weekdays
// host which event types, the final-exam flag, midterm placements, and
// the removal set with its numbering policy.
//
// The ledger deliberately survives a semester switch; see DESIGN.md.
// Callers are responsible for serializing access (the web layer holds a
// mutex around mutate+recompute).
type Ledger struct {
	eventDays   map[EventType]map[time.Weekday]bool
	hasFinal    bool
	midterms    map[int]string
	removed     map[Occurrence]bool
	removalMode RemovalMode
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		eventDays: make(map[EventType]map[time.Weekday]bool),
		midterms:  make(map[int]string),
		removed:   make(map[Occurrence]bool),
	}
}

// ToggleEventDay flips whether the event type occurs on the weekday.
// A weekday may belong to several event types at once.
func (l *Ledger) ToggleEventDay(t EventType, wd time.Weekday) {
	days := l.eventDays[t]
	if days == nil {
		days = make(map[time.Weekday]bool)
		l.eventDays[t] = days
	}
	if days[wd] {
		delete(days, wd)
	} else {
		days[wd] = true
	}
}

// HasEventOn reports whether the event type is assigned to the weekday.
func (l *Ledger) HasEventOn(t EventType, wd time.Weekday) bool {
	return l.eventDays[t][wd]
}

// Active reports whether at least one weekday is assigned to the type.
func (l *Ledger) Active(t EventType) bool {
	return len(l.eventDays[t]) > 0
}

// EventDays returns the sorted weekdays assigned to the type.
func (l *Ledger) EventDays(t EventType) []time.Weekday {
	var out []time.Weekday
	for wd := range l.eventDays[t] {
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetHasFinal sets the final-exam flag.
func (l *Ledger) SetHasFinal(v bool) {
	l.hasFinal = v
}

// HasFinal reports the final-exam flag.
func (l *Ledger) HasFinal() bool {
	return l.hasFinal
}

// PlaceMidterm records the midterm's date. Nothing prevents both
// midterms from sharing a date. Validation against the class period is a
// caller-side gate (web layer), per the error-handling design.
func (l *Ledger) PlaceMidterm(id int, date string) {
	l.midterms[id] = date
}

// ClearMidterm unplaces the midterm.
func (l *Ledger) ClearMidterm(id int) {
	delete(l.midterms, id)
}

// MidtermDate returns the midterm's placed date ("" when unplaced).
func (l *Ledger) MidtermDate(id int) string {
	return l.midterms[id]
}

// MidtermsOn returns the midterm identifiers placed on date, in
// identifier order.
func (l *Ledger) MidtermsOn(date string) []int {
	if date == "" {
		return nil
	}
	var ids []int
	for id, d := range l.midterms {
		if d == date {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Remove suppresses the given occurrences jointly (a single user action
// may remove all of a day's events at once).
//
// First-removal-sets-policy: the very first removal of the session must
// carry a mode, which is then locked in; the mode argument is ignored on
// every later call.
func (l *Ledger) Remove(mode RemovalMode, occs ...Occurrence) error {
	if len(occs) == 0 {
		return nil
	}
	if l.removalMode == RemovalUnset {
		if mode != RemovalShift && mode != RemovalSkip {
			return ErrRemovalModeRequired
		}
		l.removalMode = mode
	}
	for _, o := range occs {
		l.removed[o] = true
	}
	return nil
}

// IsRemoved reports whether the occurrence is suppressed.
func (l *Ledger) IsRemoved(o Occurrence) bool {
	return l.removed[o]
}

// RemovalPolicy returns the locked-in removal mode (RemovalUnset until
// the first removal).
func (l *Ledger) RemovalPolicy() RemovalMode {
	return l.removalMode
}

// RemovedCount returns the number of suppressed occurrences.
func (l *Ledger) RemovedCount() int {
	return len(l.removed)
}

// Reset clears all ledger state, including the removal mode. It exists
// as an explicit user action; switching semesters does not call it.
func (l *Ledger) Reset() {
	l.eventDays = make(map[EventType]map[time.Weekday]bool)
	l.hasFinal = false
	l.midterms = make(map[int]string)
	l.removed = make(map[Occurrence]bool)
	l.removalMode = RemovalUnset
}
