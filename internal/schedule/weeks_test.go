package schedule

import (
	"reflect"
	"testing"
)

func TestFirstMonday(t *testing.T) {
	if got := FirstMonday("2026-02-04"); got != "2026-02-02" {
		t.Fatalf("FirstMonday = %q, want 2026-02-02", got)
	}
	if got := FirstMonday("2026-02-02"); got != "2026-02-02" {
		t.Fatalf("FirstMonday of a Monday = %q", got)
	}
}

func TestBuildWeeks(t *testing.T) {
	weeks, warns := BuildWeeks("2026-02-02", "2026-05-26")
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	// Mondays 2026-02-02 through 2026-05-25 inclusive.
	if len(weeks) != 17 {
		t.Fatalf("len(weeks) = %d, want 17", len(weeks))
	}

	first := weeks[0]
	if first.Index != 0 || first.Days[0].Date != "2026-02-02" || first.Days[4].Date != "2026-02-06" {
		t.Fatalf("first week = %+v", first)
	}
	if first.Days[0].Display != "Feb 2" {
		t.Fatalf("display = %q", first.Days[0].Display)
	}

	// The trailing week may run past the end date.
	last := weeks[len(weeks)-1]
	if last.Days[0].Date != "2026-05-25" || last.Days[4].Date != "2026-05-29" {
		t.Fatalf("last week = %+v", last)
	}

	for i, w := range weeks {
		if w.Index != i {
			t.Fatalf("week %d has index %d", i, w.Index)
		}
	}
}

func TestBuildWeeksDeterministic(t *testing.T) {
	a, _ := BuildWeeks("2026-02-02", "2026-05-26")
	b, _ := BuildWeeks("2026-02-02", "2026-05-26")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs must produce identical weeks")
	}
}

func TestBuildWeeksNonMondayWarns(t *testing.T) {
	weeks, warns := BuildWeeks("2026-02-03", "2026-02-20")
	if len(warns) != 1 {
		t.Fatalf("warnings = %v, want one", warns)
	}
	// The supplied date is used as-is, not corrected.
	if len(weeks) == 0 || weeks[0].Days[0].Date != "2026-02-03" {
		t.Fatalf("weeks = %+v", weeks)
	}
}
