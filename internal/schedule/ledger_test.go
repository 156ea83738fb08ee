package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestToggleEventDay(t *testing.T) {
	l := NewLedger()

	l.ToggleEventDay(EventLecture, time.Monday)
	l.ToggleEventDay(EventLecture, time.Wednesday)
	l.ToggleEventDay(EventLab, time.Wednesday)

	if !l.HasEventOn(EventLecture, time.Monday) || !l.HasEventOn(EventLab, time.Wednesday) {
		t.Fatal("toggled days must be set")
	}
	if !l.Active(EventLecture) || l.Active(EventRecitation) {
		t.Fatal("Active must track assigned weekdays")
	}

	got := l.EventDays(EventLecture)
	if len(got) != 2 || got[0] != time.Monday || got[1] != time.Wednesday {
		t.Fatalf("EventDays = %v", got)
	}

	// Toggling again clears.
	l.ToggleEventDay(EventLecture, time.Monday)
	if l.HasEventOn(EventLecture, time.Monday) {
		t.Fatal("second toggle must clear the day")
	}
}

func TestRemoveRequiresModeOnce(t *testing.T) {
	l := NewLedger()
	occ1 := Occurrence{Date: "2026-02-09", Type: EventLecture}
	occ2 := Occurrence{Date: "2026-02-11", Type: EventLecture}

	if err := l.Remove(RemovalUnset, occ1); !errors.Is(err, ErrRemovalModeRequired) {
		t.Fatalf("first removal without a mode: err = %v", err)
	}
	if l.IsRemoved(occ1) || l.RemovalPolicy() != RemovalUnset {
		t.Fatal("failed removal must not change state")
	}

	if err := l.Remove(RemovalShift, occ1); err != nil {
		t.Fatalf("Remove = %v", err)
	}
	if l.RemovalPolicy() != RemovalShift || !l.IsRemoved(occ1) {
		t.Fatal("first removal must lock the mode and suppress the occurrence")
	}

	// The mode argument is ignored after the first removal.
	if err := l.Remove(RemovalSkip, occ2); err != nil {
		t.Fatalf("Remove = %v", err)
	}
	if l.RemovalPolicy() != RemovalShift {
		t.Fatal("removal mode must stay locked for the session")
	}
	if l.RemovedCount() != 2 {
		t.Fatalf("RemovedCount = %d", l.RemovedCount())
	}
}

func TestRemoveEmptyIsNoop(t *testing.T) {
	l := NewLedger()
	if err := l.Remove(RemovalUnset); err != nil {
		t.Fatalf("empty removal must not demand a mode: %v", err)
	}
	if l.RemovalPolicy() != RemovalUnset {
		t.Fatal("empty removal must not set the mode")
	}
}

func TestMidterms(t *testing.T) {
	l := NewLedger()

	l.PlaceMidterm(2, "2026-03-04")
	l.PlaceMidterm(1, "2026-03-04")
	if ids := l.MidtermsOn("2026-03-04"); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("MidtermsOn = %v, want [1 2]", ids)
	}

	l.PlaceMidterm(2, "2026-04-08")
	if l.MidtermDate(2) != "2026-04-08" {
		t.Fatal("re-placing must move the midterm")
	}
	if ids := l.MidtermsOn("2026-03-04"); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("MidtermsOn after move = %v", ids)
	}

	l.ClearMidterm(1)
	if l.MidtermDate(1) != "" {
		t.Fatal("cleared midterm must be unplaced")
	}

	if ids := l.MidtermsOn(""); ids != nil {
		t.Fatalf("MidtermsOn(\"\") = %v, want nil", ids)
	}
}

func TestReset(t *testing.T) {
	l := NewLedger()
	l.ToggleEventDay(EventLab, time.Friday)
	l.SetHasFinal(true)
	l.PlaceMidterm(1, "2026-03-04")
	_ = l.Remove(RemovalSkip, Occurrence{Date: "2026-02-09", Type: EventLab})

	l.Reset()

	if l.Active(EventLab) || l.HasFinal() || l.MidtermDate(1) != "" ||
		l.RemovedCount() != 0 || l.RemovalPolicy() != RemovalUnset {
		t.Fatal("Reset must clear every field, including the removal mode")
	}
}
