package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestCropName(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":                 "Jane Doe",
		"  Jane    Doe  ":          "Jane Doe",
		"Jane Marie Doe":           "Jane Marie",
		"Jane Doe (Aushilfe)":      "Jane Doe",
		"Jane (Azubi) Marie Doe":   "Jane Marie",
		"Cher":                     "Cher",
		"Jane\tDoe\nSmith":         "Jane Doe",
		"":                         "",
	}
	for in, want := range cases {
		got := CropName(in)
		if got != want {
			t.Errorf("CropName(%q) = %q, want %q", in, got, want)
		}
		if again := CropName(got); again != got {
			t.Errorf("CropName is not idempotent for %q: %q", got, again)
		}
	}
}

func TestParseShiftRange(t *testing.T) {
	for _, raw := range []string{"08:00 - 16:30", "08:00-16:30", "08:00 – 16:30", " 08:00—16:30 "} {
		r, err := ParseShiftRange(raw)
		if err != nil {
			t.Fatalf("ParseShiftRange(%q): %v", raw, err)
		}
		if r.Start != "08:00" || r.End != "16:30" {
			t.Fatalf("ParseShiftRange(%q) = %+v", raw, r)
		}
		if r.String() != "08:00 - 16:30" {
			t.Fatalf("String() = %q", r.String())
		}
	}

	for _, raw := range []string{"", "08:00", "08:00 -", "- 16:30", "08:00 - 12:00 - 16:00"} {
		if _, err := ParseShiftRange(raw); err == nil {
			t.Errorf("ParseShiftRange(%q) should fail", raw)
		}
	}
}

func TestNewEntryDerivesWeekAndDay(t *testing.T) {
	date := time.Date(2026, time.October, 26, 15, 4, 5, 0, time.Local)
	entry := NewEntry(date, []Assignment{
		{EmployeeName: " Jane  Doe (Teilzeit)", Shift: ShiftRange{"06:00", "10:00"}, BreakTime: "15m", WorkTime: "7h45m"},
		{EmployeeName: "Jane Doe", Shift: ShiftRange{"14:00", "18:00"}, BreakTime: "15m", WorkTime: "7h45m"},
	})

	if entry.WeekNumber != 44 {
		t.Fatalf("week = %d, want 44", entry.WeekNumber)
	}
	if entry.DayName != "Monday" {
		t.Fatalf("day = %s, want Monday", entry.DayName)
	}
	if !entry.Date.Equal(time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date not truncated: %v", entry.Date)
	}
	if len(entry.Assignments) != 2 {
		t.Fatalf("two shifts must stay two assignments, got %d", len(entry.Assignments))
	}
	if entry.Assignments[0].EmployeeName != "Jane Doe" {
		t.Fatalf("name not cropped: %q", entry.Assignments[0].EmployeeName)
	}
	if names := entry.Names(); !reflect.DeepEqual(names, []string{"Jane Doe"}) {
		t.Fatalf("Names() = %v", names)
	}
}

func TestAssignmentsColumn(t *testing.T) {
	in := Assignments{{EmployeeName: "Jane Doe", Shift: ShiftRange{"06:00", "14:00"}, BreakTime: "30m", WorkTime: "7h30m"}}

	v, err := in.Value()
	if err != nil {
		t.Fatal(err)
	}

	var out Assignments
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %+v, want %+v", out, in)
	}

	var empty Assignments
	if err := empty.Scan(nil); err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("Scan(nil) = %v, %v", empty, err)
	}
	if err := empty.Scan(42); err == nil {
		t.Fatal("Scan(int) should fail")
	}
}

func TestEntryMirror(t *testing.T) {
	entry := NewEntry(time.Date(2026, 10, 27, 0, 0, 0, 0, time.UTC), []Assignment{
		{EmployeeName: "Jane Doe", Shift: ShiftRange{"06:00", "10:00"}, BreakTime: "15m", WorkTime: "7h45m"},
		{EmployeeName: "Max Muster", Shift: ShiftRange{"12:00", "20:00"}, BreakTime: "30m", WorkTime: "7h30m"},
	})

	want := DayMirror{
		Names:      []string{"Jane Doe", "Max Muster"},
		Hours:      []string{"06:00 - 10:00", "12:00 - 20:00"},
		BreakTimes: []string{"15m", "30m"},
		WorkTimes:  []string{"7h45m", "7h30m"},
	}
	if got := entry.Mirror(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Mirror() = %+v", got)
	}
}
