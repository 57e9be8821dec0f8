package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ShiftRange is one continuous work block, as displayed by the portal ("08:00").
type ShiftRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var shiftSeparator = regexp.MustCompile(`\s*[-–—]\s*`)

// ParseShiftRange splits "08:00 - 16:30" (hyphen, en or em dash) into its bounds.
func ParseShiftRange(raw string) (ShiftRange, error) {
	parts := shiftSeparator.Split(strings.TrimSpace(raw), -1)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ShiftRange{}, fmt.Errorf("invalid shift range %q", raw)
	}
	return ShiftRange{Start: parts[0], End: parts[1]}, nil
}

func (r ShiftRange) String() string {
	return r.Start + " - " + r.End
}

// Assignment is one (employee, shift) pair of a day. An employee working two
// blocks appears twice, with the same break and work figures.
type Assignment struct {
	EmployeeName string     `json:"employee_name"`
	Shift        ShiftRange `json:"shift"`
	BreakTime    string     `json:"break_time"`
	WorkTime     string     `json:"work_time"`
}

// Assignments is stored as a JSON column.
type Assignments []Assignment

func (a Assignments) Value() (driver.Value, error) {
	if a == nil {
		a = Assignments{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Assignments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Assignments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("assignments: unsupported column type %T", src)
	}
	return json.Unmarshal(data, a)
}

// ScheduleEntry is the 'schedules' table: one row per calendar date.
type ScheduleEntry struct {
	ID           uint64      `json:"id" db:"id"`
	Date         time.Time   `json:"date" db:"schedule_date"`
	WeekNumber   int         `json:"week_number" db:"week_number"`
	DayName      string      `json:"day_name" db:"day_name"`
	Assignments  Assignments `json:"assignments" db:"assignments"`
	JSONSyncedAt *time.Time  `json:"json_synced_at" db:"json_synced_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// NewEntry builds the entry for date, deriving week and weekday and cropping
// every employee name.
func NewEntry(date time.Time, assignments []Assignment) *ScheduleEntry {
	d := DateOnly(date)
	_, week := d.ISOWeek()

	cropped := make(Assignments, 0, len(assignments))
	for _, a := range assignments {
		a.EmployeeName = CropName(a.EmployeeName)
		cropped = append(cropped, a)
	}

	return &ScheduleEntry{
		Date:        d,
		WeekNumber:  week,
		DayName:     d.Weekday().String(),
		Assignments: cropped,
	}
}

// Names returns the distinct employee names of the entry in row order.
func (e *ScheduleEntry) Names() []string {
	seen := make(map[string]bool, len(e.Assignments))
	var out []string
	for _, a := range e.Assignments {
		if seen[a.EmployeeName] {
			continue
		}
		seen[a.EmployeeName] = true
		out = append(out, a.EmployeeName)
	}
	return out
}

// DayMirror is one weekday inside a schedule<year>.json week.
type DayMirror struct {
	Names      []string `json:"names"`
	Hours      []string `json:"hours"`
	BreakTimes []string `json:"break_times"`
	WorkTimes  []string `json:"work_times"`
}

// WeekMirror maps a weekday name to its day.
type WeekMirror map[string]DayMirror

// YearMirror is the whole schedule<year>.json file, keyed by week number.
type YearMirror map[string]WeekMirror

// Mirror projects the entry onto the JSON file layout.
func (e *ScheduleEntry) Mirror() DayMirror {
	day := DayMirror{
		Names:      make([]string, 0, len(e.Assignments)),
		Hours:      make([]string, 0, len(e.Assignments)),
		BreakTimes: make([]string, 0, len(e.Assignments)),
		WorkTimes:  make([]string, 0, len(e.Assignments)),
	}
	for _, a := range e.Assignments {
		day.Names = append(day.Names, a.EmployeeName)
		day.Hours = append(day.Hours, a.Shift.String())
		day.BreakTimes = append(day.BreakTimes, a.BreakTime)
		day.WorkTimes = append(day.WorkTimes, a.WorkTime)
	}
	return day
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// CropName is the canonical display form of an employee name, used as the key
// in both the database and the JSON mirrors: annotations in parentheses are
// dropped, whitespace is collapsed and only the first two words are kept.
func CropName(raw string) string {
	s := parenthetical.ReplaceAllString(raw, " ")
	fields := strings.Fields(s)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}
