package scraper

import (
	"fmt"
	"strings"
	"time"

	"bakehouse/internal/portal"
)

// DayResult is the outcome for one planned date.
type DayResult struct {
	Date        string            `json:"date"`
	Assignments int               `json:"assignments"`
	Stored      bool              `json:"stored"`
	Faults      []portal.RowFault `json:"faults,omitempty"`
	DBError     string            `json:"db_error,omitempty"`
}

// Report is the structured result of one run. Row faults, mirror faults and
// registry faults never fail a run; they are only reported here.
type Report struct {
	RunID         string      `json:"run_id"`
	Trigger       string      `json:"trigger"`
	Week          *int        `json:"week,omitempty"`
	Replace       bool        `json:"replace"`
	Dates         []string    `json:"dates"`
	Days          []DayResult `json:"days"`
	NewEmployees  []string    `json:"new_employees"`
	MirrorFiles   []string    `json:"mirror_files"`
	MirrorFaults  []string    `json:"mirror_faults,omitempty"`
	RegistryFault string      `json:"registry_fault,omitempty"`
	Error         string      `json:"error,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}

// Failed reports whether the run aborted or any date failed to store.
func (r *Report) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, d := range r.Days {
		if d.DBError != "" {
			return true
		}
	}
	return false
}

func (r *Report) RowFaults() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Faults)
	}
	return n
}

func (r *Report) Title() string {
	status := "완료"
	if r.Failed() {
		status = "실패"
	}
	span := ""
	if len(r.Dates) > 0 {
		span = fmt.Sprintf(" %s ~ %s", r.Dates[0], r.Dates[len(r.Dates)-1])
	}
	return fmt.Sprintf("[Bakehouse] 스케줄 수집 %s%s", status, span)
}

// Summary renders the report as a few lines of Slack/terminal text.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s), %s\n", r.RunID, r.Trigger, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	if r.Error != "" {
		fmt.Fprintf(&b, "aborted: %s\n", r.Error)
	}
	for _, d := range r.Days {
		status := "ok"
		if !d.Stored {
			status = "not stored"
		}
		fmt.Fprintf(&b, "%s: %d shifts, %s", d.Date, d.Assignments, status)
		if len(d.Faults) > 0 {
			fmt.Fprintf(&b, ", %d rows skipped", len(d.Faults))
		}
		if d.DBError != "" {
			fmt.Fprintf(&b, " (%s)", d.DBError)
		}
		b.WriteString("\n")
	}
	if len(r.NewEmployees) > 0 {
		fmt.Fprintf(&b, "new employees: %s\n", strings.Join(r.NewEmployees, ", "))
	}
	for _, f := range r.MirrorFaults {
		fmt.Fprintf(&b, "mirror: %s\n", f)
	}
	if r.RegistryFault != "" {
		fmt.Fprintf(&b, "employees.json: %s\n", r.RegistryFault)
	}
	return strings.TrimRight(b.String(), "\n")
}
