package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/schedule"
)

// RowFault is an employee row that was skipped because a required element
// was missing or unreadable.
type RowFault struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

func (f RowFault) String() string {
	if f.Name == "" {
		return fmt.Sprintf("row %d: %s", f.Row, f.Reason)
	}
	return fmt.Sprintf("row %d (%s): %s", f.Row, f.Name, f.Reason)
}

// Day is the extraction result for one date.
type Day struct {
	Date        time.Time
	Assignments []schedule.Assignment
	Faults      []RowFault
}

// Names returns the distinct employee names of the day in row order.
func (d *Day) Names() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range d.Assignments {
		if !seen[a.EmployeeName] {
			seen[a.EmployeeName] = true
			out = append(out, a.EmployeeName)
		}
	}
	return out
}

// Extractor reads the per-date schedule view.
type Extractor struct {
	urlTemplate string
	sel         Selectors
	pacer       *Pacer
	scrollSteps int
}

// NewExtractor takes the schedule URL with a {date} placeholder, which is
// replaced by the day-month-year date.
func NewExtractor(urlTemplate string, sel Selectors, pacer *Pacer) *Extractor {
	return &Extractor{
		urlTemplate: urlTemplate,
		sel:         sel.WithDefaults(),
		pacer:       pacer,
		scrollSteps: 2,
	}
}

func (e *Extractor) URLFor(date time.Time) string {
	return strings.ReplaceAll(e.urlTemplate, "{date}", schedule.FormatDate(date))
}

// Extract loads the schedule page for date and parses it. A navigation or
// snapshot error is returned; bad rows are only recorded as faults.
func (e *Extractor) Extract(ctx context.Context, br Browser, date time.Time) (*Day, error) {
	url := e.URLFor(date)
	if err := br.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("open schedule %s: %w", schedule.FormatDate(date), err)
	}
	if err := e.pacer.Pause(ctx); err != nil {
		return nil, err
	}
	if err := e.pacer.Scroll(ctx, br, e.scrollSteps); err != nil {
		return nil, fmt.Errorf("scroll schedule %s: %w", schedule.FormatDate(date), err)
	}

	html, err := br.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", schedule.FormatDate(date), err)
	}

	assignments, faults, err := ParseDay(html, e.sel)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", schedule.FormatDate(date), err)
	}

	for _, f := range faults {
		log.WithFields(log.Fields{
			"date":   schedule.FormatDate(date),
			"row":    f.Row,
			"name":   f.Name,
			"reason": f.Reason,
		}).Warn("[Extractor] 행을 건너뜁니다")
	}
	log.Infof("[Extractor] %s: %d 건 추출, %d 행 건너뜀", schedule.FormatDate(date), len(assignments), len(faults))

	return &Day{Date: schedule.DateOnly(date), Assignments: assignments, Faults: faults}, nil
}

// ParseDay turns a schedule page into assignments in row order. A row with
// several shift blocks yields one assignment per block, all sharing the row's
// break and worked figures. Rows missing the name, a shift block, the break
// or the worked element are skipped and reported.
func ParseDay(html string, sel Selectors) ([]schedule.Assignment, []RowFault, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, err
	}

	var (
		assignments []schedule.Assignment
		faults      []RowFault
	)
	doc.Find(sel.Row).Each(func(i int, row *goquery.Selection) {
		fault := func(name, reason string) {
			faults = append(faults, RowFault{Row: i, Name: name, Reason: reason})
		}

		nameSel := row.Find(sel.Name).First()
		if nameSel.Length() == 0 {
			fault("", "missing name element")
			return
		}
		name := schedule.CropName(nameSel.Text())
		if name == "" {
			fault("", "empty name")
			return
		}

		blocks := row.Find(sel.Shift)
		if blocks.Length() == 0 {
			fault(name, "missing shift block")
			return
		}
		breakSel := row.Find(sel.Break).First()
		if breakSel.Length() == 0 {
			fault(name, "missing break element")
			return
		}
		workedSel := row.Find(sel.Worked).First()
		if workedSel.Length() == 0 {
			fault(name, "missing worked element")
			return
		}

		var shifts []schedule.ShiftRange
		for j := range blocks.Nodes {
			shift, err := schedule.ParseShiftRange(blocks.Eq(j).Text())
			if err != nil {
				fault(name, err.Error())
				return
			}
			shifts = append(shifts, shift)
		}

		breakTime := strings.TrimSpace(breakSel.Text())
		workTime := strings.TrimSpace(workedSel.Text())
		for _, shift := range shifts {
			assignments = append(assignments, schedule.Assignment{
				EmployeeName: name,
				Shift:        shift,
				BreakTime:    breakTime,
				WorkTime:     workTime,
			})
		}
	})

	return assignments, faults, nil
}
