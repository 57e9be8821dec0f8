package board

import (
	"bytes"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup" // (여러 DB 조회를 병렬로 처리하기 위함)

	"bakehouse/internal/employee"
	"bakehouse/internal/schedule"
)

// DayView는 주간 화면의 하루 칸입니다.
type DayView struct {
	Date        string                `json:"date"`
	DayName     string                `json:"day_name"`
	Stored      bool                  `json:"stored"`
	Synced      bool                  `json:"synced"`
	Assignments []schedule.Assignment `json:"assignments"`
}

// WeekView는 스케줄 뷰(View)에 전달될 데이터 구조체입니다.
type WeekView struct {
	Year          int       `json:"year"`
	Week          int       `json:"week"`
	Days          []DayView `json:"days"`
	EmployeeCount int       `json:"employee_count"`
	PrevYear      int       `json:"-"`
	PrevWeek      int       `json:"-"`
	NextYear      int       `json:"-"`
	NextWeek      int       `json:"-"`
}

// Service는 스케줄 조회를 담당합니다.
type Service struct {
	scheduleStore *schedule.Store
	employeeStore *employee.Store
}

// NewService
func NewService(ss *schedule.Store, es *employee.Store) *Service {
	return &Service{
		scheduleStore: ss,
		employeeStore: es,
	}
}

// GetWeek는 ISO 주(year, week)의 스케줄과 직원 수를 병렬로 조회합니다.
// 저장되지 않은 날도 빈 칸으로 포함됩니다.
func (s *Service) GetWeek(year, week int) (*WeekView, error) {
	start := schedule.ISOWeekStart(year, week)
	var (
		entries []schedule.ScheduleEntry
		count   int
		eg      errgroup.Group
	)

	// 고루틴 1: 주간 스케줄 조회
	eg.Go(func() error {
		list, err := s.scheduleStore.ListBetween(start, start.AddDate(0, 0, 6))
		if err != nil {
			log.Errorf("[Board] GetWeek: ListBetween 실패: %v", err)
			return err
		}
		entries = list
		return nil
	})

	// 고루틴 2: 직원 수 조회
	eg.Go(func() error {
		names, err := s.employeeStore.ListNames()
		if err != nil {
			log.Errorf("[Board] GetWeek: ListNames 실패: %v", err)
			return err
		}
		count = len(names)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	byDate := make(map[string]schedule.ScheduleEntry, len(entries))
	for _, e := range entries {
		byDate[schedule.FormatDate(e.Date)] = e
	}

	view := &WeekView{Year: year, Week: week, EmployeeCount: count}
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		day := DayView{Date: schedule.FormatDate(d), DayName: d.Weekday().String()}
		if e, ok := byDate[day.Date]; ok {
			day.Stored = true
			day.Synced = e.JSONSyncedAt != nil
			day.Assignments = e.Assignments
		}
		view.Days = append(view.Days, day)
	}
	view.PrevYear, view.PrevWeek = start.AddDate(0, 0, -7).ISOWeek()
	view.NextYear, view.NextWeek = start.AddDate(0, 0, 7).ISOWeek()
	return view, nil
}

// CurrentWeek returns the ISO year and week of now.
func CurrentWeek(now time.Time) (int, int) {
	return now.ISOWeek()
}

// ExportWeek는 주간 스케줄을 .xlsx 로 만듭니다.
// 직원별 한 행, 요일별 한 열이며 두 근무는 줄바꿈으로 구분합니다.
func ExportWeek(view *WeekView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("%d-W%02d", view.Year, view.Week)
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F4B183"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 22); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A1", "Employee"); err != nil {
		return nil, err
	}
	for i, d := range view.Days {
		col, err := excelize.ColumnNumberToName(2 + i)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, 20); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, col+"1", fmt.Sprintf("%s %s", d.DayName, d.Date)); err != nil {
			return nil, err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(1 + len(view.Days))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	// 직원 이름 -> 요일별 근무 문자열
	rows := map[string][]string{}
	var order []string
	for i, d := range view.Days {
		for _, a := range d.Assignments {
			cells, ok := rows[a.EmployeeName]
			if !ok {
				cells = make([]string, len(view.Days))
				order = append(order, a.EmployeeName)
			}
			text := a.Shift.String()
			if a.BreakTime != "" {
				text += " (" + a.BreakTime + ")"
			}
			if cells[i] != "" {
				cells[i] += "\n"
			}
			cells[i] += text
			rows[a.EmployeeName] = cells
		}
	}

	for r, name := range order {
		row := r + 2
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name); err != nil {
			return nil, fmt.Errorf("export %q: %w", name, err)
		}
		for i, text := range rows[name] {
			cell, err := excelize.CoordinatesToCellName(2+i, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, text); err != nil {
				return nil, fmt.Errorf("export %q: %w", name, err)
			}
		}
	}
	if len(order) > 0 {
		if err := f.SetCellStyle(sheetName, "B2", fmt.Sprintf("%s%d", lastCol, len(order)+1), cellStyle); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
