package board

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"bakehouse/internal/database"
	"bakehouse/internal/employee"
	"bakehouse/internal/schedule"
	"bakehouse/internal/scraper"
)

type fakeTrigger struct {
	ran  chan scraper.Options
	last *scraper.Report
}

func (f *fakeTrigger) Run(ctx context.Context, opts scraper.Options) (*scraper.Report, error) {
	f.ran <- opts
	return &scraper.Report{RunID: "r1"}, nil
}

func (f *fakeTrigger) LastReport() *scraper.Report { return f.last }

// blockingTrigger runs until its context is cancelled.
type blockingTrigger struct {
	started chan struct{}
}

func (b *blockingTrigger) Run(ctx context.Context, _ scraper.Options) (*scraper.Report, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingTrigger) LastReport() *scraper.Report { return nil }

func newTestBoard(t *testing.T) (*Service, *schedule.Store) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bakehouse.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}

	ss := schedule.NewStore(db)
	es := employee.NewStore(db)
	for _, e := range []*employee.Employee{{Name: "Jane Doe", AccessCode: "11111"}, {Name: "Max Muster", AccessCode: "22222"}} {
		if err := es.CreateEmployee(e); err != nil {
			t.Fatal(err)
		}
	}

	monday := schedule.NewEntry(time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), []schedule.Assignment{
		{EmployeeName: "Jane Doe", Shift: schedule.ShiftRange{Start: "06:00", End: "10:00"}, BreakTime: "15m", WorkTime: "7h45m"},
		{EmployeeName: "Jane Doe", Shift: schedule.ShiftRange{Start: "14:00", End: "17:45"}, BreakTime: "15m", WorkTime: "7h45m"},
		{EmployeeName: "Max Muster", Shift: schedule.ShiftRange{Start: "12:00", End: "20:00"}, BreakTime: "30m", WorkTime: "7h30m"},
	})
	if err := ss.CreateSchedule(monday); err != nil {
		t.Fatal(err)
	}
	if err := ss.MarkJSONSynced([]time.Time{monday.Date}, time.Now()); err != nil {
		t.Fatal(err)
	}
	return NewService(ss, es), ss
}

func TestGetWeek(t *testing.T) {
	svc, _ := newTestBoard(t)

	view, err := svc.GetWeek(2026, 44)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Days) != 7 || view.EmployeeCount != 2 {
		t.Fatalf("view = %+v", view)
	}
	if !view.Days[0].Stored || !view.Days[0].Synced || len(view.Days[0].Assignments) != 3 {
		t.Fatalf("monday = %+v", view.Days[0])
	}
	if view.Days[1].Stored || view.Days[1].DayName != "Tuesday" {
		t.Fatalf("tuesday = %+v", view.Days[1])
	}
	if view.PrevWeek != 43 || view.NextWeek != 45 || view.NextYear != 2026 {
		t.Fatalf("navigation = %d/%d %d/%d", view.PrevYear, view.PrevWeek, view.NextYear, view.NextWeek)
	}
}

func TestExportWeek(t *testing.T) {
	svc, _ := newTestBoard(t)
	view, err := svc.GetWeek(2026, 44)
	if err != nil {
		t.Fatal(err)
	}

	buf, err := ExportWeek(view)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("2026-W44")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two employees, got %d rows", len(rows))
	}
	if rows[0][1] != "Monday 26-10-2026" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "Jane Doe" || rows[1][1] != "06:00 - 10:00 (15m)\n14:00 - 17:45 (15m)" {
		t.Fatalf("jane = %q", rows[1])
	}
}

func TestExportWeekReportsCellErrors(t *testing.T) {
	view := &WeekView{Year: 2026, Week: 44, Days: []DayView{{
		Date:    "26-10-2026",
		DayName: "Monday",
		Assignments: []schedule.Assignment{{
			EmployeeName: strings.Repeat("x", excelize.TotalCellChars+1),
			Shift:        schedule.ShiftRange{Start: "06:00", End: "14:00"},
		}},
	}}}

	if _, err := ExportWeek(view); err == nil {
		t.Fatal("expected an error for an oversized cell value")
	}
}

func newTestApp(svc *Service, trig Trigger) *fiber.App {
	h := NewBoardHandler(context.Background(), svc, trig)
	h.now = func() time.Time { return time.Date(2026, 10, 27, 12, 0, 0, 0, time.UTC) }

	app := fiber.New()
	app.Get("/api/schedule", h.HandleGetSchedule)
	app.Get("/schedule/export", h.HandleExportSchedule)
	app.Post("/admin/schedule/scrape", h.HandleTriggerScrape)
	app.Get("/admin/schedule/last-run", h.HandleLastRun)
	return app
}

func TestScheduleAPI(t *testing.T) {
	svc, _ := newTestBoard(t)
	app := newTestApp(svc, &fakeTrigger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var view WeekView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Week != 44 || len(view.Days[0].Assignments) != 3 {
		t.Fatalf("view = %+v", view)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/schedule?week=99", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid week: status %d", resp.StatusCode)
	}
}

func TestScheduleAPIRejectsMissingWeek53(t *testing.T) {
	svc, _ := newTestBoard(t)
	app := newTestApp(svc, &fakeTrigger{})

	// 2025 has 52 ISO weeks, 2026 has 53.
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/schedule?year=2025&week=53", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("2025/53: status %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/schedule?year=2026&week=53", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("2026/53: status %d", resp.StatusCode)
	}
	var view WeekView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Year != 2026 || view.Week != 53 || view.Days[0].Date != "28-12-2026" {
		t.Fatalf("view = %d/%d starting %s", view.Year, view.Week, view.Days[0].Date)
	}
}

func TestExportEndpoint(t *testing.T) {
	svc, _ := newTestBoard(t)
	app := newTestApp(svc, &fakeTrigger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/schedule/export?year=2026&week=44", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "schedule-2026-W44.xlsx") {
		t.Fatalf("disposition = %q", resp.Header.Get(fiber.HeaderContentDisposition))
	}
	body, _ := io.ReadAll(resp.Body)
	if _, err := excelize.OpenReader(bytes.NewReader(body)); err != nil {
		t.Fatalf("not a workbook: %v", err)
	}
}

func TestTriggerAndLastRun(t *testing.T) {
	svc, _ := newTestBoard(t)
	trig := &fakeTrigger{ran: make(chan scraper.Options, 1)}
	app := newTestApp(svc, trig)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/admin/schedule/last-run", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("no runs yet: status %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/schedule/scrape", strings.NewReader(`{"week":"12","replace":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status %d", resp.StatusCode)
	}

	select {
	case opts := <-trig.ran:
		if opts.Week == nil || *opts.Week != 12 || !opts.Replace || opts.Trigger != "admin" {
			t.Fatalf("opts = %+v", opts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scrape was not started")
	}

	trig.last = &scraper.Report{RunID: "r1"}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/admin/schedule/last-run", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("last run: status %d", resp.StatusCode)
	}

	bad := httptest.NewRequest(http.MethodPost, "/admin/schedule/scrape", strings.NewReader(`{"week":"0"}`))
	bad.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(bad)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("week 0: status %d", resp.StatusCode)
	}
}

func TestTriggeredRunStopsWithServer(t *testing.T) {
	svc, _ := newTestBoard(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trig := &blockingTrigger{started: make(chan struct{})}
	h := NewBoardHandler(ctx, svc, trig)
	app := fiber.New()
	app.Post("/admin/schedule/scrape", h.HandleTriggerScrape)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/schedule/scrape", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status %d", resp.StatusCode)
	}
	select {
	case <-trig.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scrape was not started")
	}

	cancel()
	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after shutdown")
	}
}
