package board

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/schedule"
	"bakehouse/internal/scraper"
)

// Trigger is the part of scraper.Runner the admin routes use.
type Trigger interface {
	Run(ctx context.Context, opts scraper.Options) (*scraper.Report, error)
	LastReport() *scraper.Report
}

// BoardHandler는 스케줄 조회/내보내기/수집 실행 핸들러입니다.
type BoardHandler struct {
	service *Service
	runner  Trigger
	now     func() time.Time

	// 수동 수집은 서버 수명 ctx 를 따릅니다 (종료 시 취소).
	ctx context.Context
	wg  sync.WaitGroup
}

// NewBoardHandler는 새 핸들러를 생성합니다. ctx 가 취소되면 진행 중인 수동 수집도 중단됩니다.
func NewBoardHandler(ctx context.Context, service *Service, runner Trigger) *BoardHandler {
	return &BoardHandler{service: service, runner: runner, now: time.Now, ctx: ctx}
}

// Wait blocks until every admin-triggered run has returned.
func (h *BoardHandler) Wait() {
	h.wg.Wait()
}

// weekParam은 ?year=&week= 를 읽고, 없으면 이번 주를 사용합니다.
func (h *BoardHandler) weekParam(c *fiber.Ctx) (int, int, error) {
	year, week := CurrentWeek(h.now())
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 2100 {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = n
	}
	if v := c.Query("week"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 53 {
			return 0, 0, fmt.Errorf("invalid week %q", v)
		}
		week = n
	}
	// 52주뿐인 해의 53주차는 다음 해 1주차로 넘어가므로 거부합니다.
	if y, w := schedule.ISOWeekStart(year, week).ISOWeek(); y != year || w != week {
		return 0, 0, fmt.Errorf("%d has no ISO week %d", year, week)
	}
	return year, week, nil
}

// HandleShowSchedule는 'GET /schedule' 요청을 처리합니다.
func (h *BoardHandler) HandleShowSchedule(c *fiber.Ctx) error {
	year, week, err := h.weekParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	data, err := h.service.GetWeek(year, week)
	if err != nil {
		log.Errorf("스케줄 데이터 조회 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("데이터 조회 중 오류 발생")
	}

	return c.Render("schedule", fiber.Map{
		"Title":        fmt.Sprintf("Bakehouse | %d년 %d주차", year, week),
		"Data":         data,
		"EmployeeName": c.Locals("employee_name"),
		"IsAdmin":      c.Locals("is_admin"),
	}, "layout")
}

// HandleGetSchedule는 'GET /api/schedule' 요청을 JSON 으로 응답합니다.
func (h *BoardHandler) HandleGetSchedule(c *fiber.Ctx) error {
	year, week, err := h.weekParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	data, err := h.service.GetWeek(year, week)
	if err != nil {
		log.Errorf("스케줄 데이터 조회 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "데이터 조회 중 오류 발생"})
	}
	return c.JSON(data)
}

// HandleExportSchedule는 'GET /schedule/export' 요청에 .xlsx 파일을 내려줍니다.
func (h *BoardHandler) HandleExportSchedule(c *fiber.Ctx) error {
	year, week, err := h.weekParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	data, err := h.service.GetWeek(year, week)
	if err != nil {
		log.Errorf("스케줄 데이터 조회 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("데이터 조회 중 오류 발생")
	}

	buf, err := ExportWeek(data)
	if err != nil {
		log.Errorf("엑셀 생성 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("엑셀 생성 중 오류 발생")
	}

	c.Attachment(fmt.Sprintf("schedule-%d-W%02d.xlsx", year, week))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

// HandleTriggerScrape는 'POST /admin/schedule/scrape' 요청으로 수집을 백그라운드에서 시작합니다.
func (h *BoardHandler) HandleTriggerScrape(c *fiber.Ctx) error {
	type scrapeForm struct {
		Week    string `form:"week" json:"week"`
		Replace bool   `form:"replace" json:"replace"`
	}
	form := new(scrapeForm)
	if err := c.BodyParser(form); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "입력 값이 올바르지 않습니다."})
	}

	opts := scraper.Options{Replace: form.Replace, Trigger: "admin"}
	if name, ok := c.Locals("employee_name").(string); ok {
		opts.Trigger = "admin:" + name
	}
	if form.Week != "" {
		week, err := strconv.Atoi(form.Week)
		if err != nil || week < 1 || week > 53 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "week 는 1~53 사이여야 합니다."})
		}
		opts.Week = &week
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		report, err := h.runner.Run(h.ctx, opts)
		if err != nil {
			log.WithError(err).Warnf("[Board] 수동 수집 실패 (%s)", opts.Trigger)
			return
		}
		log.Infof("[Board] 수동 수집 완료 (%s, run %s)", opts.Trigger, report.RunID)
	}()

	log.Infof("[Board] 수동 수집 요청 (%s)", opts.Trigger)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}

// HandleLastRun은 'GET /admin/schedule/last-run' 요청에 마지막 실행 결과를 응답합니다.
func (h *BoardHandler) HandleLastRun(c *fiber.Ctx) error {
	report := h.runner.LastReport()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "아직 실행 기록이 없습니다."})
	}
	return c.JSON(report)
}
