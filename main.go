package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal" // (우아한 종료)
	"syscall"   // (우아한 종료)
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/mysql/v2" // (MySQL 스토어)
	"github.com/gofiber/template/html/v2"
	log "github.com/sirupsen/logrus" // Logrus 사용

	"bakehouse/internal/board"
	"bakehouse/internal/bootstrap"
	"bakehouse/internal/config"
	"bakehouse/internal/database"
	"bakehouse/internal/employee"
	"bakehouse/internal/middleware" // (미들웨어 임포트)
	"bakehouse/internal/scheduler"  // (스케줄러 임포트)
)

func main() {
	var configPath, envFile string
	flag.StringVar(&configPath, "conf", "", "parameter store key (optional)")
	flag.StringVar(&envFile, "env", ".env", "dotenv file")
	flag.Parse()

	// Configure
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Configuration load failed. %v", err)
	}
	if configPath != "" {
		if err := cfg.ApplyAWSParams("ap-northeast-2", configPath); err != nil {
			log.Fatalf("Parameter Store load failed. %v", err)
		}
	}
	cfg.SetupLogging()

	if err := cfg.ValidateScraper(); err != nil {
		log.Warnf("스크래퍼 설정이 불완전합니다. 스케줄 수집은 실패합니다: %v", err)
	}

	// DB 연결 + 의존성 조립
	a, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("Repository Connection failed. %v", err)
	}
	defer a.Close()

	sessionConfig := session.Config{
		Expiration:     12 * time.Hour,
		CookieName:     "bakehouse_session",
		CookieSecure:   false,
		CookieHTTPOnly: true,
	}
	if cfg.DB.Driver == database.DriverMySQL {
		sessionConfig.Storage = mysql.New(mysql.Config{
			Db:    a.DB.DB, // (*sqlx.DB에서 표준 *sql.DB 추출)
			Table: "fiber_sessions",
		})
		log.Info("MySQL 세션 스토어가 설정되었습니다.")
	} else {
		log.Info("메모리 세션 스토어가 설정되었습니다.")
	}
	sessionStore := session.New(sessionConfig)

	// Employee
	employeeHandler := employee.NewEmployeeHandler(a.Employees, sessionStore)

	// 서버 수명 ctx (종료 시 수동 수집 취소)
	serverCtx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()

	// Board
	boardService := board.NewService(a.ScheduleStore, a.EmployeeStore)
	boardHandler := board.NewBoardHandler(serverCtx, boardService, a.Runner)

	// Scheduler
	scheduler := scheduler.NewScheduler(a.Runner, cfg.ScrapeCron)

	// Fiber 앱 생성 및 템플릿 설정
	engine := html.New("./web/views", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})
	log.Info("HTML 템플릿 엔진(web/views)이 설정되었습니다.")

	app.Static("/public", "./web/public")

	// 라우트(URL) 설정
	log.Info("라우트를 설정합니다...")

	// 인증이 필요 *없는* 그룹
	authGroup := app.Group("/auth")
	{
		authGroup.Get("/login", employeeHandler.HandleShowLoginPage)
		authGroup.Post("/login", employeeHandler.HandleLogin)
		authGroup.Post("/activate", employeeHandler.HandleActivate)
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/schedule")
	})

	// 1. 로그인한 직원 그룹
	appGroup := app.Group("/",
		middleware.AuthMiddleware(sessionStore),
		middleware.MarkAdmin(cfg.IsAdmin),
	)
	{
		appGroup.Get("/auth/logout", employeeHandler.HandleLogout)

		// [근무표]
		appGroup.Get("/schedule", boardHandler.HandleShowSchedule)
		appGroup.Get("/schedule/export", boardHandler.HandleExportSchedule)
		appGroup.Get("/api/schedule", boardHandler.HandleGetSchedule)
	}

	// 2. 관리자 전용 그룹 (ADMIN_EMPLOYEES)
	adminGroup := app.Group("/admin",
		middleware.AuthMiddleware(sessionStore),
		middleware.AdminOnlyMiddleware(cfg.IsAdmin),
	)
	{
		adminGroup.Post("/schedule/scrape", boardHandler.HandleTriggerScrape)
		adminGroup.Get("/schedule/last-run", boardHandler.HandleLastRun)
	}

	// 서버 시작 (우아한 종료 로직)

	// (스케줄러 시작)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("스케줄러 시작 실패: %v", err)
	}

	// (Fiber 앱 시작)
	go func() {
		log.Infof("Bakehouse 서버(HTTP)가 [::]:%s 포트에서 시작됩니다.", cfg.ServerPort)
		if err := app.Listen(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
			log.Panicf("HTTP 서버 Listen 실패: %v", err)
		}
	}()

	// (종료 신호 대기)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Info("Bakehouse 서버 종료 신호 수신...")

	scheduler.Stop()

	cancelServer()
	boardHandler.Wait()

	if err := app.Shutdown(); err != nil {
		log.Errorf("HTTP 서버 Shutdown 실패: %v", err)
	}

	log.Info("Bakehouse 서버가 정상적으로 종료되었습니다.")
}
