// Package bootstrap assembles the stores, services and scrape runner from a
// Config. The HTTP server and the command line tools share it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/config"
	"bakehouse/internal/database"
	"bakehouse/internal/employee"
	"bakehouse/internal/notify"
	"bakehouse/internal/portal"
	"bakehouse/internal/runlock"
	"bakehouse/internal/schedule"
	"bakehouse/internal/scraper"
)

// Redis 락 TTL. 한 번의 스크랩(7일)보다 충분히 길어야 합니다.
const lockTTL = 30 * time.Minute

type App struct {
	Config *config.Config
	DB     *sqlx.DB

	ScheduleStore *schedule.Store
	EmployeeStore *employee.Store
	Registry      *employee.Registry
	Employees     *employee.Service
	Reconciler    *schedule.Reconciler
	Runner        *scraper.Runner

	closers []func() error
}

// New opens the database, makes sure the tables exist and wires the runner.
func New(cfg *config.Config) (*App, error) {
	dbo, err := database.CreateConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("repository connection failed: %w", err)
	}
	log.Infof("[Bootstrap] 데이터베이스(%s) 연결 성공", cfg.DB.Driver)

	if err := database.EnsureSchema(dbo); err != nil {
		dbo.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	a := &App{Config: cfg, DB: dbo}
	a.closers = append(a.closers, dbo.Close)

	// Schedule
	a.ScheduleStore = schedule.NewStore(dbo)
	a.Reconciler = schedule.NewReconciler(a.ScheduleStore, schedule.NewMirror(cfg.ScheduleDir))

	// Employee
	a.EmployeeStore = employee.NewStore(dbo)
	a.Registry = employee.NewRegistry(cfg.EmployeesFile)
	a.Employees = employee.NewService(a.EmployeeStore, a.Registry)

	// Portal
	pacer := portal.NewPacer(cfg.PaceMin, cfg.PaceMax)

	locker, err := a.newLocker()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Runner = scraper.NewRunner(scraper.Deps{
		Planner:    schedule.NewPlanner(),
		NewBrowser: chromeFactory(cfg),
		Auth:       portal.NewAuthenticator(cfg.Portal, cfg.Selectors, pacer),
		Extractor:  portal.NewExtractor(cfg.ScheduleURL, cfg.Selectors, pacer),
		Reconciler: a.Reconciler,
		Employees:  a.Employees,
		Locker:     locker,
		Notifier:   newNotifier(cfg),
		Pacer:      pacer,
	})
	return a, nil
}

// REDIS_ADDR 가 있으면 여러 인스턴스가 하나의 락을 공유합니다.
func (a *App) newLocker() (runlock.Locker, error) {
	if a.Config.RedisAddr == "" {
		return runlock.NewLocalLocker(), nil
	}
	l, err := runlock.NewRedisLocker(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	a.closers = append(a.closers, l.Close)
	log.Infof("[Bootstrap] Redis 실행 락 사용 (%s)", a.Config.RedisAddr)
	return l, nil
}

func newNotifier(cfg *config.Config) scraper.Notifier {
	if cfg.SlackBotToken == "" {
		log.Info("[Bootstrap] SLACK_BOT_TOKEN 이 없어 실행 알림을 보내지 않습니다")
		return nil
	}
	n, err := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
	if err != nil {
		log.WithError(err).Warn("[Bootstrap] Slack 알림 비활성화")
		return nil
	}
	return n
}

func chromeFactory(cfg *config.Config) scraper.BrowserFactory {
	return func(ctx context.Context) (portal.Browser, error) {
		b, err := portal.NewChromeBrowser(ctx, portal.ChromeOptions{
			Headless: cfg.BrowserHeadless,
			ExecPath: cfg.ChromePath,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warn("[Bootstrap] 리소스 정리 실패")
		}
	}
	a.closers = nil
}
