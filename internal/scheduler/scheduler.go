package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/runlock"
	"bakehouse/internal/schedule"
	"bakehouse/internal/scraper"
)

// 미러 재동기화 주기
const resyncSpec = "@every 1h"

// Job is the part of scraper.Runner the scheduler drives.
type Job interface {
	Run(ctx context.Context, opts scraper.Options) (*scraper.Report, error)
	Resync(ctx context.Context) (schedule.MirrorOutcome, error)
}

// Scheduler
type Scheduler struct {
	cron     *cron.Cron
	runner   Job
	scrapeAt string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler는 scrapeAt(cron 표현식)마다 다음다음 주 스케줄을 수집합니다.
func NewScheduler(runner Job, scrapeAt string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		scrapeAt: scrapeAt,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start
func (s *Scheduler) Start() error {
	log.Info("[Scheduler] -----------------------------------------")
	log.Infof("[Scheduler] 🔔 스케줄 수집기가 시작됩니다 (%s)", s.scrapeAt)
	if _, err := s.cron.AddFunc(s.scrapeAt, s.runScrape); err != nil {
		return fmt.Errorf("invalid SCRAPE_CRON %q: %w", s.scrapeAt, err)
	}
	if _, err := s.cron.AddFunc(resyncSpec, s.runResync); err != nil {
		return err
	}
	s.cron.Start()
	log.Info("[Scheduler] -----------------------------------------")
	return nil
}

// Stop은 실행 중인 수집을 취소하고 작업이 끝날 때까지 기다립니다.
func (s *Scheduler) Stop() {
	log.Info("[Scheduler] 스케줄 수집기가 중지됩니다...")
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScrape() {
	log.Info("[Scheduler] 정기 스케줄 수집을 시작합니다")

	report, err := s.runner.Run(s.ctx, scraper.Options{Trigger: "cron"})
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			log.Warn("[Scheduler] 이미 수집 중이라 이번 회차는 건너뜁니다")
			return
		}
		log.WithError(err).Error("[Scheduler] 정기 스케줄 수집 실패")
	}
	if report != nil {
		log.Infof("[Scheduler] 수집 결과\n%s", report.Summary())
	}
}

func (s *Scheduler) runResync() {
	outcome, err := s.runner.Resync(s.ctx)
	if err != nil {
		if !errors.Is(err, runlock.ErrLocked) {
			log.WithError(err).Error("[Scheduler] 미러 재동기화 실패")
		}
		return
	}
	if len(outcome.Synced) > 0 {
		log.Infof("[Scheduler] 미러 재동기화: %d 일", len(outcome.Synced))
	}
}
