// Package scraper runs one schedule acquisition: plan, log in, extract each
// date, store it, mirror it and register new employees.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/employee"
	"bakehouse/internal/portal"
	"bakehouse/internal/runlock"
	"bakehouse/internal/schedule"
)

const lockName = "schedule-scrape"

// Options for one run. A nil Week scrapes the week after next.
type Options struct {
	Week    *int
	Replace bool
	Trigger string
}

// BrowserFactory opens a fresh browser session for one run.
type BrowserFactory func(ctx context.Context) (portal.Browser, error)

// Notifier receives the report of every run.
type Notifier interface {
	Send(title, text string, failed bool) error
}

type Deps struct {
	Planner    *schedule.Planner
	NewBrowser BrowserFactory
	Auth       *portal.Authenticator
	Extractor  *portal.Extractor
	Reconciler *schedule.Reconciler
	Employees  *employee.Service
	Locker     runlock.Locker
	Notifier   Notifier
	Pacer      *portal.Pacer
}

// Runner
type Runner struct {
	Deps

	mu   sync.RWMutex
	last *Report
}

func NewRunner(d Deps) *Runner {
	if d.Locker == nil {
		d.Locker = runlock.NewLocalLocker()
	}
	if d.Planner == nil {
		d.Planner = schedule.NewPlanner()
	}
	return &Runner{Deps: d}
}

// LastReport returns the report of the most recent finished run, or nil.
func (r *Runner) LastReport() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Run performs one scrape. Login, navigation and cancellation errors abort
// the run. Database write errors are collected per date and returned joined
// after the mirror and discovery steps have run. The browser is always closed.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Trigger:   opts.Trigger,
		Week:      opts.Week,
		Replace:   opts.Replace,
		StartedAt: time.Now(),
	}
	logger := log.WithField("run_id", report.RunID)

	release, err := r.Locker.Acquire(ctx, lockName)
	if err != nil {
		logger.WithError(err).Warn("[Scraper] 다른 수집 작업이 실행 중입니다")
		return nil, err
	}
	defer release()

	dbErrs, err := r.run(ctx, opts, report, logger)
	report.FinishedAt = time.Now()
	if err != nil {
		report.Error = err.Error()
		logger.WithError(err).Error("[Scraper] 스케줄 수집 중단")
	} else {
		logger.WithFields(log.Fields{
			"days":          len(report.Days),
			"row_faults":    report.RowFaults(),
			"new_employees": len(report.NewEmployees),
		}).Info("[Scraper] 스케줄 수집 완료")
	}

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
	r.notify(report)

	if err != nil {
		return report, err
	}
	return report, errors.Join(dbErrs...)
}

// run returns the per-date write errors and, separately, the error that aborted the run.
func (r *Runner) run(ctx context.Context, opts Options, report *Report, logger *log.Entry) ([]error, error) {
	dates, err := r.Planner.Plan(opts.Week)
	if err != nil {
		return nil, err
	}
	for _, d := range dates {
		report.Dates = append(report.Dates, schedule.FormatDate(d))
	}
	logger.Infof("[Scraper] 스케줄 수집 시작: %s ~ %s", report.Dates[0], report.Dates[len(report.Dates)-1])

	br, err := r.NewBrowser(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := br.Close(); err != nil {
			logger.WithError(err).Warn("[Scraper] 브라우저 종료 실패")
		}
	}()

	if err := r.Auth.Login(ctx, br); err != nil {
		return nil, fmt.Errorf("portal login: %w", err)
	}

	var (
		entries []*schedule.ScheduleEntry
		names   []string
		seen    = map[string]bool{}
		dbErrs  []error
	)
	for _, date := range dates {
		if err := r.Pacer.Pause(ctx); err != nil {
			return nil, err
		}

		day, err := r.Extractor.Extract(ctx, br, date)
		if err != nil {
			return nil, err
		}

		result := DayResult{
			Date:        schedule.FormatDate(date),
			Assignments: len(day.Assignments),
			Faults:      day.Faults,
		}

		var entry *schedule.ScheduleEntry
		if opts.Replace {
			entry, err = r.Reconciler.ReplaceDate(date, day.Assignments)
		} else {
			entry, err = r.Reconciler.WriteDate(date, day.Assignments)
		}
		if err != nil {
			result.DBError = err.Error()
			dbErrs = append(dbErrs, err)
			logger.WithError(err).WithField("date", result.Date).Error("[Scraper] 스케줄 DB 저장 실패")
		} else {
			result.Stored = true
		}
		entries = append(entries, entry)
		report.Days = append(report.Days, result)

		for _, n := range day.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	outcome := r.Reconciler.WriteMirror(entries)
	report.MirrorFiles = outcome.Files
	report.MirrorFaults = outcome.Faults

	discovery, err := r.Employees.Discover(names)
	if err != nil {
		logger.WithError(err).Error("[Scraper] 신규 직원 등록 실패")
		dbErrs = append(dbErrs, fmt.Errorf("employee discovery: %w", err))
	}
	if discovery != nil {
		report.NewEmployees = discovery.Created
		report.RegistryFault = discovery.RegistryFault
	}

	return dbErrs, nil
}

func (r *Runner) notify(report *Report) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Send(report.Title(), report.Summary(), report.Failed()); err != nil {
		log.WithError(err).Warn("[Scraper] 실행 결과 알림 실패")
	}
}

// Resync rewrites mirror weeks that still have days missing from the JSON
// files. It shares the run lock with Run.
func (r *Runner) Resync(ctx context.Context) (schedule.MirrorOutcome, error) {
	release, err := r.Locker.Acquire(ctx, lockName)
	if err != nil {
		return schedule.MirrorOutcome{}, err
	}
	defer release()

	return r.Reconciler.ResyncMirror()
}
