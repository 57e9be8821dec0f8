package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"bakehouse/internal/bootstrap"
	"bakehouse/internal/config"
	"bakehouse/internal/runlock"
	"bakehouse/internal/scraper"
)

func main() {
	var (
		configPath string
		envFile    string
		week       int
		replace    bool
		resync     bool
	)
	flag.StringVar(&configPath, "conf", "", "parameter store key (optional)")
	flag.StringVar(&envFile, "env", ".env", "dotenv file")
	flag.IntVar(&week, "week", 0, "week number to scrape (default: the week after next)")
	flag.BoolVar(&replace, "replace", false, "delete and rewrite dates that are already stored")
	flag.BoolVar(&resync, "resync", false, "only rewrite JSON weeks that have unsynced days")
	flag.Parse()

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

	a, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("Repository Connection failed. %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, a, week, replace, resync)
	stop()
	a.Close()
	os.Exit(code)
}

func run(ctx context.Context, a *bootstrap.App, week int, replace, resync bool) int {
	if resync {
		outcome, err := a.Runner.Resync(ctx)
		if err != nil {
			log.Errorf("resync failed: %v", err)
			return 1
		}
		fmt.Printf("resynced %d day(s) into %v\n", len(outcome.Synced), outcome.Files)
		for _, f := range outcome.Faults {
			fmt.Printf("  mirror fault: %s\n", f)
		}
		return 0
	}

	if err := a.Config.ValidateScraper(); err != nil {
		log.Errorf("%v", err)
		return 2
	}

	opts := scraper.Options{Replace: replace, Trigger: "cli"}
	if week != 0 {
		opts.Week = &week
	}

	report, err := a.Runner.Run(ctx, opts)
	if report != nil {
		fmt.Println(report.Summary())
	}
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			log.Warn("another scrape is already running")
		} else {
			log.Errorf("scrape failed: %v", err)
		}
		return 1
	}
	return 0
}
