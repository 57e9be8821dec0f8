package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DB_DRIVER", "DB_PORT", "SCHEDULE_DIR", "SCRAPE_CRON", "BROWSER_HEADLESS", "PACE_MIN", "ADMIN_EMPLOYEES", "PORTAL_ROW_SELECTOR"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DB.Driver != "mysql" || cfg.DB.Port != 3306 {
		t.Fatalf("db = %+v", cfg.DB)
	}
	if cfg.ScheduleDir != "data/schedules" || cfg.ScrapeCron != "0 6 * * 1" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.BrowserHeadless || cfg.PaceMin != 800*time.Millisecond {
		t.Fatalf("browser settings = %v, %s", cfg.BrowserHeadless, cfg.PaceMin)
	}
	if cfg.Selectors.Row != ".employee-row" || cfg.Selectors.LoginButton != "#login-button" {
		t.Fatalf("selectors = %+v", cfg.Selectors)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	body := strings.Join([]string{
		"DB_DRIVER=sqlite3",
		"DB_PATH=/tmp/bakehouse.db",
		"PORTAL_USERNAME=baker",
		"PORTAL_PASSWORD=secret",
		"PORTAL_LOGIN_URL=https://portal.example/login",
		"PORTAL_SCHEDULE_URL=https://portal.example/day/{date}",
		"PORTAL_ROW_SELECTOR=tr.staff",
		"BROWSER_HEADLESS=false",
		"PACE_MAX=5s",
		"REDIS_DB=2",
		"ADMIN_EMPLOYEES=Jane Doe, Max Muster ,",
	}, "\n")
	if err := os.WriteFile(env, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"DB_DRIVER", "DB_PATH", "PORTAL_USERNAME", "PORTAL_PASSWORD", "PORTAL_LOGIN_URL",
		"PORTAL_SCHEDULE_URL", "PORTAL_ROW_SELECTOR", "BROWSER_HEADLESS", "PACE_MAX", "REDIS_DB", "ADMIN_EMPLOYEES"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DB.Driver != "sqlite3" || cfg.DB.Path != "/tmp/bakehouse.db" {
		t.Fatalf("db = %+v", cfg.DB)
	}
	if cfg.BrowserHeadless || cfg.PaceMax != 5*time.Second || cfg.RedisDB != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Selectors.Row != "tr.staff" || cfg.Selectors.Name != ".employee-name" {
		t.Fatalf("selectors = %+v", cfg.Selectors)
	}
	if !reflect.DeepEqual(cfg.AdminEmployees, []string{"Jane Doe", "Max Muster"}) {
		t.Fatalf("admins = %q", cfg.AdminEmployees)
	}
	if !cfg.IsAdmin("Max Muster") || cfg.IsAdmin("New Person") {
		t.Fatal("IsAdmin mismatch")
	}
	if err := cfg.ValidateScraper(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateScraper(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateScraper()
	if err == nil || !strings.Contains(err.Error(), "PORTAL_USERNAME") || !strings.Contains(err.Error(), "PORTAL_SCHEDULE_URL") {
		t.Fatalf("err = %v", err)
	}

	cfg.Portal.Username, cfg.Portal.Password, cfg.Portal.LoginURL = "u", "p", "https://portal.example/login"
	cfg.ScheduleURL = "https://portal.example/day"
	if err := cfg.ValidateScraper(); err == nil || !strings.Contains(err.Error(), "{date}") {
		t.Fatalf("missing placeholder: %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	defer log.SetFormatter(log.StandardLogger().Formatter)

	(&Config{LogLevel: "debug", LogFormat: "json"}).SetupLogging()
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("level = %s", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Fatal("expected JSON formatter")
	}

	(&Config{LogLevel: "nonsense"}).SetupLogging()
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("level = %s", log.GetLevel())
	}
}

func TestSetInt(t *testing.T) {
	var port int
	for _, v := range []interface{}{3307, float64(3307), "3307"} {
		port = 0
		setInt(&port, v)
		if port != 3307 {
			t.Fatalf("setInt(%v) = %d", v, port)
		}
	}
	setInt(&port, nil)
	if port != 3307 {
		t.Fatal("nil must leave the value")
	}
}
