// Package config centralises environment and runtime configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/sizzlei/confloader"

	"bakehouse/internal/database"
	"bakehouse/internal/portal"
)

// Config is passed explicitly to every component; nothing reads the
// environment at import time.
type Config struct {
	DB database.DBI

	ScheduleDir   string
	EmployeesFile string

	Portal      portal.Credentials
	ScheduleURL string
	Selectors   portal.Selectors

	BrowserHeadless bool
	ChromePath      string
	PaceMin         time.Duration
	PaceMax         time.Duration

	ScrapeCron string

	SlackBotToken  string
	SlackChannelID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ServerPort     string
	AdminEmployees []string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file (or the files named) and then the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		DB: database.DBI{
			Driver:   getEnvOrDefault("DB_DRIVER", database.DriverMySQL),
			Endpoint: getEnvOrDefault("DB_HOST", "127.0.0.1"),
			Port:     getIntEnv("DB_PORT", 3306),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: getEnvOrDefault("DB_NAME", "bakehouse"),
			Path:     getEnvOrDefault("DB_PATH", "data/bakehouse.db"),
		},
		ScheduleDir:   getEnvOrDefault("SCHEDULE_DIR", "data/schedules"),
		EmployeesFile: getEnvOrDefault("EMPLOYEES_FILE", "data/employees.json"),
		Portal: portal.Credentials{
			Username: os.Getenv("PORTAL_USERNAME"),
			Password: os.Getenv("PORTAL_PASSWORD"),
			LoginURL: os.Getenv("PORTAL_LOGIN_URL"),
		},
		ScheduleURL: os.Getenv("PORTAL_SCHEDULE_URL"),
		Selectors: portal.Selectors{
			UsernameInput: os.Getenv("PORTAL_USERNAME_SELECTOR"),
			PasswordInput: os.Getenv("PORTAL_PASSWORD_SELECTOR"),
			LoginButton:   os.Getenv("PORTAL_LOGIN_BUTTON_SELECTOR"),
			Row:           os.Getenv("PORTAL_ROW_SELECTOR"),
			Name:          os.Getenv("PORTAL_NAME_SELECTOR"),
			Shift:         os.Getenv("PORTAL_SHIFT_SELECTOR"),
			Break:         os.Getenv("PORTAL_BREAK_SELECTOR"),
			Worked:        os.Getenv("PORTAL_WORKED_SELECTOR"),
		}.WithDefaults(),
		BrowserHeadless: getBoolEnv("BROWSER_HEADLESS", true),
		ChromePath:      os.Getenv("CHROME_PATH"),
		PaceMin:         getDurationEnv("PACE_MIN", 800*time.Millisecond),
		PaceMax:         getDurationEnv("PACE_MAX", 2500*time.Millisecond),
		ScrapeCron:      getEnvOrDefault("SCRAPE_CRON", "0 6 * * 1"),
		SlackBotToken:   os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID:  os.Getenv("SLACK_CHANNEL_ID"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getIntEnv("REDIS_DB", 0),
		ServerPort:      getEnvOrDefault("SERVER_PORT", "3000"),
		AdminEmployees:  splitList(os.Getenv("ADMIN_EMPLOYEES")),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "text"),
	}
	return cfg, nil
}

// ApplyAWSParams overlays values from AWS Parameter Store. The 'repository'
// section holds DB credentials; 'portal' and 'slack' are optional.
func (c *Config) ApplyAWSParams(region, path string) error {
	params, err := confloader.AWSParamLoader(region, path)
	if err != nil {
		return fmt.Errorf("parameter store %s: %w", path, err)
	}

	repositoryConfig := params.Keyload("repository")
	setString(&c.DB.User, repositoryConfig["User"])
	setString(&c.DB.Password, repositoryConfig["Password"])
	setString(&c.DB.Endpoint, repositoryConfig["Endpoint"])
	setString(&c.DB.Database, repositoryConfig["Database"])
	setInt(&c.DB.Port, repositoryConfig["Port"])

	portalConfig := params.Keyload("portal")
	setString(&c.Portal.Username, portalConfig["Username"])
	setString(&c.Portal.Password, portalConfig["Password"])
	setString(&c.Portal.LoginURL, portalConfig["LoginURL"])
	setString(&c.ScheduleURL, portalConfig["ScheduleURL"])

	slackConfig := params.Keyload("slack")
	setString(&c.SlackBotToken, slackConfig["BotToken"])
	setString(&c.SlackChannelID, slackConfig["ChannelID"])

	log.Infof("[Config] Parameter Store(%s) 설정을 적용했습니다", path)
	return nil
}

// ValidateScraper reports the settings a scrape cannot run without.
func (c *Config) ValidateScraper() error {
	var missing []string
	if c.Portal.Username == "" {
		missing = append(missing, "PORTAL_USERNAME")
	}
	if c.Portal.Password == "" {
		missing = append(missing, "PORTAL_PASSWORD")
	}
	if c.Portal.LoginURL == "" {
		missing = append(missing, "PORTAL_LOGIN_URL")
	}
	if c.ScheduleURL == "" {
		missing = append(missing, "PORTAL_SCHEDULE_URL")
	} else if !strings.Contains(c.ScheduleURL, "{date}") {
		return fmt.Errorf("PORTAL_SCHEDULE_URL must contain {date}: %s", c.ScheduleURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsAdmin reports whether the cropped employee name is listed in ADMIN_EMPLOYEES.
func (c *Config) IsAdmin(name string) bool {
	for _, a := range c.AdminEmployees {
		if a == name {
			return true
		}
	}
	return false
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the global logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("[Config] 알 수 없는 LOG_LEVEL(%s), info 로 설정합니다", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func setString(dst *string, value interface{}) {
	if v, ok := value.(string); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, value interface{}) {
	switch v := value.(type) {
	case int:
		*dst = v
	case float64:
		*dst = int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func getEnvOrDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getIntEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getBoolEnv(key string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return defaultVal
	}
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
