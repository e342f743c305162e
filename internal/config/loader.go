package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/example/tutorrec/internal/logging"
)

// Config captures environment driven configuration values for TutorRec.
type Config struct {
	HTTPPort     int
	SQLiteDSN    string
	LogLevel     string
	LogFormat    string
	CalendarName string
	// Timezone is the IANA zone slots are exported in; empty uses the
	// process local zone.
	Timezone string

	// RateLimitRPS caps mutating API requests per client; zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	// PublishPath is where `serve` rewrites the iCalendar feed on
	// PublishSchedule. Empty disables publishing.
	PublishPath     string
	PublishSchedule string
}

// fileConfig is the YAML document named by TUTORREC_CONFIG.
type fileConfig struct {
	HTTPPort     int    `yaml:"http_port"`
	SQLiteDSN    string `yaml:"sqlite_dsn"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	CalendarName string `yaml:"calendar_name"`
	Timezone     string `yaml:"timezone"`

	RateLimitRPS    float64 `yaml:"rate_limit_rps"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	PublishPath     string  `yaml:"publish_path"`
	PublishSchedule string  `yaml:"publish_schedule"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:tutorrec.db",
		LogLevel:     "info",
		LogFormat:    "text",
		CalendarName: "TutorRec",

		RateLimitRPS:    10,
		RateLimitBurst:  20,
		PublishSchedule: "*/15 * * * *",
	}
}

// Load parses configuration values. Sources in increasing precedence:
// defaults, the YAML file named by TUTORREC_CONFIG, a .env file in the
// working directory, and the process environment. The .env file is read,
// not exported, so the process environment is left untouched.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
		if values != nil {
			dotenv = values
		}
	}
	lookup := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(dotenv[key])
	}

	cfg := Default()

	if path := lookup("TUTORREC_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 4)

	if portValue := lookup("TUTORREC_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TUTORREC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := lookup("TUTORREC_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if level := lookup("TUTORREC_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := lookup("TUTORREC_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if name := lookup("TUTORREC_CALENDAR_NAME"); name != "" {
		cfg.CalendarName = name
	}

	if tz := lookup("TUTORREC_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	if rps := lookup("TUTORREC_RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil || value < 0 {
			invalid = append(invalid, "TUTORREC_RATE_LIMIT_RPS")
		} else {
			cfg.RateLimitRPS = value
		}
	}
	if burst := lookup("TUTORREC_RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil || value <= 0 {
			invalid = append(invalid, "TUTORREC_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = value
		}
	}
	if path := lookup("TUTORREC_PUBLISH_PATH"); path != "" {
		cfg.PublishPath = path
	}
	if schedule := lookup("TUTORREC_PUBLISH_SCHEDULE"); schedule != "" {
		cfg.PublishSchedule = schedule
	}

	if cfg.HTTPPort <= 0 && !slices.Contains(invalid, "TUTORREC_HTTP_PORT") {
		invalid = append(invalid, "TUTORREC_HTTP_PORT")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "TUTORREC_LOG_LEVEL")
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
		cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	default:
		invalid = append(invalid, "TUTORREC_LOG_FORMAT")
	}

	if cfg.RateLimitRPS < 0 && !slices.Contains(invalid, "TUTORREC_RATE_LIMIT_RPS") {
		invalid = append(invalid, "TUTORREC_RATE_LIMIT_RPS")
	}
	if cfg.RateLimitBurst <= 0 && !slices.Contains(invalid, "TUTORREC_RATE_LIMIT_BURST") {
		invalid = append(invalid, "TUTORREC_RATE_LIMIT_BURST")
	}
	if _, err := cfg.Location(); err != nil {
		invalid = append(invalid, "TUTORREC_TIMEZONE")
	}
	if _, err := cron.ParseStandard(cfg.PublishSchedule); err != nil {
		invalid = append(invalid, "TUTORREC_PUBLISH_SCHEDULE")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if file.HTTPPort != 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		cfg.LogFormat = file.LogFormat
	}
	if file.CalendarName != "" {
		cfg.CalendarName = file.CalendarName
	}
	if file.Timezone != "" {
		cfg.Timezone = file.Timezone
	}
	if file.RateLimitRPS != 0 {
		cfg.RateLimitRPS = file.RateLimitRPS
	}
	if file.RateLimitBurst != 0 {
		cfg.RateLimitBurst = file.RateLimitBurst
	}
	if file.PublishPath != "" {
		cfg.PublishPath = file.PublishPath
	}
	if file.PublishSchedule != "" {
		cfg.PublishSchedule = file.PublishSchedule
	}
	return nil
}

// Location resolves Timezone. When it is empty the zone named by TZ is used
// if it loads, else time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone != "" {
		return time.LoadLocation(c.Timezone)
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, nil
		}
	}
	return time.Local, nil
}
