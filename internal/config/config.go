package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the koiyu agent configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Generation GenerationConfig `yaml:"generation"`
	Platform   PlatformConfig   `yaml:"platform"`
	Quota      QuotaConfig      `yaml:"quota"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Heartbeat  HeartbeatConfig  `yaml:"heartbeat"`
	Lease      LeaseConfig      `yaml:"lease"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the keep-alive listener settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds durable state settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // file, redis (default: file)
	Dir              string   `yaml:"dir"`    // file driver state directory
	Addrs            []string `yaml:"addrs"`  // redis driver addresses
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// GenerationConfig holds content-generation provider settings.
// Any OpenAI-compatible chat-completions endpoint works; the default base URL
// is Gemini's compatibility endpoint.
type GenerationConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// PlatformConfig holds posting-platform (X API v2) settings.
type PlatformConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// QuotaConfig holds the usage-quota settings.
type QuotaConfig struct {
	PlanLimit       int `yaml:"plan_limit"`        // monthly posting ceiling
	RepliesPerBatch int `yaml:"replies_per_batch"` // replies per scheduled window
	ReplyDelaySec   int `yaml:"reply_delay_sec"`   // inter-call delay within a batch
	MentionReplyCap int `yaml:"mention_reply_cap"` // max replies per mention sweep
}

// WeeklyTrigger pins a job to a weekday and time-of-day.
type WeeklyTrigger struct {
	Weekday string `yaml:"weekday"`
	At      string `yaml:"at"`
}

// ScheduleConfig holds the recurring-job schedule. Times are "HH:MM" on the
// process-local wall clock.
type ScheduleConfig struct {
	TickSec       int           `yaml:"tick_sec"`
	WisdomAt      string        `yaml:"wisdom_at"`
	ReplyWindows  []string      `yaml:"reply_windows"`
	MentionSweeps []string      `yaml:"mention_sweeps"`
	Parable       WeeklyTrigger `yaml:"parable"`
	Report        WeeklyTrigger `yaml:"report"`
}

// HeartbeatConfig holds the self-check loop settings.
type HeartbeatConfig struct {
	IntervalSec int  `yaml:"interval_sec"`
	SelfPing    bool `yaml:"self_ping"`
}

// LeaseConfig holds the advisory instance-lock settings.
type LeaseConfig struct {
	StalenessSec int `yaml:"staleness_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "state"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "koiyu:"
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gemini-1.5-pro"
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = "https://api.twitter.com"
	}
	if c.Platform.TimeoutSec <= 0 {
		c.Platform.TimeoutSec = 15
	}
	if c.Quota.PlanLimit <= 0 {
		c.Quota.PlanLimit = 100
	}
	if c.Quota.RepliesPerBatch <= 0 {
		c.Quota.RepliesPerBatch = 2
	}
	if c.Quota.ReplyDelaySec <= 0 {
		c.Quota.ReplyDelaySec = 30
	}
	if c.Quota.MentionReplyCap <= 0 {
		c.Quota.MentionReplyCap = 2
	}
	if c.Schedule.TickSec <= 0 {
		c.Schedule.TickSec = 60
	}
	if c.Schedule.WisdomAt == "" {
		c.Schedule.WisdomAt = "12:00"
	}
	if len(c.Schedule.ReplyWindows) == 0 {
		c.Schedule.ReplyWindows = []string{"10:00", "16:00"}
	}
	if len(c.Schedule.MentionSweeps) == 0 {
		c.Schedule.MentionSweeps = []string{"09:00", "21:00"}
	}
	if c.Schedule.Parable.Weekday == "" {
		c.Schedule.Parable = WeeklyTrigger{Weekday: "sunday", At: "12:00"}
	}
	if c.Schedule.Report.Weekday == "" {
		c.Schedule.Report = WeeklyTrigger{Weekday: "monday", At: "08:00"}
	}
	if c.Heartbeat.IntervalSec <= 0 {
		c.Heartbeat.IntervalSec = 3600
	}
	if c.Lease.StalenessSec <= 0 {
		// The heartbeat is the only writer of the lease timestamp, so the
		// staleness window must outlast two missed beats.
		c.Lease.StalenessSec = 2 * c.Heartbeat.IntervalSec
	}
}

// Weekdays maps config weekday names to time.Weekday.
var Weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "file":
		// dir is defaulted, nothing more to check
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"file\" or \"redis\", got %q", c.Store.Driver)
	}
	if c.Generation.APIKey == "" {
		return fmt.Errorf("generation.api_key is required")
	}
	if c.Platform.BearerToken == "" {
		return fmt.Errorf("platform.bearer_token is required")
	}
	for _, at := range append([]string{
		c.Schedule.WisdomAt, c.Schedule.Parable.At, c.Schedule.Report.At,
	}, append(c.Schedule.ReplyWindows, c.Schedule.MentionSweeps...)...) {
		if _, err := time.Parse("15:04", at); err != nil {
			return fmt.Errorf("schedule time %q must be in HH:MM format", at)
		}
	}
	for _, wd := range []string{c.Schedule.Parable.Weekday, c.Schedule.Report.Weekday} {
		if _, ok := Weekdays[strings.ToLower(wd)]; !ok {
			return fmt.Errorf("unknown weekday %q", wd)
		}
	}
	if c.Lease.StalenessSec <= c.Heartbeat.IntervalSec {
		return fmt.Errorf("lease.staleness_sec (%d) must exceed heartbeat.interval_sec (%d), "+
			"otherwise the lease expires between refreshes", c.Lease.StalenessSec, c.Heartbeat.IntervalSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
