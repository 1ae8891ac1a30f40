package config

import (
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 8080},
		Generation: GenerationConfig{APIKey: "test-key"},
		Platform:   PlatformConfig{BearerToken: "test-token"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownStoreDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown store driver")
	}

	expected := `store.driver must be "file" or "redis", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisDriverRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "redis"
	cfg.Store.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing generation.api_key")
	}

	cfg = validConfig()
	cfg.Platform.BearerToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing platform.bearer_token")
	}
}

func TestValidate_BadScheduleTime(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.WisdomAt = "noon"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed schedule time")
	}
}

func TestValidate_BadWeekday(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Parable.Weekday = "caturday"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Store.Driver != "file" {
		t.Errorf("expected default driver file, got %q", cfg.Store.Driver)
	}
	if cfg.Quota.PlanLimit != 100 {
		t.Errorf("expected default plan limit 100, got %d", cfg.Quota.PlanLimit)
	}
	if cfg.Schedule.TickSec != 60 {
		t.Errorf("expected default tick 60s, got %d", cfg.Schedule.TickSec)
	}
	if cfg.Schedule.WisdomAt != "12:00" {
		t.Errorf("expected default wisdom time 12:00, got %q", cfg.Schedule.WisdomAt)
	}
	if len(cfg.Schedule.ReplyWindows) != 2 {
		t.Errorf("expected two default reply windows, got %v", cfg.Schedule.ReplyWindows)
	}
	if cfg.Schedule.Parable.Weekday != "sunday" {
		t.Errorf("expected default parable weekday sunday, got %q", cfg.Schedule.Parable.Weekday)
	}
	if cfg.Heartbeat.IntervalSec != 3600 {
		t.Errorf("expected default heartbeat 3600s, got %d", cfg.Heartbeat.IntervalSec)
	}
	if cfg.Lease.StalenessSec <= cfg.Heartbeat.IntervalSec {
		t.Errorf("default lease staleness %ds must outlast the heartbeat interval %ds",
			cfg.Lease.StalenessSec, cfg.Heartbeat.IntervalSec)
	}
}

func TestValidate_LeaseStalenessShorterThanHeartbeat(t *testing.T) {
	cfg := validConfig()
	cfg.Heartbeat.IntervalSec = 3600
	cfg.Lease.StalenessSec = 900

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for lease staleness below heartbeat interval, got nil")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KOIYU_TEST_TOKEN", "secret")

	in := []byte("token: ${KOIYU_TEST_TOKEN}\nport: ${KOIYU_TEST_PORT:-8080}")
	out := string(expandEnvVars(in))

	expected := "token: secret\nport: 8080"
	if out != expected {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, expected)
	}
}
