// Package schedule drives the recurring-job engine: a fixed set of jobs
// keyed by time-of-day (daily) or weekday+time (weekly), dispatched by one
// polling loop. Jobs run sequentially; a long action delays later checks.
// Trigger times that pass while the process is asleep are not backfilled.
package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q must be in HH:MM format: %w", s, err)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// Trigger describes when a job fires.
type Trigger struct {
	weekday *time.Weekday // nil means every day
	at      TimeOfDay
}

// Daily triggers every day at the given time.
func Daily(at TimeOfDay) Trigger {
	return Trigger{at: at}
}

// Weekly triggers once a week on the given weekday.
func Weekly(weekday time.Weekday, at TimeOfDay) Trigger {
	wd := weekday
	return Trigger{weekday: &wd, at: at}
}

func (t Trigger) String() string {
	if t.weekday != nil {
		return fmt.Sprintf("%s %s", t.weekday.String(), t.at)
	}
	return fmt.Sprintf("daily %s", t.at)
}

// instanceKey identifies the current fire-instance of the trigger: the
// calendar day for daily triggers, the ISO week for weekly ones. A job fires
// at most once per instance.
func (t Trigger) instanceKey(now time.Time) string {
	if t.weekday != nil {
		year, week := now.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return now.Format("2006-01-02")
}

// due reports whether now falls inside the trigger's fire window: at or
// after the trigger time, but no later than the grace period past it.
func (t Trigger) due(now time.Time, grace time.Duration) bool {
	if t.weekday != nil && now.Weekday() != *t.weekday {
		return false
	}
	trig := time.Date(now.Year(), now.Month(), now.Day(),
		t.at.Hour, t.at.Minute, 0, 0, now.Location())
	return !now.Before(trig) && now.Sub(trig) <= grace
}
