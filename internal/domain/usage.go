package domain

import "time"

// PeriodKeyFormat is the calendar-month quota reset boundary.
const PeriodKeyFormat = "2006-01"

// DayKeyFormat keys the per-day primary-post telemetry.
const DayKeyFormat = "2006-01-02"

// UsageRecord tracks outbound API usage for one calendar month.
// Counters are monotonic within a period and reset only on rollover.
// Invariant: PostsCount == RepliesCount + primary posts made.
type UsageRecord struct {
	PeriodKey    string         `json:"period_key"`
	PostsCount   int            `json:"posts_count"`
	ReadsCount   int            `json:"reads_count"`
	RepliesCount int            `json:"replies_count"`
	DailyPosts   map[string]int `json:"daily_posts"`
	PlanLimit    int            `json:"plan_limit"`
}

// NewUsageRecord creates a zeroed record for the given period.
func NewUsageRecord(periodKey string, planLimit int) UsageRecord {
	return UsageRecord{
		PeriodKey:  periodKey,
		DailyPosts: map[string]int{},
		PlanLimit:  planLimit,
	}
}

// PeriodKeyAt returns the month key for t. Quota periods are UTC.
func PeriodKeyAt(t time.Time) string {
	return t.UTC().Format(PeriodKeyFormat)
}

// DayKeyAt returns the day key for t in UTC.
func DayKeyAt(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

// Remaining returns posts left under the plan limit (never negative).
func (r UsageRecord) Remaining() int {
	remaining := r.PlanLimit - r.PostsCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PrimaryToday returns how many primary posts were made on the given day key.
func (r UsageRecord) PrimaryToday(dayKey string) int {
	return r.DailyPosts[dayKey]
}

// Clone returns a deep copy so callers cannot alias the DailyPosts map.
func (r UsageRecord) Clone() UsageRecord {
	out := r
	out.DailyPosts = make(map[string]int, len(r.DailyPosts))
	for k, v := range r.DailyPosts {
		out.DailyPosts[k] = v
	}
	return out
}
