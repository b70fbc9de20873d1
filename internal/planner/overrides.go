package planner

import (
	"context"
	"fmt"
	"time"

	"metaconscious/internal/types"
)

// OverrideStatus reports the user's standing against the weekly override
// quota. JSON names are the wire contract of GET /api/overrides.
type OverrideStatus struct {
	Count       int  `json:"count"`
	Remaining   int  `json:"remaining"`
	Limit       int  `json:"limit"`
	CanOverride bool `json:"canOverride"`
}

// OverrideLimitError signals that the weekly quota is exhausted. It carries
// the status so the HTTP layer can echo it in the refusal.
type OverrideLimitError struct {
	Status OverrideStatus
}

func (e *OverrideLimitError) Error() string {
	return fmt.Sprintf("weekly override limit reached (%d/%d)", e.Status.Count, e.Status.Limit)
}

// WeekNumber buckets a date into an ISO-8601 week. The date is shifted to
// the Thursday of its week, then the week index is derived from that
// Thursday's ordinal day within its own year. Late-December and
// early-January dates therefore land in the week of the year that owns
// their Thursday.
func WeekNumber(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	dayNum := int(d.Weekday()) // Sunday = 0, Monday = 1, ...
	d = d.AddDate(0, 0, 4-dayNum)

	yearStart := time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	daysDiff := int(d.Sub(yearStart).Hours()/24) + 1
	return (daysDiff + 6) / 7
}

// CheckWeeklyOverrides computes the user's quota standing for the current
// week. It never mutates anything.
func (e *Engine) CheckWeeklyOverrides(ctx context.Context, userID string) (OverrideStatus, error) {
	week := WeekNumber(time.Now())
	count, err := e.store.CountOverrides(ctx, userID, week)
	if err != nil {
		return OverrideStatus{}, err
	}

	limit := int(e.maxWeeklyOverrides.Load())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return OverrideStatus{
		Count:       count,
		Remaining:   remaining,
		Limit:       limit,
		CanOverride: count < limit,
	}, nil
}

// LogOverride records an override unconditionally, stamped with the week
// it happened in. Quota enforcement is the caller's responsibility; the
// log is an append-only fact stream.
func (e *Engine) LogOverride(ctx context.Context, userID, planID, overrideType, reason string) error {
	entry := &types.OverrideLogEntry{
		UserID:     userID,
		PlanID:     planID,
		Type:       overrideType,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
		WeekNumber: WeekNumber(time.Now()),
	}
	return e.store.InsertOverride(ctx, entry)
}
