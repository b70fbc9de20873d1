// Package plan defines the structural contract for a generated daily plan
// and validates candidate output against it. Validation is purely
// structural: it never checks that time blocks are disjoint or that
// referenced task IDs exist.
package plan

// Plan is the daily schedule artifact. The JSON shape is the bit-exact
// contract between generation and every reader of a stored plan.
type Plan struct {
	Date                   string         `json:"date"`
	Reasoning              string         `json:"reasoning"`
	PriorityAnalysis       string         `json:"priority_analysis"`
	TimeBlocks             []TimeBlock    `json:"time_blocks"`
	SocialTimeAllocation   *SocialTime    `json:"social_time_allocation"`
	GoalProgressAssessment []GoalProgress `json:"goal_progress_assessment"`
	Warnings               []string       `json:"warnings"`
}

// TimeBlock is one scheduled slot. TaskID is nil for free-form activity
// blocks; when present it is a 36-character identifier.
type TimeBlock struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	TaskID    *string `json:"task_id"`
	Activity  string  `json:"activity"`
	Priority  int     `json:"priority"`
	Reasoning string  `json:"reasoning"`
}

// SocialTime is the plan's total social allocation for the day.
type SocialTime struct {
	TotalMinutes int    `json:"total_minutes"`
	Reasoning    string `json:"reasoning"`
}

// Goal progress statuses.
const (
	ProgressOnTrack = "on_track"
	ProgressAtRisk  = "at_risk"
	ProgressBlocked = "blocked"
)

// GoalProgress is the plan's assessment of one goal. ActionNeeded is a
// pointer so a missing key is distinguishable from an empty string; the
// key itself is mandatory.
type GoalProgress struct {
	GoalID       string  `json:"goal_id"`
	Status       string  `json:"status"`
	ActionNeeded *string `json:"action_needed"`
}
