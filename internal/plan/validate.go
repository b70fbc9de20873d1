package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError names the first field that violated the contract.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan structure: %s: %s", e.Field, e.Message)
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
	idRe   = regexp.MustCompile(`^[0-9a-f-]{36}$`)
)

const minReasoningLen = 10

// Validate checks p against the structural contract and returns a
// *ValidationError for the first deviation found.
func Validate(p *Plan) error {
	if !dateRe.MatchString(p.Date) {
		return &ValidationError{"date", fmt.Sprintf("must match YYYY-MM-DD, got %q", p.Date)}
	}
	if len(p.Reasoning) < minReasoningLen {
		return &ValidationError{"reasoning", fmt.Sprintf("must be at least %d characters", minReasoningLen)}
	}
	if len(p.PriorityAnalysis) < minReasoningLen {
		return &ValidationError{"priority_analysis", fmt.Sprintf("must be at least %d characters", minReasoningLen)}
	}

	if p.TimeBlocks == nil {
		return &ValidationError{"time_blocks", "required"}
	}
	for i, tb := range p.TimeBlocks {
		field := func(name string) string { return fmt.Sprintf("time_blocks[%d].%s", i, name) }
		if !timeRe.MatchString(tb.StartTime) {
			return &ValidationError{field("start_time"), fmt.Sprintf("must match HH:MM, got %q", tb.StartTime)}
		}
		if !timeRe.MatchString(tb.EndTime) {
			return &ValidationError{field("end_time"), fmt.Sprintf("must match HH:MM, got %q", tb.EndTime)}
		}
		if tb.TaskID != nil && !idRe.MatchString(*tb.TaskID) {
			return &ValidationError{field("task_id"), fmt.Sprintf("must be null or a 36-character identifier, got %q", *tb.TaskID)}
		}
		if tb.Activity == "" {
			return &ValidationError{field("activity"), "must not be empty"}
		}
		if tb.Priority < 1 || tb.Priority > 5 {
			return &ValidationError{field("priority"), fmt.Sprintf("must be in [1,5], got %d", tb.Priority)}
		}
		if tb.Reasoning == "" {
			return &ValidationError{field("reasoning"), "must not be empty"}
		}
	}

	if p.SocialTimeAllocation == nil {
		return &ValidationError{"social_time_allocation", "required"}
	}
	if p.SocialTimeAllocation.TotalMinutes < 0 {
		return &ValidationError{"social_time_allocation.total_minutes",
			fmt.Sprintf("must be >= 0, got %d", p.SocialTimeAllocation.TotalMinutes)}
	}
	if p.SocialTimeAllocation.Reasoning == "" {
		return &ValidationError{"social_time_allocation.reasoning", "must not be empty"}
	}

	if p.GoalProgressAssessment == nil {
		return &ValidationError{"goal_progress_assessment", "required"}
	}
	for i, gp := range p.GoalProgressAssessment {
		field := func(name string) string { return fmt.Sprintf("goal_progress_assessment[%d].%s", i, name) }
		if !idRe.MatchString(gp.GoalID) {
			return &ValidationError{field("goal_id"), fmt.Sprintf("must be a 36-character identifier, got %q", gp.GoalID)}
		}
		switch gp.Status {
		case ProgressOnTrack, ProgressAtRisk, ProgressBlocked:
		default:
			return &ValidationError{field("status"), fmt.Sprintf("must be one of on_track, at_risk, blocked; got %q", gp.Status)}
		}
		if gp.ActionNeeded == nil {
			return &ValidationError{field("action_needed"), "required"}
		}
	}

	if p.Warnings == nil {
		return &ValidationError{"warnings", "required"}
	}

	return nil
}

// ParseAndValidate decodes raw LLM output into a Plan and validates it.
// Models wrap JSON in markdown fences often enough that stripping them
// here is cheaper than another generation attempt.
func ParseAndValidate(raw string) (*Plan, error) {
	cleaned := stripCodeFences(raw)

	var p Plan
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
