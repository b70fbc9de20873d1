// Package types holds the domain models shared by the store, the planner
// and the HTTP layer. All identifiers are UUID strings and all dates are
// plain "2006-01-02" strings so every value can be embedded verbatim in a
// prompt or a JSON response without further conversion.
package types

import "time"

// Goal lifecycle statuses.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPaused    = "paused"
)

// Task lifecycle statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Calendar event types.
const (
	EventTypeInternal = "internal"
	EventTypeExternal = "external"
	EventTypeTask     = "task"
	EventTypeSocial   = "social"
)

// Relationship types.
const (
	RelationshipPartner = "partner"
	RelationshipFriend  = "friend"
	RelationshipFamily  = "family"
	RelationshipOther   = "other"
)

// User is the single provisioned account. The backend is single-user by
// design; the row exists mostly so every other table has an owner.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Goal is a long-horizon objective. Priority runs 1-5 and every priority
// carries a written justification.
type Goal struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Priority          int       `json:"priority"`
	PriorityReasoning string    `json:"priority_reasoning"`
	Status            string    `json:"status"`
	TargetDate        string    `json:"target_date,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Task is a unit of work, optionally linked to goals through the
// goal_tasks table. Durations are minutes. CompletedAt is set exactly once,
// when the status first transitions to completed.
type Task struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          int        `json:"priority"`
	PriorityReasoning string     `json:"priority_reasoning"`
	Status            string     `json:"status"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	ActualDuration    *int       `json:"actual_duration,omitempty"`
	DueDate           string     `json:"due_date,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	GoalIDs           []string   `json:"goal_ids,omitempty"`
}

// CalendarEvent occupies a time span. Blocking events compete with the
// planner for the slot; non-blocking ones are informational.
type CalendarEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	EventType   string    `json:"event_type"`
	IsBlocking  bool      `json:"is_blocking"`
	ExternalID  string    `json:"external_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Relationship is a person the user budgets weekly time for.
type Relationship struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Type            string     `json:"relationship_type"`
	Priority        int        `json:"priority"`
	TimeBudgetHours *float64   `json:"time_budget_hours,omitempty"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DailyPlan is the persisted generation artifact. At most one row exists
// per (UserID, PlanDate); regeneration replaces PlanJSON and Reasoning.
type DailyPlan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PlanDate    string    `json:"plan_date"`
	PlanJSON    string    `json:"-"`
	Reasoning   string    `json:"reasoning"`
	GeneratedAt time.Time `json:"generated_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	IsOverride  bool      `json:"is_override"`
}

// OverrideLogEntry records a human superseding a generated plan. The week
// number is computed at log time and stored; it is a fact about when the
// override happened, never re-derived.
type OverrideLogEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PlanID     string    `json:"plan_id"`
	Type       string    `json:"override_type"`
	Reason     string    `json:"override_reason"`
	Timestamp  time.Time `json:"override_timestamp"`
	WeekNumber int       `json:"week_number"`
}

// PerformanceSnapshot aggregates the trailing seven days of task outcomes.
type PerformanceSnapshot struct {
	CompletedTasks   int      `json:"completed_tasks"`
	CancelledTasks   int      `json:"cancelled_tasks"`
	AvgDurationRatio *float64 `json:"avg_duration_ratio"`
}

// ContextGoal is the prompt-facing projection of a Goal: primitives only.
type ContextGoal struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Priority          int    `json:"priority"`
	PriorityReasoning string `json:"priority_reasoning"`
	TargetDate        string `json:"target_date,omitempty"`
}

// ContextTask is the prompt-facing projection of a Task, carrying the IDs
// of its linked goals.
type ContextTask struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Priority          int      `json:"priority"`
	PriorityReasoning string   `json:"priority_reasoning"`
	EstimatedDuration *int     `json:"estimated_duration,omitempty"`
	DueDate           string   `json:"due_date,omitempty"`
	GoalIDs           []string `json:"goal_ids"`
}

// ContextEvent is the prompt-facing projection of a CalendarEvent.
type ContextEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	EventType  string `json:"event_type"`
	IsBlocking bool   `json:"is_blocking"`
}

// ContextRelationship is the prompt-facing projection of a Relationship.
type ContextRelationship struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"relationship_type"`
	Priority        int      `json:"priority"`
	TimeBudgetHours *float64 `json:"time_budget_hours,omitempty"`
	LastInteraction string   `json:"last_interaction,omitempty"`
}

// PlanningContext is the ephemeral bundle handed to the completion call
// for one planning run. It is never persisted.
type PlanningContext struct {
	Date              string                `json:"date"`
	Goals             []ContextGoal         `json:"goals"`
	Tasks             []ContextTask         `json:"tasks"`
	CalendarEvents    []ContextEvent        `json:"calendarEvents"`
	Relationships     []ContextRelationship `json:"relationships"`
	RecentPerformance PerformanceSnapshot   `json:"recentPerformance"`
}
