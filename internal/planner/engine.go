// Package planner orchestrates plan generation: it gathers the planning
// context, drives the completion call, validates the result and persists
// it. It also owns the weekly override policy.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"metaconscious/internal/config"
	"metaconscious/internal/llm"
	"metaconscious/internal/plan"
	"metaconscious/internal/store"
	"metaconscious/internal/types"
)

// maxGenerationAttempts bounds the generate-validate loop. This loop is
// independent of the transport retries inside the LLM client: the client
// retries network-level failures, this loop retries plans that came back
// structurally broken.
const maxGenerationAttempts = 3

// GenerationError reports that no structurally valid plan came back within
// the attempt budget.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate valid plan after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Engine is the planning orchestrator. Construct one per process; it is
// safe for concurrent use.
type Engine struct {
	store              *store.Store
	llm                llm.Client
	maxWeeklyOverrides atomic.Int64
	logger             *zap.Logger
}

// NewEngine wires the orchestrator to its store and completion client.
// A nil client is allowed; generation then fails with the not-configured
// error instead of reaching the network.
func NewEngine(st *store.Store, client llm.Client, cfg config.PlanningConfig, logger *zap.Logger) *Engine {
	e := &Engine{
		store:  st,
		llm:    client,
		logger: logger,
	}
	e.maxWeeklyOverrides.Store(int64(cfg.MaxWeeklyOverrides))
	return e
}

// SetMaxWeeklyOverrides replaces the weekly override quota at runtime.
// The config reload path calls this; the new limit applies to the next
// quota check.
func (e *Engine) SetMaxWeeklyOverrides(n int) {
	e.maxWeeklyOverrides.Store(int64(n))
}

// errNotConfigured is the shared refusal for every generation path when
// no completion client exists.
func errNotConfigured() error {
	return &llm.Error{Kind: llm.KindNotConfigured,
		Err: fmt.Errorf("LLM_API_KEY not configured")}
}

// GenerateDailyPlan produces, validates and persists the plan for
// targetDate (YYYY-MM-DD). The persisted row is returned alongside the
// validated plan.
func (e *Engine) GenerateDailyPlan(ctx context.Context, userID, targetDate string) (*plan.Plan, *types.DailyPlan, error) {
	if e.llm == nil {
		return nil, nil, errNotConfigured()
	}

	pc, err := e.GatherContext(ctx, userID, targetDate)
	if err != nil {
		return nil, nil, err
	}

	userPrompt := buildPlanningPrompt(pc)

	var validated *plan.Plan
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		attempts = attempt
		start := time.Now()
		raw, err := e.llm.Complete(ctx, planningSystemPrompt, userPrompt, llm.Options{JSONMode: true})
		if err != nil {
			lastErr = err
			e.logger.Error("plan generation attempt failed",
				zap.Int("attempt", attempt),
				zap.String("date", targetDate),
				zap.Error(err))
			if llm.IsNotConfigured(err) {
				break
			}
			continue
		}

		p, err := plan.ParseAndValidate(raw)
		if err != nil {
			lastErr = err
			e.logger.Error("plan validation failed",
				zap.Int("attempt", attempt),
				zap.String("date", targetDate),
				zap.Error(err))
			continue
		}

		e.logger.Info("plan generated",
			zap.Int("attempt", attempt),
			zap.String("date", targetDate),
			zap.Int("time_blocks", len(p.TimeBlocks)),
			zap.Duration("elapsed", time.Since(start)))
		validated = p
		break
	}

	if validated == nil {
		return nil, nil, &GenerationError{Attempts: attempts, Err: lastErr}
	}

	payload, err := json.Marshal(validated)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	saved, err := e.store.UpsertPlan(ctx, userID, targetDate, string(payload), validated.Reasoning)
	if err != nil {
		return nil, nil, err
	}
	return validated, saved, nil
}

// RescheduleTask moves a task's due date and regenerates the plan for the
// evening before the new date, so the task shows up in the plan built for
// that day.
func (e *Engine) RescheduleTask(ctx context.Context, userID, taskID, newDueDate, reason string) error {
	if _, err := time.Parse(dateLayout, newDueDate); err != nil {
		return fmt.Errorf("invalid due date %q: %w", newDueDate, err)
	}
	if err := e.store.UpdateTaskDueDate(ctx, userID, taskID, newDueDate); err != nil {
		return err
	}

	e.logger.Info("task rescheduled",
		zap.String("task_id", taskID),
		zap.String("new_due_date", newDueDate),
		zap.String("reason", reason))

	due, _ := time.Parse(dateLayout, newDueDate)
	planDate := due.AddDate(0, 0, -1).Format(dateLayout)
	_, _, err := e.GenerateDailyPlan(ctx, userID, planDate)
	return err
}
