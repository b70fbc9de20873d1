package planner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"metaconscious/internal/types"
)

const (
	dateLayout       = "2006-01-02"
	contextGoalLimit = 5
	performanceDays  = 7
)

// GatherContext assembles the planning snapshot for targetDate. The five
// reads are independent, so they run concurrently against the pool.
// Calendar events are looked up for the day after targetDate, matching the
// "tomorrow" framing the prompt uses.
func (e *Engine) GatherContext(ctx context.Context, userID, targetDate string) (*types.PlanningContext, error) {
	target, err := time.Parse(dateLayout, targetDate)
	if err != nil {
		return nil, fmt.Errorf("invalid target date %q: %w", targetDate, err)
	}
	tomorrow := target.AddDate(0, 0, 1).Format(dateLayout)

	pc := &types.PlanningContext{
		Date:           targetDate,
		Goals:          []types.ContextGoal{},
		Tasks:          []types.ContextTask{},
		CalendarEvents: []types.ContextEvent{},
		Relationships:  []types.ContextRelationship{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		goals, err := e.store.ActiveGoals(gctx, userID, contextGoalLimit)
		if err != nil {
			return fmt.Errorf("failed to load goals: %w", err)
		}
		for _, goal := range goals {
			pc.Goals = append(pc.Goals, types.ContextGoal{
				ID:                goal.ID,
				Title:             goal.Title,
				Description:       goal.Description,
				Priority:          goal.Priority,
				PriorityReasoning: goal.PriorityReasoning,
				TargetDate:        goal.TargetDate,
			})
		}
		return nil
	})

	g.Go(func() error {
		tasks, err := e.store.PendingTasks(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		for _, t := range tasks {
			goalIDs := t.GoalIDs
			if goalIDs == nil {
				goalIDs = []string{}
			}
			pc.Tasks = append(pc.Tasks, types.ContextTask{
				ID:                t.ID,
				Title:             t.Title,
				Description:       t.Description,
				Priority:          t.Priority,
				PriorityReasoning: t.PriorityReasoning,
				EstimatedDuration: t.EstimatedDuration,
				DueDate:           t.DueDate,
				GoalIDs:           goalIDs,
			})
		}
		return nil
	})

	g.Go(func() error {
		events, err := e.store.EventsForDate(gctx, userID, tomorrow)
		if err != nil {
			return fmt.Errorf("failed to load calendar events: %w", err)
		}
		for _, ev := range events {
			pc.CalendarEvents = append(pc.CalendarEvents, types.ContextEvent{
				ID:         ev.ID,
				Title:      ev.Title,
				StartTime:  ev.StartTime.Format(time.RFC3339),
				EndTime:    ev.EndTime.Format(time.RFC3339),
				EventType:  ev.EventType,
				IsBlocking: ev.IsBlocking,
			})
		}
		return nil
	})

	g.Go(func() error {
		rels, err := e.store.ListRelationships(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load relationships: %w", err)
		}
		for _, r := range rels {
			cr := types.ContextRelationship{
				ID:              r.ID,
				Name:            r.Name,
				Type:            r.Type,
				Priority:        r.Priority,
				TimeBudgetHours: r.TimeBudgetHours,
			}
			if r.LastInteraction != nil {
				cr.LastInteraction = r.LastInteraction.Format(time.RFC3339)
			}
			pc.Relationships = append(pc.Relationships, cr)
		}
		return nil
	})

	g.Go(func() error {
		since := time.Now().AddDate(0, 0, -performanceDays)
		snap, err := e.store.PerformanceStats(gctx, userID, since)
		if err != nil {
			return fmt.Errorf("failed to load performance stats: %w", err)
		}
		pc.RecentPerformance = snap
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pc, nil
}
