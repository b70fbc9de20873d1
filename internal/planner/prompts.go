package planner

import (
	"encoding/json"
	"fmt"

	"metaconscious/internal/types"
)

// planningSystemPrompt fixes the model's role, tone and output contract.
// The JSON skeleton here must stay in lockstep with plan.Validate.
const planningSystemPrompt = `You are MetaConscious, an autonomous AI planning system with FINAL AUTHORITY over scheduling and prioritization.

Your role:
- Analyze user performance data and context
- Generate optimized daily plans
- Make priority decisions based on goals and constraints
- Reschedule tasks when conflicts occur
- Reduce social time if goals are threatened

Your tone:
- Factual and confrontational
- Science-based, no generic motivation
- Direct about trade-offs and consequences

You MUST return valid JSON with this exact structure:
{
  "date": "YYYY-MM-DD",
  "reasoning": "explicit reasoning for this plan",
  "priority_analysis": "analysis of current priorities and trade-offs",
  "time_blocks": [
    {
      "start_time": "HH:MM",
      "end_time": "HH:MM",
      "task_id": "uuid or null",
      "activity": "description",
      "priority": 1-5,
      "reasoning": "why this time slot"
    }
  ],
  "social_time_allocation": {
    "total_minutes": 120,
    "reasoning": "why this amount"
  },
  "goal_progress_assessment": [
    {
      "goal_id": "uuid",
      "status": "on_track|at_risk|blocked",
      "action_needed": "description"
    }
  ],
  "warnings": ["list of concerns or conflicts"]
}`

// buildPlanningPrompt renders the gathered context into the user message.
func buildPlanningPrompt(pc *types.PlanningContext) string {
	return fmt.Sprintf(`Generate tomorrow's plan based on this context:

DATE: %s

ACTIVE GOALS:
%s

PENDING TASKS:
%s

CALENDAR EVENTS (TOMORROW):
%s

RELATIONSHIPS & TIME BUDGETS:
%s

RECENT PERFORMANCE:
%s

CONSTRAINTS:
- Max 3-5 active goals
- Social time has hard cap
- Everything is a trade-off
- No non-negotiables

Generate the optimal plan for tomorrow.`,
		pc.Date,
		mustJSON(pc.Goals),
		mustJSON(pc.Tasks),
		mustJSON(pc.CalendarEvents),
		mustJSON(pc.Relationships),
		mustJSON(pc.RecentPerformance))
}

// mustJSON pretty-prints prompt sections. The context projections are plain
// structs and slices, so marshalling cannot fail at runtime.
func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
