package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metaconscious/internal/llm"
	"metaconscious/internal/store"
)

const chatSystemPrompt = `You are MetaConscious, an AI planning assistant. You have access to the user's goals, tasks and current daily plan. Answer questions about their schedule and priorities. Be factual and direct about trade-offs.`

// Chat forwards a user message to the completion client together with the
// current goals and today's plan. The reply is returned verbatim; nothing
// here parses or acts on the assistant's text.
func (e *Engine) Chat(ctx context.Context, userID, message string) (string, error) {
	if e.llm == nil {
		return "", errNotConfigured()
	}

	goals, err := e.store.ActiveGoals(ctx, userID, contextGoalLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load goals: %w", err)
	}

	today := time.Now().Format(dateLayout)
	planSection := "No plan generated for today."
	current, err := e.store.GetPlanByDate(ctx, userID, today)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if current != nil {
		planSection = current.PlanJSON
	}

	goalSection := "No active goals."
	if len(goals) > 0 {
		goalSection = ""
		for _, g := range goals {
			goalSection += fmt.Sprintf("- [P%d] %s: %s\n", g.Priority, g.Title, g.PriorityReasoning)
		}
	}

	userPrompt := fmt.Sprintf(`ACTIVE GOALS:
%s

TODAY'S PLAN (%s):
%s

USER MESSAGE:
%s`, goalSection, today, planSection, message)

	return e.llm.Complete(ctx, chatSystemPrompt, userPrompt, llm.Options{MaxTokens: 500})
}
