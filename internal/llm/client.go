// Package llm wraps a single OpenAI-compatible chat-completion call with
// bounded retry and a tagged error taxonomy. The provider's raw failures
// are classified exactly once, here; nothing upstream looks at error text.
package llm

import "context"

// Client is the completion interface consumed by the planner and the chat
// handler.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// Options tunes one completion call. Zero values mean "use the default".
type Options struct {
	Temperature float64 // default 0.7
	MaxTokens   int     // default 2000
	JSONMode    bool    // best-effort response_format json_object
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

func (o Options) withDefaults() Options {
	if o.Temperature == 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}
