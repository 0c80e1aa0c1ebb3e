package report

import (
	"context"
	"fmt"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/llm"
)

const narrativeSystemPrompt = `You are a quantitative trading analyst. ` +
	`You receive a markdown backtest report and write a short, factual ` +
	`commentary: what the numbers say about the exit policy, where the ` +
	`risk sits, and what parameter to probe next. No investment advice.`

// Narrate asks the analyst provider for commentary on a rendered report
// and attaches it to the report.
func Narrate(ctx context.Context, provider llm.Provider, r *Report) error {
	resp, err := provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: narrativeSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: r.Markdown},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return core.WrapError(core.ErrAnalystFailed, err)
	}
	if resp.Content == "" {
		return core.WrapError(core.ErrAnalystFailed,
			fmt.Errorf("provider %s returned empty commentary", provider.Name()))
	}

	r.Commentary = resp.Content
	return nil
}
