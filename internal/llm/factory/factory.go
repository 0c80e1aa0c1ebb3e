// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/smpss92118/stock/internal/config"
	"github.com/smpss92118/stock/internal/llm"
	"github.com/smpss92118/stock/internal/llm/claude"
	"github.com/smpss92118/stock/internal/llm/openai"
)

// New creates an LLM provider based on the analyst configuration.
func New(cfg config.AnalystConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unknown analyst provider: %s", cfg.Provider)
	}
}
