package integrations

import (
	"context"
	"fmt"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
)

// Oracle is a model backend that can both look at images and answer
// questions.
type Oracle interface {
	VisionOracle
	Assistant
}

// NewOracle builds the backend selected by cfg.Provider
func NewOracle(ctx context.Context, cfg config.OracleConfig) (Oracle, error) {
	switch cfg.Provider {
	case "openai":
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}
