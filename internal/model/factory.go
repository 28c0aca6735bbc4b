package model

import (
	"fmt"
	"time"
)

type ProviderConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	Timeout      time.Duration
}

func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("model: GEMINI_API_KEY is not set")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("model: OPENAI_API_KEY is not set")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "mock":
		return NewMockProvider(""), nil
	default:
		return nil, fmt.Errorf("model: unsupported provider %q", cfg.Provider)
	}
}
