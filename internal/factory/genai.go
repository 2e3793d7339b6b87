package factory

import (
	"fmt"

	"github.com/foodiary/foodiary-chat/internal/config"
	"github.com/foodiary/foodiary-chat/internal/genai/gemini"
)

// NewGemini builds the Gemini client used for both generation and embeddings.
func NewGemini(cfg *config.Config) (*gemini.Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("FOODIARY_GEMINI_API_KEY is required")
	}
	return gemini.New(cfg.GeminiAPIKey, cfg.GenModel, cfg.EmbedModel, ""), nil
}
