package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// The dialogue core treats every implementation as an untrusted,
// best-effort oracle: callers bound each Generate with a context timeout
// and validate the output before use.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClientFromEnv builds an LLMClient from the LLM_BACKEND_TYPE
// environment variable: "ollama", "openai", or "hf".
//
// An empty or unrecognized value returns (nil, nil): the extractors then
// run on deterministic rules only, which is a fully supported mode.
func NewClientFromEnv() (LLMClient, error) {
	backend := os.Getenv("LLM_BACKEND_TYPE")
	switch backend {
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return NewOllamaClient()
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return NewOpenAIClient()
	case "hf", "huggingface":
		slog.Info("Using HuggingFace Inference LLM backend")
		return NewHFInferenceClient()
	case "":
		slog.Warn("LLM_BACKEND_TYPE not set, running with deterministic extraction only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND_TYPE %q (want ollama, openai, or hf)", backend)
	}
}
