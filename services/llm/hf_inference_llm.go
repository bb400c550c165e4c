package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var hfTracer = otel.Tracer("loanflow.llm.hf")

// HFInferenceClient talks to the HuggingFace serverless Inference API.
//
// The API returns either a list of generations or a single object
// depending on the model; both shapes are handled.
type HFInferenceClient struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

type hfGenerateRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func NewHFInferenceClient() (*HFInferenceClient, error) {
	token := os.Getenv("HUGGINGFACEHUB_API_TOKEN")
	if token == "" {
		token = os.Getenv("HF_API_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("HUGGINGFACEHUB_API_TOKEN environment variable not set")
	}

	apiURL := os.Getenv("HF_API_URL")
	if apiURL == "" {
		model := os.Getenv("HF_MODEL")
		if model == "" {
			model = "mistralai/Mistral-7B-Instruct-v0.3"
			slog.Warn("HF_MODEL not set, defaulting to mistralai/Mistral-7B-Instruct-v0.3")
		}
		apiURL = "https://api-inference.huggingface.co/models/" + model
	}

	slog.Info("Initializing HuggingFace Inference client", "api_url", apiURL)
	return &HFInferenceClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		token:      token,
	}, nil
}

// Generate implements the LLMClient interface
func (h *HFInferenceClient) Generate(ctx context.Context, prompt string,
	params GenerationParams) (string, error) {

	ctx, span := hfTracer.Start(ctx, "HFInferenceClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.api_url", h.apiURL))

	parameters := map[string]interface{}{
		"return_full_text": false,
	}
	if params.Temperature != nil {
		parameters["temperature"] = *params.Temperature
	} else {
		parameters["temperature"] = float32(0.0)
	}
	if params.MaxTokens != nil {
		parameters["max_new_tokens"] = *params.MaxTokens
	} else {
		parameters["max_new_tokens"] = 128
	}
	if params.TopP != nil {
		parameters["top_p"] = *params.TopP
	}
	if len(params.Stop) > 0 {
		parameters["stop"] = params.Stop
	}

	payload := hfGenerateRequest{Inputs: prompt, Parameters: parameters}
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request to HuggingFace: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.apiURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create request to HuggingFace: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("HuggingFace API call failed", "error", err)
		return "", fmt.Errorf("huggingface API call failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to read HuggingFace response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("huggingface returned status %d: %s", resp.StatusCode, string(bodyBytes))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	// List shape first, then single-object shape.
	var generations []hfGeneration
	if err := json.Unmarshal(bodyBytes, &generations); err == nil && len(generations) > 0 {
		return strings.TrimSpace(generations[0].GeneratedText), nil
	}
	var single hfGeneration
	if err := json.Unmarshal(bodyBytes, &single); err == nil && single.GeneratedText != "" {
		return strings.TrimSpace(single.GeneratedText), nil
	}

	return "", fmt.Errorf("unexpected HuggingFace response shape: %s", string(bodyBytes))
}
