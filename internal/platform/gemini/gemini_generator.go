package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/bulkgpt/processor/internal/config"
	"github.com/bulkgpt/processor/internal/generation"
)

// systemInstruction is the fixed persona sent with every row. It
// describes bulk-processing behavior, permits live web lookups for
// verification, and directs the model toward structured, consistent
// output.
const systemInstruction = `You are a specialized AI assistant for bulk data processing.

Your role:
- Process each row of data according to the user's instructions
- Use web search when you need current information or verification
- Return structured, consistent outputs
- Be precise and follow the exact output schema provided

Guidelines:
- If you need to verify information, use web search
- Keep responses concise and focused on the task
- Always return valid JSON matching the output schema
- If uncertain, indicate this in your response rather than guessing

Remember: You're processing data in bulk, so consistency and accuracy are critical.`

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to transform compiled prompts into output text.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// NewGeminiGenerator creates a new instance of GeminiGenerator with the
// provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key and model name
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger,
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateText sends the compiled prompt to the Gemini API and returns
// the generated text. Exactly one call is made per invocation; retry
// policy belongs to the caller (the processing core performs none).
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrGenerationFailed)
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		// Web search grounding lets the model verify row data against
		// live sources when the user's instructions call for it.
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	g.logger.DebugContext(ctx, "making Gemini API call",
		"model", g.model,
		"prompt_length", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call error", "error", err)
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", generation.ErrEmptyResponse
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}

	text := resp.Text()
	if text == "" {
		return "", generation.ErrEmptyResponse
	}

	g.logger.DebugContext(ctx, "Gemini API call successful",
		"model", g.model,
		"output_length", len(text))

	return text, nil
}
