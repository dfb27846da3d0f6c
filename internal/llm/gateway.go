// Package llm implements the LLM Gateway: a thin client over an
// OpenAI-compatible chat-completions endpoint, used by the Planner to draft
// plans and by the Executor to narrate finished tasks.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rachael-ai/orchestrator/internal/domain"
)

// Message is one entry in a chat-completion conversation.
type Message struct {
	Role    string
	Content string
}

// Gateway is the LLM Gateway's public surface.
type Gateway interface {
	// ChatCompletion posts a chat-completion request, optionally instructing
	// the backend to emit a single JSON object, and returns the assistant
	// message content verbatim.
	ChatCompletion(ctx context.Context, messages []Message, temperature float64, maxTokens int, jsonMode bool) (string, error)

	// GenerateReply wraps ChatCompletion with a fixed "reading aloud" persona
	// and a summarized rendering of the step results.
	GenerateReply(ctx context.Context, goal string, results []domain.StepResult) (string, error)

	// GetPlanJSON wraps ChatCompletion in JSON mode with a fixed planning
	// system prompt and returns the parsed JSON object.
	GetPlanJSON(ctx context.Context, userMessage string) (map[string]any, error)
}

// Config configures the Gateway's OpenAI-compatible client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type gateway struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// New constructs a Gateway. The API key may be empty when talking to a local
// runtime that does not enforce authentication.
func New(cfg Config) Gateway {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &gateway{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (g *gateway) ChatCompletion(ctx context.Context, messages []Message, temperature float64, maxTokens int, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    convertMessages(messages),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrUpstream, err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"json_mode", jsonMode)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion: no choices returned", domain.ErrUpstream)
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *gateway) GenerateReply(ctx context.Context, goal string, results []domain.StepResult) (string, error) {
	messages := []Message{
		{Role: "system", Content: replyPersonaPrompt},
		{Role: "user", Content: renderResultsSummary(goal, results)},
	}

	content, err := g.ChatCompletion(ctx, messages, 0.7, 512, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (g *gateway) GetPlanJSON(ctx context.Context, userMessage string) (map[string]any, error) {
	messages := []Message{
		{Role: "system", Content: planningSystemPrompt()},
		{Role: "user", Content: userMessage},
	}

	content, err := g.ChatCompletion(ctx, messages, 0.2, 2048, true)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: plan response is not valid JSON: %v", domain.ErrInvalidPlan, err)
	}
	return raw, nil
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func renderResultsSummary(goal string, results []domain.StepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\nStep outcomes:\n", goal)
	for _, r := range results {
		switch r.Status {
		case domain.StepStatusOK:
			fmt.Fprintf(&b, "- step %d (%s): ok, output=%v\n", r.StepIndex, r.Tool, r.Output)
		case domain.StepStatusSkipped:
			fmt.Fprintf(&b, "- step %d (%s): skipped, error=%s\n", r.StepIndex, r.Tool, safeErr(r.Error))
		default:
			fmt.Fprintf(&b, "- step %d (%s): error, error=%s\n", r.StepIndex, r.Tool, safeErr(r.Error))
		}
	}
	return b.String()
}

func safeErr(e *string) string {
	if e == nil {
		return ""
	}
	return *e
}
