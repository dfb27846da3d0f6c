package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProcessor implements JobProcessor entirely over HTTP against the
// orchestrator's own API and the Browser Agent/LLM Gateway's health
// endpoints — the worker process never opens a database connection.
type HTTPProcessor struct {
	client     *http.Client
	apiBaseURL string
	browserURL string
	llmURL     string
}

// NewHTTPProcessor constructs an HTTPProcessor. apiBaseURL points at this
// orchestrator's own API Surface (e.g. http://localhost:8000).
func NewHTTPProcessor(apiBaseURL, browserURL, llmURL string, timeout time.Duration) *HTTPProcessor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProcessor{
		client:     &http.Client{Timeout: timeout},
		apiBaseURL: apiBaseURL,
		browserURL: browserURL,
		llmURL:     llmURL,
	}
}

func (p *HTTPProcessor) RunHealthCheck(ctx context.Context, _ string) error {
	if err := p.probe(ctx, p.browserURL+"/v1/browser/health"); err != nil {
		return fmt.Errorf("browser agent health check: %w", err)
	}
	if err := p.probe(ctx, p.llmURL+"/health"); err != nil {
		return fmt.Errorf("llm gateway health check: %w", err)
	}
	return nil
}

func (p *HTTPProcessor) RunDailyBriefing(ctx context.Context, payload string) error {
	goal := "Summarize yesterday's browser tasks into a short spoken briefing"
	if payload != "" {
		goal = payload
	}
	return p.postChat(ctx, goal)
}

func (p *HTTPProcessor) RunBrowserTask(ctx context.Context, payload string) error {
	return p.postChat(ctx, payload)
}

// RunSummarizeMemory asks the LLM Gateway to condense a session's transcript
// directly; the result is a best-effort side channel and is not persisted
// anywhere, so this never touches the orchestrator's own API.
func (p *HTTPProcessor) RunSummarizeMemory(ctx context.Context, payload string) error {
	body, err := json.Marshal(map[string]any{
		"model": "gpt-4o-mini",
		"messages": []map[string]string{
			{"role": "system", "content": "Condense the following session transcript into 2-3 sentences of durable memory. Respond with plain text only."},
			{"role": "user", "content": payload},
		},
		"temperature": 0.2,
	})
	if err != nil {
		return fmt.Errorf("encoding summarize_memory request: %w", err)
	}
	return p.post(ctx, p.llmURL+"/chat/completions", body)
}

func (p *HTTPProcessor) postChat(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("encoding chat request: %w", err)
	}
	return p.post(ctx, p.apiBaseURL+"/v1/chat", body)
}

func (p *HTTPProcessor) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return nil
}

func (p *HTTPProcessor) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return nil
}
