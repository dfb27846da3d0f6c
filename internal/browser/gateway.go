// Package browser implements the Browser Gateway: a stateless dispatcher
// that maps named browser actions onto the Browser Agent's HTTP API.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rachael-ai/orchestrator/internal/domain"
)

// Gateway is the Browser Gateway's public surface.
type Gateway interface {
	// Dispatch maps action name -> Browser Agent endpoint and returns the
	// opaque JSON response. Unknown actions fail fast with ErrUnknownAction
	// before any request is made.
	Dispatch(ctx context.Context, action string, args map[string]any) (any, error)
}

// Config points the gateway at a running Browser Agent instance.
type Config struct {
	AgentURL string
	Timeout  time.Duration
}

type gateway struct {
	baseURL string
	client  *http.Client
}

// New constructs a Gateway.
func New(cfg Config) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &gateway{
		baseURL: cfg.AgentURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// action describes how to reach one named browser tool: its HTTP method,
// the endpoint path, and how to shape the request body from the step's
// args map. This table is the only place that knows the per-action
// argument shape.
type action struct {
	method string
	path   string
	body   func(args map[string]any) (map[string]any, error)
}

var actions = map[string]action{
	"open": {
		method: http.MethodPost,
		path:   "/v1/browser/open",
		body:   passthroughField("url"),
	},
	"navigate": {
		method: http.MethodPost,
		path:   "/v1/browser/navigate",
		body:   passthroughField("url"),
	},
	"snapshot": {
		method: http.MethodGet,
		path:   "/v1/browser/snapshot",
	},
	"click": {
		method: http.MethodPost,
		path:   "/v1/browser/click",
		body:   passthroughField("element_id"),
	},
	"type": {
		method: http.MethodPost,
		path:   "/v1/browser/type",
		body:   passthroughField("element_id", "text"),
	},
	"extract": {
		method: http.MethodPost,
		path:   "/v1/browser/extract",
		body:   passthroughField("selector"),
	},
	"screenshot": {
		method: http.MethodGet,
		path:   "/v1/browser/screenshot",
	},
	"close": {
		method: http.MethodPost,
		path:   "/v1/browser/close",
	},
}

func passthroughField(keys ...string) func(map[string]any) (map[string]any, error) {
	return func(args map[string]any) (map[string]any, error) {
		body := make(map[string]any, len(keys))
		for _, k := range keys {
			v, ok := args[k]
			if !ok {
				return nil, fmt.Errorf("%w: missing required arg %q", domain.ErrInvalidPlan, k)
			}
			body[k] = v
		}
		return body, nil
	}
}

func (g *gateway) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	a, ok := actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}

	var body map[string]any
	if a.body != nil {
		var err error
		body, err = a.body(args)
		if err != nil {
			return nil, err
		}
	}

	result, err := g.call(ctx, a.method, a.path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: action %q: %v", domain.ErrUpstream, name, err)
	}
	return result, nil
}

func (g *gateway) call(ctx context.Context, method, path string, body map[string]any) (any, error) {
	var reqBody io.Reader
	if method == http.MethodPost {
		payload := body
		if payload == nil {
			payload = map[string]any{}
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling browser agent: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading browser agent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("browser agent returned status %d: %s", resp.StatusCode, data)
	}

	var result any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decoding browser agent response: %w", err)
		}
	}
	return result, nil
}
