// Package planner turns a user utterance into a validated Plan by
// consulting the LLM Gateway. It is the only component that trusts the
// LLM's output; everything downstream operates on validated Plans.
package planner

import (
	"context"
	"fmt"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/llm"
)

// Planner wraps the LLM Gateway to produce validated Plans.
type Planner struct {
	gateway llm.Gateway
}

// New constructs a Planner over the given LLM Gateway.
func New(gateway llm.Gateway) *Planner {
	return &Planner{gateway: gateway}
}

// BuildPlan calls the LLM Gateway, validates the returned JSON object
// against the Plan schema, and rejects empty plans.
func (p *Planner) BuildPlan(ctx context.Context, userMessage string) (*domain.Plan, error) {
	raw, err := p.gateway.GetPlanJSON(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	plan, err := validatePlan(raw)
	if err != nil {
		return nil, err
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w", domain.ErrEmptyPlan)
	}

	return plan, nil
}

// validatePlan walks the loosely-typed map returned by the LLM field by field
// and builds a strict domain.Plan from it, rejecting missing fields and type
// mismatches as InvalidPlanError. "goal", "steps" and each step's "tool" are
// required; "args", "needs_ok" and "ok_prompt" may be absent or null.
func validatePlan(raw map[string]any) (*domain.Plan, error) {
	goal, ok := raw["goal"].(string)
	if !ok || goal == "" {
		return nil, fmt.Errorf("%w: missing or non-string \"goal\"", domain.ErrInvalidPlan)
	}

	stepsRaw, ok := raw["steps"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"steps\"", domain.ErrInvalidPlan)
	}

	stepsList, ok := stepsRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"steps\" is not an array", domain.ErrInvalidPlan)
	}

	steps := make([]domain.PlanStep, 0, len(stepsList))
	for i, raw := range stepsList {
		step, err := validateStep(i, raw)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return &domain.Plan{Goal: goal, Steps: steps}, nil
}

func validateStep(index int, raw any) (domain.PlanStep, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.PlanStep{}, fmt.Errorf("%w: step %d is not an object", domain.ErrInvalidPlan, index)
	}

	tool, ok := obj["tool"].(string)
	if !ok || tool == "" {
		return domain.PlanStep{}, fmt.Errorf("%w: step %d missing or non-string \"tool\"", domain.ErrInvalidPlan, index)
	}

	args, ok := obj["args"].(map[string]any)
	if !ok {
		if obj["args"] == nil {
			args = map[string]any{}
		} else {
			return domain.PlanStep{}, fmt.Errorf("%w: step %d \"args\" is not an object", domain.ErrInvalidPlan, index)
		}
	}

	needsOK := false
	if v, present := obj["needs_ok"]; present && v != nil {
		b, ok := v.(bool)
		if !ok {
			return domain.PlanStep{}, fmt.Errorf("%w: step %d \"needs_ok\" is not a bool", domain.ErrInvalidPlan, index)
		}
		needsOK = b
	}

	var okPrompt *string
	if v, present := obj["ok_prompt"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return domain.PlanStep{}, fmt.Errorf("%w: step %d \"ok_prompt\" is not a string", domain.ErrInvalidPlan, index)
		}
		okPrompt = &s
	}

	return domain.PlanStep{
		Tool:     tool,
		Args:     args,
		NeedsOK:  needsOK,
		OKPrompt: okPrompt,
	}, nil
}
