package domain

import "errors"

// Sentinel errors for the orchestrator's error taxonomy, checked
// with errors.Is/errors.As at component boundaries rather than modeled as a
// custom exception hierarchy.
var (
	// ErrInvalidPlan means the LLM's JSON output does not match the Plan schema.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrEmptyPlan means the Plan validated but has zero steps.
	ErrEmptyPlan = errors.New("plan has no steps")

	// ErrUnknownAction means the Browser Gateway received an unmapped action name.
	ErrUnknownAction = errors.New("unknown browser action")

	// ErrUnknownService means a step's tool prefix is not "browser.".
	ErrUnknownService = errors.New("unknown service")

	// ErrUpstream wraps a non-2xx or transport failure from the LLM or Browser Agent.
	ErrUpstream = errors.New("upstream error")

	// ErrApprovalTimeout means the approval signal was not received within the wait window.
	ErrApprovalTimeout = errors.New("approval not received")

	// ErrAlreadyResolved means the approval endpoint was called twice for the same approval.
	ErrAlreadyResolved = errors.New("approval already resolved")

	// ErrNotFound means a task or approval id is unknown to the store.
	ErrNotFound = errors.New("not found")
)
