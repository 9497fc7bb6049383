// internal/engine/engine.go

// Package engine defines the capability boundary between the agent SDK and
// the planning engine that translates natural-language instructions into
// typed browser actions. The translation itself is opaque to this repository:
// the remote implementation transports requests to a hosted engine, and the
// scripted implementation answers from a local rule table for demos and tests.
package engine

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoRule is returned by deterministic engines when no rule matches the
// incoming instruction.
var ErrNoRule = errors.New("no rule matches instruction")

// ActionType enumerates the typed actions an engine may plan.
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionClick    ActionType = "click"
	ActionFill     ActionType = "fill"
	ActionSelect   ActionType = "select"
	ActionPress    ActionType = "press"
	ActionWait     ActionType = "wait"
	ActionScroll   ActionType = "scroll"
	ActionUpload   ActionType = "upload"
	// ActionCustom dispatches to an action registered on the agent by name.
	ActionCustom ActionType = "custom"
)

// Action is a single typed browser operation. Fields irrelevant to a given
// type are omitted on the wire.
type Action struct {
	Type     ActionType `json:"type"`
	Selector string     `json:"selector,omitempty"`
	Value    string     `json:"value,omitempty"`
	URL      string     `json:"url,omitempty"`
	// Name identifies the registered custom action for ActionCustom.
	Name   string                 `json:"name,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
	WaitMs int                    `json:"wait_ms,omitempty"`
}

// String renders the action as compact JSON for diagnostics.
func (a Action) String() string {
	b, err := json.Marshal(a)
	if err != nil {
		return string(a.Type)
	}
	return string(b)
}

// PageSnapshot is the perception payload handed to an engine: where the page
// is and a trimmed textual outline of what is visible.
type PageSnapshot struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

// PlanRequest asks the engine to translate one instruction into actions.
type PlanRequest struct {
	Instruction string       `json:"instruction"`
	Model       string       `json:"model,omitempty"`
	Snapshot    PageSnapshot `json:"snapshot"`
}

// Plan is the engine's answer to a PlanRequest.
type Plan struct {
	Actions   []Action `json:"actions"`
	Rationale string   `json:"rationale,omitempty"`
}

// EvalRequest asks the engine whether a condition holds on the current page.
type EvalRequest struct {
	Condition string       `json:"condition"`
	Model     string       `json:"model,omitempty"`
	Snapshot  PageSnapshot `json:"snapshot"`
}

// Verdict is the boolean answer to an EvalRequest with supporting detail.
type Verdict struct {
	Holds   bool   `json:"holds"`
	Details string `json:"details,omitempty"`
}

// ExtractRequest asks the engine to pull a described value off the page.
type ExtractRequest struct {
	Description string       `json:"description"`
	Model       string       `json:"model,omitempty"`
	Snapshot    PageSnapshot `json:"snapshot"`
}

// Engine is the planning capability consumed by the agent.
type Engine interface {
	// PlanActions translates an instruction into an ordered action list.
	PlanActions(ctx context.Context, req PlanRequest) (*Plan, error)

	// EvaluateCondition decides whether a natural-language condition holds.
	EvaluateCondition(ctx context.Context, req EvalRequest) (Verdict, error)

	// ExtractValue pulls the value matching a natural-language description.
	ExtractValue(ctx context.Context, req ExtractRequest) (string, error)
}
