// internal/engine/scripted/scripted.go

// Package scripted provides a deterministic engine implementation backed by
// an ordered rule table. It exists for demos and tests that must run without
// a hosted planning engine; it makes no attempt at language understanding
// beyond substring and regular-expression matching.
package scripted

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// Rule maps an instruction to a canned answer. Match is a case-insensitive
// substring test; Pattern, when set, takes precedence. A rule may answer plan
// requests (Actions), evaluation requests (Holds/Details), and extraction
// requests (Value); unused fields are ignored per request kind.
type Rule struct {
	Match   string
	Pattern *regexp.Regexp

	Actions []engine.Action

	Holds   bool
	Details string

	Value string
}

func (r Rule) matches(instruction string) bool {
	if r.Pattern != nil {
		return r.Pattern.MatchString(instruction)
	}
	if r.Match == "" {
		return false
	}
	return strings.Contains(strings.ToLower(instruction), strings.ToLower(r.Match))
}

// Engine answers planning calls from its rule table, first match wins.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// New creates a scripted engine from an ordered rule list.
func New(rules []Rule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{rules: rules, logger: logger.Named("scripted_engine")}
}

// AddRule appends a rule to the table.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

func (e *Engine) find(instruction string) (Rule, error) {
	for _, r := range e.rules {
		if r.matches(instruction) {
			return r, nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %q", engine.ErrNoRule, instruction)
}

// PlanActions implements engine.Engine.
func (e *Engine) PlanActions(ctx context.Context, req engine.PlanRequest) (*engine.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rule, err := e.find(req.Instruction)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Rule matched for plan", zap.String("instruction", req.Instruction), zap.Int("actions", len(rule.Actions)))
	return &engine.Plan{Actions: rule.Actions, Rationale: "scripted rule"}, nil
}

// EvaluateCondition implements engine.Engine.
func (e *Engine) EvaluateCondition(ctx context.Context, req engine.EvalRequest) (engine.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return engine.Verdict{}, err
	}
	rule, err := e.find(req.Condition)
	if err != nil {
		return engine.Verdict{}, err
	}
	return engine.Verdict{Holds: rule.Holds, Details: rule.Details}, nil
}

// ExtractValue implements engine.Engine.
func (e *Engine) ExtractValue(ctx context.Context, req engine.ExtractRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rule, err := e.find(req.Description)
	if err != nil {
		return "", err
	}
	return rule.Value, nil
}
