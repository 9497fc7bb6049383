// internal/agent/agent.go

// Package agent is the public automation surface: natural-language act,
// assert, evaluate and extract operations over a browser page, plus
// deterministic login, fallback stepping, and custom action registration.
// Instruction understanding is delegated to the configured planning engine;
// this package owns variable resolution, secret masking, and execution.
package agent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/browser"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
	"github.com/pagepilot-ai/pagepilot/internal/vars"
)

// Config carries the options recognized at agent construction.
type Config struct {
	// Model is forwarded to the planning engine with every request.
	Model string
	// Variables seeds the agent's variable store.
	Variables map[string]string
	// SensitiveKeys flags variable names whose values must be masked in logs.
	SensitiveKeys []string
	// TestDataDir anchors uploaded file references.
	TestDataDir string
	// ActionsPerSecond paces typed action execution; zero means the default.
	ActionsPerSecond float64
}

// AssertionError reports an asserted condition that evaluated false. The
// condition is stored pre-masked so the error can be logged as-is.
type AssertionError struct {
	Condition string
	Details   string
}

func (e *AssertionError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("assertion failed: %s", e.Condition)
	}
	return fmt.Sprintf("assertion failed: %s (%s)", e.Condition, e.Details)
}

// StepOptions bounds a fallback step run.
type StepOptions struct {
	MaxSteps int
}

// StepResult reports a fallback run's outcome. Step failures are conveyed
// here rather than as errors so callers can branch without error handling.
type StepResult struct {
	Success bool
	Details string
}

// maskedError carries a log-safe message while keeping the original error
// chain reachable for errors.Is and errors.As.
type maskedError struct {
	msg string
	err error
}

func (e *maskedError) Error() string { return e.msg }
func (e *maskedError) Unwrap() error { return e.err }

// Agent drives a browser through a planning engine.
type Agent struct {
	cfg      Config
	store    *vars.Store
	engine   engine.Engine
	executor *browser.Executor
	logger   *zap.Logger

	mu      sync.RWMutex
	actions map[string]CustomAction
}

// New constructs an agent over the given planning engine.
func New(cfg Config, eng engine.Engine, logger *zap.Logger) (*Agent, error) {
	if eng == nil {
		return nil, fmt.Errorf("agent requires a planning engine")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("agent")

	return &Agent{
		cfg:      cfg,
		store:    vars.New(cfg.Variables, cfg.SensitiveKeys),
		engine:   eng,
		executor: browser.NewExecutor(cfg.ActionsPerSecond, cfg.TestDataDir, logger),
		logger:   logger,
		actions:  make(map[string]CustomAction),
	}, nil
}

// Vars exposes the agent's variable store.
func (a *Agent) Vars() *vars.Store { return a.store }

// maskErr wraps err under op with the combined message passed through the
// store's log renderer, so literal sensitive values never reach callers.
func (a *Agent) maskErr(op string, err error) error {
	return &maskedError{
		msg: a.store.RenderForLog(fmt.Sprintf("%s: %v", op, err)),
		err: err,
	}
}

// Act resolves variables in the instruction, asks the engine for an action
// plan, and executes it against the page.
func (a *Agent) Act(ctx context.Context, page browser.Page, instruction string) error {
	resolved := a.store.Resolve(instruction)
	a.logger.Info("Acting", zap.String("instruction", a.store.RenderForLog(instruction)))

	snapshot, err := page.Snapshot()
	if err != nil {
		return a.maskErr("act", err)
	}

	plan, err := a.engine.PlanActions(ctx, engine.PlanRequest{
		Instruction: resolved,
		Model:       a.cfg.Model,
		Snapshot:    snapshot,
	})
	if err != nil {
		return a.maskErr("act: planning", err)
	}

	if err := a.executor.RunWith(ctx, page, plan.Actions, a.dispatcher(page)); err != nil {
		return a.maskErr("act", err)
	}
	return nil
}

// Evaluate asks the engine whether a natural-language condition holds.
func (a *Agent) Evaluate(ctx context.Context, page browser.Page, instruction string) (bool, error) {
	resolved := a.store.Resolve(instruction)

	snapshot, err := page.Snapshot()
	if err != nil {
		return false, a.maskErr("evaluate", err)
	}

	verdict, err := a.engine.EvaluateCondition(ctx, engine.EvalRequest{
		Condition: resolved,
		Model:     a.cfg.Model,
		Snapshot:  snapshot,
	})
	if err != nil {
		return false, a.maskErr("evaluate", err)
	}
	return verdict.Holds, nil
}

// Assert evaluates the condition and returns an *AssertionError when it does
// not hold.
func (a *Agent) Assert(ctx context.Context, page browser.Page, instruction string) error {
	resolved := a.store.Resolve(instruction)
	masked := a.store.RenderForLog(instruction)
	a.logger.Info("Asserting", zap.String("condition", masked))

	snapshot, err := page.Snapshot()
	if err != nil {
		return a.maskErr("assert", err)
	}

	verdict, err := a.engine.EvaluateCondition(ctx, engine.EvalRequest{
		Condition: resolved,
		Model:     a.cfg.Model,
		Snapshot:  snapshot,
	})
	if err != nil {
		return a.maskErr("assert", err)
	}
	if !verdict.Holds {
		return &AssertionError{Condition: masked, Details: verdict.Details}
	}
	return nil
}

// Extract pulls the described value off the page and writes it into the
// variable store under variableName. An existing sensitivity flag on the
// variable is preserved.
func (a *Agent) Extract(ctx context.Context, page browser.Page, description, variableName string) (string, error) {
	resolved := a.store.Resolve(description)
	a.logger.Info("Extracting", zap.String("description", a.store.RenderForLog(description)), zap.String("variable", variableName))

	snapshot, err := page.Snapshot()
	if err != nil {
		return "", a.maskErr("extract", err)
	}

	value, err := a.engine.ExtractValue(ctx, engine.ExtractRequest{
		Description: resolved,
		Model:       a.cfg.Model,
		Snapshot:    snapshot,
	})
	if err != nil {
		return "", a.maskErr("extract", err)
	}

	a.store.SetPreserving(variableName, value)
	return value, nil
}

// Step runs a deterministic fallback procedure, at most opts.MaxSteps actions.
// It never returns an error: failures are reported in the result so callers
// can branch on success without exception-style handling.
func (a *Agent) Step(ctx context.Context, page browser.Page, fallback []engine.Action, description string, opts StepOptions) StepResult {
	masked := a.store.RenderForLog(description)
	a.logger.Info("Stepping through fallback", zap.String("description", masked), zap.Int("max_steps", opts.MaxSteps))

	limit := len(fallback)
	if opts.MaxSteps > 0 && opts.MaxSteps < limit {
		limit = opts.MaxSteps
	}

	for i := 0; i < limit; i++ {
		action := a.resolveAction(fallback[i])
		if err := a.executor.RunWith(ctx, page, []engine.Action{action}, a.dispatcher(page)); err != nil {
			return StepResult{
				Success: false,
				Details: a.store.RenderForLog(fmt.Sprintf("step %d/%d of %q failed: %v", i+1, limit, masked, err)),
			}
		}
	}

	if limit < len(fallback) {
		return StepResult{
			Success: false,
			Details: fmt.Sprintf("stopped after %d of %d fallback actions for %q (max_steps reached)", limit, len(fallback), masked),
		}
	}
	return StepResult{
		Success: true,
		Details: fmt.Sprintf("completed %d fallback actions for %q", limit, masked),
	}
}

// resolveAction substitutes variables into an action's string fields.
func (a *Agent) resolveAction(action engine.Action) engine.Action {
	action.Selector = a.store.Resolve(action.Selector)
	action.Value = a.store.Resolve(action.Value)
	action.URL = a.store.Resolve(action.URL)
	return action
}
