// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/agent"
	"github.com/pagepilot-ai/pagepilot/internal/browser"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
	"github.com/pagepilot-ai/pagepilot/internal/vars"
)

// StepOutcome records what one step did.
type StepOutcome struct {
	Index   int
	Kind    string
	Success bool
	Details string
}

// Result summarizes a scenario run.
type Result struct {
	RunID    string
	Scenario string
	Steps    []StepOutcome
	Failed   int
	Duration time.Duration
}

// Passed reports whether every step succeeded.
func (r *Result) Passed() bool { return r.Failed == 0 }

// Runner replays scenarios through an agent.
type Runner struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewRunner wires a runner to the agent that will execute its steps.
func NewRunner(ag *agent.Agent, logger *zap.Logger) (*Runner, error) {
	if ag == nil {
		return nil, fmt.Errorf("runner requires an agent")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{agent: ag, logger: logger.Named("runner")}, nil
}

// Run executes the scenario on the given page. An assertion failure or a
// hard step error stops the run; fallback step failures are recorded and the
// run continues. The returned error is non-nil only for setup problems, a
// partially failed run comes back as a Result with Failed > 0.
func (r *Runner) Run(ctx context.Context, page browser.Page, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    uuid.NewString(),
		Scenario: sc.Name,
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	logger := r.logger.With(zap.String("scenario", sc.Name), zap.String("run_id", result.RunID))
	logger.Info("Starting scenario", zap.Int("steps", len(sc.Steps)))

	r.seedVariables(sc)

	if sc.URL != "" {
		if err := page.Navigate(r.agent.Vars().Resolve(sc.URL)); err != nil {
			return nil, fmt.Errorf("scenario %q: opening %s: %w", sc.Name, sc.URL, err)
		}
	}

	for i, step := range sc.Steps {
		outcome := r.runStep(ctx, page, i, step)
		result.Steps = append(result.Steps, outcome)
		if !outcome.Success {
			result.Failed++
			if stopsRun(step) {
				logger.Warn("Stopping scenario", zap.Int("step", i+1), zap.String("details", outcome.Details))
				break
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	logger.Info("Scenario finished",
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// stopsRun reports whether a failure of this step aborts the scenario.
// Fallback steps carry their own success flag and are advisory.
func stopsRun(step Step) bool {
	return step.Step == nil
}

func (r *Runner) seedVariables(sc *Scenario) {
	store := r.agent.Vars()
	sensitive := make(map[string]bool, len(sc.Sensitive))
	for _, name := range sc.Sensitive {
		sensitive[name] = true
	}
	for name, value := range sc.Vars {
		store.Set(name, value, sensitive[name])
	}
	// Sensitive names without a seeded value still get flagged so later
	// writes inherit masking.
	for _, name := range sc.Sensitive {
		if _, seeded := sc.Vars[name]; !seeded {
			value, _ := store.Get(name)
			store.Set(name, value, true)
		}
	}
}

func (r *Runner) runStep(ctx context.Context, page browser.Page, index int, step Step) StepOutcome {
	outcome := StepOutcome{Index: index + 1, Kind: step.Kind()}

	switch outcome.Kind {
	case "act":
		if err := r.agent.Act(ctx, page, step.Act); err != nil {
			return failed(outcome, err.Error())
		}
		outcome.Details = r.agent.Vars().RenderForLog(step.Act)

	case "assert":
		err := r.agent.Assert(ctx, page, step.Assert)
		var assertErr *agent.AssertionError
		switch {
		case errors.As(err, &assertErr):
			return failed(outcome, assertErr.Error())
		case err != nil:
			return failed(outcome, err.Error())
		}
		outcome.Details = r.agent.Vars().RenderForLog(step.Assert)

	case "eval":
		holds, err := r.agent.Evaluate(ctx, page, step.Eval.Condition)
		if err != nil {
			return failed(outcome, err.Error())
		}
		if step.Eval.Var != "" {
			r.agent.Vars().Set(step.Eval.Var, fmt.Sprintf("%t", holds), false)
		}
		outcome.Details = fmt.Sprintf("%s => %t", r.agent.Vars().RenderForLog(step.Eval.Condition), holds)

	case "extract":
		value, err := r.agent.Extract(ctx, page, step.Extract.Description, step.Extract.Var)
		if err != nil {
			return failed(outcome, err.Error())
		}
		if r.agent.Vars().Sensitive(step.Extract.Var) {
			value = vars.MaskToken
		}
		outcome.Details = fmt.Sprintf("%s = %s", step.Extract.Var, value)

	case "login":
		err := r.agent.Login(ctx, page, agent.Credentials{
			URL:        step.Login.URL,
			Username:   step.Login.Username,
			Password:   step.Login.Password,
			TOTPSecret: step.Login.TOTPSecret,
		})
		if err != nil {
			return failed(outcome, err.Error())
		}
		outcome.Details = fmt.Sprintf("logged in at %s", r.agent.Vars().RenderForLog(step.Login.URL))

	case "step":
		fallback := make([]engine.Action, 0, len(step.Step.Fallback))
		for _, spec := range step.Step.Fallback {
			fallback = append(fallback, spec.ToAction())
		}
		stepResult := r.agent.Step(ctx, page, fallback, step.Step.Description, agent.StepOptions{
			MaxSteps: step.Step.MaxSteps,
		})
		outcome.Success = stepResult.Success
		outcome.Details = stepResult.Details
		return outcome

	case "action":
		if err := r.agent.InvokeAction(ctx, page, step.Action.Name, step.Action.Args); err != nil {
			return failed(outcome, err.Error())
		}
		outcome.Details = fmt.Sprintf("ran %s", step.Action.Name)

	case "navigate":
		if err := page.Navigate(r.agent.Vars().Resolve(step.Navigate)); err != nil {
			return failed(outcome, err.Error())
		}
		outcome.Details = r.agent.Vars().RenderForLog(step.Navigate)

	default:
		return failed(outcome, "unknown step kind")
	}

	outcome.Success = true
	return outcome
}

func failed(outcome StepOutcome, details string) StepOutcome {
	outcome.Success = false
	outcome.Details = details
	return outcome
}
