// internal/browser/executor.go
package browser

import (
	"context"
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// CustomDispatcher invokes an action registered on the agent by name.
type CustomDispatcher func(ctx context.Context, name string, args map[string]interface{}) error

// Executor runs typed engine actions against a page, paced by a rate limiter
// so bursts of planned actions do not outrun the page.
type Executor struct {
	limiter     *rate.Limiter
	testDataDir string
	logger      *zap.Logger

	// Dispatch handles engine.ActionCustom; left nil, custom actions fail.
	Dispatch CustomDispatcher
}

// NewExecutor creates an executor pacing actions at actionsPerSecond.
// Uploaded file references are resolved against testDataDir.
func NewExecutor(actionsPerSecond float64, testDataDir string, logger *zap.Logger) *Executor {
	if actionsPerSecond <= 0 {
		actionsPerSecond = 4
	}
	return &Executor{
		limiter:     rate.NewLimiter(rate.Limit(actionsPerSecond), 1),
		testDataDir: testDataDir,
		logger:      logger.Named("executor"),
	}
}

// Run executes the actions in order, stopping at the first failure. Custom
// actions go through the executor's default Dispatch.
func (e *Executor) Run(ctx context.Context, page Page, actions []engine.Action) error {
	return e.RunWith(ctx, page, actions, e.Dispatch)
}

// RunWith behaves like Run with an explicit custom-action dispatcher, letting
// callers bind dispatch to the page driving this particular run.
func (e *Executor) RunWith(ctx context.Context, page Page, actions []engine.Action, dispatch CustomDispatcher) error {
	for i, action := range actions {
		if err := e.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for action budget: %w", err)
		}
		e.logger.Debug("Executing action", zap.Int("index", i), zap.Stringer("action", action))
		if err := e.runOne(ctx, page, action, dispatch); err != nil {
			return fmt.Errorf("action %d (%s) failed: %w", i, action.Type, err)
		}
	}
	return nil
}

func (e *Executor) runOne(ctx context.Context, page Page, action engine.Action, dispatch CustomDispatcher) error {
	switch action.Type {
	case engine.ActionNavigate:
		return page.Navigate(action.URL)
	case engine.ActionClick:
		return page.Click(action.Selector)
	case engine.ActionFill:
		return page.Fill(action.Selector, action.Value)
	case engine.ActionSelect:
		return page.SelectOption(action.Selector, action.Value)
	case engine.ActionPress:
		return page.Press(action.Selector, action.Value)
	case engine.ActionWait:
		return page.WaitMs(action.WaitMs)
	case engine.ActionScroll:
		return page.Scroll(action.Value)
	case engine.ActionUpload:
		path, err := e.resolveFileRef(action.Value)
		if err != nil {
			return err
		}
		return page.Upload(action.Selector, path)
	case engine.ActionCustom:
		if dispatch == nil {
			return fmt.Errorf("no dispatcher for custom action %q", action.Name)
		}
		return dispatch(ctx, action.Name, action.Args)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// resolveFileRef expands and anchors an uploaded file reference. Relative
// references resolve against the configured test data directory.
func (e *Executor) resolveFileRef(ref string) (string, error) {
	expanded, err := homedir.Expand(ref)
	if err != nil {
		return "", fmt.Errorf("expanding file reference %q: %w", ref, err)
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	if e.testDataDir == "" {
		return expanded, nil
	}
	return filepath.Join(e.testDataDir, expanded), nil
}
