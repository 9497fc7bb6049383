// internal/agent/actions.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/browser"
	"github.com/pagepilot-ai/pagepilot/internal/vars"
)

// ActionContext is handed to custom action handlers. It exposes the page the
// action runs against and the agent's variable store so handlers can publish
// results for later steps.
type ActionContext struct {
	Page browser.Page
	Vars *vars.Store
}

// CustomAction extends the agent with a caller-defined operation. Schema
// documents the expected argument names and their types for diagnostics and
// scenario validation; it is not enforced at dispatch time.
type CustomAction struct {
	Name        string
	Description string
	Schema      map[string]string
	Execute     func(ctx context.Context, args map[string]interface{}, actx *ActionContext) error
}

// RegisterAction installs a custom action. Registering an existing name
// overwrites it, mirroring variable semantics.
func (a *Agent) RegisterAction(action CustomAction) error {
	if action.Name == "" {
		return fmt.Errorf("custom action requires a name")
	}
	if action.Execute == nil {
		return fmt.Errorf("custom action %q requires an execute function", action.Name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.actions[action.Name]; exists {
		a.logger.Warn("Overwriting registered action", zap.String("action", action.Name))
	}
	a.actions[action.Name] = action
	return nil
}

// RegisteredActions returns the names of all registered custom actions.
func (a *Agent) RegisteredActions() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.actions))
	for name := range a.actions {
		names = append(names, name)
	}
	return names
}

// InvokeAction runs a registered action by name against the given page.
func (a *Agent) InvokeAction(ctx context.Context, page browser.Page, name string, args map[string]interface{}) error {
	a.mu.RLock()
	action, ok := a.actions[name]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no custom action registered under %q", name)
	}

	a.logger.Info("Invoking custom action", zap.String("action", name))
	if err := action.Execute(ctx, args, &ActionContext{Page: page, Vars: a.store}); err != nil {
		return fmt.Errorf("custom action %q: %w", name, err)
	}
	return nil
}

// dispatcher adapts InvokeAction to the executor's dispatch signature,
// binding it to the page driving the current run.
func (a *Agent) dispatcher(page browser.Page) browser.CustomDispatcher {
	return func(ctx context.Context, name string, args map[string]interface{}) error {
		return a.InvokeAction(ctx, page, name, args)
	}
}
