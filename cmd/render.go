// -- cmd/render.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagepilot-ai/pagepilot/internal/scenario"
	"github.com/pagepilot-ai/pagepilot/internal/vars"
)

// newRenderCmd creates the `render` command. It resolves a scenario's
// placeholders offline and prints the result with secrets masked, which is
// the quickest way to check variable wiring before a live run.
func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [scenario file]",
		Short: "Prints a scenario with variables resolved and secrets masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			store := scenarioStore(sc)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "scenario: %s\n", sc.Name)
			if sc.URL != "" {
				fmt.Fprintf(out, "url: %s\n", store.RenderForLog(sc.URL))
			}
			for i, step := range sc.Steps {
				fmt.Fprintf(out, "%3d. %s\n", i+1, renderStep(store, step))
			}
			return nil
		},
	}
}

// scenarioStore builds a variable store holding the configured agent
// variables overlaid with the scenario's own.
func scenarioStore(sc *scenario.Scenario) *vars.Store {
	store := vars.New(cfg.Agent.Variables, cfg.Agent.SensitiveKeys)
	sensitive := make(map[string]bool, len(sc.Sensitive))
	for _, name := range sc.Sensitive {
		sensitive[name] = true
	}
	for name, value := range sc.Vars {
		store.Set(name, value, sensitive[name])
	}
	for _, name := range sc.Sensitive {
		if _, seeded := sc.Vars[name]; !seeded {
			value, _ := store.Get(name)
			store.Set(name, value, true)
		}
	}
	return store
}

func renderStep(store *vars.Store, step scenario.Step) string {
	switch step.Kind() {
	case "act":
		return fmt.Sprintf("act: %s", store.RenderForLog(step.Act))
	case "assert":
		return fmt.Sprintf("assert: %s", store.RenderForLog(step.Assert))
	case "eval":
		return fmt.Sprintf("eval: %s", store.RenderForLog(step.Eval.Condition))
	case "extract":
		return fmt.Sprintf("extract: %s -> $%s", store.RenderForLog(step.Extract.Description), step.Extract.Var)
	case "login":
		return fmt.Sprintf("login: %s as %s", store.RenderForLog(step.Login.URL), store.RenderForLog(step.Login.Username))
	case "step":
		return fmt.Sprintf("step: %s (%d fallback actions)", store.RenderForLog(step.Step.Description), len(step.Step.Fallback))
	case "action":
		return fmt.Sprintf("action: %s", step.Action.Name)
	case "navigate":
		return fmt.Sprintf("navigate: %s", store.RenderForLog(step.Navigate))
	}
	return "unknown step"
}

func init() {
	rootCmd.AddCommand(newRenderCmd())
}
