// -- cmd/vars.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagepilot-ai/pagepilot/internal/scenario"
	"github.com/pagepilot-ai/pagepilot/internal/vars"
)

// newVarsCmd creates the `vars` command, listing the variables a run would
// start with. Sensitive values are masked; this output is safe to share.
func newVarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars [scenario file]",
		Short: "Lists configured variables with sensitive values masked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *vars.Store
			if len(args) == 1 {
				sc, err := scenario.Load(args[0])
				if err != nil {
					return err
				}
				store = scenarioStore(sc)
			} else {
				store = vars.New(cfg.Agent.Variables, cfg.Agent.SensitiveKeys)
			}

			for _, name := range store.Names() {
				value, _ := store.Get(name)
				if store.Sensitive(name) {
					value = vars.MaskToken
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, value)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newVarsCmd())
}
