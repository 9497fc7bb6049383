// -- cmd/run.go --
package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pagepilot-ai/pagepilot/internal/agent"
	"github.com/pagepilot-ai/pagepilot/internal/browser"
	"github.com/pagepilot-ai/pagepilot/internal/config"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
	"github.com/pagepilot-ai/pagepilot/internal/engine/remote"
	"github.com/pagepilot-ai/pagepilot/internal/engine/scripted"
	"github.com/pagepilot-ai/pagepilot/internal/observability"
	"github.com/pagepilot-ai/pagepilot/internal/scenario"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [scenario files...]",
		Short: "Runs one or more scenario files against live browser pages",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so they override config file and environment values.
			if err := viper.BindPFlag("run.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			if err := viper.BindPFlag("engine.type", cmd.Flags().Lookup("engine")); err != nil {
				return err
			}
			if err := viper.BindPFlag("engine.rules_file", cmd.Flags().Lookup("rules")); err != nil {
				return err
			}
			return viper.BindPFlag("agent.model", cmd.Flags().Lookup("model"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flag overrides were bound after the initial unmarshal, so load again.
			loaded, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			cfg = loaded
			cfg.Run.Scenarios = args

			// Fail fast on unreadable scenarios before any browser starts.
			scenarios := make([]*scenario.Scenario, 0, len(args))
			for _, path := range args {
				sc, err := scenario.Load(path)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, sc)
			}

			eng, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}

			manager, err := browser.NewManager(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}
			defer manager.Shutdown(context.Background())

			results, err := runScenarios(ctx, cfg, manager, eng, scenarios, logger)
			if err != nil {
				return err
			}

			failed := 0
			for _, result := range results {
				status := "PASS"
				if !result.Passed() {
					status = "FAIL"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%d steps, %d failed, %s)\n",
					status, result.Scenario, len(result.Steps), result.Failed, result.Duration.Round(time.Millisecond))
				for _, step := range result.Steps {
					if !step.Success {
						fmt.Fprintf(cmd.OutOrStdout(), "      step %d (%s): %s\n", step.Index, step.Kind, step.Details)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
			}
			return nil
		},
	}

	runCmd.Flags().IntP("concurrency", "j", 0, "Number of scenarios to run in parallel. (Overrides config/env)")
	runCmd.Flags().String("engine", "", "Planning engine: 'remote' or 'scripted'. (Overrides config/env)")
	runCmd.Flags().String("rules", "", "Rules file for the scripted engine. (Overrides config/env)")
	runCmd.Flags().String("model", "", "Model forwarded to the planning engine. (Overrides config/env)")

	return runCmd
}

// runScenarios executes the scenarios, at most cfg.Run.Concurrency at a time.
// Each scenario gets its own agent so variable stores stay isolated.
func runScenarios(ctx context.Context, cfg *config.Config, manager *browser.Manager, eng engine.Engine, scenarios []*scenario.Scenario, logger *zap.Logger) ([]*scenario.Result, error) {
	concurrency := cfg.Run.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	results := make([]*scenario.Result, len(scenarios))

	for i, sc := range scenarios {
		g.Go(func() error {
			ag, err := agent.New(agentConfig(cfg), eng, logger)
			if err != nil {
				return err
			}
			runner, err := scenario.NewRunner(ag, logger)
			if err != nil {
				return err
			}

			page, err := manager.NewPage(ctx)
			if err != nil {
				return fmt.Errorf("scenario %q: opening page: %w", sc.Name, err)
			}
			defer func() {
				if err := page.Close(context.Background()); err != nil {
					logger.Warn("Error closing page", zap.Error(err))
				}
			}()

			result, err := runner.Run(ctx, page, sc)
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// agentConfig maps the application configuration onto agent options.
func agentConfig(cfg *config.Config) agent.Config {
	return agent.Config{
		Model:            cfg.Agent.Model,
		Variables:        cfg.Agent.Variables,
		SensitiveKeys:    cfg.Agent.SensitiveKeys,
		TestDataDir:      cfg.Agent.TestDataDir,
		ActionsPerSecond: cfg.Browser.ActionsPerSecond,
	}
}

// newEngine builds the planning engine selected by the configuration.
func newEngine(cfg *config.Config, logger *zap.Logger) (engine.Engine, error) {
	switch cfg.Engine.Type {
	case config.EngineRemote:
		return remote.New(cfg.Engine, cfg.Agent.Model, logger)
	case config.EngineScripted:
		var rules []scripted.Rule
		if cfg.Engine.RulesFile != "" {
			loaded, err := scripted.LoadRules(cfg.Engine.RulesFile)
			if err != nil {
				return nil, err
			}
			rules = loaded
		}
		return scripted.New(rules, logger), nil
	default:
		return nil, fmt.Errorf("unknown engine.type %q", cfg.Engine.Type)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
