package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/c360studio/knowhook/config"
	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/hooks"
	"github.com/c360studio/knowhook/receipt"
	"github.com/c360studio/knowhook/trigger"
	"github.com/c360studio/knowhook/workflow"
	"github.com/c360studio/knowhook/workflow/step"
)

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Evaluate knowledge hooks and run their workflows",
		Version: fmt.Sprintf("%s (%s)", Version, BuildTime),
		Long: `Knowhook automates repository maintenance with declarative hooks:
boolean predicates over an RDF knowledge graph that, when satisfied,
run ordered pipelines of typed steps (query, render, file, http, cli).
Hooks are Turtle data, not code.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(evaluateCmd(&verbose))
	cmd.AddCommand(validateCmd(&verbose))
	cmd.AddCommand(listCmd(&verbose))
	cmd.AddCommand(watchCmd(&verbose))
	cmd.AddCommand(initCmd(&verbose))
	return cmd
}

func buildLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// engine bundles everything one evaluation pass needs.
type engine struct {
	cfg   *config.Config
	graph *graph.Graph
	exec  *workflow.Executor
	orch  *hooks.Orchestrator
	nc    *nats.Conn
}

func (e *engine) close() {
	if e.nc != nil {
		e.nc.Close()
	}
}

// buildEngine loads config, the hook graph, and wires the executor and
// orchestrator together.
func buildEngine(logger *slog.Logger) (*engine, error) {
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	g := graph.New()
	hooksDir := cfg.ResolvePath(cfg.Engine.HooksDir)
	if _, err := os.Stat(hooksDir); err == nil {
		if err := g.LoadDir(hooksDir); err != nil {
			return nil, fmt.Errorf("load hooks from %s: %w", hooksDir, err)
		}
	} else {
		logger.Warn("hooks directory not found", slog.String("path", hooksDir))
	}
	if dataDir := cfg.ResolvePath(cfg.Engine.DataDir); dataDir != "" {
		if _, err := os.Stat(dataDir); err == nil {
			if err := g.LoadDir(dataDir); err != nil {
				return nil, fmt.Errorf("load data from %s: %w", dataDir, err)
			}
		}
	}

	registry := step.NewRegistry(step.WithRoot(cfg.Repo.Path))
	exec := workflow.NewExecutor(g, registry,
		workflow.WithLogger(logger),
		workflow.WithTimeout(cfg.Engine.Timeout))

	opts := []hooks.Option{
		hooks.WithLogger(logger),
		hooks.WithMetrics(hooks.NewMetrics(prometheus.NewRegistry())),
	}

	e := &engine{cfg: cfg, graph: g, exec: exec}

	if !cfg.Reports.Disabled {
		opts = append(opts, hooks.WithReceiptSink(receipt.NewWriter(cfg.ResolvePath(cfg.Reports.Dir))))
	}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, receipts will not be published",
				slog.String("url", cfg.NATS.URL),
				slog.String("error", err.Error()))
		} else {
			e.nc = nc
			opts = append(opts, hooks.WithReceiptSink(receipt.NewPublisher(nc, cfg.NATS.Subject)))
		}
	}

	e.orch = hooks.NewOrchestrator(g, exec, opts...)
	return e, nil
}

func evaluateCmd(verbose *bool) *cobra.Command {
	var (
		event   string
		changed []string
		branch  string
		commit  string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation pass over all discovered hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger(*verbose)
			eng, err := buildEngine(logger)
			if err != nil {
				return err
			}
			defer eng.close()

			if event != "" {
				ev := &trigger.Event{
					Type:         trigger.EventType(event),
					ChangedPaths: changed,
					Branch:       branch,
					HeadCommit:   commit,
				}
				if err := eng.graph.IngestTrigger(ev); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := eng.orch.Evaluate(ctx, hooks.Options{})
			if err != nil {
				return err
			}

			printEvaluation(cmd, res)
			if !res.Success {
				return fmt.Errorf("evaluation pass failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "git lifecycle event (pre-commit, post-merge, ...)")
	cmd.Flags().StringSliceVar(&changed, "changed", nil, "changed paths reported by the git layer")
	cmd.Flags().StringVar(&branch, "branch", "", "current branch name")
	cmd.Flags().StringVar(&commit, "commit", "", "current HEAD commit")
	return cmd
}

func printEvaluation(cmd *cobra.Command, res *hooks.EvaluationResult) {
	cmd.Printf("hooks evaluated:    %d\n", res.HooksEvaluated)
	cmd.Printf("hooks triggered:    %d\n", res.HooksTriggered)
	cmd.Printf("workflows executed: %d\n", res.WorkflowsExecuted)
	cmd.Printf("elapsed:            %s\n", res.EvaluationTime.Round(time.Millisecond))
	for _, he := range res.Errors {
		cmd.Printf("hook error: %s: %s\n", he.HookID, he.Error)
	}
}

func validateCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workflow-iri>",
		Short: "Parse and plan a workflow without executing any step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger(*verbose)
			eng, err := buildEngine(logger)
			if err != nil {
				return err
			}
			defer eng.close()

			v := eng.exec.ValidateWorkflow(args[0])
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			if !v.Valid {
				return fmt.Errorf("workflow %s is invalid", args[0])
			}
			return nil
		},
	}
	return cmd
}

func listCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered hooks and workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger(*verbose)
			eng, err := buildEngine(logger)
			if err != nil {
				return err
			}
			defer eng.close()

			hookIDs := eng.orch.DiscoverHooks()
			cmd.Printf("hooks (%d):\n", len(hookIDs))
			for _, id := range hookIDs {
				cmd.Printf("  %s\n", id)
			}

			workflows := eng.exec.ListWorkflows()
			cmd.Printf("workflows (%d):\n", len(workflows))
			for _, w := range workflows {
				cmd.Printf("  %s (%d steps)\n", w.ID, w.StepCount)
			}
			return nil
		},
	}
	return cmd
}

func watchCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate hooks whenever their definitions change",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger(*verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			evaluate := func() {
				// Rebuild so edited hook files are re-read.
				eng, err := buildEngine(logger)
				if err != nil {
					logger.Error("rebuild failed", slog.String("error", err.Error()))
					return
				}
				defer eng.close()

				res, err := eng.orch.Evaluate(ctx, hooks.Options{})
				if err != nil {
					logger.Error("evaluation failed", slog.String("error", err.Error()))
					return
				}
				printEvaluation(cmd, res)
			}

			cfg, err := config.NewLoader(logger).Load()
			if err != nil {
				return err
			}
			hooksDir := cfg.ResolvePath(cfg.Engine.HooksDir)

			watcher, err := hooks.NewWatcher(hooksDir, 500*time.Millisecond, logger)
			if err != nil {
				return fmt.Errorf("watch %s: %w", hooksDir, err)
			}

			evaluate()
			logger.Info("watching for hook changes", slog.String("dir", hooksDir))
			if err := watcher.Run(ctx, evaluate); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	return cmd
}

const exampleHook = `@prefix kh: <https://knowhook.dev/ontology/> .
@prefix ex: <https://knowhook.dev/entity/example/> .

ex:readme-hook a kh:Hook ;
    kh:title "Regenerate README footer" ;
    kh:predicate ex:readme-predicate ;
    kh:pipelines ( ex:readme-pipeline ) .

ex:readme-predicate a kh:Predicate ;
    kh:kind "ask" ;
    kh:queryText """
        PREFIX kh: <https://knowhook.dev/ontology/>
        ASK WHERE { ?t kh:event "post-commit" }
    """ .

ex:readme-pipeline a kh:Pipeline ;
    kh:steps ( ex:render-footer ) .

ex:render-footer a kh:Step ;
    kh:stepType "template" ;
    kh:template "Last updated by knowhook." ;
    kh:filePath ".knowhook/out/footer.txt" .
`

func initCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold knowhook.yaml and a starter hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger(*verbose)

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			cfg := config.DefaultConfig()
			cfgPath := filepath.Join(cwd, config.ProjectConfigFile)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := cfg.SaveToFile(cfgPath); err != nil {
					return err
				}
				logger.Info("created project config", slog.String("path", cfgPath))
			}

			hookPath := filepath.Join(cwd, cfg.Engine.HooksDir, "example.ttl")
			if _, err := os.Stat(hookPath); os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
					return err
				}
				if err := os.WriteFile(hookPath, []byte(exampleHook), 0644); err != nil {
					return err
				}
				logger.Info("created example hook", slog.String("path", hookPath))
			}
			return nil
		},
	}
	return cmd
}
