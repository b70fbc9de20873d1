package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaconscious/internal/config"
	"metaconscious/internal/llm"
	"metaconscious/internal/logging"
	"metaconscious/internal/planner"
	"metaconscious/internal/scheduler"
	"metaconscious/internal/server"
	"metaconscious/internal/store"
)

const version = "1.0.0"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "metaconscious",
	Short: "MetaConscious - autonomous AI planning backend",
	Long: `MetaConscious is a single-user productivity backend. It stores goals,
tasks, calendar events and relationships, and generates an autonomous
daily plan every night by combining that state with an LLM completion.

The planner has final authority over scheduling; humans get a bounded
number of overrides per week.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the nightly planning scheduler",
	RunE:  runServe,
}

var planCmd = &cobra.Command{
	Use:   "plan [date]",
	Short: "Generate the daily plan for a date (default: tomorrow)",
	Long: `Runs the full planning pipeline once and prints the generated plan.
The date argument is YYYY-MM-DD; without it, tomorrow's plan is built.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Show this week's override quota standing",
	RunE:  runOverrides,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("metaconscious %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "metaconscious.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(overridesCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildClient constructs the completion client, or returns nil when no
// credential is configured. A nil client is a valid state: the API runs
// and only plan generation refuses.
func buildClient() llm.Client {
	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY not set; plan generation disabled")
		return nil
	}
	client, err := llm.NewGroqClient(cfg.LLM, logger)
	if err != nil {
		logger.Warn("llm client unavailable", zap.Error(err))
		return nil
	}
	return client
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := buildClient()
	engine := planner.NewEngine(st, client, cfg.Planning, logger)

	sched := scheduler.New(engine, st, cfg.Planning.PlanningHour, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Reload the planning policy when the config file changes on disk.
	watcher := config.NewWatcher(configPath, func(updated *config.Config) {
		engine.SetMaxWeeklyOverrides(updated.Planning.MaxWeeklyOverrides)
		logger.Info("config reloaded",
			zap.Int("max_weekly_overrides", updated.Planning.MaxWeeklyOverrides))
	})
	if err := watcher.Start(); err != nil {
		logger.Debug("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	srv := server.New(cfg, st, engine, client, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runPlan(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := buildClient()
	if client == nil {
		return fmt.Errorf("LLM not configured. Set LLM_API_KEY in .env file")
	}
	engine := planner.NewEngine(st, client, cfg.Planning, logger)

	user, err := st.GetUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("no user provisioned; call /api/init first: %w", err)
	}

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	if len(args) == 1 {
		date = args[0]
	}

	generated, _, err := engine.GenerateDailyPlan(cmd.Context(), user.ID, date)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(generated, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runOverrides(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := planner.NewEngine(st, nil, cfg.Planning, logger)

	user, err := st.GetUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("no user provisioned; call /api/init first: %w", err)
	}

	status, err := engine.CheckWeeklyOverrides(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	fmt.Printf("week overrides: %d/%d used, %d remaining\n",
		status.Count, status.Limit, status.Remaining)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
