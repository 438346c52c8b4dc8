package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/lecsum/internal/app"
	"github.com/abhisek/lecsum/internal/config"
	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "lecsum",
	Short:         "Quizzes, grading and retry practice from lecture notes",
	Long:          "lecsum turns lecture notes into reviewed quizzes, grades answers with search-backed feedback, and builds retry practice from mistakes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and reports any error with its category.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	switch cat := service.Classify(err); cat {
	case "":
	case service.CategoryInternal:
		fmt.Fprintln(os.Stderr, "error:", err)
	default:
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", cat, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides store.dsn)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./lecsum.yaml or the user config dir)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment")

	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(wrongCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration, then applies the --db flag, which takes
// precedence over everything else.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{File: file, EnvFile: envFile})
	if err != nil {
		return nil, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Store = store.Config{Driver: "sqlite", DSN: p}
	}
	return cfg, nil
}

// openApp builds the application for one command. Callers must closeApp.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, app.Options{})
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(cmd.Context()); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", s, service.ErrInvalidRequest)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
