package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ipl-apportion/cmd/cli/commands"
	"github.com/jakechorley/ipl-apportion/internal/config"
	"github.com/jakechorley/ipl-apportion/pkg/utils/logging"
)

var (
	env        string
	configPath string
	logDir     string
	verbose    bool
)

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "IPL Apportion CLI - Apportion lab hours across slots",
		Long: `A CLI tool for apportioning a fixed number of assistant hours across lab slots
in proportion to attendance, using Jefferson's (D'Hondt) method.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "dev", "Environment (selects apportion_config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for JSON debug logs (disabled when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Output JSON instead of tables")

	rootCmd.AddCommand(commands.ApportionCmd(app))
	rootCmd.AddCommand(commands.SessionsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and configuration
func initApp(app *commands.AppContext) error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, logDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Starting application", zap.String("environment", env))

	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.Int("groups", len(app.Cfg.Groups)),
		zap.Int("step_divisions", app.Cfg.StepDivisions))

	return nil
}
