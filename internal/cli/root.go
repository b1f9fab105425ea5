package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/config"
	"github.com/existflow/mtc/internal/logger"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	dataDir    string
)

// sess is the state of the running command, set up before every command
var sess *session

var rootCmd = &cobra.Command{
	Use:   "mtc",
	Short: "mtc - todos, tasks and events kept in sync",
	Long: `mtc keeps three lists on the command line: todos (optionally on one
weekday), tasks (with a duration, on a set of weekdays) and events (on one date).

The lists live in ~/.mtc and are reconciled with a remote copy by 'mtc sync'.
Events older than three days are dropped automatically.

Run 'mtc' without arguments to see what is on today.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("mtc started", logger.F("command", cmd.CommandPath()))

		sess, err = openSession(cmd.Context(), cfg)
		return err
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd, []string{scopeToday})
	},

	// Only runs when the command succeeded
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if err := sess.save(); err != nil {
			logger.Error("Failed to save lists", logger.F("error", err))
			return err
		}
		return nil
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if sess != nil {
		sess.release()
	}
	if err != nil {
		logger.Error("mtc failed", logger.F("error", err))
	}
	logger.Info("mtc exiting")
	logger.Close()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the lists")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(doCmd)
	rootCmd.AddCommand(syncCmd)
}
