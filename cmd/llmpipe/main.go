package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/llm-pipeline/internal/cli"
	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/config"
)

var (
	cfgFile   string
	version   = "dev"
	logCloser io.Closer
	rootCmd   = &cobra.Command{
		Use:   "llmpipe",
		Short: "Transform database text through a large language model",
		Long: `llmpipe reads text records from PostgreSQL or SQLite, rewrites each one
with an LLM (OpenAI, Anthropic or YandexGPT), validates the answers and
writes them back in batched transactions.`,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: closeLogger,
		SilenceUsage:       true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/llmpipe/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file (default: pipeline.log)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("pipeline.log_file", rootCmd.PersistentFlags().Lookup("log-file"))

	// Add commands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateSQLCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err for the terminal. A UserError shows only its
// message; the full error is logged.
func reportError(w io.Writer, err error) {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		common.LogError(nil, err, "Command failed", nil)
		fmt.Fprintln(w, cli.FormatError(userErr.UserMessage))
		return
	}
	fmt.Fprintln(w, cli.FormatError(err.Error()))
}

func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		dir, err := config.Dir()
		if err != nil {
			return err
		}

		// Search for config in standard locations
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// auth and version don't touch the database, so keep their logs off disk.
	logFile := v.GetString("pipeline.log_file")
	if cmd.Name() == "version" || (cmd.Parent() != nil && cmd.Parent().Name() == "auth") {
		logFile = ""
	}

	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logCloser, err = common.SetupLogger(level, v.GetString("logging.format"), config.ExpandPath(logFile))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func closeLogger(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("llmpipe version", "version", version)
		},
	}
}
