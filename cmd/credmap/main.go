// Package main provides the credmap command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/credential-mapper/internal/config"
)

var (
	configPath string
	verbose    bool

	// fileConfig holds values from --config; flags set on the command line win over it
	fileConfig config.Config
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "credmap",
	Short: "Map credentials between formats and find what the target schema still needs",
	Long: `credmap projects a credential document into another format with a declarative
mapping, then reports which fields of the target schema still need a value.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
arguments override config file values.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configPath != "" {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			fileConfig = *loaded
		}
		if !cmd.Flags().Changed("verbose") && fileConfig.Verbose {
			verbose = true
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		built, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
