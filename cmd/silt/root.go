package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var (
	verbose    bool
	configPath string
	uri        string
	database   string
	adapter    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "silt",
	Short: "A typed access layer over document databases",
	Long: `silt gives document collections a typed, schema-validated CRUD surface.
The CLI speaks to a MongoDB deployment (or an in-process memory store for
experiments) using the same repository layer the library exposes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&uri, "uri", "", "Connection URI (overrides config)")
	rootCmd.PersistentFlags().StringVar(&database, "db", "", "Database name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: mongo or memory (overrides config)")
}

// openManager resolves configuration (flags win over the config file) and
// connects.
func openManager(ctx context.Context) (*silt.Manager, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.merge(uri, database, adapter)

	return silt.Connect(ctx, cfg.URI,
		silt.WithAdapter(cfg.Adapter),
		silt.WithDatabase(cfg.Database),
		silt.WithLogger(slog.Default()),
	)
}
