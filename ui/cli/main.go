// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for recordkit using the
// Cobra library: the root command, subcommands (ping, maintain, dump,
// config, version), flags, and the execution entry point.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maxisioux/recordkit/buildvars"
	"github.com/maxisioux/recordkit/internal/config"
	"github.com/maxisioux/recordkit/internal/logging"
	"github.com/maxisioux/recordkit/store"
)

var appConfig config.Config

// setupDefaultServices loads the configuration before a command that
// needs database access runs.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	configPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./recordkit.db",
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, configPath)
	// A "file not found" error is expected on first run; anything else is fatal.
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return fmt.Errorf("error loading config: %w", err)
	}

	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}

	logging.SetDebug(appConfig.Verbose)
	return nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only honor --config when the user explicitly set it.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	return &path, nil
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be
	// called multiple times in tests). pflag panics on duplicates.
	if cmd.PersistentFlags().Lookup("config") == nil {
		cmd.PersistentFlags().String("config", "", "Path to a recordkit config file")
	}
	if cmd.PersistentFlags().Lookup("verbose") == nil {
		cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	}
	if cmd.PersistentFlags().Lookup("database.type") == nil {
		cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	}
	if cmd.PersistentFlags().Lookup("database.dsn") == nil {
		cmd.PersistentFlags().String("database.dsn", "./recordkit.db", "Database connection string (DSN)")
	}
}

// pingCmd opens the configured database and round-trips a trivial query.
var pingCmd = &cobra.Command{
	Use:     "ping",
	Short:   "Check connectivity to the configured database",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(appConfig.Database.Type, appConfig.Database.Dsn)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		var one int
		if err := db.NewRaw("SELECT 1").Scan(cmd.Context(), &one); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		fmt.Printf("%s database is reachable\n", appConfig.Database.Type)
		return nil
	},
}

// maintainCmd runs engine-specific maintenance against the configured
// database.
var maintainCmd = &cobra.Command{
	Use:     "maintain",
	Short:   "Run database maintenance (VACUUM, optimize, integrity checks)",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Maintain(cmd.Context(), appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return err
		}
		fmt.Println("Maintenance complete.")
		return nil
	},
}

// dumpCmd streams a table to a zstd-compressed NDJSON file.
var dumpCmd = &cobra.Command{
	Use:   "dump <table> [output-file]",
	Short: "Dump a table as zstd-compressed NDJSON",
	Long: `Streams every row of the given table into a Zstandard-compressed
NDJSON file (one JSON object per row). The dump is model-independent and
can be used for backups or for moving data between database backends.

If no output file is given, '<table>.ndjson.zst' is used. '.zst' is
appended to a given name when missing.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := args[0]
		outputFile := table + ".ndjson.zst"
		if len(args) == 2 {
			outputFile = args[1]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		db, err := store.Open(appConfig.Database.Type, appConfig.Database.Dsn)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		outf, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", outputFile, err)
		}
		defer func() { _ = outf.Close() }()

		if err := store.DumpTable(cmd.Context(), db, table, outf); err != nil {
			return err
		}
		fmt.Printf("Dumped %s to %s\n", table, outputFile)
		return nil
	},
}

// configCmd groups configuration management subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the recordkit configuration file",
}

var configInitSystem bool

var configInitCmd = &cobra.Command{
	Use:     "init",
	Short:   "Write a default recordkit.yaml",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteConfigFile(&appConfig, configInitSystem); err != nil {
			return fmt.Errorf("could not write config file: %w", err)
		}
		fmt.Println("Wrote default config file.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "recordkit %s", buildvars.VersionOrDefault("dev"))
		if buildvars.Commit != "" {
			fmt.Fprintf(out, " (%s)", buildvars.Commit)
		}
		if buildvars.Date != "" {
			fmt.Fprintf(out, " built %s", buildvars.Date)
		}
		fmt.Fprintln(out)
	},
}

// NewRootCmd assembles the root command with all subcommands and flags.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recordkit",
		Short:         "Utilities for databases managed through recordkit services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	applyDefaultFlags(rootCmd)

	if !configCmd.HasSubCommands() {
		configCmd.AddCommand(configInitCmd)
	}
	if configInitCmd.Flags().Lookup("system") == nil {
		configInitCmd.Flags().BoolVar(&configInitSystem, "system", false, "Write the system-wide config instead of the user one")
	}

	rootCmd.AddCommand(pingCmd, maintainCmd, dumpCmd, configCmd, versionCmd)
	return rootCmd
}

// Execute runs the CLI entrypoint. The root main package should call
// this function and handle process exit.
func Execute() error {
	return NewRootCmd().Execute()
}
