package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/jscontext-mcp/internal/config"
	"github.com/dshills/jscontext-mcp/internal/mcp"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

var (
	cfgFile string
	dbDir   string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jscontext",
	Short: "JSContext - structural code search for JavaScript projects",
	Long: `JSContext indexes JavaScript-family sources (.js, .jsx, .mjs, .cjs) into
a local SQLite database and answers hybrid (vector + keyword) code search,
both from the command line and as an MCP server over stdio.

Run without a subcommand to start the MCP server.

Example usage:
  jscontext index .                    # Index current directory
  jscontext search "checkout handler"  # Search indexed code
  jscontext serve                      # Run as MCP server`,
	Version: mcp.ServerVersion,
	Args:    cobra.NoArgs,
	RunE:    runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		// The --db flag wins over both the config file and the environment
		if dbDir != "" {
			cfg.DBPath = dbDir
		}
		return nil
	},
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.jscontext/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbDir, "db", "", "database directory (default ~/.jscontext/indices)")
}

// openStorage opens the configured database, creating its directory on
// first use. Callers own the returned handle and must Close it.
func openStorage() (storage.Storage, error) {
	dir, err := cfg.DatabaseDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, config.DatabaseFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
