package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/jscontext-mcp/internal/mcp"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

// BuildTime is set via ldflags at release build time.
var BuildTime = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("JSContext MCP Server\n")
		fmt.Printf("Version: %s\n", mcp.ServerVersion)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		fmt.Printf("Vector Extension: %v\n", storage.VectorExtensionAvailable)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
