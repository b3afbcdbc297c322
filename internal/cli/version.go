package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/script"
)

// DefaultVersion is reported when SHORTCUTS_VERSION is not set
const DefaultVersion = "v0.1.0"

// NewVersionCmd creates a new version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Shortcuts",
		Long:  `Print the version number of the Shortcuts CLI and the script host API version.`,
		Run: func(cmd *cobra.Command, args []string) {
			version := os.Getenv("SHORTCUTS_VERSION")
			if version == "" {
				version = DefaultVersion
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shortcuts CLI %s (host API %d)\n", version, script.HostAPIVersion)
		},
	}

	return cmd
}
