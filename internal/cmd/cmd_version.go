package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "version",
		Short: "Version information",
		Run:   cmdVersion,
	}
	return c
}

func cmdVersion(cmd *cobra.Command, args []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", BuildDetails())
}

// BuildDetails returns the version, commit and build date set at build time
func BuildDetails() string {
	if version == "" {
		return `
musicserv (unknown version)

To build with version information use:
> go build -ldflags "-X github.com/dosco/musicserv/internal/cmd.version=v1.0.0"
`
	}

	return fmt.Sprintf(`
musicserv %v

Commit SHA-1          : %v
Commit timestamp      : %v
Go version            : %v
`,
		version,
		commit,
		date,
		runtime.Version())
}
