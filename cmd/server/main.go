// Command oidcop runs the OpenID Connect provider and its operator tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set with -ldflags "-X main.version=..."

func main() {
	var envFiles []string

	root := &cobra.Command{
		Use:           "oidcop",
		Short:         "OpenID Connect provider",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment (missing files are skipped)")

	root.AddCommand(
		newServeCmd(&envFiles),
		newKeygenCmd(),
		newSessionCmd(&envFiles),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
