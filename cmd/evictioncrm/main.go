// Command evictioncrm serves the eviction case API and provides the seed and
// token maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evictioncrm",
		Short:         "Eviction consultation case management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), seedCmd(), tokenCmd())
	return root
}
