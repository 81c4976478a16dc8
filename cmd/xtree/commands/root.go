package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden by -ldflags "-X".
var Version = "dev"

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xtree",
		Short: "xtree drives an arena backed red-black tree of float64 keys",
		Long: `xtree drives an arena backed red-black tree of float64 keys.

Commands:
  apply     batch inserts, deletes and searches, then dump the tree
  repl      interactive session reading commands from stdin

Settings come from the flags, XTREE_ env vars (XTREE_LOG_LEVEL,
XTREE_LOG_FORMAT, XTREE_ORDER, XTREE_OUTPUT, XTREE_DESC, XTREE_METRICS)
and the --config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	registerConfigFlags(rootCmd)

	rootCmd.AddCommand(NewApplyCommand())
	rootCmd.AddCommand(NewReplCommand())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xtree %s\n", Version)
		},
	}
}
