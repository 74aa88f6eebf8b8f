package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "gledger",
		Short:   "Double-entry bookkeeping ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "ledger directory holding gledger.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newServeCommand(&dir))
	rootCmd.AddCommand(newAccountCommand(&dir))
	rootCmd.AddCommand(newJournalCommand(&dir))
	rootCmd.AddCommand(newPostmonthCommand(&dir))
	rootCmd.AddCommand(newYearEndCommand(&dir))

	return rootCmd
}
