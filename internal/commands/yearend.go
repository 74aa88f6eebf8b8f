package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/yearend"
)

func newYearEndCommand(dir *string) *cobra.Command {
	yearEndCmd := &cobra.Command{
		Use:   "yearend",
		Short: "Close an accounting year",
	}
	yearEndCmd.AddCommand(newYearEndPreviewCommand(dir), newYearEndCloseCommand(dir))
	return yearEndCmd
}

type yearEndFlags struct {
	start       string
	numAccounts int
}

func (f *yearEndFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day of the new year, YYYY-MM-DD (default: one year after the last close)")
	cmd.Flags().IntVar(&f.numAccounts, "num-accounts", 0, "maximum number of accounts to zero (default from config)")
}

func (f *yearEndFlags) params() (yearend.Params, error) {
	params := yearend.Params{NumAccounts: f.numAccounts}
	if f.start != "" {
		start, err := time.Parse(journal.DateLayout, f.start)
		if err != nil {
			return yearend.Params{}, fmt.Errorf("parsing --start: %w", err)
		}
		params.StartNextYear = &start
	}
	return params, nil
}

func newYearEndPreviewCommand(dir *string) *cobra.Command {
	var flags yearEndFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the year-end journal as JSON without posting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				p, err := a.yearend.Preview(cmd.Context(), params)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newYearEndCloseCommand(dir *string) *cobra.Command {
	var flags yearEndFlags

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Post the year-end journal and record the closing date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				res, err := a.yearend.Close(cmd.Context(), params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Closed year before %s with journal %s\n",
					res.StartNextYear.Format(journal.DateLayout), res.Journal.ExtKey)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
