package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

func newPostmonthCommand(dir *string) *cobra.Command {
	postmonthCmd := &cobra.Command{
		Use:   "postmonth",
		Short: "Open, close and list postmonths",
	}
	postmonthCmd.AddCommand(
		newPostmonthOpenCommand(dir),
		newPostmonthCloseCommand(dir),
		newPostmonthListCommand(dir),
	)
	return postmonthCmd
}

func parsePostmonths(args []string) ([]int, error) {
	pms := make([]int, len(args))
	for i, arg := range args {
		pm, err := postmonth.Parse(arg)
		if err != nil {
			return nil, err
		}
		pms[i] = pm
	}
	return pms, nil
}

func newPostmonthOpenCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "open <MM-YYYY>...",
		Short: "Open postmonths for posting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pms, err := parsePostmonths(args)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				for _, pm := range pms {
					if _, err := a.postmonths.Create(cmd.Context(), pm, model.PostmonthActive); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", postmonth.External(pm))
				}
				return nil
			})
		},
	}
}

func newPostmonthCloseCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <MM-YYYY>...",
		Short: "Close postmonths; nothing is closed when any of them is unknown",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pms, err := parsePostmonths(args)
			if err != nil {
				return err
			}
			changes := make([]postmonth.Change, len(pms))
			for i, pm := range pms {
				changes[i] = postmonth.Change{Postmonth: strconv.Itoa(pm), Status: model.PostmonthClosed}
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				n, err := a.postmonths.UpdateFromList(cmd.Context(), changes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Closed %d postmonths\n", n)
				return nil
			})
		},
	}
}

func newPostmonthListCommand(dir *string) *cobra.Command {
	var from string
	var number, length int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List postmonths from the last closed year onwards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var start int
			if from != "" {
				var err error
				if start, err = postmonth.Parse(from); err != nil {
					return err
				}
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				res, err := a.postmonths.List(cmd.Context(), start, page.New(number, length, postmonth.DefaultPageLength))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				fmt.Fprintln(tw, "POSTMONTH\tSTATUS")
				for _, pm := range res.Items {
					fmt.Fprintf(tw, "%s\t%s\n", postmonth.External(pm.Postmonth), pm.Status.Name())
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printPageFooter(out, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first postmonth to list")
	addPageFlags(cmd, &number, &length)
	return cmd
}
