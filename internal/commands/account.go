package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

func newAccountCommand(dir *string) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	accountCmd.AddCommand(
		newAccountCreateCommand(dir),
		newAccountShowCommand(dir),
		newAccountListCommand(dir),
		newAccountUpdateCommand(dir),
		newAccountImportCommand(dir),
		newAccountExportCommand(dir),
	)
	return accountCmd
}

func newAccountCreateCommand(dir *string) *cobra.Command {
	var role, parent, description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				acct, err := a.accounts.Create(cmd.Context(), accounts.CreateParams{
					Name:        args[0],
					Role:        r,
					Description: description,
					ParentName:  parent,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s\n", acct.Role.Name(), acct.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "account role: I, E, A or L (required)")
	_ = cmd.MarkFlagRequired("role")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func newAccountShowCommand(dir *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an account and its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				return showAccount(cmd.Context(), cmd.OutOrStdout(), a, args[0], month)
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "also show the subtree balance at the end of this MM-YYYY postmonth")
	return cmd
}

func showAccount(ctx context.Context, out io.Writer, a *app, name, month string) error {
	acct, err := a.accounts.ByName(ctx, name)
	if err != nil {
		return err
	}
	balance, err := a.accounts.CurrentBalance(ctx, acct)
	if err != nil {
		return err
	}
	children, err := a.accounts.Children(ctx, acct)
	if err != nil {
		return err
	}

	tw := newTable(out)
	fmt.Fprintf(tw, "name:\t%s\n", acct.Name)
	fmt.Fprintf(tw, "role:\t%s (%s)\n", acct.Role.Name(), acct.DebitCredit())
	if parent, ok, err := a.accounts.Parent(ctx, acct); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(tw, "parent:\t%s\n", parent.Name)
	}
	if acct.Description != "" {
		fmt.Fprintf(tw, "description:\t%s\n", acct.Description)
	}
	fmt.Fprintf(tw, "balance:\t%d\n", balance)
	if month != "" {
		pm, err := postmonth.Internal(month)
		if err != nil {
			return err
		}
		ultimo, err := a.accounts.BalanceUltimo(ctx, acct, pm)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ultimo %s:\t%d\n", postmonth.External(pm), ultimo)
	}
	for _, c := range children {
		fmt.Fprintf(tw, "child:\t%s\n", c.Name)
	}
	return tw.Flush()
}

func newAccountListCommand(dir *string) *cobra.Command {
	var search string
	var number, length int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, most recently changed first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				res, err := a.accounts.Search(cmd.Context(), search, page.New(number, length, accounts.DefaultPageLength))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				fmt.Fprintln(tw, "NAME\tROLE\tDESCRIPTION")
				for _, acct := range res.Items {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", acct.Name, acct.Role.Name(), acct.Description)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printPageFooter(out, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "match name or description")
	addPageFlags(cmd, &number, &length)
	return cmd
}

func newAccountUpdateCommand(dir *string) *cobra.Command {
	var role, parent, description string

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change the role, parent or description of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := accounts.UpdateParams{ParentName: parent}
			if cmd.Flags().Changed("role") {
				r, err := model.ParseRole(role)
				if err != nil {
					return err
				}
				params.Role = &r
			}
			if cmd.Flags().Changed("description") {
				params.Description = &description
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				acct, err := a.accounts.Update(cmd.Context(), args[0], params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", acct.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "new role")
	cmd.Flags().StringVar(&parent, "parent", "", "new parent account name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newAccountImportCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <chart.csv>",
		Short: "Create the accounts listed in a chart-of-accounts CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening chart: %w", err)
			}
			defer f.Close()
			entries, err := accounts.ReadChart(f)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				n, err := a.accounts.Import(cmd.Context(), entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", n)
				return nil
			})
		},
	}
}

func newAccountExportCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [chart.csv]",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				entries, err := a.accounts.Export(cmd.Context())
				if err != nil {
					return err
				}
				if len(args) == 0 {
					return accounts.WriteChart(cmd.OutOrStdout(), entries)
				}
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating chart: %w", err)
				}
				if err := accounts.WriteChart(f, entries); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}
