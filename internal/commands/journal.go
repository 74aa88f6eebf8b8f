package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

func newJournalCommand(dir *string) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Submit and inspect journals",
	}
	journalCmd.AddCommand(
		newJournalSubmitCommand(dir),
		newJournalCreateCommand(dir),
		newJournalPostCommand(dir),
		newJournalShowCommand(dir),
		newJournalListCommand(dir),
		newJournalPostingsCommand(dir),
	)
	return journalCmd
}

// readPayload reads a JSON journal from a file, or stdin for "-".
func readPayload(cmd *cobra.Command, path string) (journal.Payload, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return journal.Payload{}, fmt.Errorf("opening journal: %w", err)
		}
		defer f.Close()
		r = f
	}
	return journal.ParsePayload(r)
}

func newJournalSubmitCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <journal.json|->",
		Short: "Create and post a journal in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				j, err := a.journals.Submit(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted journal %d with %d postings\n", j.ID, len(j.Postings))
				return nil
			})
		},
	}
}

func newJournalCreateCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <journal.json|->",
		Short: "Store a journal without posting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				j, err := a.journals.Create(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created journal %d\n", j.ID)
				return nil
			})
		},
	}
}

func newJournalPostCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Post an unprocessed journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid journal id %q", args[0])
			}
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				j, err := a.journals.Post(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted journal %d\n", j.ID)
				return nil
			})
		},
	}
}

func newJournalShowCommand(dir *string) *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "show <extkey>",
		Short: "Show a journal and its postings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				var j model.Journal
				var err error
				if byID {
					id, perr := strconv.ParseInt(args[0], 10, 64)
					if perr != nil {
						return fmt.Errorf("invalid journal id %q", args[0])
					}
					j, err = a.journals.ByID(cmd.Context(), id)
				} else {
					j, err = a.journals.ByKey(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return printJournal(cmd.OutOrStdout(), j)
			})
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "look the journal up by id instead of external key")
	return cmd
}

func printJournal(w io.Writer, j model.Journal) error {
	fmt.Fprintf(w, "journal %d", j.ID)
	if j.ExtKey != "" {
		fmt.Fprintf(w, " (%s)", j.ExtKey)
	}
	fmt.Fprintf(w, ": %s\n", j.Status.Name())
	return printPostings(w, j.Postings)
}

func printPostings(w io.Writer, postings []model.Posting) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ACCOUNT\tPOSTMONTH\tVALUE DATE\tD/C\tAMOUNT\tCURRENCY")
	for _, p := range postings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", p.AccountName, postmonth.External(p.Postmonth),
			p.ValueDate.Format(journal.DateLayout), p.DebitCredit, p.Amount, p.Currency)
	}
	return tw.Flush()
}

func newJournalListCommand(dir *string) *cobra.Command {
	var number, length int

	cmd := &cobra.Command{
		Use:   "list <search>",
		Short: "List journals whose external key contains search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				res, err := a.journals.Search(cmd.Context(), args[0], page.New(number, length, journal.DefaultPageLength))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tEXTKEY\tSTATUS")
				for _, j := range res.Items {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", j.ID, j.ExtKey, j.Status.Name())
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printPageFooter(out, res)
				return nil
			})
		},
	}

	addPageFlags(cmd, &number, &length)
	return cmd
}

func newJournalPostingsCommand(dir *string) *cobra.Command {
	var month string
	var number, length int

	cmd := &cobra.Command{
		Use:   "postings <account>",
		Short: "List the postings of an account, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dir, cmd.ErrOrStderr(), func(a *app) error {
				res, err := a.journals.PostingsForAccount(cmd.Context(), args[0], month,
					page.New(number, length, journal.DefaultPageLength))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := printPostings(out, res.Items); err != nil {
					return err
				}
				printPageFooter(out, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only postings of this MM-YYYY postmonth")
	addPageFlags(cmd, &number, &length)
	return cmd
}
