package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/page"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func addPageFlags(cmd *cobra.Command, number, length *int) {
	cmd.Flags().IntVar(number, "page", 1, "page number")
	cmd.Flags().IntVar(length, "pagelength", 0, "entries per page, -1 for all")
}

func printPageFooter[T any](w io.Writer, p page.Page[T]) {
	fmt.Fprintf(w, "page %d of %d, %d total\n", p.Number, p.NumPages(), p.Total)
}
