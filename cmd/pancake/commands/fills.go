package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"pancakeswap-go/internal/paper"
)

// fills: list the journaled fills, optionally filtered by status.
func fillsCmd() *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "fills",
		Short: "List fills recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := paper.LoadJournal(cfg.Paper.FillsPath)
			if err != nil {
				return err
			}
			printFills(os.Stdout, ledger, statuses...)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only show fills with these statuses")
	return cmd
}

func printFills(w io.Writer, ledger *paper.Ledger, statuses ...string) {
	for _, f := range ledger.Snapshot(statuses...) {
		mode := "live"
		if f.DryRun {
			mode = "dry"
		}
		fmt.Fprintf(w, "%s %-4s %-9s %s -> %s qty=%s quoted=%s %s\n",
			f.Ts.Format("2006-01-02 15:04:05"), mode, f.Status, f.Input, f.Output, f.Qty, f.QuotedOut, f.TxHash)
	}

	counts := ledger.Counts()
	keys := make([]string, 0, len(counts))
	for status := range counts {
		keys = append(keys, status)
	}
	sort.Strings(keys)
	for _, status := range keys {
		fmt.Fprintf(w, "%s: %d\n", status, counts[status])
	}
}
