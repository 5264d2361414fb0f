// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docharvest/internal/ledger"
	"github.com/pdiddy/docharvest/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show the outcomes of one run",
	Long: `History reads the run ledger written by harvest --ledger. Without
arguments it lists recent runs, newest first. Given a run ID (or a unique
prefix of one) it lists that run's documents. With --url it shows every
recorded outcome for one document URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum runs to list (default: ledger.max_results or 20)")
	historyCmd.Flags().String("url", "", "show outcomes for this document URL")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	lc := ledgerConfig(viper.GetViper())
	if lc.Path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger.path")
	}
	store, err := ledger.Open(lc)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if u, _ := cmd.Flags().GetString("url"); u != "" {
		recs, err := store.URLHistory(ctx, u)
		if err != nil {
			return err
		}
		printRecords(out, recs, true)
		return nil
	}

	if len(args) == 1 {
		recs, err := store.Outcomes(ctx, args[0])
		if err != nil {
			return err
		}
		printRecords(out, recs, false)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-8s  %5s  %5s  %6s  %s\n",
		"Run", "Started", "Duration", "Total", "Done", "Failed", "Terms")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %5d  %5d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Total, r.Done, r.Failed, strings.Join(r.Terms, ", "))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

func printRecords(w io.Writer, recs []ledger.Record, withRun bool) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No outcomes found.")
		return
	}
	for _, r := range recs {
		prefix := ""
		if withRun {
			prefix = fmt.Sprintf("[%s %s] ", r.RunID[:8], r.StartedAt.Local().Format("2006-01-02 15:04"))
		}
		switch {
		case r.State != types.StateDone:
			fmt.Fprintf(w, "%sfailed:  %s (%s: %s)\n", prefix, r.SourceURL, r.Kind, r.Reason)
		case r.Repaired:
			fmt.Fprintf(w, "%sdone:    %s -> %s (%d highlights, repaired)\n", prefix, r.SourceURL, r.OutputPath, r.Highlights)
		default:
			fmt.Fprintf(w, "%sdone:    %s -> %s (%d highlights)\n", prefix, r.SourceURL, r.OutputPath, r.Highlights)
		}
	}
}
