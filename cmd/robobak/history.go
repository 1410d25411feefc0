package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopfloor-tools/robobak/internal/bootstrap"
	"github.com/shopfloor-tools/robobak/internal/util"
)

// runHistory shows recorded runs: `robobak history <job> [-limit N]`.
func runHistory(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "maximum number of runs to show")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: usage: robobak history <job-number> [-limit N]", errInvalidInput)
	}
	if *limit <= 0 {
		return fmt.Errorf("%w: -limit must be positive", errInvalidInput)
	}

	history, err := bootstrap.RunHistory(ctx.Config.Store)
	if err != nil {
		return err
	}
	if history == nil {
		return fmt.Errorf("%w: run history is disabled; set STORE_HISTORY_PATH", errInvalidInput)
	}
	defer func() { _ = history.Close() }()

	runs, err := history.ListRuns(ctx.Ctx, fs.Arg(0), *limit)
	if err != nil {
		return fmt.Errorf("list runs for job %s: %w", fs.Arg(0), err)
	}
	if len(runs) == 0 {
		fmt.Printf("no recorded runs for job %s\n", fs.Arg(0))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, run := range runs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Run %s (%s) started %s -> %s\n",
			run.RunID, run.BackupType, run.StartedAt.Format(time.RFC3339), run.RunDir)
		fmt.Fprintln(w, "ROBOT\tADDRESS\tSTATUS\tATTEMPTS\tBYTES")
		for _, o := range run.Outcomes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				o.Label, o.Address, o.FinalStatus, o.AttemptsUsed, util.FormatBytes(o.BytesTransferred))
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
