package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopfloor-tools/robobak/internal/bootstrap"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// runJobs dispatches `robobak jobs <list|set|delete> ...`.
func runJobs(ctx *commandContext, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: usage: robobak jobs <list|set|delete> [arguments]", errInvalidInput)
	}

	store, closeStore, err := bootstrap.JobStore(ctx.Config.Store)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	defer func() { _ = closeStore() }()

	switch args[0] {
	case "list":
		return listJobs(ctx, store)
	case "set":
		return setJob(ctx, store, args[1:])
	case "delete":
		return deleteJob(ctx, store, args[1:])
	default:
		return fmt.Errorf("%w: unknown jobs subcommand %q", errInvalidInput, args[0])
	}
}

func listJobs(ctx *commandContext, store core.JobConfigStore) error {
	jobs, err := store.List(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("no saved jobs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tTYPE\tROBOTS\tDESTINATION")
	for _, job := range jobs {
		labels := make([]string, 0, len(job.Targets))
		for _, target := range job.Targets {
			labels = append(labels, target.Label())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			job.JobID, job.BackupType, strings.Join(labels, " "), job.DestinationFolder)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write job list: %w", err)
	}
	return nil
}

func setJob(ctx *commandContext, store core.JobConfigStore, args []string) error {
	fs := flag.NewFlagSet("jobs set", flag.ContinueOnError)
	folder := fs.String("folder", "", "destination folder for the job")
	backupType := fs.String("type", "MD", "backup type (MD or AOA)")
	targets := fs.String("targets", "", "robot targets (space-separated last octets or full IPs)")
	numbers := fs.String("numbers", "", "robot numbers matching -targets (space-separated)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: usage: robobak jobs set <job-number> -folder DIR -targets \"20 21\" [-numbers \"1 2\"] [-type MD|AOA]", errInvalidInput)
	}

	specs, err := parseTargets(*targets, *numbers)
	if err != nil {
		return err
	}
	var bt model.BackupType
	if err := bt.UnmarshalText([]byte(*backupType)); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}

	job := &model.JobDefinition{
		JobID:             fs.Arg(0),
		Targets:           specs,
		BackupType:        bt,
		DestinationFolder: *folder,
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if err := store.Save(ctx.Ctx, job); err != nil {
		return fmt.Errorf("save job %s: %w", job.JobID, err)
	}

	ctx.Logger.Info("job saved", "job_id", job.JobID, "robots", len(job.Targets))
	return nil
}

func deleteJob(ctx *commandContext, store core.JobConfigStore, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: robobak jobs delete <job-number>", errInvalidInput)
	}
	if err := store.Delete(ctx.Ctx, args[0]); err != nil {
		return fmt.Errorf("delete job %s: %w", args[0], err)
	}
	ctx.Logger.Info("job deleted", "job_id", args[0])
	return nil
}
