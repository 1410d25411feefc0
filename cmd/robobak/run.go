package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopfloor-tools/robobak/internal/adapters/ftp"
	"github.com/shopfloor-tools/robobak/internal/adapters/progress"
	"github.com/shopfloor-tools/robobak/internal/bootstrap"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
	"github.com/shopfloor-tools/robobak/internal/service"
	"github.com/shopfloor-tools/robobak/internal/util"
)

// runBackupJob executes `robobak run <job> [flags]`. The job definition is
// loaded from the store; flags override individual fields and -save writes
// the overridden definition back.
func runBackupJob(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	folder := fs.String("folder", "", "override the destination folder")
	backupType := fs.String("type", "", "override the backup type (MD or AOA)")
	targets := fs.String("targets", "", "override robot targets (space-separated last octets or full IPs)")
	numbers := fs.String("numbers", "", "robot numbers matching -targets (space-separated)")
	save := fs.Bool("save", false, "save the overridden definition back to the job store")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: usage: robobak run <job-number> [flags]", errInvalidInput)
	}
	jobID := fs.Arg(0)

	store, closeStore, err := bootstrap.JobStore(ctx.Config.Store)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	defer func() { _ = closeStore() }()

	job, err := loadOrBuildJob(ctx, store, jobID, jobOverrides{
		folder:     *folder,
		backupType: *backupType,
		targets:    *targets,
		numbers:    *numbers,
	})
	if err != nil {
		return err
	}
	if *save {
		if err := store.Save(ctx.Ctx, job); err != nil {
			return fmt.Errorf("save job %s: %w", jobID, err)
		}
	}

	history, err := bootstrap.RunHistory(ctx.Config.Store)
	if err != nil {
		return err
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	reporter := progress.NewSlogReporter(ctx.Logger)
	defer reporter.Close()

	orch, err := service.NewOrchestrator(service.OrchestratorOptions{
		Dialer:   ftp.NewDialer(ctx.Config.FTP),
		Reporter: reporter,
		History:  history,
		Logger:   ctx.Logger,
		Backup:   ctx.Config.Backup,
	})
	if err != nil {
		return err
	}

	result, err := orch.RunJob(ctx.Ctx, job)
	if err != nil {
		if errors.Is(err, model.ErrDestinationWrite) {
			return fmt.Errorf("run job %s: %w", jobID, err)
		}
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}

	if err := printSummary(result); err != nil {
		return err
	}
	if !result.AllSucceeded() {
		return errRunFailed
	}
	return nil
}

type jobOverrides struct {
	folder     string
	backupType string
	targets    string
	numbers    string
}

func (o jobOverrides) definesJob() bool {
	return o.folder != "" && o.targets != "" && o.backupType != ""
}

// loadOrBuildJob fetches the stored definition and applies overrides. A job
// unknown to the store can still run when the flags define it completely.
func loadOrBuildJob(
	ctx *commandContext,
	store core.JobConfigStore,
	jobID string,
	overrides jobOverrides,
) (*model.JobDefinition, error) {
	job, err := store.Load(ctx.Ctx, jobID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrJobNotFound):
		if !overrides.definesJob() {
			return nil, fmt.Errorf(
				"%w: no saved definition for job %s; pass -folder, -targets, and -type (use -save to store them)",
				errInvalidInput, jobID)
		}
		job = &model.JobDefinition{JobID: jobID}
	default:
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	if err := applyOverrides(job, overrides); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return job, nil
}

func applyOverrides(job *model.JobDefinition, overrides jobOverrides) error {
	if overrides.folder != "" {
		job.DestinationFolder = overrides.folder
	}
	if overrides.backupType != "" {
		var bt model.BackupType
		if err := bt.UnmarshalText([]byte(overrides.backupType)); err != nil {
			return fmt.Errorf("%w: %v", errInvalidInput, err)
		}
		job.BackupType = bt
	}
	if overrides.targets != "" {
		targets, err := parseTargets(overrides.targets, overrides.numbers)
		if err != nil {
			return err
		}
		job.Targets = targets
	} else if overrides.numbers != "" {
		return fmt.Errorf("%w: -numbers requires -targets", errInvalidInput)
	}
	return nil
}

// parseTargets builds target specs from space-separated address and robot
// number lists. The lists must pair up one-to-one when numbers are given.
func parseTargets(targetList, numberList string) ([]model.TargetSpec, error) {
	addrs := strings.Fields(targetList)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: -targets is empty", errInvalidInput)
	}

	var nums []string
	if numberList != "" {
		nums = strings.Fields(numberList)
		if len(nums) != len(addrs) {
			return nil, fmt.Errorf("%w: %d targets but %d robot numbers",
				errInvalidInput, len(addrs), len(nums))
		}
	}

	targets := make([]model.TargetSpec, 0, len(addrs))
	for i, addr := range addrs {
		spec := model.TargetSpec{Address: addr}
		if nums != nil {
			spec.RobotNumber = nums[i]
		}
		targets = append(targets, spec)
	}
	return targets, nil
}

// printSummary renders the per-robot result table every run ends with.
func printSummary(result *model.JobResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "\nJob %s (%s) -> %s in %s\n",
		result.JobID, result.BackupType, result.RunDir,
		util.FormatDuration(result.FinishedAt.Sub(result.StartedAt)))
	fmt.Fprintln(w, "ROBOT\tADDRESS\tSTATUS\tATTEMPTS\tBYTES")
	for _, o := range result.Outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			o.Label, o.Address, o.FinalStatus, o.AttemptsUsed, util.FormatBytes(o.BytesTransferred))
	}
	if result.Cancelled {
		fmt.Fprintln(w, "\nrun cancelled before all robots finished")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
