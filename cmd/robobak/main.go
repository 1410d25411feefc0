// Command robobak pulls backups from FANUC robot controllers over FTP,
// batched into numbered jobs.
//
// Exit codes: 0 every robot succeeded; 1 one or more robots failed or the
// run was cancelled; 2 invalid job configuration or input.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/shopfloor-tools/robobak/config"
	"github.com/shopfloor-tools/robobak/internal/bootstrap"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

// errInvalidInput marks configuration or usage problems (exit code 2).
// errRunFailed marks a run where at least one robot did not succeed (exit
// code 1).
var (
	errInvalidInput = errors.New("invalid input")
	errRunFailed    = errors.New("run failed")
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	os.Exit(run())
}

func run() int {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		return exitInvalid
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		return exitInvalid
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		return exitInvalid
	}

	// CTRL+C cancels the run cooperatively; workers stop at their next
	// attempt boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		switch {
		case errors.Is(runErr, errRunFailed):
			return exitFailed
		case errors.Is(runErr, errInvalidInput):
			logger.Error("invalid input", "command", cmdName, "error", runErr)
			return exitInvalid
		default:
			logger.Error("command failed", "command", cmdName, "error", runErr)
			return exitFailed
		}
	}
	return exitOK
}

func commands() map[string]command {
	return map[string]command{
		"run": {
			name:        "run",
			description: "Run the backup job with the given job number",
			run:         runBackupJob,
		},
		"jobs": {
			name:        "jobs",
			description: "List, set, or delete saved job definitions",
			run:         runJobs,
		},
		"history": {
			name:        "history",
			description: "Show recorded runs for a job",
			run:         runHistory,
		},
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: robobak <command> [arguments]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, cmds[name].description)
	}
}
