package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/synth/internal/harness"
	"github.com/roach88/synth/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Latest   bool   // only the most recent run
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string           `json:"run_id"`
	Seq           int64            `json:"seq"`
	Seed          uint64           `json:"seed"`
	Now           string           `json:"now"`
	Records       int              `json:"records"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []store.Mismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Regenerate stored runs and verify determinism",
		Long: `Regenerate stored runs from their schema JSON, "now", seed and options,
and compare every record hash with the stored one.

Without --run or --latest every run in the store is replayed, in the order
the runs were written.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  synth replay --db ./runs.db
  synth replay --db ./runs.db --run 01912d6e-...
  synth replay --db ./runs.db --latest --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config store.path)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "replay the most recent run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().Store.Path
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "--db is required (or set store.path in the config file)")
	}
	if opts.RunID != "" && opts.Latest {
		return NewExitError(ExitCommandError, "--run and --latest are mutually exclusive")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := opts.selectRuns(ctx, st)
	if err != nil {
		return err
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	logger := opts.logger().Named("replay")
	for _, run := range runs {
		res, err := harness.Replay(ctx, st, run, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		formatter.VerboseLog("Replayed run %s: %d record(s)", run.ID, res.Compared)

		result.Runs = append(result.Runs, ReplayRunResult{
			RunID:         run.ID,
			Seq:           run.Seq,
			Seed:          run.Seed,
			Now:           run.Now.UTC().Format(time.RFC3339Nano),
			Records:       res.Compared,
			Deterministic: res.Deterministic(),
			Mismatches:    res.Mismatches,
		})
		result.AllDeterministic = result.AllDeterministic && res.Deterministic()
	}

	if opts.Format == "json" {
		var failure *CLIError
		if !result.AllDeterministic {
			failure = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
		}
		if err := formatter.Report(result, failure); err != nil {
			return err
		}
	} else {
		writeReplayText(cmd.OutOrStdout(), result, opts.Verbose)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// selectRuns resolves --run, --latest or every run, in seq order. An empty
// store selects nothing.
func (o *ReplayOptions) selectRuns(ctx context.Context, st *store.Store) ([]store.Run, error) {
	switch {
	case o.RunID != "":
		run, err := st.GetRun(ctx, o.RunID)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load run", err)
		}
		return []store.Run{run}, nil
	case o.Latest:
		run, err := st.LatestRun(ctx)
		if errors.Is(err, store.ErrRunNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load latest run", err)
		}
		return []store.Run{run}, nil
	default:
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return runs, nil
	}
}

func writeReplayText(w io.Writer, result ReplayResult, verbose bool) {
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		fmt.Fprintf(w, "%s Run %d: %s\n", mark(run.Deterministic), run.Seq, run.RunID)
		fmt.Fprintf(w, "  Records: %d\n", run.Records)
		if verbose {
			fmt.Fprintf(w, "  Seed: %d\n  Now: %s\n", run.Seed, run.Now)
		}
		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "  Mismatch: %s[%d] stored=%s replayed=%s\n",
				m.Collection, m.Index, orMissing(m.Stored), orMissing(m.Replayed))
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
	} else {
		fmt.Fprintln(w, "✗ Determinism verification failed")
	}
}

// mark renders a pass/fail verdict.
func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func orMissing(hash string) string {
	if hash == "" {
		return "(missing)"
	}
	return hash
}
