package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/synth/internal/config"
	"github.com/roach88/synth/internal/sampler"
	"github.com/roach88/synth/internal/store"
	"github.com/roach88/synth/internal/value"
)

// DefaultSize is the number of records per collection when neither the
// flag nor the config sets one.
const DefaultSize = 10

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Seed        uint64
	Size        int
	Retries     int
	Unique      bool
	MaxAttempts int
	Collections []string
	Database    string // run store path; empty disables persistence
	Output      string // sample JSON output path; empty writes to stdout
	Tokens      bool   // dump each record's fragments to stderr
	Now         string
}

// GenerateResult summarizes a generate run for JSON output.
type GenerateResult struct {
	Seed        uint64          `json:"seed"`
	Sample      *sampler.Sample `json:"sample,omitempty"`
	Output      string          `json:"output,omitempty"`
	Collections []GenerateStats `json:"collections"`
}

// GenerateStats are the per-collection counters of a run.
type GenerateStats struct {
	Name     string `json:"name"`
	Records  int    `json:"records"`
	Rejected int    `json:"rejected"`
	Retried  int    `json:"retried"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <schema>",
		Short: "Sample records from a schema",
		Long: `Compile a schema and sample records from every collection.

Output is {"<collection>": [records...]} in schema order. The same schema,
seed, options and --now always produce the same records; with --db the run
is stored so that "synth replay" can verify it later.

Flags override values from the config file.

Exit codes:
  0 - Records generated
  2 - Load, compile, sampling or store error

Examples:
  synth generate ./schema --seed 7 --size 100
  synth generate users.cue --unique --collection users --db runs.db
  synth generate schema.yaml --now 2024-01-01T00:00:00Z --output sample.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "run seed")
	cmd.Flags().IntVar(&opts.Size, "size", DefaultSize, "records per collection")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "restarts of a failed record before the failure surfaces")
	cmd.Flags().BoolVar(&opts.Unique, "unique", false, "reject duplicate records within a collection")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "consecutive duplicate rejections allowed per record (default 64)")
	cmd.Flags().StringSliceVar(&opts.Collections, "collection", nil, "sample only these collections (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the run in this SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the sample JSON to this file")
	cmd.Flags().BoolVar(&opts.Tokens, "tokens", false, "print each record's fragments to stderr")
	cmd.Flags().StringVar(&opts.Now, "now", "", "RFC 3339 instant for absent date/time bounds")

	return cmd
}

// applyConfig fills options whose flags were not set from the config file.
func (o *GenerateOptions) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if cfg.Seed != nil && !changed("seed") {
		o.Seed = *cfg.Seed
	}
	if cfg.Size != nil && !changed("size") {
		o.Size = *cfg.Size
	}
	if cfg.Retries != nil && !changed("retries") {
		o.Retries = *cfg.Retries
	}
	if cfg.Unique != nil && !changed("unique") {
		o.Unique = *cfg.Unique
	}
	if cfg.MaxAttempts != nil && !changed("max-attempts") {
		o.MaxAttempts = *cfg.MaxAttempts
	}
	if cfg.Store.Path != "" && !changed("db") {
		o.Database = cfg.Store.Path
	}
}

func (o *GenerateOptions) samplerOptions() sampler.Options {
	return sampler.Options{
		Seed:        o.Seed,
		Size:        o.Size,
		Retries:     o.Retries,
		Unique:      o.Unique,
		MaxAttempts: o.MaxAttempts,
		KeepTokens:  o.Tokens,
		Collections: o.Collections,
	}
}

func runGenerate(opts *GenerateOptions, schemaPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	cfg := opts.config()
	opts.applyConfig(cmd, cfg)
	logger := opts.logger().Named("generate")

	now, err := resolveNow(opts.Now, cfg)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	loadResult, loadErrors := LoadSchema(schemaPath, now, LoadModeFailFast)
	if len(loadErrors) > 0 {
		first := asCLIError(loadErrors[0])
		return outputCompileError(formatter, first.Code, first.Message, nil)
	}

	sopts := opts.samplerOptions()
	sample, err := sampler.New(loadResult.Namespace, sopts, logger).Run(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeGenerate, err.Error(), nil)
		return WrapExitError(ExitCommandError, "generation failed", err)
	}

	if opts.Tokens {
		writeTokens(formatter.GetErrWriter(), sample)
	}

	var runID string
	if opts.Database != "" {
		run, err := persistRun(cmd, opts.Database, loadResult, sopts, now, sample)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store run", err)
		}
		runID = run.ID
		logger.Info("run stored",
			zap.String("run_id", run.ID),
			zap.Int64("seq", run.Seq),
			zap.String("db", opts.Database))
		formatter.VerboseLog("Stored run %s (seq %d) in %s", run.ID, run.Seq, opts.Database)
	}

	result := GenerateResult{Seed: sample.Seed, Collections: stats(sample)}

	if opts.Output != "" {
		if err := writeSampleJSON(sample, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.Output = opts.Output
		if opts.Format == "json" {
			return formatter.SuccessWithRun(result, runID)
		}
		return formatter.SuccessWithRun(summaryText(result, runID), runID)
	}

	if opts.Format == "json" {
		result.Sample = sample
		return formatter.SuccessWithRun(result, runID)
	}

	data, err := indentedSample(sample)
	if err != nil {
		return WrapExitError(ExitCommandError, "rendering sample", err)
	}
	_, err = formatter.Writer.Write(data)
	return err
}

func persistRun(cmd *cobra.Command, path string, r *LoadResult, opts sampler.Options, now time.Time, sample *sampler.Sample) (store.Run, error) {
	schemaJSON, err := r.Document.JSON()
	if err != nil {
		return store.Run{}, fmt.Errorf("rendering schema: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()

	// Tokens are diagnostics only and never stored.
	opts.KeepTokens = false
	return st.WriteRun(cmd.Context(), store.NewRun(opts, now, schemaJSON), store.RecordsFromSample(sample))
}

func stats(s *sampler.Sample) []GenerateStats {
	out := make([]GenerateStats, len(s.Collections))
	for i, c := range s.Collections {
		out[i] = GenerateStats{
			Name:     c.Name,
			Records:  len(c.Records),
			Rejected: c.Stats.Rejected,
			Retried:  c.Stats.Retried,
		}
	}
	return out
}

func summaryText(r GenerateResult, runID string) string {
	var b strings.Builder
	total := 0
	for _, c := range r.Collections {
		total += c.Records
	}
	fmt.Fprintf(&b, "✓ Generated %d record(s) in %d collection(s) (seed %d)\n", total, len(r.Collections), r.Seed)
	for _, c := range r.Collections {
		fmt.Fprintf(&b, "  %s: %d record(s), %d rejected, %d retried\n", c.Name, c.Records, c.Rejected, c.Retried)
	}
	fmt.Fprintf(&b, "Wrote sample to %s", r.Output)
	if runID != "" {
		fmt.Fprintf(&b, "\nStored run %s", runID)
	}
	return b.String()
}

func indentedSample(s *sampler.Sample) ([]byte, error) {
	data, err := value.Marshal(s.Value())
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeSampleJSON(s *sampler.Sample, filename string) error {
	data, err := indentedSample(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// writeTokens prints one line per record: "<collection>[<index>]: tok tok ...".
func writeTokens(w io.Writer, s *sampler.Sample) {
	for _, c := range s.Collections {
		for _, r := range c.Records {
			parts := make([]string, len(r.Tokens))
			for i, t := range r.Tokens {
				parts[i] = value.TokenString(t)
			}
			fmt.Fprintf(w, "%s[%d]: %s\n", c.Name, r.Index, strings.Join(parts, " "))
		}
	}
}
