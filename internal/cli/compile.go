package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/synth/internal/config"
	"github.com/roach88/synth/internal/graph"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // schema JSON output path
	Now    string // RFC 3339 instant for absent date/time bounds
}

// CollectionSummary describes one compiled collection.
type CollectionSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Node string `json:"node"`
}

// CompilationResult lists the compiled collections.
type CompilationResult struct {
	Files       int                 `json:"files"`
	Collections []CollectionSummary `json:"collections"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Compile a schema and list its collections",
		Long: `Load a schema, decode every collection and compile it to a generator.

<schema> is a directory of .cue files or a single .cue, .json, .yaml or
.yml file whose root holds "collection: <name>: <content>".

Exit codes:
  0 - Schema compiled
  2 - Load or compile error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the schema as JSON to this file")
	cmd.Flags().StringVar(&opts.Now, "now", "", "RFC 3339 instant for absent date/time bounds (default: config now, else wall clock)")

	return cmd
}

func runCompile(opts *CompileOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	now, err := resolveNow(opts.Now, opts.config())
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	loadResult, loadErrors := LoadSchema(schemaPath, now, LoadModeCollectAll)
	if loadResult == nil {
		first := asCLIError(loadErrors[0])
		return outputCompileError(formatter, first.Code, first.Message, nil)
	}

	formatter.VerboseLog("Loaded %d file(s) from %s", loadResult.FileCount, schemaPath)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := summarize(loadResult)
	for _, c := range result.Collections {
		formatter.VerboseLog("Compiled collection: %s", c.Name)
	}

	if opts.Output != "" {
		if err := writeSchemaJSON(loadResult, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeCompileListing(formatter.Writer, result, opts.Output)
	return nil
}

// resolveNow picks the flag value, then the config value, then the wall
// clock.
func resolveNow(flag string, cfg *config.Config) (time.Time, error) {
	if flag != "" {
		t, err := time.Parse(time.RFC3339Nano, flag)
		if err != nil {
			return time.Time{}, fmt.Errorf("--now must be an RFC 3339 time: %w", err)
		}
		return t, nil
	}
	t, ok, err := cfg.NowTime()
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return t, nil
	}
	return time.Now(), nil
}

func summarize(r *LoadResult) CompilationResult {
	out := CompilationResult{Files: r.FileCount, Collections: make([]CollectionSummary, 0, len(r.Namespace.Collections))}
	for _, c := range r.Namespace.Collections {
		typeName := ""
		if sc, ok := r.Schema.Collection(c.Name); ok {
			typeName = sc.Content.TypeName()
		}
		out.Collections = append(out.Collections, CollectionSummary{
			Name: c.Name,
			Type: typeName,
			Node: graph.Describe(c.Node),
		})
	}
	return out
}

func writeCompileListing(w io.Writer, result CompilationResult, outputFile string) {
	fmt.Fprintf(w, "✓ Compiled %d collection(s) from %d file(s)\n\n", len(result.Collections), result.Files)
	if len(result.Collections) > 0 {
		fmt.Fprintln(w, "Collections:")
		for _, c := range result.Collections {
			fmt.Fprintf(w, "  %s (%s): %s\n", c.Name, c.Type, c.Node)
		}
		fmt.Fprintln(w)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote schema JSON to %s\n", outputFile)
	}
}

// outputCompileError reports one load or compile failure. These are
// command errors (exit 2).
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, code+": "+message)
}

// outputCompileErrors reports every decode error. JSON output carries all
// of them in data and the first as the error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	reported := make([]CLIError, len(errs))
	for i, err := range errs {
		reported[i] = asCLIError(err)
	}
	failed := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Report(reported, &reported[0]); err != nil {
			return err
		}
		return failed
	}

	w := formatter.Writer
	fmt.Fprint(w, "✗ Compilation failed\n\n")
	for i, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n\n", reported[i].Code, reported[i].Message)
	}
	return failed
}

func asCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return CLIError{Code: loadErr.Code, Message: loadErr.Message}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// writeSchemaJSON writes the loaded document as indented JSON. Any format
// compiles back from it, which is how stored runs are replayed.
func writeSchemaJSON(r *LoadResult, filename string) error {
	data, err := r.Document.JSON()
	if err != nil {
		return fmt.Errorf("rendering schema: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("rendering schema: %w", err)
	}
	out.WriteByte('\n')
	if err := os.WriteFile(filename, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
