package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue/token"

	"github.com/roach88/synth/internal/compiler"
	"github.com/roach88/synth/internal/graph"
	"github.com/roach88/synth/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast keeps only the first error.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every decode error.
	LoadModeCollectAll
)

// LoadResult contains a loaded, decoded and compiled schema.
type LoadResult struct {
	Document  *compiler.Document
	Schema    *schema.Namespace
	Namespace *graph.Namespace
	FileCount int
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema loads, decodes and compiles a schema file or directory with
// now as the instant for absent date/time bounds.
// A nil result means nothing could be loaded; a non-nil result with errors
// means the document loaded but did not decode or compile.
func LoadSchema(path string, now time.Time, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}}
	}

	if info.IsDir() {
		files, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
	}

	doc, err := compiler.LoadDocument(path)
	if err != nil {
		loadErr := convertCompileError(err, "loading schema")
		loadErr.Code = ErrCodeLoadFailed
		return nil, []error{loadErr}
	}

	result := &LoadResult{Document: doc, FileCount: doc.Files}

	ns, decodeErrs := doc.Decode()
	if len(decodeErrs) > 0 {
		return result, limit(convertAll(decodeErrs, "decoding schema"), mode)
	}
	result.Schema = ns

	compiled, err := (&compiler.Compiler{Now: func() time.Time { return now }}).CompileNamespace(ns)
	if err != nil {
		return result, []error{convertCompileError(err, "compiling schema")}
	}
	result.Namespace = compiled

	return result, nil
}

func convertAll(errs []error, context string) []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = convertCompileError(err, context)
	}
	return out
}

func limit(errs []error, mode LoadMode) []error {
	if mode == LoadModeFailFast && len(errs) > 1 {
		return errs[:1]
	}
	return errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Field != "" && compileErr.Field != "cue" {
			msg = compileErr.Field + ": " + msg
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // Schema load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Run store error
	ErrCodeWriteFailed = "E007" // File write error

	// Content errors
	ErrCodeContentType = "E101" // Unknown or missing content type
	ErrCodeDateTime    = "E102" // Invalid date_time content
	ErrCodeNumber      = "E103" // Invalid number content
	ErrCodeArray       = "E104" // Invalid array content
	ErrCodeCollection  = "E105" // Missing or malformed collection block

	// Generation errors
	ErrCodeGenerate = "E201" // Sampling failed
)

// MapFieldToErrorCode maps a compiler error field path to an error code by
// its last segment.
func MapFieldToErrorCode(field string) string {
	if field == "collection" {
		return ErrCodeCollection
	}
	last := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		last = field[i+1:]
	}
	switch last {
	case "type":
		return ErrCodeContentType
	case "format", "subtype", "begin", "end":
		return ErrCodeDateTime
	case "constant", "range", "low", "high":
		return ErrCodeNumber
	case "length", "content":
		return ErrCodeArray
	default:
		return ErrCodeGeneric
	}
}
