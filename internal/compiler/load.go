package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/synth/internal/graph"
	"github.com/roach88/synth/internal/schema"
)

// Document is a loaded schema document.
type Document struct {
	// Path is the file or directory the document was loaded from.
	Path string

	// Value is the unified CUE value of every file in the document.
	Value cue.Value

	// Files is the number of source files.
	Files int
}

// JSON renders the document as JSON. LoadBytes reads it back.
func (d *Document) JSON() ([]byte, error) {
	data, err := d.Value.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return data, nil
}

// Decode decodes the document's namespace.
func (d *Document) Decode() (*schema.Namespace, []error) {
	return DecodeNamespace(d.Value)
}

// Compile decodes and compiles the document with now as the instant for
// absent date/time bounds. Decode errors are all returned; compilation
// stops at the first error.
func (d *Document) Compile(now time.Time) (*graph.Namespace, []error) {
	ns, errs := d.Decode()
	if len(errs) > 0 {
		return nil, errs
	}
	compiled, err := (&Compiler{Now: func() time.Time { return now }}).CompileNamespace(ns)
	if err != nil {
		return nil, []error{err}
	}
	return compiled, nil
}

// LoadDocument loads a schema from a directory of .cue files or from a
// single .cue, .json, .yaml or .yml file.
func LoadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema not found: %w", err)
	}
	if info.IsDir() {
		return loadDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".cue", ".json":
		return LoadBytes(path, data)
	case ".yaml", ".yml":
		return loadYAML(path, data)
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q (want .cue, .json, .yaml or .yml)", ext)
	}
}

// LoadBytes compiles CUE or JSON source.
func LoadBytes(name string, data []byte) (*Document, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Document{Path: name, Value: v, Files: 1}, nil
}

func loadYAML(name string, data []byte) (*Document, error) {
	file, err := cueyaml.Extract(name, data)
	if err != nil {
		return nil, formatCUEError(err)
	}
	v := cuecontext.New().BuildFile(file)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Document{Path: name, Value: v, Files: 1}, nil
}

func loadDir(dir string) (*Document, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Document{Path: dir, Value: v, Files: len(files)}, nil
}

// FindCUEFiles returns the .cue files directly in dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
