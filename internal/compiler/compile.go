package compiler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/synth/internal/chrono"
	"github.com/roach88/synth/internal/graph"
	"github.com/roach88/synth/internal/schema"
)

// Compiler turns schema content into generator nodes.
//
// Now supplies the instant used for absent date/time bounds. It is read
// once per date/time content. Nil means time.Now.
type Compiler struct {
	Now func() time.Time
}

// New returns a compiler reading the wall clock.
func New() *Compiler {
	return &Compiler{Now: time.Now}
}

func (c *Compiler) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// CompileNamespace compiles every collection. The first failure aborts,
// reported with the collection name.
func (c *Compiler) CompileNamespace(ns *schema.Namespace) (*graph.Namespace, error) {
	out := &graph.Namespace{}
	for _, col := range ns.Collections {
		node, err := c.Compile(col.Content)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", col.Name, err)
		}
		zap.L().Debug("compiled collection",
			zap.String("collection", col.Name),
			zap.String("node", graph.Describe(node)))
		out.Collections = append(out.Collections, graph.Collection{Name: col.Name, Node: node})
	}
	return out, nil
}

// Compile builds the node for one content.
func (c *Compiler) Compile(content schema.Content) (graph.Node, error) {
	switch ct := content.(type) {
	case schema.ArrayContent:
		return c.compileArray(ct)
	case schema.DateTimeContent:
		return c.compileDateTime(ct)
	case schema.NumberContent:
		return compileNumber(ct)
	case schema.ObjectContent:
		return c.compileObject(ct)
	default:
		return nil, fmt.Errorf("unsupported content %T", content)
	}
}

func (c *Compiler) compileArray(ct schema.ArrayContent) (graph.Node, error) {
	num, ok := ct.Length.(schema.NumberContent)
	if !ok || num.Subtype != schema.U64 {
		return nil, fmt.Errorf("array length: want an unsigned number, got %T", ct.Length)
	}
	length, err := graph.NewSizeGenerator(num.U64.Low, num.U64.High)
	if err != nil {
		return nil, fmt.Errorf("array length: %w", err)
	}
	content, err := c.Compile(ct.Content)
	if err != nil {
		return nil, fmt.Errorf("array content: %w", err)
	}
	return graph.NewArrayNode(length, content), nil
}

func (c *Compiler) compileDateTime(ct schema.DateTimeContent) (graph.Node, error) {
	begin, end := ct.Begin, ct.End
	if begin == nil || end == nil {
		f, err := chrono.NewFormatter(ct.Format)
		if err != nil {
			return nil, err
		}
		now := f.Now(c.now(), ct.Kind)
		if begin == nil {
			begin = now
		}
		if end == nil {
			end = now
		}
	}
	r, err := graph.NewRandomDateTime(begin, end, ct.Format)
	if err != nil {
		return nil, err
	}
	return graph.NewDateTimeNode(r), nil
}

func compileNumber(ct schema.NumberContent) (graph.Node, error) {
	var (
		node *graph.NumberNode
		err  error
	)
	switch ct.Subtype {
	case schema.U64:
		node, err = graph.NewU64Node(ct.U64.Low, ct.U64.High)
	case schema.I64:
		node, err = graph.NewI64Node(ct.I64.Low, ct.I64.High)
	default:
		return nil, fmt.Errorf("unknown number subtype %q", ct.Subtype)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (c *Compiler) compileObject(ct schema.ObjectContent) (graph.Node, error) {
	fields := make([]graph.ObjectField, 0, len(ct.Fields))
	for _, f := range ct.Fields {
		node, err := c.Compile(f.Content)
		if err != nil {
			return nil, &graph.FieldError{Field: f.Name, Err: err}
		}
		fields = append(fields, graph.ObjectField{Name: f.Name, Node: node})
	}
	return graph.NewObjectNode(fields), nil
}
