package compiler

import (
	"errors"
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synth/internal/chrono"
	"github.com/roach88/synth/internal/graph"
	"github.com/roach88/synth/internal/schema"
	"github.com/roach88/synth/internal/testutil"
	"github.com/roach88/synth/internal/value"
)

func compileCUE(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func decodeOne(t *testing.T, src string) (schema.Content, error) {
	t.Helper()
	return DecodeContent(compileCUE(t, src).LookupPath(cue.ParsePath("c")))
}

func TestDecodeNamespace_SortedCollections(t *testing.T) {
	v := compileCUE(t, `
		collection: zeta: {type: "number", constant: 1}
		collection: alpha: {
			type: "object"
			fields: {
				id: {type: "number", range: {low: 1, high: 9}}
				days: {
					type: "array"
					length: 3
					content: {type: "date_time", format: "%Y-%m-%d", begin: "1970-01-01", end: "1970-01-03"}
				}
			}
		}
	`)

	ns, errs := DecodeNamespace(v)
	require.Empty(t, errs)
	assert.Equal(t, []string{"alpha", "zeta"}, ns.Names())

	alpha, ok := ns.Collection("alpha")
	require.True(t, ok)
	obj, ok := alpha.Content.(schema.ObjectContent)
	require.True(t, ok)
	require.Len(t, obj.Fields, 2)
	assert.Equal(t, "id", obj.Fields[0].Name)
	assert.Equal(t, "days", obj.Fields[1].Name)

	assert.Equal(t, schema.NumberContent{Subtype: schema.U64, U64: schema.U64Range{Low: 1, High: 9}}, obj.Fields[0].Content)

	arr, ok := obj.Fields[1].Content.(schema.ArrayContent)
	require.True(t, ok)
	assert.Equal(t, schema.ConstantU64(3), arr.Length)
	assert.Equal(t, schema.DateTimeContent{
		Format: "%Y-%m-%d",
		Kind:   chrono.KindNaiveDate,
		Begin:  chrono.NewNaiveDate(1970, time.January, 1),
		End:    chrono.NewNaiveDate(1970, time.January, 3),
	}, arr.Content)
}

func TestDecodeNamespace_CollectsErrorsPerCollection(t *testing.T) {
	v := compileCUE(t, `
		collection: good: {type: "number", constant: 1}
		collection: bad1: {type: "nope"}
		collection: bad2: {type: "date_time"}
	`)

	ns, errs := DecodeNamespace(v)
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"good"}, ns.Names())
	assert.Contains(t, errs[0].Error(), "collection.bad1.type")
	assert.Contains(t, errs[1].Error(), "collection.bad2.format: format is required")
}

func TestDecodeNamespace_MissingCollections(t *testing.T) {
	_, errs := DecodeNamespace(compileCUE(t, `other: 1`))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at least one collection is required")
}

func TestDecodeContent_ArrayLengthAsNumber(t *testing.T) {
	c, err := decodeOne(t, `c: {
		type: "array"
		length: {type: "number", range: {low: 0, high: 4}}
		content: {type: "number", constant: -1}
	}`)
	require.NoError(t, err)
	assert.Equal(t, schema.ArrayContent{
		Length:  schema.NumberContent{Subtype: schema.U64, U64: schema.U64Range{Low: 0, High: 4}},
		Content: schema.NumberContent{Subtype: schema.I64, I64: schema.I64Range{Low: -1, High: -1}},
	}, c)
}

func TestDecodeContent_ArrayLengthMustBeUnsigned(t *testing.T) {
	_, err := decodeOne(t, `c: {
		type: "array"
		length: {type: "number", subtype: "i64", constant: 2}
		content: {type: "number", constant: 1}
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c.length: length must be an unsigned number, got number(i64)")

	_, err = decodeOne(t, `c: {type: "array", length: -1, content: {type: "number", constant: 1}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length must be a non-negative integer")
}

func TestDecodeContent_DateTimeKindInference(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want chrono.Kind
	}{
		{"from bounds", `c: {type: "date_time", format: "%Y-%m-%d", begin: "2020-01-01"}`, chrono.KindNaiveDate},
		{"date pattern", `c: {type: "date_time", format: "%Y-%m-%d"}`, chrono.KindNaiveDate},
		{"time pattern", `c: {type: "date_time", format: "%H:%M:%S"}`, chrono.KindNaiveTime},
		{"naive date time pattern", `c: {type: "date_time", format: "%Y-%m-%d %H:%M"}`, chrono.KindNaiveDateTime},
		{"offset pattern", `c: {type: "date_time", format: "%Y-%m-%dT%H:%M:%S%z"}`, chrono.KindDateTime},
		{"no usable fields", `c: {type: "date_time", format: "%Y"}`, chrono.KindDateTime},
		{"explicit subtype wins", `c: {type: "date_time", format: "%Y-%m-%d", subtype: "date_time"}`, chrono.KindDateTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := decodeOne(t, tt.src)
			require.NoError(t, err)
			dt, ok := c.(schema.DateTimeContent)
			require.True(t, ok)
			assert.Equal(t, tt.want, dt.Kind)
		})
	}
}

func TestDecodeContent_DateTimeErrors(t *testing.T) {
	t.Run("bound does not parse with subtype", func(t *testing.T) {
		_, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d", subtype: "naive_date", begin: "01/02/2020"}`)
		require.Error(t, err)
		assert.True(t, chrono.IsParseError(err))
		var ce *CompileError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "c.begin", ce.Field)
	})

	t.Run("subtype the pattern cannot render", func(t *testing.T) {
		_, err := decodeOne(t, `c: {type: "date_time", format: "%H:%M", subtype: "naive_date"}`)
		require.Error(t, err)
		assert.True(t, chrono.IsFormatError(err))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d%f"}`)
		require.Error(t, err)
		assert.True(t, chrono.IsPatternError(err))
	})

	t.Run("unknown subtype", func(t *testing.T) {
		_, err := decodeOne(t, `c: {type: "date_time", format: "%Y", subtype: "week"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown date_time subtype "week"`)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d", start: "2020-01-01"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `c.start: unknown field "start"`)
	})
}

func TestDecodeContent_Numbers(t *testing.T) {
	c, err := decodeOne(t, `c: {type: "number", range: {low: -5, high: 5}}`)
	require.NoError(t, err)
	assert.Equal(t, schema.NumberContent{Subtype: schema.I64, I64: schema.I64Range{Low: -5, High: 5}}, c)

	c, err = decodeOne(t, `c: {type: "number", subtype: "i64", constant: 7}`)
	require.NoError(t, err)
	assert.Equal(t, schema.NumberContent{Subtype: schema.I64, I64: schema.I64Range{Low: 7, High: 7}}, c)

	c, err = decodeOne(t, `c: {type: "number", constant: 18446744073709551615}`)
	require.NoError(t, err)
	assert.Equal(t, schema.NumberContent{Subtype: schema.U64, U64: schema.U64Range{Low: 1<<64 - 1, High: 1<<64 - 1}}, c)

	_, err = decodeOne(t, `c: {type: "number", subtype: "u64", range: {low: -1, high: 1}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u64 bounds must be non-negative")

	_, err = decodeOne(t, `c: {type: "number", constant: 1, range: {low: 0, high: 1}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	_, err = decodeOne(t, `c: {type: "number"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of constant or range is required")

	_, err = decodeOne(t, `c: {type: "number", constant: "one"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an integer")
}

func TestCompileError_Position(t *testing.T) {
	_, err := decodeOne(t, `c: {
	type: "number"
	subtype: "f32"
	constant: 1
}`)
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "c.subtype", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Equal(t, 3, ce.Pos.Line())
}

func TestCompile_DateRangeScenario(t *testing.T) {
	c, err := decodeOne(t, `c: {
		type: "array"
		length: 3
		content: {type: "date_time", format: "%Y-%m-%d", subtype: "naive_date", begin: "1970-01-01", end: "1970-01-03"}
	}`)
	require.NoError(t, err)

	node, err := New().Compile(c)
	require.NoError(t, err)
	assert.Equal(t, `array[3](date_time(naive_date, "%Y-%m-%d", 1970-01-01..1970-01-03))`, graph.Describe(node))

	rng := testutil.NewRand(5)
	for i := 0; i < 10; i++ {
		v, err := graph.Generate(node, rng)
		require.NoError(t, err)
		arr, ok := v.(value.Array)
		require.True(t, ok)
		require.Len(t, arr, 3)
		for _, elem := range arr {
			text, err := elem.(value.DateTime).Text()
			require.NoError(t, err)
			assert.Contains(t, []string{"1970-01-01", "1970-01-02", "1970-01-03"}, text)
		}
	}
}

func TestCompile_BeginAfterEnd(t *testing.T) {
	c, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d", begin: "2020-02-01", end: "2020-01-01"}`)
	require.NoError(t, err)

	_, err = New().Compile(c)
	require.Error(t, err)
	assert.True(t, graph.IsBoundsError(err))
	assert.EqualError(t, err, "begin is after end: begin=2020-02-01, end=2020-01-01")
}

func TestCompile_AbsentBoundsUseNowOnce(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2024, time.May, 6, 15, 4, 5, 123, time.UTC))
	calls := 0
	comp := &Compiler{Now: func() time.Time {
		calls++
		return clock.Now()
	}}

	c, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%dT%H:%M:%S%z"}`)
	require.NoError(t, err)
	node, err := comp.Compile(c)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Hour)
	tokens, v, err := graph.GenerateTokens(node, testutil.NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []value.Token{value.String("2024-05-06T15:04:05+0000")}, tokens)
	text, err := v.(value.DateTime).Text()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06T15:04:05+0000", text)
}

func TestCompile_OpenEndedRange(t *testing.T) {
	comp := &Compiler{Now: testutil.NewFixedClock(time.Date(2020, time.January, 3, 12, 0, 0, 0, time.UTC)).Now}

	c, err := decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d", begin: "2020-01-01"}`)
	require.NoError(t, err)
	node, err := comp.Compile(c)
	require.NoError(t, err)
	assert.Equal(t, `date_time(naive_date, "%Y-%m-%d", 2020-01-01..2020-01-03)`, graph.Describe(node))

	c, err = decodeOne(t, `c: {type: "date_time", format: "%Y-%m-%d", begin: "2020-01-05"}`)
	require.NoError(t, err)
	_, err = comp.Compile(c)
	assert.True(t, graph.IsBoundsError(err))
}

func TestCompileNamespace(t *testing.T) {
	v := compileCUE(t, `
		collection: users: {
			type: "object"
			fields: {
				id: {type: "number", constant: 42}
				born: {type: "date_time", format: "%Y-%m-%d", begin: "1990-06-01", end: "1990-06-01"}
			}
		}
		collection: empty: {type: "array", length: 0, content: {type: "number", constant: 1}}
	`)
	ns, errs := DecodeNamespace(v)
	require.Empty(t, errs)

	compiled, err := New().CompileNamespace(ns)
	require.NoError(t, err)
	require.Len(t, compiled.Collections, 2)

	users, ok := compiled.Lookup("users")
	require.True(t, ok)
	rec, err := graph.Generate(users.Node, testutil.NewRand(3))
	require.NoError(t, err)
	out, err := value.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 42, "born": "1990-06-01"}`, string(out))

	empty, ok := compiled.Lookup("empty")
	require.True(t, ok)
	rec, err = graph.Generate(empty.Node, testutil.NewRand(3))
	require.NoError(t, err)
	assert.Equal(t, value.Array{}, rec)
}

func TestCompileNamespace_ReportsCollection(t *testing.T) {
	ns := &schema.Namespace{Collections: []schema.Collection{{
		Name:    "broken",
		Content: schema.NumberContent{Subtype: schema.U64, U64: schema.U64Range{Low: 5, High: 1}},
	}}}
	_, err := New().CompileNamespace(ns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection broken: range low is above high: low=5, high=1")
}
