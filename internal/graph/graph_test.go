package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synth/internal/chrono"
	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/testutil"
	"github.com/roach88/synth/internal/value"
)

type tokenDrive = testutil.Drive[value.Token, value.Value]

func mustSize(t *testing.T, low, high uint64) SizeGenerator {
	t.Helper()
	s, err := NewSizeGenerator(low, high)
	require.NoError(t, err)
	return s
}

func dateNode(t *testing.T, begin, end string) *DateTimeNode {
	t.Helper()
	f, err := chrono.NewFormatter("%Y-%m-%d")
	require.NoError(t, err)
	b, err := f.Parse(begin, chrono.KindNaiveDate)
	require.NoError(t, err)
	e, err := f.Parse(end, chrono.KindNaiveDate)
	require.NoError(t, err)
	r, err := NewRandomDateTime(b, e, "%Y-%m-%d")
	require.NoError(t, err)
	return NewDateTimeNode(r)
}

func TestArrayNode_FixedLengthOfDates(t *testing.T) {
	node := NewArrayNode(mustSize(t, 3, 3), dateNode(t, "1970-01-01", "1970-01-03"))
	rng := testutil.NewRand(11)

	for drive := 0; drive < 20; drive++ {
		tokens, v, err := GenerateTokens(node, rng)
		require.NoError(t, err)
		require.Len(t, tokens, 3)

		arr, ok := v.(value.Array)
		require.True(t, ok)
		require.Len(t, arr, 3)
		for i, elem := range arr {
			dt, ok := elem.(value.DateTime)
			require.True(t, ok)
			text, err := dt.Text()
			require.NoError(t, err)
			assert.Contains(t, []string{"1970-01-01", "1970-01-02", "1970-01-03"}, text)
			assert.Equal(t, value.String(text), tokens[i])
		}
	}
}

func TestArrayNode_ZeroLength(t *testing.T) {
	elem := testutil.NewScript(tokenDrive{Yields: []value.Token{value.String("x")}, Value: value.Int(1)})
	node := NewArrayNode(mustSize(t, 0, 0), elem)

	tokens, v, err := GenerateTokens(node, testutil.NewRand(1))
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.Equal(t, value.Array{}, v)
	assert.Zero(t, elem.Calls)
}

func TestArrayNode_ElementFailureStops(t *testing.T) {
	errElem := errors.New("element failed")
	elem := testutil.NewScript(
		tokenDrive{Yields: []value.Token{value.String("a")}, Value: value.Int(1)},
		tokenDrive{Yields: []value.Token{value.String("b")}, Err: errElem},
		tokenDrive{Yields: []value.Token{value.String("c")}, Value: value.Int(3)},
	)
	node := NewArrayNode(mustSize(t, 3, 3), elem)

	tokens, _, err := GenerateTokens(node, testutil.NewRand(1))
	assert.ErrorIs(t, err, errElem)
	assert.Equal(t, []value.Token{value.String("a"), value.String("b")}, tokens)
	assert.Equal(t, 2, elem.Starts)
}

func TestArrayNode_LengthFailure(t *testing.T) {
	errLen := errors.New("no length")
	elem := testutil.NewScript(tokenDrive{Value: value.Int(1)})
	node := NewArrayNode(gen.Failing[value.Token, uint64](errLen), elem)

	_, _, err := GenerateTokens(node, testutil.NewRand(1))
	assert.ErrorIs(t, err, errLen)
	assert.Zero(t, elem.Calls)
}

func TestArrayNode_LengthWithinRange(t *testing.T) {
	elem := testutil.NewScript(tokenDrive{Yields: []value.Token{value.Bool(true)}, Value: value.Bool(true)})
	node := NewArrayNode(mustSize(t, 1, 4), elem)
	rng := testutil.NewRand(8)

	for i := 0; i < 100; i++ {
		tokens, v, err := GenerateTokens(node, rng)
		require.NoError(t, err)
		arr := v.(value.Array)
		assert.GreaterOrEqual(t, len(arr), 1)
		assert.LessOrEqual(t, len(arr), 4)
		assert.Len(t, tokens, len(arr))
	}
}

func TestArrayNode_Nested(t *testing.T) {
	inner := NewArrayNode(mustSize(t, 2, 2), dateNode(t, "2000-02-29", "2000-02-29"))
	outer := NewArrayNode(mustSize(t, 2, 2), inner)

	v, err := Generate(outer, testutil.NewRand(1))
	require.NoError(t, err)
	b, err := value.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `[["2000-02-29","2000-02-29"],["2000-02-29","2000-02-29"]]`, string(b))
}

func TestRandomDateTime_BeginAfterEnd(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		begin, end chrono.Value
		want       string
	}{
		{
			"naive date", "%Y-%m-%d",
			chrono.NewNaiveDate(1970, 1, 3), chrono.NewNaiveDate(1970, 1, 1),
			"begin is after end: begin=1970-01-03, end=1970-01-01",
		},
		{
			"naive time", "%H:%M",
			chrono.NewNaiveTime(10, 0, 0, 0), chrono.NewNaiveTime(9, 0, 0, 0),
			"begin is after end: begin=10:00, end=09:00",
		},
		{
			"naive date time", "%F %T",
			chrono.NewNaiveDateTime(time.Date(2020, 1, 1, 0, 0, 1, 0, time.UTC)),
			chrono.NewNaiveDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
			"begin is after end: begin=2020-01-01 00:00:01, end=2020-01-01 00:00:00",
		},
		{
			"date time", "%FT%T%z",
			chrono.NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.FixedZone("", -3600))),
			chrono.NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
			"begin is after end: begin=2020-01-01T00:00:00-0100, end=2020-01-01T00:00:00+0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRandomDateTime(tt.begin, tt.end, tt.pattern)
			require.Error(t, err)
			assert.True(t, IsBoundsError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestRandomDateTime_MismatchedKinds(t *testing.T) {
	_, err := NewRandomDateTime(chrono.NewNaiveDate(1970, 1, 1), chrono.NewNaiveTime(0, 0, 0, 0), "%F %T")
	assert.ErrorIs(t, err, chrono.ErrGranularityMismatch)
}

func TestRandomDateTime_SingleFragment(t *testing.T) {
	begin := chrono.NewNaiveTime(8, 30, 0, 0)
	r, err := NewRandomDateTime(begin, begin, "%H:%M")
	require.NoError(t, err)

	frags, res := gen.Collect[string, gen.Result[chrono.ValueAndFormat]](r, testutil.NewRand(1))
	assert.Equal(t, []string{"08:30"}, frags)
	require.NoError(t, res.Err)
	assert.True(t, chrono.Equal(begin, res.Value.Value))
	assert.Equal(t, "%H:%M", res.Value.Format)
}

func TestRandomDateTime_WithinInclusiveRange(t *testing.T) {
	begin := chrono.NewDateTime(time.Date(2021, 5, 1, 0, 0, 0, 0, time.FixedZone("", 7200)))
	end := chrono.NewDateTime(time.Date(2021, 5, 3, 12, 0, 0, 0, time.FixedZone("", 7200)))
	r, err := NewRandomDateTime(begin, end, "%FT%T%z")
	require.NoError(t, err)
	node := NewDateTimeNode(r)
	rng := testutil.NewRand(21)

	for i := 0; i < 300; i++ {
		v, err := Generate(node, rng)
		require.NoError(t, err)
		got := v.(value.DateTime).Value
		lo, _ := chrono.Compare(begin, got)
		hi, _ := chrono.Compare(got, end)
		assert.LessOrEqual(t, lo, 0)
		assert.LessOrEqual(t, hi, 0)
	}
}

func TestRandomDateTime_FormatFailureAtSampleTime(t *testing.T) {
	// A naive date cannot render an hour.
	day := chrono.NewNaiveDate(2020, 1, 1)
	r, err := NewRandomDateTime(day, day, "%Y-%m-%d %H")
	require.NoError(t, err)
	node := NewDateTimeNode(r)
	rng := testutil.NewRand(1)

	for drive := 0; drive < 2; drive++ {
		tokens, _, err := GenerateTokens(node, rng)
		assert.Empty(t, tokens)
		require.Error(t, err)
		assert.True(t, chrono.IsFormatError(err))
	}
}

func TestNumberNodes(t *testing.T) {
	rng := testutil.NewRand(4)

	constant, err := NewU64Node(7, 7)
	require.NoError(t, err)
	tokens, v, err := GenerateTokens(constant, rng)
	require.NoError(t, err)
	assert.Equal(t, []value.Token{value.Uint(7)}, tokens)
	assert.Equal(t, value.Uint(7), v)

	signed, err := NewI64Node(-5, 5)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		v, err := Generate(signed, rng)
		require.NoError(t, err)
		n := int64(v.(value.Int))
		assert.GreaterOrEqual(t, n, int64(-5))
		assert.LessOrEqual(t, n, int64(5))
	}

	full, err := NewI64Node(-9223372036854775808, 9223372036854775807)
	require.NoError(t, err)
	_, err = Generate(full, rng)
	require.NoError(t, err)

	_, err = NewU64Node(3, 2)
	var re *RangeError
	assert.True(t, errors.As(err, &re))

	_, err = NewSizeGenerator(5, 1)
	assert.True(t, errors.As(err, &re))
}

func TestObjectNode_TokensAndOrder(t *testing.T) {
	id, err := NewU64Node(1, 1)
	require.NoError(t, err)
	obj := NewObjectNode([]ObjectField{
		{Name: "id", Node: id},
		{Name: "days", Node: NewArrayNode(mustSize(t, 2, 2), dateNode(t, "1999-12-31", "1999-12-31"))},
	})

	tokens, v, err := GenerateTokens(obj, testutil.NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []value.Token{
		value.FieldName("id"), value.Uint(1),
		value.FieldName("days"), value.String("1999-12-31"), value.String("1999-12-31"),
	}, tokens)

	b, err := value.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"days":["1999-12-31","1999-12-31"]}`, string(b))
}

func TestObjectNode_FieldFailure(t *testing.T) {
	errField := errors.New("bad field")
	obj := NewObjectNode([]ObjectField{
		{Name: "ok", Node: testutil.NewScript(tokenDrive{Value: value.Int(1)})},
		{Name: "broken", Node: testutil.NewScript(tokenDrive{Err: errField})},
		{Name: "never", Node: testutil.NewScript(tokenDrive{Value: value.Int(3)})},
	})

	tokens, _, err := GenerateTokens(obj, testutil.NewRand(1))
	assert.ErrorIs(t, err, errField)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "broken", fe.Field)
	assert.Equal(t, []value.Token{value.FieldName("ok"), value.FieldName("broken")}, tokens)

	// The next drive starts again from the first field.
	tokens, _, _ = GenerateTokens(obj, testutil.NewRand(1))
	assert.Equal(t, value.FieldName("ok"), tokens[0])
}

func TestDescribe(t *testing.T) {
	id, err := NewU64Node(1, 9)
	require.NoError(t, err)
	obj := NewObjectNode([]ObjectField{
		{Name: "id", Node: id},
		{Name: "days", Node: NewArrayNode(mustSize(t, 0, 3), dateNode(t, "1970-01-01", "1970-01-03"))},
	})

	assert.Equal(t,
		`object{id: number(u64, 1..9), days: array[0..3](date_time(naive_date, "%Y-%m-%d", 1970-01-01..1970-01-03))}`,
		Describe(obj))
}
