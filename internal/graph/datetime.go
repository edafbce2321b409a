package graph

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/synth/internal/chrono"
	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/value"
)

// RandomDateTime samples a value uniformly from an inclusive range and
// yields it formatted with its pattern as the single fragment. The drive
// completes with the sampled value paired with the pattern.
type RandomDateTime struct {
	inner     gen.TryGenerator[chrono.Value, chrono.Value]
	formatter *chrono.Formatter
	format    string
	begin     chrono.Value
	end       chrono.Value
}

// NewRandomDateTime validates the range and pattern. begin and end must
// have the same kind and begin must not be after end; both are compile
// errors.
func NewRandomDateTime(begin, end chrono.Value, format string) (*RandomDateTime, error) {
	formatter, err := chrono.NewFormatter(format)
	if err != nil {
		return nil, err
	}
	cmp, err := chrono.Compare(begin, end)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, &BoundsError{
			Begin: renderBound(formatter, begin),
			End:   renderBound(formatter, end),
		}
	}
	uniform, err := chrono.NewUniform(begin, end, formatter.Pattern().Resolution(begin.Kind()))
	if err != nil {
		return nil, err
	}
	return &RandomDateTime{
		inner:     gen.TryOnce(gen.Draw[chrono.Value](uniform.Sample)),
		formatter: formatter,
		format:    format,
		begin:     begin,
		end:       end,
	}, nil
}

func renderBound(f *chrono.Formatter, v chrono.Value) string {
	if text, err := f.Format(v); err == nil {
		return text
	}
	return v.String()
}

// Next implements gen.Generator.
func (r *RandomDateTime) Next(rng *rand.Rand) gen.State[string, gen.Result[chrono.ValueAndFormat]] {
	s := r.inner.Next(rng)
	if sampled, ok := s.Yield(); ok {
		text, err := r.formatter.Format(sampled)
		if err != nil {
			// Finish the inner drive so the next call starts a new one.
			gen.Drain[chrono.Value, gen.Result[chrono.Value]](r.inner, rng)
			return gen.Completed[string](gen.Fail[chrono.ValueAndFormat](err))
		}
		return gen.Yielded[string, gen.Result[chrono.ValueAndFormat]](text)
	}
	res, _ := s.Return()
	if res.Err != nil {
		return gen.Completed[string](gen.Fail[chrono.ValueAndFormat](res.Err))
	}
	return gen.Completed[string](gen.Ok(chrono.ValueAndFormat{Value: res.Value, Format: r.format}))
}

// DateTimeNode is RandomDateTime as a Node: the formatted text is yielded
// as a value.String token and the result is a value.DateTime.
type DateTimeNode struct {
	random *RandomDateTime
	inner  Node
}

// NewDateTimeNode wraps r.
func NewDateTimeNode(r *RandomDateTime) *DateTimeNode {
	tokens := gen.MapYield[string, value.Token, gen.Result[chrono.ValueAndFormat]](r, func(text string) value.Token {
		return value.String(text)
	})
	inner := gen.TryMap[value.Token, chrono.ValueAndFormat, value.Value](tokens, func(v chrono.ValueAndFormat) value.Value {
		return value.DateTime{ValueAndFormat: v}
	})
	return &DateTimeNode{random: r, inner: inner}
}

// Next implements gen.Generator.
func (d *DateTimeNode) Next(rng *rand.Rand) State {
	return d.inner.Next(rng)
}

// Describe implements Describer.
func (d *DateTimeNode) Describe() string {
	r := d.random
	return fmt.Sprintf("date_time(%s, %q, %s..%s)", r.begin.Kind().Name(), r.format,
		renderBound(r.formatter, r.begin), renderBound(r.formatter, r.end))
}
