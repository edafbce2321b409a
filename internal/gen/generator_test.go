package gen_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/testutil"
)

// counter yields 1..n and completes with n.
func counter(n int) gen.Generator[int, int] {
	i := 0
	return gen.Func[int, int](func(*rand.Rand) gen.State[int, int] {
		if i < n {
			i++
			return gen.Yielded[int, int](i)
		}
		i = 0
		return gen.Completed[int](n)
	})
}

func TestState_Accessors(t *testing.T) {
	y := gen.Yielded[string, int]("a")
	assert.False(t, y.IsComplete())
	frag, ok := y.Yield()
	assert.True(t, ok)
	assert.Equal(t, "a", frag)
	_, ok = y.Return()
	assert.False(t, ok)

	c := gen.Completed[string](7)
	assert.True(t, c.IsComplete())
	_, ok = c.Yield()
	assert.False(t, ok)
	r, ok := c.Return()
	assert.True(t, ok)
	assert.Equal(t, 7, r)
}

func TestCollect_OrderAndFinal(t *testing.T) {
	rng := testutil.NewRand(1)
	frags, final := gen.Collect(counter(3), rng)
	assert.Equal(t, []int{1, 2, 3}, frags)
	assert.Equal(t, 3, final)
}

func TestDrain_DiscardsFragments(t *testing.T) {
	assert.Equal(t, 4, gen.Drain(counter(4), testutil.NewRand(1)))
}

func TestMap_TransformsFinalOnly(t *testing.T) {
	g := gen.Map(counter(2), func(n int) string { return strconv.Itoa(n * 10) })
	frags, final := gen.Collect(g, testutil.NewRand(1))
	assert.Equal(t, []int{1, 2}, frags)
	assert.Equal(t, "20", final)
}

func TestMapYield_TransformsFragmentsOnly(t *testing.T) {
	g := gen.MapYield(counter(2), func(n int) string { return "#" + strconv.Itoa(n) })
	frags, final := gen.Collect(g, testutil.NewRand(1))
	assert.Equal(t, []string{"#1", "#2"}, frags)
	assert.Equal(t, 2, final)
}

func TestAndThen_SplicesSecondStage(t *testing.T) {
	g := gen.AndThen(counter(2), func(n int) gen.Generator[int, int] {
		return gen.Map(counter(n+1), func(m int) int { return m * 100 })
	})
	rng := testutil.NewRand(1)

	frags, final := gen.Collect(g, rng)
	assert.Equal(t, []int{1, 2, 1, 2, 3}, frags)
	assert.Equal(t, 300, final)

	// The next drive starts from the first stage again.
	frags, final = gen.Collect(g, rng)
	assert.Equal(t, []int{1, 2, 1, 2, 3}, frags)
	assert.Equal(t, 300, final)
}

func TestDraw_UsesRandomSource(t *testing.T) {
	g := gen.Draw[string](func(rng *rand.Rand) uint64 { return rng.Uint64N(1000) })

	a := gen.Drain[string, gen.Result[uint64]](g, testutil.NewRand(42))
	b := gen.Drain[string, gen.Result[uint64]](g, testutil.NewRand(42))
	require.NoError(t, a.Err)
	assert.Equal(t, a.Value, b.Value)
	assert.Less(t, a.Value, uint64(1000))
}

func TestInfallible_WrapsInOk(t *testing.T) {
	g := gen.Infallible(counter(1))
	frags, r := gen.Collect[int, gen.Result[int]](g, testutil.NewRand(1))
	assert.Equal(t, []int{1}, frags)
	require.True(t, r.IsOk())
	assert.Equal(t, 1, r.Value)
}

func TestFail_PanicsOnNilError(t *testing.T) {
	assert.Panics(t, func() { gen.Fail[int](nil) })
}
