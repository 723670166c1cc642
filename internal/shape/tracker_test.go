package shape

import (
	"fmt"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolveAll returns the physical index of every logical position, -1 when invalid.
func resolveAll(t *testing.T, st Tracker, b Bindings) []int {
	t.Helper()
	ix, err := st.Indexer(b)
	require.NoError(t, err)
	return ix.Table()
}

func TestNewIsIdentity(t *testing.T) {
	st := NewKnown(2, 3)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, resolveAll(t, st, nil))
	assert.True(t, st.IsContiguous())
	assert.Equal(t, 2, st.Rank())
}

func TestPermuteInverseRoundTrip(t *testing.T) {
	shapes := [][]int{{2, 3, 4}, {1, 5, 2}, {3, 1, 1}}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, s := range shapes {
		for _, p := range perms {
			t.Run(fmt.Sprintf("%v/%v", s, p), func(t *testing.T) {
				st := NewKnown(s...)
				permuted := must.M1(st.Permute(p))
				back := must.M1(permuted.Permute(InversePermutation(p)))
				same, err := back.Equivalent(st, nil)
				require.NoError(t, err)
				assert.True(t, same)
			})
		}
	}
}

func TestPermuteTranspose(t *testing.T) {
	st := must.M1(NewKnown(2, 3).Permute([]int{1, 0}))
	assert.Equal(t, Dims(3, 2), st.Shape())
	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, resolveAll(t, st, nil))
	assert.False(t, st.IsContiguous())
}

func TestPermuteRejectsNonBijection(t *testing.T) {
	st := NewKnown(2, 3)
	for _, p := range [][]int{{0, 0}, {0}, {0, 2}, {-1, 0}} {
		_, err := st.Permute(p)
		require.ErrorIs(t, err, ErrInvalidPermutation, "perm %v", p)
	}
}

func TestReshapeElementCount(t *testing.T) {
	st := NewKnown(2, 3)

	_, err := st.Reshape(Dims(3, 2))
	require.NoError(t, err)
	_, err = st.Reshape(Dims(6))
	require.NoError(t, err)

	_, err = st.Reshape(Dims(4, 2))
	require.ErrorIs(t, err, ErrReshapeMismatch)
}

func TestReshapeRoundTrip(t *testing.T) {
	st := must.M1(NewKnown(2, 3, 4).Permute([]int{2, 0, 1}))
	flat := must.M1(st.Reshape(Dims(24)))
	back := must.M1(flat.Reshape(st.Shape()))
	same, err := back.Equivalent(st, nil)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestReshapeAfterPermuteComposes(t *testing.T) {
	st := must.M1(NewKnown(2, 3).Permute([]int{1, 0}))
	flat := must.M1(st.Reshape(Dims(6)))
	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, resolveAll(t, flat, nil))
	assert.Len(t, flat.Views(), 2)
}

func TestReshapeKeepsContiguity(t *testing.T) {
	st := must.M1(NewKnown(2, 3).Reshape(Dims(3, 2)))
	assert.True(t, st.IsContiguous())
}

func TestExpandBroadcastInvariant(t *testing.T) {
	st := must.M1(NewKnown(2, 3).Expand(1, Known(4)))
	require.Equal(t, Dims(2, 4, 3), st.Shape())
	table := resolveAll(t, st, nil)
	for a := 0; a < 2; a++ {
		for c := 0; c < 3; c++ {
			first := table[a*12+c]
			for b := 0; b < 4; b++ {
				assert.Equal(t, first, table[a*12+b*3+c])
			}
			assert.Equal(t, a*3+c, first)
		}
	}
	assert.Equal(t, []bool{false, true, false}, st.Fake())
}

func TestExpandAxisOutOfRange(t *testing.T) {
	_, err := NewKnown(2).Expand(2, Known(3))
	require.ErrorIs(t, err, ErrAxisOutOfRange)
}

func TestBroadcastTo(t *testing.T) {
	st := must.M1(NewKnown(2, 1).BroadcastTo(Dims(3, 2, 4)))
	require.Equal(t, Dims(3, 2, 4), st.Shape())
	table := resolveAll(t, st, nil)
	for x := 0; x < 3; x++ {
		for r := 0; r < 2; r++ {
			for c := 0; c < 4; c++ {
				assert.Equal(t, r, table[x*8+r*4+c])
			}
		}
	}
	assert.Equal(t, []bool{true, false, true}, st.Fake())

	_, err := NewKnown(2, 3).BroadcastTo(Dims(2, 4))
	require.ErrorIs(t, err, ErrBroadcast)
	_, err = NewKnown(2, 3).BroadcastTo(Dims(3))
	require.ErrorIs(t, err, ErrBroadcast)
}

func TestBroadcastRequiresExtentOne(t *testing.T) {
	_, err := NewKnown(2, 3).Broadcast(1, Known(5))
	require.ErrorIs(t, err, ErrBroadcast)
}

func TestSlice(t *testing.T) {
	st := must.M1(NewKnown(2, 3).Slice([]Range{{Start: 1, End: End}, {Start: 0, End: 2}}))
	assert.Equal(t, Dims(1, 2), st.Shape())
	assert.Equal(t, []int{3, 4}, resolveAll(t, st, nil))

	clamped := must.M1(NewKnown(4).Slice([]Range{{Start: 2, End: 10}}))
	assert.Equal(t, Dims(2), clamped.Shape())

	_, err := NewKnown(4).Slice([]Range{{Start: 3, End: 1}})
	require.ErrorIs(t, err, ErrInvalidSlice)
}

func TestPadMarksInvalid(t *testing.T) {
	st := must.M1(NewKnown(3).Pad([][2]int{{1, 1}}))
	assert.Equal(t, Dims(5), st.Shape())
	assert.Equal(t, []int{-1, 0, 1, 2, -1}, resolveAll(t, st, nil))

	sliced := must.M1(st.Slice([]Range{{Start: 0, End: 2}}))
	assert.Equal(t, []int{-1, 0}, resolveAll(t, sliced, nil))
}

func TestPadPermuted(t *testing.T) {
	st := must.M1(NewKnown(2, 2).Permute([]int{1, 0}))
	st = must.M1(st.Pad([][2]int{{0, 0}, {0, 1}}))
	assert.Equal(t, []int{0, 2, -1, 1, 3, -1}, resolveAll(t, st, nil))
}

func TestPadRejectsBroadcastAxis(t *testing.T) {
	st := must.M1(NewKnown(2).Expand(0, Known(3)))
	_, err := st.Pad([][2]int{{1, 0}})
	require.ErrorIs(t, err, ErrInvalidSlice)
}

func TestSymbolicResolution(t *testing.T) {
	st := New(Sym("n"), Known(2))

	_, err := st.Indexer(nil)
	require.ErrorIs(t, err, ErrUnboundDim)

	ix, err := st.Indexer(Bindings{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, ix.Shape())
	assert.Equal(t, 6, ix.Len())
}

func TestSymbolicReshapeCheckedAtSolve(t *testing.T) {
	st := must.M1(New(Sym("n"), Known(2)).Reshape([]Dim{Sym("m")}))

	_, err := st.Indexer(Bindings{"n": 3, "m": 5})
	require.ErrorIs(t, err, ErrReshapeMismatch)

	ix, err := st.Indexer(Bindings{"n": 3, "m": 6})
	require.NoError(t, err)
	assert.Equal(t, 6, ix.Len())

	_, err = New(Sym("n"), Known(2)).Reshape([]Dim{Sym("n"), Known(3)})
	require.ErrorIs(t, err, ErrReshapeMismatch)
}

func TestSymbolicOpenSlice(t *testing.T) {
	st := must.M1(New(Sym("n")).Slice([]Range{{Start: 2, End: End}}))
	assert.Equal(t, "n-2", st.Shape()[0].String())
	assert.Equal(t, []int{2, 3, 4}, resolveAll(t, st, Bindings{"n": 5}))
}

func TestIsStatic(t *testing.T) {
	assert.True(t, NewKnown(2, 3).IsStatic())
	assert.True(t, must.M1(NewKnown(2, 3).Permute([]int{1, 0})).IsStatic())
	assert.False(t, New(Sym("n")).IsStatic())

	sliced := must.M1(New(Sym("n")).Slice([]Range{{Start: 0, End: 2}}))
	assert.True(t, sliced.Shape()[0].IsKnown())
	assert.False(t, sliced.IsStatic())

	reshaped := must.M1(New(Sym("n")).Reshape([]Dim{Known(2), Known(3)}))
	assert.False(t, reshaped.IsStatic())
}

func TestZeroExtent(t *testing.T) {
	ix, err := NewKnown(0, 3).Indexer(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Table())
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	st := NewKnown(2, 3)
	_ = must.M1(st.Permute([]int{1, 0}))
	_ = must.M1(st.Slice([]Range{{Start: 1, End: 2}}))
	_ = must.M1(st.Expand(0, Known(2)))
	assert.Equal(t, Dims(2, 3), st.Shape())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, resolveAll(t, st, nil))
}

func TestRemoveAxis(t *testing.T) {
	st := must.M1(NewKnown(2, 3, 4).RemoveAxis(1))
	assert.Equal(t, Dims(2, 4), st.Shape())
	_, err := NewKnown(2).RemoveAxis(1)
	require.ErrorIs(t, err, ErrAxisOutOfRange)
}

func TestBroadcastShapes(t *testing.T) {
	out, err := BroadcastShapes(Dims(3, 1), Dims(3, 5))
	require.NoError(t, err)
	assert.Equal(t, Dims(3, 5), out)

	out, err = BroadcastShapes([]Dim{Sym("n"), Known(4)}, Dims(4))
	require.NoError(t, err)
	assert.Equal(t, []Dim{Sym("n"), Known(4)}, out)

	out, err = BroadcastShapes([]Dim{Sym("n"), Known(1)}, []Dim{Sym("m")})
	require.NoError(t, err)
	assert.Equal(t, []Dim{Sym("n"), Sym("m")}, out)

	_, err = BroadcastShapes(Dims(3, 4), Dims(3, 5))
	require.ErrorIs(t, err, ErrBroadcast)
	_, err = BroadcastShapes([]Dim{Sym("n")}, []Dim{Sym("m")})
	require.ErrorIs(t, err, ErrBroadcast)
}
