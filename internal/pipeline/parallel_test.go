package pipeline

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rillshell/rill/internal/value"
)

func square(_ int, v value.Value) value.Value {
	n := v.(*value.Int).Value
	return &value.Int{Value: n * n}
}

func TestParEachMatchesSequentialForEveryWorkerCount(t *testing.T) {
	input := ints(1, 2, 3, 4, 5, 6, 7, 8, 9)
	want := FromStream(FromSlice(input), nil).
		Map(NewInterrupt(), func(v value.Value) value.Value { return square(0, v) }).
		Stream.Collect()

	for _, workers := range []int{1, 2, 3, 4, 16} {
		p := FromStream(FromSlice(input), nil)
		got := p.ParEach(workers, NewInterrupt(), square).Stream.Collect()
		require.Equal(t, asInts(t, want), asInts(t, got), "workers=%d", workers)
	}
}

func TestParEachPassesOriginalIndex(t *testing.T) {
	input := ints(10, 20, 30, 40)
	p := FromStream(FromSlice(input), nil)
	got := p.ParEach(2, NewInterrupt(), func(idx int, v value.Value) value.Value {
		require.Equal(t, int64((idx+1)*10), v.(*value.Int).Value)
		return &value.Int{Value: int64(idx)}
	}).Stream.Collect()
	require.Equal(t, []int64{0, 1, 2, 3}, asInts(t, got))
}

func TestParEachEmptyInput(t *testing.T) {
	p := FromStream(FromSlice(nil), nil)
	got := p.ParEach(4, NewInterrupt(), square).Stream.Collect()
	require.Empty(t, got)
}

func TestParEachCancellationYieldsCleanPrefix(t *testing.T) {
	interrupt := NewInterrupt()
	var processed atomic.Int64
	input := ints(make([]int64, 100)...)
	p := FromStream(FromSlice(input), nil)
	got := p.ParEach(4, interrupt, func(idx int, v value.Value) value.Value {
		if processed.Add(1) == 10 {
			interrupt.Trigger()
		}
		return &value.Int{Value: int64(idx)}
	}).Stream.Collect()
	require.Less(t, len(got), 100)
	// The surviving results are exactly the leading indices, no holes.
	for i, v := range got {
		require.Equal(t, int64(i), v.(*value.Int).Value)
	}
}
