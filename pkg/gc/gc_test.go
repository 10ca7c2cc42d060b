package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/value"
)

// TestWriteBarrierRegreysBlackContainer exercises the tri-color invariant
// from §4.3: storing a white reference into a black container must
// re-grey the container so the collector rescans it, never leaving a
// black cell pointing directly at a white one.
func TestWriteBarrierRegreysBlackContainer(t *testing.T) {
	c := New(0)

	container := value.NewArray(nil)
	container.SetGCColor(value.Black)

	stored := value.NewStr("captured")
	require.Equal(t, value.White, stored.GCColor())

	c.WriteBarrier(container, stored)

	require.Equal(t, value.Grey, container.GCColor())
	require.Contains(t, c.grey, value.Heap(container))
}

// TestWriteBarrierIgnoresNonBlackContainer confirms the barrier is a
// no-op outside an active cycle, where containers are never black.
func TestWriteBarrierIgnoresNonBlackContainer(t *testing.T) {
	c := New(0)

	container := value.NewArray(nil)
	stored := value.NewStr("captured")

	c.WriteBarrier(container, stored)

	require.Equal(t, value.White, container.GCColor())
	require.Empty(t, c.grey)
}

// TestWriteBarrierIgnoresBlackStoredValue confirms storing an
// already-reachable (non-white) value into a black container does not
// spuriously re-grey it.
func TestWriteBarrierIgnoresBlackStoredValue(t *testing.T) {
	c := New(0)

	container := value.NewArray(nil)
	container.SetGCColor(value.Black)

	stored := value.NewStr("already-marked")
	stored.SetGCColor(value.Black)

	c.WriteBarrier(container, stored)

	require.Equal(t, value.Black, container.GCColor())
	require.Empty(t, c.grey)
}

// TestCollectSweepsUnreachable runs a full mark/sweep cycle and checks
// that a cell absent from every root group is reclaimed while a rooted
// one survives, grounding GC-soundness directly rather than only through
// the compiler pipeline.
func TestCollectSweepsUnreachable(t *testing.T) {
	c := New(0)

	rooted := c.Track(value.NewStr("rooted")).(*value.Str)
	garbage := c.Track(value.NewStr("garbage")).(*value.Str)
	require.Equal(t, 2, c.Live())

	err := c.Collect([][]value.Value{{rooted}})
	require.NoError(t, err)

	require.Equal(t, 1, c.Live())
	require.Equal(t, value.White, garbage.GCColor())
	require.Equal(t, value.Black, rooted.GCColor())
}
