package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSM_TakeFreePage_SequentialAllocation(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	for want := int32(0); want < 16; want++ {
		got, err := f.TakeFreePage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFSM_FreeThenTakeFreePage_ReusesLowestFreedSlot(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	for i := 0; i < 16; i++ {
		_, err := f.TakeFreePage()
		require.NoError(t, err)
	}

	require.NoError(t, f.Free(1))
	require.NoError(t, f.Free(5))
	require.NoError(t, f.Free(9))

	for _, want := range []int32{1, 5, 9} {
		got, err := f.TakeFreePage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFSM_Take_LazilyExtendsFarBeyondAllocatedPages(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	require.NoError(t, f.Take(20000))

	free, err := f.IsFree(20000)
	require.NoError(t, err)
	assert.False(t, free)

	free, err = f.IsFree(0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestFSM_Take_DoubleTakeIsCorruption(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	require.NoError(t, f.Take(3))
	err := f.Take(3)
	require.Error(t, err)
	var corrupt *CorruptionError
	assert.ErrorAs(t, err, &corrupt)
}

func TestFSM_Free_DoubleFreeIsCorruption(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	require.NoError(t, f.Take(3))
	require.NoError(t, f.Free(3))
	err := f.Free(3)
	require.Error(t, err)
	var corrupt *CorruptionError
	assert.ErrorAs(t, err, &corrupt)
}

func TestFSM_Free_OutOfRangeIsCorruption(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	err := f.Free(999)
	require.Error(t, err)
	var corrupt *CorruptionError
	assert.ErrorAs(t, err, &corrupt)
}

func TestFSM_IsFree_DefaultsToTrueBeyondAllocation(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	free, err := f.IsFree(12345)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestFSM_Close(t *testing.T) {
	t.Parallel()

	f := NewFSM(NewMemChannel())
	assert.NoError(t, f.Close())
}
