package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  string
		want int32
	}{
		{"", 1},
		{"a", 128},
		{"key1", 4212019},
		{"key2", 4212020},
		{"key - 0", 925744283},
		{"key - 1", 925744284},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HashCode([]byte(c.key)), "key=%q", c.key)
	}
}

func TestBucketIndex_UnsplitUsesHalfIndex(t *testing.T) {
	t.Parallel()

	// hashBits=3 (L=3), splitIndex=0: every bucket uses halfIndex (L-1=2 bits).
	var hash int32 = 0b1101 // low 3 bits = 101 = 5, halfIndex clears bit 2 -> 001 = 1
	idx := BucketIndex(hash, 3, 0)
	assert.Equal(t, int32(1), idx)
}

func TestBucketIndex_Table(t *testing.T) {
	t.Parallel()

	// L=3, s=2: halfIndex 0 and 1 have split (< s=2) -> use fullIndex.
	// halfIndex 2 and 3 have not split -> use halfIndex.
	cases := []struct {
		hash int32
		want int32
	}{
		{0b000, 0}, // full=0 half=0, 0<2 -> full=0
		{0b100, 4}, // full=4 half=0, 0<2 -> full=4
		{0b001, 1}, // full=1 half=1, 1<2 -> full=1
		{0b101, 5}, // full=5 half=1, 1<2 -> full=5
		{0b010, 2}, // full=2 half=2, 2<2 false -> half=2
		{0b110, 2}, // full=6 half=2, 2<2 false -> half=2
		{0b011, 3}, // full=3 half=3, 3<2 false -> half=3
		{0b111, 3}, // full=7 half=3, 3<2 false -> half=3
	}
	for _, c := range cases {
		got := BucketIndex(c.hash, 3, 2)
		assert.Equal(t, c.want, got, "hash=%b", c.hash)
	}
}

func TestBucketPageNumber_NoOverflow(t *testing.T) {
	t.Parallel()

	var overflow [OverflowLevels]int32
	for i := int32(0); i < 8; i++ {
		assert.Equal(t, i, BucketPageNumber(i, overflow))
	}
}

func TestBucketPageNumber_WithOverflow(t *testing.T) {
	t.Parallel()

	var overflow [OverflowLevels]int32
	overflow[0] = 2
	overflow[1] = 1

	assert.Equal(t, int32(0), BucketPageNumber(0, overflow))    // bucket 0 always page 0
	assert.Equal(t, int32(1+2), BucketPageNumber(1, overflow))  // h=0, sum=overflow[0]=2
	assert.Equal(t, int32(2+3), BucketPageNumber(2, overflow))  // h=1, sum=2+1=3
	assert.Equal(t, int32(3+3), BucketPageNumber(3, overflow))  // h=1, sum=3
}

func TestFSMSlotMapping_RoundTrip(t *testing.T) {
	t.Parallel()

	var overflow [OverflowLevels]int32
	overflow[0] = 3
	overflow[1] = 2
	activeSplitPoint := 1

	for slot := int32(0); slot < 5; slot++ {
		pageNum, ok := FSMSlotToOverflowPageNum(slot, overflow, activeSplitPoint)
		require.True(t, ok)

		back, ok := OverflowPageNumToFSMSlot(pageNum, overflow, activeSplitPoint)
		require.True(t, ok)
		assert.Equal(t, slot, back)
	}
}
