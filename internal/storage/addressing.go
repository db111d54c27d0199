package storage

import "math/bits"

// HashCode computes Java's Arrays.hashCode(byte[]) of key: h starts at 1,
// then for every byte x (read as a signed int8) h = 31*h + x with 32-bit
// two's-complement wraparound. This exact definition is part of the
// on-disk contract since the hash is persisted in every
// item and compared on lookup.
func HashCode(key []byte) int32 {
	h := int32(1)
	for _, b := range key {
		h = 31*h + int32(int8(b))
	}
	return h
}

// BucketIndex maps a key's hash to a logical bucket index given the
// current addressing state. hashBits is L, splitIndex is
// s: fullIndex uses the low L bits of hash; halfIndex drops the top of
// those L bits; buckets below splitIndex have already split this round
// and so use the full L bits, the rest use L-1.
func BucketIndex(hash int32, hashBits uint8, splitIndex int32) int32 {
	l := uint(hashBits)
	fullMask := (int32(1) << l) - 1
	fullIndex := hash & fullMask
	halfIndex := fullIndex &^ (int32(1) << (l - 1))
	if halfIndex < splitIndex {
		return fullIndex
	}
	return halfIndex
}

// BucketPageNumber maps a logical bucket index to its physical bucket
// page number, given the per-level overflow-page counts, which it sums
// itself. Bucket 0 is always physical page 0; otherwise the
// highest set bit of bucketIndex tells how many complete levels of
// overflow pages precede it.
func BucketPageNumber(bucketIndex int32, overflowPages [OverflowLevels]int32) int32 {
	if bucketIndex == 0 {
		return 0
	}
	h := bits.Len32(uint32(bucketIndex)) - 1 // floor(log2(bucketIndex))
	var sum int32
	for i := 0; i <= h; i++ {
		sum += overflowPages[i]
	}
	return bucketIndex + sum
}

// FSMSlotToOverflowPageNum maps an FSM slot number to the physical
// overflow page number it covers, scanning levels 0..activeSplitPoint
//. It returns false if slot does not fall within any
// level's currently allocated range.
func FSMSlotToOverflowPageNum(slot int32, overflowPages [OverflowLevels]int32, activeSplitPoint int) (int32, bool) {
	var pagesCount int32
	for i := 0; i <= activeSplitPoint; i++ {
		pagesCount += overflowPages[i]
		if slot < pagesCount {
			return (int32(1) << uint(i)) + slot, true
		}
	}
	return 0, false
}

// OverflowPageNumToFSMSlot is the inverse of FSMSlotToOverflowPageNum:
// given a physical overflow page number, returns its FSM slot.
func OverflowPageNumToFSMSlot(pageNum int32, overflowPages [OverflowLevels]int32, activeSplitPoint int) (int32, bool) {
	var pageCount int32
	for i := 0; i <= activeSplitPoint; i++ {
		pageCount += overflowPages[i]
		buckets := int32(1) << uint(i)
		if pageNum < pageCount+buckets {
			return pageNum - buckets, true
		}
	}
	return 0, false
}
