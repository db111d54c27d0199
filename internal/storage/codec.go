package storage

import (
	"github.com/tuannm99/linhash/internal/alias/bx"
)

// Item is one key/value record cached with its hash, stored packed
// inside a page body. hash is the Java
// Arrays.hashCode(byte[]) of key (see Addressing), persisted alongside
// the record so lookups can short-circuit on a hash mismatch without a
// full byte comparison.
type Item struct {
	Hash  int32
	Key   []byte
	Value []byte
}

// Size is the number of bytes this item occupies once encoded:
// 4 (hash) + 2 (keyLen) + len(key) + 2 (valueLen) + len(value).
func (it Item) Size() int {
	return 4 + 2 + len(it.Key) + 2 + len(it.Value)
}

// EncodeItem appends the big-endian wire representation of it to buf and
// returns the result.
func EncodeItem(buf []byte, it Item) []byte {
	var hdr [8]byte
	bx.PutU32BE(hdr[0:4], uint32(it.Hash))
	bx.PutU16BE(hdr[4:6], uint16(len(it.Key)))
	bx.PutU16BE(hdr[6:8], uint16(len(it.Value)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, it.Key...)
	buf = append(buf, it.Value...)
	return buf
}

// DecodeItem reads one item starting at the front of buf and returns it
// together with the number of bytes consumed. It fails with
// CorruptionError if the length prefixes overrun the buffer.
func DecodeItem(buf []byte) (Item, int, error) {
	if len(buf) < 8 {
		return Item{}, 0, &CorruptionError{What: "item header truncated"}
	}
	hash := int32(bx.U32BE(buf[0:4]))
	keyLen := int(bx.U16BE(buf[4:6]))
	valLen := int(bx.U16BE(buf[6:8]))

	end := 8 + keyLen + valLen
	if end > len(buf) {
		return Item{}, 0, &CorruptionError{What: "item body overruns page buffer"}
	}

	key := make([]byte, keyLen)
	copy(key, buf[8:8+keyLen])
	val := make([]byte, valLen)
	copy(val, buf[8+keyLen:end])

	return Item{Hash: hash, Key: key, Value: val}, end, nil
}

// Metadata is the linear-hashing addressing state persisted at offset 0
// of the data file.
type Metadata struct {
	// HashBits is the number of hash bits currently addressable.
	HashBits uint8
	// SplitIndex is the next bucket to split.
	SplitIndex int32
	// OverflowPages[i] counts overflow pages allocated while level i was active.
	OverflowPages [OverflowLevels]int32
}

// BucketsNum returns (1 << (HashBits-1)) + SplitIndex.
func (m Metadata) BucketsNum() int32 {
	return (int32(1) << (m.HashBits - 1)) + m.SplitIndex
}

// TotalOverflowPages returns the sum of OverflowPages.
func (m Metadata) TotalOverflowPages() int32 {
	var total int32
	for _, c := range m.OverflowPages {
		total += c
	}
	return total
}

// ExpectedPages returns BucketsNum() + TotalOverflowPages(), the number
// of 256-byte data pages that should follow the metadata record.
func (m Metadata) ExpectedPages() int32 {
	return m.BucketsNum() + m.TotalOverflowPages()
}

// ActiveSplitPoint is hashBits-1 if splitIndex==0, else hashBits: the
// index into OverflowPages[] that the next allocation should increment.
func (m Metadata) ActiveSplitPoint() int {
	if m.SplitIndex == 0 {
		return int(m.HashBits) - 1
	}
	return int(m.HashBits)
}

// EncodeMetadata writes m's big-endian, fixed 137-byte wire representation.
func EncodeMetadata(m Metadata) []byte {
	buf := make([]byte, MetadataSize)
	buf[0] = m.HashBits
	bx.PutU32BE(buf[1:5], uint32(m.SplitIndex))
	for i, c := range m.OverflowPages {
		off := 5 + i*4
		bx.PutU32BE(buf[off:off+4], uint32(c))
	}
	return buf
}

// DecodeMetadata parses a 137-byte buffer into a Metadata record.
func DecodeMetadata(buf []byte) (Metadata, error) {
	if len(buf) != MetadataSize {
		return Metadata{}, &CorruptionError{What: "metadata record has wrong size"}
	}
	m := Metadata{
		HashBits:   buf[0],
		SplitIndex: int32(bx.U32BE(buf[1:5])),
	}
	if m.HashBits < 1 || m.HashBits > MaxHashBits {
		return Metadata{}, &CorruptionError{What: "hashBits out of range"}
	}
	for i := range m.OverflowPages {
		off := 5 + i*4
		m.OverflowPages[i] = int32(bx.U32BE(buf[off : off+4]))
	}
	return m, nil
}
