// Package storage implements the on-disk linear-hashing map: byte
// channels, the page/item codec, the free-space map and the bucket/page
// addressing scheme that the Map coordinator (package linhash) drives.
package storage

const (
	// PageSize is the fixed size of every data page, in bytes. It is part
	// of the on-disk wire format and must never be changed by configuration.
	PageSize = 256

	// PageHeaderSize is itemsCount(2) + freeSpace(2) + nextPageNumber(4).
	PageHeaderSize = 8

	// MaxItemSize is the largest an encoded item (hash+key+value) may be.
	MaxItemSize = PageSize - PageHeaderSize

	// MaxKeySize bounds the key so that hash(4)+keyLen(2)+key+valueLen(2)
	// still leaves room for a zero-length value inside one page.
	MaxKeySize = MaxItemSize - 8

	// NoNextPage is the nextPageNumber sentinel meaning "end of chain".
	NoNextPage int32 = -1

	// MetadataSize is 1 (hashBits) + 4 (splitIndex) + 33*4 (overflowPages).
	MetadataSize = 1 + 4 + OverflowLevels*4

	// OverflowLevels is the hash width in bits (32) plus one: 33 counters, indices 0..32.
	OverflowLevels = 33

	// MaxHashBits bounds hashBits per the metadata invariant (1..33).
	MaxHashBits = 33

	// FSMPageSize is the size, in bytes, of one free-space-map page: 256 bits.
	FSMPageSize = 32

	// FSMSlotsPerPage is the number of overflow slots tracked by one FSM page.
	FSMSlotsPerPage = FSMPageSize * 8
)
