package linhash

import (
	"log/slog"

	"go.uber.org/multierr"

	"github.com/tuannm99/linhash/internal/storage"
)

// Map is the linear-hashing coordinator: it orchestrates the
// free-space map, page engine and addressing functions over a data
// channel and an FSM channel to implement Get/Put/Remove/Split. A Map
// is not safe for concurrent use; callers must serialize all access.
type Map struct {
	dataCh storage.ByteChannel
	fsm    *storage.FSM
	meta   storage.Metadata

	lock *fileLock // nil when opened directly from caller-supplied channels
}

// Open reopens an existing map from its data and FSM channels. It
// fails with CorruptionError if the data channel's size is
// inconsistent with the persisted metadata.
func Open(dataCh, fsmCh storage.ByteChannel) (*Map, error) {
	size, err := dataCh.Size()
	if err != nil {
		return nil, err
	}
	if size < storage.MetadataSize {
		return nil, &storage.CorruptionError{What: "data channel shorter than one metadata record"}
	}

	buf := make([]byte, storage.MetadataSize)
	if err := dataCh.ReadAt(0, buf); err != nil {
		return nil, err
	}
	meta, err := storage.DecodeMetadata(buf)
	if err != nil {
		return nil, err
	}

	wantSize := int64(storage.MetadataSize) + int64(meta.ExpectedPages())*storage.PageSize
	if size != wantSize {
		return nil, &storage.CorruptionError{What: "data channel size does not match metadata's expected page count"}
	}

	m := &Map{dataCh: dataCh, fsm: storage.NewFSM(fsmCh), meta: meta}
	slog.Debug("linhash: opened existing map", "hashBits", meta.HashBits, "splitIndex", meta.SplitIndex, "bucketsNum", meta.BucketsNum())
	return m, nil
}

// OpenNew creates a brand-new map over empty data and FSM channels.
// bucketsNum is 1 if initialSize==1, otherwise the next power of two
// at or above initialSize; hashBits is its bit length (this matches
// bucketsNum==1 => hashBits==1, not a log2(1)+1 special case).
func OpenNew(dataCh, fsmCh storage.ByteChannel, initialSize uint32) (*Map, error) {
	size, err := dataCh.Size()
	if err != nil {
		return nil, err
	}
	if size != 0 {
		return nil, &storage.InvalidArgumentError{Field: "dataCh", Reason: "must be empty for OpenNew"}
	}

	bucketsNum := nextPow2(initialSize)
	meta := storage.Metadata{
		HashBits:   bitLength(bucketsNum),
		SplitIndex: 0,
	}

	empty := storage.EncodePage(storage.EmptyPage())
	for i := uint32(0); i < bucketsNum; i++ {
		off := int64(storage.MetadataSize) + int64(i)*storage.PageSize
		if err := dataCh.WriteAt(off, empty); err != nil {
			return nil, err
		}
	}
	if err := dataCh.WriteAt(0, storage.EncodeMetadata(meta)); err != nil {
		return nil, err
	}

	m := &Map{dataCh: dataCh, fsm: storage.NewFSM(fsmCh), meta: meta}
	slog.Debug("linhash: created new map", "bucketsNum", bucketsNum, "hashBits", meta.HashBits)
	return m, nil
}

// nextPow2 returns the smallest power of two >= n, with nextPow2(0) == 1.
func nextPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bitLength(n-1)
}

// bitLength returns Go's equivalent of Java's
// Integer.SIZE-numberOfLeadingZeros(n): the number of bits needed to
// represent n, with bitLength(0) == 0 and bitLength(1) == 1.
func bitLength(n uint32) uint8 {
	bl := 0
	for ; n != 0; n >>= 1 {
		bl++
	}
	return uint8(bl)
}

// Close releases the data and FSM channels, in that order,
// and releases the advisory file lock if one was taken by OpenFile.
// Errors from both channels are combined rather than the second
// silently shadowing the first.
func (m *Map) Close() error {
	err := m.dataCh.Close()
	err = multierr.Append(err, m.fsm.Close())
	if m.lock != nil {
		err = multierr.Append(err, m.lock.unlock())
	}
	return err
}

func (m *Map) readPage(pageNum int32) (storage.Page, error) {
	off := int64(storage.MetadataSize) + int64(pageNum)*storage.PageSize
	buf := make([]byte, storage.PageSize)
	if err := m.dataCh.ReadAt(off, buf); err != nil {
		return storage.Page{}, err
	}
	return storage.DecodePage(buf)
}

func (m *Map) writePage(pageNum int32, page storage.Page) error {
	off := int64(storage.MetadataSize) + int64(pageNum)*storage.PageSize
	return m.dataCh.WriteAt(off, storage.EncodePage(page))
}

func (m *Map) writeMetadata() error {
	return m.dataCh.WriteAt(0, storage.EncodeMetadata(m.meta))
}

// allocateOverflowPage increments the metadata's active-level overflow
// counter, finds a free FSM slot for it, and returns the physical page
// number that slot maps to. Put writes the affected pages and the
// metadata, then calls m.fsm.Take(slot), in that order; rebuildChain
// takes the slot once the linking page is written and leaves the
// metadata to Split.
func (m *Map) allocateOverflowPage() (pageNum int32, slot int32, err error) {
	sp := m.meta.ActiveSplitPoint()
	m.meta.OverflowPages[sp]++

	slot, err = m.fsm.FindFreePage()
	if err != nil {
		m.meta.OverflowPages[sp]--
		return 0, 0, err
	}
	pageNum, ok := storage.FSMSlotToOverflowPageNum(slot, m.meta.OverflowPages, sp)
	if !ok {
		m.meta.OverflowPages[sp]--
		return 0, 0, &storage.CorruptionError{What: "fsm slot does not map to any overflow page number"}
	}
	return pageNum, slot, nil
}
