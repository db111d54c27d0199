package storage

import (
	"log/slog"
	"math/bits"
)

// FSM is the bit-packed free-space map allocator: one bit
// per overflow slot, packed 256 to a 32-byte FSM page, growing lazily as
// higher slots are taken. Bit=1 means taken, bit=0 means free (including
// implicitly, past the currently allocated FSM pages).
type FSM struct {
	ch ByteChannel
}

// NewFSM wraps ch as a free-space map.
func NewFSM(ch ByteChannel) *FSM {
	return &FSM{ch: ch}
}

// Close releases the underlying channel.
func (f *FSM) Close() error {
	return f.ch.Close()
}

func fsmLocate(slot int32) (pageNum int64, byteInPage int, bitInByte uint) {
	pageNum = int64(slot) / FSMSlotsPerPage
	withinPage := int64(slot) % FSMSlotsPerPage
	byteInPage = int(withinPage / 8)
	bitInByte = uint(withinPage % 8)
	return
}

func (f *FSM) readByte(pageNum int64, byteInPage int) (byte, error) {
	size, err := f.ch.Size()
	if err != nil {
		return 0, err
	}
	off := pageNum*FSMPageSize + int64(byteInPage)
	if off >= size {
		return 0, nil
	}
	var b [1]byte
	if err := f.ch.ReadAt(off, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *FSM) writeByte(pageNum int64, byteInPage int, v byte) error {
	off := pageNum*FSMPageSize + int64(byteInPage)
	return f.ch.WriteAt(off, []byte{v})
}

// IsFree reports whether slot n is unallocated or its bit is 0.
func (f *FSM) IsFree(n int32) (bool, error) {
	pageNum, byteInPage, bitInByte := fsmLocate(n)
	b, err := f.readByte(pageNum, byteInPage)
	if err != nil {
		return false, err
	}
	return b&(1<<bitInByte) == 0, nil
}

// Take marks slot n as taken, lazily zero-extending the FSM file by whole
// FSM pages up to the page covering n if n falls beyond its current
// length. It fails with CorruptionError if the bit is already set.
func (f *FSM) Take(n int32) error {
	pageNum, byteInPage, bitInByte := fsmLocate(n)
	size, err := f.ch.Size()
	if err != nil {
		return err
	}
	if pageEnd := (pageNum + 1) * FSMPageSize; pageEnd > size {
		if err := f.ch.WriteAt(size, make([]byte, pageEnd-size)); err != nil {
			return err
		}
	}
	b, err := f.readByte(pageNum, byteInPage)
	if err != nil {
		return err
	}
	if b&(1<<bitInByte) != 0 {
		return &CorruptionError{What: "fsm: take of an already-taken slot"}
	}
	slog.Debug("fsm: take", "slot", n)
	return f.writeByte(pageNum, byteInPage, b|(1<<bitInByte))
}

// Free clears slot n's bit. It fails with CorruptionError on a double
// free or an out-of-range slot (one whose FSM page was never allocated).
func (f *FSM) Free(n int32) error {
	pageNum, byteInPage, bitInByte := fsmLocate(n)
	size, err := f.ch.Size()
	if err != nil {
		return err
	}
	if pageNum*FSMPageSize+int64(byteInPage) >= size {
		return &CorruptionError{What: "fsm: free of a slot outside the allocated map"}
	}
	b, err := f.readByte(pageNum, byteInPage)
	if err != nil {
		return err
	}
	if b&(1<<bitInByte) == 0 {
		return &CorruptionError{What: "fsm: double free"}
	}
	slog.Debug("fsm: free", "slot", n)
	return f.writeByte(pageNum, byteInPage, b&^(1<<bitInByte))
}

// FindFreePage returns the lowest slot number n whose bit is 0, scanning
// FSM pages sequentially and skipping any 0xFF byte; within the first
// non-full byte it finds the lowest zero bit via trailing_zeros(~b).
// A slot one past the end of the allocated map always qualifies.
func (f *FSM) FindFreePage() (int32, error) {
	size, err := f.ch.Size()
	if err != nil {
		return 0, err
	}

	buf := make([]byte, FSMPageSize)
	var pageNum int64
	for off := int64(0); off < size; off += FSMPageSize {
		n := int(size - off)
		if n > FSMPageSize {
			n = FSMPageSize
		}
		if err := f.ch.ReadAt(off, buf[:n]); err != nil {
			return 0, err
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			if b == 0xFF {
				continue
			}
			bit := bits.TrailingZeros8(^b)
			slot := pageNum*FSMSlotsPerPage + int64(i)*8 + int64(bit)
			return int32(slot), nil
		}
		pageNum++
	}
	// Past the end of the allocated map: slot 0 of the next page.
	return int32(pageNum * FSMSlotsPerPage), nil
}

// TakeFreePage finds the lowest free slot and takes it in one step,
// returning the slot number allocated.
func (f *FSM) TakeFreePage() (int32, error) {
	n, err := f.FindFreePage()
	if err != nil {
		return 0, err
	}
	if err := f.Take(n); err != nil {
		return 0, err
	}
	return n, nil
}
