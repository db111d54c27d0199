package storage

import "github.com/tuannm99/linhash/internal/alias/bx"

// Page is the in-memory representation of one 256-byte data page: a
// header (itemsCount, freeSpace, nextPageNumber) followed by a packed,
// insertion-ordered list of items. Item order is not
// required to be stable across Remove/Replace.
type Page struct {
	Items          []Item
	FreeSpace      int
	NextPageNumber int32
}

// EmptyPage returns a freshly initialized page: no items, FreeSpace ==
// PageSize-PageHeaderSize, NextPageNumber == NoNextPage.
func EmptyPage() Page {
	return Page{
		Items:          nil,
		FreeSpace:      PageSize - PageHeaderSize,
		NextPageNumber: NoNextPage,
	}
}

// AddItem appends item to the page and decrements FreeSpace. The caller
// must have already checked FreeSpace >= item.Size().
func (p *Page) AddItem(item Item) {
	p.Items = append(p.Items, item)
	p.FreeSpace -= item.Size()
}

// RemoveItem removes the item at index i, shifting the tail down and
// crediting its size back to FreeSpace.
func (p *Page) RemoveItem(i int) {
	removed := p.Items[i]
	p.Items = append(p.Items[:i], p.Items[i+1:]...)
	p.FreeSpace += removed.Size()
}

// Replace overwrites the item at index i with newItem, adjusting
// FreeSpace by oldItem.Size()-newItem.Size(). The caller must have
// already checked the adjusted FreeSpace would stay >= 0.
func (p *Page) Replace(i int, newItem Item) {
	old := p.Items[i]
	p.Items[i] = newItem
	p.FreeSpace += old.Size() - newItem.Size()
}

// Find returns the index of the first item whose hash and key match,
// or -1 if none does. Key equality is hash-equal AND byte-equal.
func (p *Page) Find(hash int32, key []byte) int {
	for i, it := range p.Items {
		if it.Hash == hash && bytesEqual(it.Key, key) {
			return i
		}
	}
	return -1
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EncodePage serializes p into exactly PageSize bytes: header, then
// items in array order. Any remainder is left zeroed.
func EncodePage(p Page) []byte {
	buf := make([]byte, PageHeaderSize, PageSize)
	bx.PutU16BE(buf[0:2], uint16(len(p.Items)))
	bx.PutU16BE(buf[2:4], uint16(p.FreeSpace))
	bx.PutU32BE(buf[4:8], uint32(p.NextPageNumber))

	for _, it := range p.Items {
		buf = EncodeItem(buf, it)
	}
	if len(buf) > PageSize {
		// Caller-level invariants (Size() checks before AddItem) should make
		// this unreachable; guard against silently truncating on-disk data.
		panic("storage: encoded page exceeds PageSize")
	}
	out := make([]byte, PageSize)
	copy(out, buf)
	return out
}

// DecodePage parses a PageSize-byte buffer into a Page.
func DecodePage(buf []byte) (Page, error) {
	if len(buf) != PageSize {
		return Page{}, &CorruptionError{What: "page buffer has wrong size"}
	}
	itemsCount := int(bx.U16BE(buf[0:2]))
	freeSpace := int(bx.U16BE(buf[2:4]))
	next := int32(bx.U32BE(buf[4:8]))

	if next < -1 {
		return Page{}, &CorruptionError{What: "negative nextPageNumber other than -1"}
	}
	if freeSpace < 0 || freeSpace > PageSize-PageHeaderSize {
		return Page{}, &CorruptionError{What: "freeSpace out of range"}
	}

	items := make([]Item, 0, itemsCount)
	off := PageHeaderSize
	for i := 0; i < itemsCount; i++ {
		it, n, err := DecodeItem(buf[off:])
		if err != nil {
			return Page{}, err
		}
		items = append(items, it)
		off += n
	}

	return Page{Items: items, FreeSpace: freeSpace, NextPageNumber: next}, nil
}
