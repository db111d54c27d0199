package linhash

import "github.com/tuannm99/linhash/internal/storage"

// Split grows the map by one bucket: it rehashes bucket splitIndex's
// chain at the next hash bit, distributing its items between that
// bucket and its buddy (splitIndex + 2^(hashBits-1)), allocates the
// buddy's bucket page by growing the data file directly (bucket pages
// are not FSM-tracked), and advances splitIndex/hashBits.
//
// Split is an explicit operation callers invoke on whatever growth
// policy they choose (e.g. Config.LoadFactorThreshold); linhash
// itself never calls it from Put.
func (m *Map) Split() error {
	l := uint(m.meta.HashBits)
	splitBoundary := int32(1) << (l - 1)
	if m.meta.SplitIndex >= splitBoundary {
		return &storage.CorruptionError{What: "splitIndex out of range for hashBits"}
	}

	oldIdx := m.meta.SplitIndex
	newIdx := oldIdx + splitBoundary
	oldPageNum := storage.BucketPageNumber(oldIdx, m.meta.OverflowPages)

	items, overflowPageNums, err := m.collectChain(oldPageNum)
	if err != nil {
		return err
	}

	mask := (int32(1) << l) - 1
	var keepOld, moveNew []storage.Item
	for _, it := range items {
		if it.Hash&mask == newIdx {
			moveNew = append(moveNew, it)
		} else {
			keepOld = append(keepOld, it)
		}
	}

	// Resolve the old chain's overflow pages to FSM slots now, against a
	// snapshot of the overflow-page counters, before rebuildChain below
	// has a chance to allocate new overflow pages and advance those same
	// counters out from under this computation.
	activeSplitPoint := m.meta.ActiveSplitPoint()
	freedSlots := make([]int32, len(overflowPageNums))
	for i, p := range overflowPageNums {
		slot, ok := storage.OverflowPageNumToFSMSlot(p, m.meta.OverflowPages, activeSplitPoint)
		if !ok {
			return &storage.CorruptionError{What: "overflow page number does not map to any fsm slot"}
		}
		freedSlots[i] = slot
	}

	// splitIndex/hashBits are advanced before the rebuilds, so overflow
	// pages they allocate are counted at the next level, whose stripe lies
	// past every bucket page of the current round. The buddy's physical
	// page (BucketPageNumber of newIdx) only sums lower levels' counters,
	// so those allocations neither move it nor land on it. The buddy page
	// is not FSM-allocated; writing it grows the data file as needed.
	m.meta.SplitIndex++
	if m.meta.SplitIndex == splitBoundary {
		m.meta.HashBits++
		m.meta.SplitIndex = 0
	}
	newPageNum := storage.BucketPageNumber(newIdx, m.meta.OverflowPages)

	if err := m.rebuildChain(oldPageNum, keepOld); err != nil {
		return err
	}
	if err := m.rebuildChain(newPageNum, moveNew); err != nil {
		return err
	}

	// The old chain's overflow slots are freed only after both rebuilt
	// chains have been written, so neither rebuild is handed one of the
	// old chain's pages. The old bucket page has already been overwritten
	// by then, and the metadata is written last.
	for _, slot := range freedSlots {
		if err := m.fsm.Free(slot); err != nil {
			return err
		}
	}

	return m.writeMetadata()
}

// collectChain reads every page in the chain starting at pageNum and
// returns all of its items plus the page numbers of every page after
// the first (its overflow pages).
func (m *Map) collectChain(pageNum int32) ([]storage.Item, []int32, error) {
	var items []storage.Item
	var overflowPageNums []int32
	first := true
	for {
		page, err := m.readPage(pageNum)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, page.Items...)
		if !first {
			overflowPageNums = append(overflowPageNums, pageNum)
		}
		first = false
		if page.NextPageNumber == storage.NoNextPage {
			return items, overflowPageNums, nil
		}
		pageNum = page.NextPageNumber
	}
}

// rebuildChain writes items into a fresh chain starting at pageNum (the
// first page's physical slot, which must already be a valid bucket
// page), allocating overflow pages as needed through allocateOverflowPage
// as Put does. Each slot is taken as soon as the page linking to it is
// written; the metadata is written by Split once both chains are rebuilt.
func (m *Map) rebuildChain(pageNum int32, items []storage.Item) error {
	page := storage.EmptyPage()
	for _, it := range items {
		if it.Size() > page.FreeSpace {
			nextPageNum, slot, err := m.allocateOverflowPage()
			if err != nil {
				return err
			}
			page.NextPageNumber = nextPageNum
			if err := m.writePage(pageNum, page); err != nil {
				return err
			}
			if err := m.fsm.Take(slot); err != nil {
				return err
			}
			page = storage.EmptyPage()
			pageNum = nextPageNum
		}
		page.AddItem(it)
	}
	return m.writePage(pageNum, page)
}
