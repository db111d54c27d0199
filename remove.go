package linhash

import "github.com/tuannm99/linhash/internal/storage"

// Remove deletes key if present; removing an absent key
// is a no-op, not an error. If removing the item empties an overflow
// page, that page is spliced out of the chain and its FSM slot is freed
// only after the predecessor page's updated nextPageNumber is durably
// written, so a crash in between never leaves a freed slot still
// referenced by a live chain. The overflow counter in metadata is not
// decremented; the physical slot is only reclaimable through the FSM.
func (m *Map) Remove(key []byte) error {
	if key == nil {
		return &storage.InvalidArgumentError{Field: "key", Reason: "must not be nil"}
	}
	if len(key) > storage.MaxKeySize {
		return &storage.InvalidArgumentError{Field: "key", Reason: "exceeds maximum key length"}
	}

	hash := storage.HashCode(key)
	bucketIndex := storage.BucketIndex(hash, m.meta.HashBits, m.meta.SplitIndex)
	pageNum := storage.BucketPageNumber(bucketIndex, m.meta.OverflowPages)

	prevPageNum := int32(-1)
	var prevPage storage.Page

	for {
		page, err := m.readPage(pageNum)
		if err != nil {
			return err
		}

		if idx := page.Find(hash, key); idx != -1 {
			page.RemoveItem(idx)

			if len(page.Items) > 0 || prevPageNum == -1 {
				return m.writePage(pageNum, page)
			}

			prevPage.NextPageNumber = page.NextPageNumber
			slot, ok := storage.OverflowPageNumToFSMSlot(pageNum, m.meta.OverflowPages, m.meta.ActiveSplitPoint())
			if !ok {
				return &storage.CorruptionError{What: "overflow page number does not map to any fsm slot"}
			}
			if err := m.writePage(prevPageNum, prevPage); err != nil {
				return err
			}
			return m.fsm.Free(slot)
		}

		next := page.NextPageNumber
		if next == storage.NoNextPage {
			return nil
		}
		prevPageNum, prevPage = pageNum, page
		pageNum = next
	}
}
