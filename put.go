package linhash

import "github.com/tuannm99/linhash/internal/storage"

// Put inserts or overwrites key's value. It walks the
// bucket's page chain looking for an existing key to replace (in place
// if it still fits, otherwise by removing it and continuing the walk
// in "free page looking" mode) and for the first page with enough free
// space to hold the new item. If no page qualifies, a new overflow page
// is allocated from the free-space map and linked onto the chain.
func (m *Map) Put(key, value []byte) error {
	if key == nil {
		return &storage.InvalidArgumentError{Field: "key", Reason: "must not be nil"}
	}
	if value == nil {
		return &storage.InvalidArgumentError{Field: "value", Reason: "must not be nil"}
	}
	if len(key) > storage.MaxKeySize {
		return &storage.InvalidArgumentError{Field: "key", Reason: "exceeds maximum key length"}
	}

	item := storage.Item{Hash: storage.HashCode(key), Key: key, Value: value}
	if item.Size() > storage.MaxItemSize {
		return &storage.InvalidArgumentError{Field: "value", Reason: "item does not fit in a page"}
	}

	bucketIndex := storage.BucketIndex(item.Hash, m.meta.HashBits, m.meta.SplitIndex)
	bucketPageNum := storage.BucketPageNumber(bucketIndex, m.meta.OverflowPages)

	var (
		prevPageNum         = bucketPageNum
		prevPage            storage.Page
		freePageNum         int32 = -1
		freePageLookingMode bool
		pageNum                   = bucketPageNum
	)

	for {
		page, err := m.readPage(pageNum)
		if err != nil {
			return err
		}

		if !freePageLookingMode {
			if idx := page.Find(item.Hash, item.Key); idx != -1 {
				old := page.Items[idx]
				if page.FreeSpace+old.Size() >= item.Size() {
					page.Replace(idx, item)
					return m.writePage(pageNum, page)
				}
				page.RemoveItem(idx)
				if err := m.writePage(pageNum, page); err != nil {
					return err
				}
				freePageLookingMode = true
			}
		}

		if freePageNum == -1 && item.Size() <= page.FreeSpace {
			freePageNum = pageNum
		}

		prevPageNum, prevPage = pageNum, page
		next := page.NextPageNumber
		if next == storage.NoNextPage {
			break
		}
		if freePageLookingMode && freePageNum != -1 {
			break
		}
		pageNum = next
	}

	if freePageNum != -1 {
		page, err := m.readPage(freePageNum)
		if err != nil {
			return err
		}
		page.AddItem(item)
		return m.writePage(freePageNum, page)
	}

	newPageNum, slot, err := m.allocateOverflowPage()
	if err != nil {
		return err
	}

	newPage := storage.EmptyPage()
	newPage.AddItem(item)
	prevPage.NextPageNumber = newPageNum

	if err := m.writePage(prevPageNum, prevPage); err != nil {
		return err
	}
	if err := m.writePage(newPageNum, newPage); err != nil {
		return err
	}
	if err := m.writeMetadata(); err != nil {
		return err
	}
	return m.fsm.Take(slot)
}
