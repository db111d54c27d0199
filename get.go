package linhash

import "github.com/tuannm99/linhash/internal/storage"

// Get looks up key and returns its value, or (nil, nil) if no such key
// is present. Key equality is "hashes equal AND
// byte-wise array equality".
func (m *Map) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, &storage.InvalidArgumentError{Field: "key", Reason: "must not be nil"}
	}
	if len(key) > storage.MaxKeySize {
		return nil, &storage.InvalidArgumentError{Field: "key", Reason: "exceeds maximum key length"}
	}

	hash := storage.HashCode(key)
	bucketIndex := storage.BucketIndex(hash, m.meta.HashBits, m.meta.SplitIndex)
	pageNum := storage.BucketPageNumber(bucketIndex, m.meta.OverflowPages)

	if pageNum >= m.meta.ExpectedPages() {
		// Defensive guard against metadata/addressing corruption; in a
		// well-formed store this branch is unreachable since every valid
		// bucketIndex always maps inside the file's allocated extent.
		return nil, nil
	}

	for {
		page, err := m.readPage(pageNum)
		if err != nil {
			return nil, err
		}
		if idx := page.Find(hash, key); idx != -1 {
			return page.Items[idx].Value, nil
		}
		if page.NextPageNumber == storage.NoNextPage {
			return nil, nil
		}
		pageNum = page.NextPageNumber
	}
}
