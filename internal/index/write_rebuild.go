package index

import (
	bolt "go.etcd.io/bbolt"
	"strconv"
	"time"
)

// Rebuild replaces the whole table in one transaction; readers see either
// the old table or the new one.
func (s *Store) Rebuild(ranges []Range) error {
	sorted := append([]Range(nil), ranges...)
	if err := sortRanges(sorted); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket(bRanges)
		_ = tx.DeleteBucket(bMeta)

		rb, err := tx.CreateBucket(bRanges)
		if err != nil {
			return err
		}
		mb, err := tx.CreateBucket(bMeta)
		if err != nil {
			return err
		}

		for _, r := range sorted {
			if err := rb.Put(addrKey(r.Start), encodeRange(r.End, r.Country)); err != nil {
				return err
			}
		}

		if err := mb.Put(kCount, []byte(strconv.Itoa(len(sorted)))); err != nil {
			return err
		}
		return mb.Put(kImportedAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}
