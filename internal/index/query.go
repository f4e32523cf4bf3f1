package index

import (
	bolt "go.etcd.io/bbolt"
	"strconv"
	"strings"
	"time"
)

// ResolveCountry returns the country code for ip. ok is false when ip does
// not parse or no range covers it.
func (s *Store) ResolveCountry(ip string) (string, bool) {
	addr, err := parseAddr(ip)
	if err != nil {
		return "", false
	}
	key := addrKey(addr)

	var country string
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bRanges)
		if b == nil {
			return nil
		}
		c := b.Cursor()

		k, v := c.Seek(key)
		switch {
		case k == nil:
			k, v = c.Last()
		case string(k) != string(key):
			k, v = c.Prev()
		}
		if k == nil {
			return nil
		}
		end, cc, ok := decodeRange(v)
		if ok && within(key, k, end) {
			country = cc
		}
		return nil
	})
	return country, country != ""
}

type Stats struct {
	Ranges     int
	ImportedAt time.Time
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return nil
		}
		if v := b.Get(kCount); v != nil {
			n, err := strconv.Atoi(string(v))
			if err != nil {
				return err
			}
			st.Ranges = n
		}
		if v := b.Get(kImportedAt); v != nil {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(v)))
			if err != nil {
				return err
			}
			st.ImportedAt = t
		}
		return nil
	})
	return st, err
}
