package index

import (
	"bytes"
	"net/netip"
)

const addrLen = 16

// addrKey maps both families onto 16 bytes; IPv4 uses the v4-in-v6 form
// so the two never interleave.
func addrKey(a netip.Addr) []byte {
	b := a.As16()
	return b[:]
}

// value = end(16) + country
func encodeRange(end netip.Addr, country string) []byte {
	buf := make([]byte, 0, addrLen+len(country))
	buf = append(buf, addrKey(end)...)
	buf = append(buf, country...)
	return buf
}

func decodeRange(v []byte) (end []byte, country string, ok bool) {
	if len(v) <= addrLen {
		return nil, "", false
	}
	return v[:addrLen], string(v[addrLen:]), true
}

func within(key, start, end []byte) bool {
	return bytes.Compare(start, key) <= 0 && bytes.Compare(key, end) <= 0
}
