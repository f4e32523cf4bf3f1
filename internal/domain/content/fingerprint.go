package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Fingerprint struct {
	MetaHash    string
	ContentHash string
	Hash        string
}

func (f *Fingerprint) ComputeHash() {
	h := sha256.New()
	h.Write([]byte(f.MetaHash))
	h.Write([]byte(f.ContentHash))
	f.Hash = hex.EncodeToString(h.Sum(nil))[:32]
}

// FingerprintOf hashes everything a reader can observe about an article.
func FingerprintOf(a Article) Fingerprint {
	m := a.Meta
	f := Fingerprint{
		MetaHash: hashStrings(
			a.Filename, m.Title, m.Description, m.Date,
			strings.Join(m.Tags, "\x1f"),
			"allow", strings.Join(m.GeoAllow, "\x1f"),
			"block", strings.Join(m.GeoBlock, "\x1f"),
		),
		ContentHash: hashStrings(a.Content),
	}
	f.ComputeHash()
	return f
}

func hashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
