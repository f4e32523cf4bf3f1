package content

import (
	"strings"
)

// Ext is the on-disk suffix of every article file.
const Ext = ".md"

// MDField is the frontmatter of one article. A nil GeoAllow or GeoBlock
// means "no restriction"; an empty non-nil one is invalid.
type MDField struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Date        string   `json:"date" yaml:"date"`
	Tags        []string `json:"tags" yaml:"tags"`
	GeoAllow    []string `json:"geoAllow,omitempty" yaml:"geoAllow,omitempty"`
	GeoBlock    []string `json:"geoBlock,omitempty" yaml:"geoBlock,omitempty"`
}

type Article struct {
	// Filename includes Ext.
	Filename string
	Meta     MDField
	Content  string
}

// Name is the filename without Ext, as used in URLs.
func (a Article) Name() string {
	return strings.TrimSuffix(a.Filename, Ext)
}

// HasTag is an exact, case-sensitive membership test.
func (m MDField) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Restricted reports whether either geo list is set.
func (m MDField) Restricted() bool {
	return m.GeoAllow != nil || m.GeoBlock != nil
}

// Normalize turns the list fields into sets, keeping first occurrence order.
// Values are not trimmed or case-folded.
func (m *MDField) Normalize() {
	m.Tags = dedupe(m.Tags)
	m.GeoAllow = dedupe(m.GeoAllow)
	m.GeoBlock = dedupe(m.GeoBlock)
}

func dedupe(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// FileName maps an article name to its file name, accepting either form.
func FileName(name string) string {
	return strings.TrimSuffix(name, Ext) + Ext
}

// ValidName rejects names that could escape a root directory.
func ValidName(name string) bool {
	name = strings.TrimSuffix(name, Ext)
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return !strings.HasPrefix(name, ".")
}
