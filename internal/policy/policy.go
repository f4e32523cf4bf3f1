// Package policy decides which articles a caller may see.
package policy

import (
	"geoblog/internal/domain/content"
	"sort"
	"strings"
)

// Caller is the resolved identity of whoever is reading. Country is empty
// when the geo lookup found nothing.
type Caller struct {
	Admin   bool
	Country string
}

// Filter holds the per-call inputs that are independent of the caller.
// SkipGeo turns geo enforcement off; it is set for the drafts root, which
// only admins reach anyway.
type Filter struct {
	Tag     string
	SkipGeo bool
}

// GeoAllowed applies the record's geo lists to a caller. Admins always pass.
// A non-admin without a country fails, whatever the record says.
func GeoAllowed(m content.MDField, c Caller) bool {
	if c.Admin {
		return true
	}
	if c.Country == "" {
		return false
	}
	switch {
	case m.GeoAllow != nil:
		return containsFold(m.GeoAllow, c.Country)
	case m.GeoBlock != nil:
		return !containsFold(m.GeoBlock, c.Country)
	default:
		return true
	}
}

// Visible combines the tag match with the geo decision.
func Visible(a content.Article, c Caller, f Filter) bool {
	if f.Tag != "" && !a.Meta.HasTag(f.Tag) {
		return false
	}
	return f.SkipGeo || GeoAllowed(a.Meta, c)
}

// FilterVisible keeps the visible articles in their original order.
func FilterVisible(articles []content.Article, c Caller, f Filter) []content.Article {
	out := make([]content.Article, 0, len(articles))
	for _, a := range articles {
		if Visible(a, c, f) {
			out = append(out, a)
		}
	}
	return out
}

// SortByDate orders newest first. Dates are fixed-width so string order is
// date order; equal dates keep their incoming order.
func SortByDate(articles []content.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Meta.Date > articles[j].Meta.Date
	})
}

// TagCounts counts raw tag strings across the given articles.
func TagCounts(articles []content.Article) map[string]int {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, t := range a.Meta.Tags {
			counts[t]++
		}
	}
	return counts
}

func containsFold(list []string, code string) bool {
	for _, item := range list {
		if strings.EqualFold(item, code) {
			return true
		}
	}
	return false
}
