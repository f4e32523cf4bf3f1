package policy

import (
	"geoblog/internal/domain/content"
	"github.com/stretchr/testify/require"
	"testing"
)

func article(name, date string, tags []string, allow, block []string) content.Article {
	return content.Article{
		Filename: name + ".md",
		Meta: content.MDField{
			Title: name, Description: name, Date: date,
			Tags: tags, GeoAllow: allow, GeoBlock: block,
		},
	}
}

func names(articles []content.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Name())
	}
	return out
}

func TestGeoAllowed_Block(t *testing.T) {
	t.Parallel()

	m := article("x", "2024-01-01", []string{"a"}, nil, []string{"US", "CA"}).Meta

	require.False(t, GeoAllowed(m, Caller{Country: "us"}))
	require.False(t, GeoAllowed(m, Caller{Country: "US"}))
	require.False(t, GeoAllowed(m, Caller{Country: "Ca"}))
	require.True(t, GeoAllowed(m, Caller{Country: "fr"}))
	require.False(t, GeoAllowed(m, Caller{}))
	require.True(t, GeoAllowed(m, Caller{Admin: true, Country: "us"}))
}

func TestGeoAllowed_Allow(t *testing.T) {
	t.Parallel()

	m := article("x", "2024-01-01", []string{"a"}, []string{"FR"}, nil).Meta

	require.True(t, GeoAllowed(m, Caller{Country: "fr"}))
	require.True(t, GeoAllowed(m, Caller{Country: "FR"}))
	require.False(t, GeoAllowed(m, Caller{Country: "de"}))
	require.False(t, GeoAllowed(m, Caller{}))
	require.True(t, GeoAllowed(m, Caller{Admin: true}))
}

func TestGeoAllowed_UnrestrictedNeedsCountry(t *testing.T) {
	t.Parallel()

	m := article("x", "2024-01-01", []string{"a"}, nil, nil).Meta
	require.True(t, GeoAllowed(m, Caller{Country: "jp"}))
	require.False(t, GeoAllowed(m, Caller{}))
}

func TestFilterVisible(t *testing.T) {
	t.Parallel()

	all := []content.Article{
		article("open", "2024-01-01", []string{"go"}, nil, nil),
		article("fr-only", "2024-01-02", []string{"go", "fr"}, []string{"FR"}, nil),
		article("no-us", "2024-01-03", []string{"travel"}, nil, []string{"US"}),
	}

	require.Equal(t, []string{"open", "no-us"}, names(FilterVisible(all, Caller{Country: "de"}, Filter{})))
	require.Equal(t, []string{"open", "fr-only", "no-us"}, names(FilterVisible(all, Caller{Country: "fr"}, Filter{})))
	require.Equal(t, []string{"open"}, names(FilterVisible(all, Caller{Country: "us"}, Filter{Tag: "go"})))
	require.Empty(t, FilterVisible(all, Caller{}, Filter{}))
	require.Equal(t, []string{"open", "fr-only", "no-us"}, names(FilterVisible(all, Caller{Admin: true}, Filter{})))
	require.Equal(t, []string{"open", "fr-only", "no-us"}, names(FilterVisible(all, Caller{}, Filter{SkipGeo: true})))
}

func TestFilterVisible_TagIsCaseSensitive(t *testing.T) {
	t.Parallel()

	all := []content.Article{article("a", "2024-01-01", []string{"Go"}, nil, nil)}
	require.Empty(t, FilterVisible(all, Caller{Admin: true}, Filter{Tag: "go"}))
	require.Len(t, FilterVisible(all, Caller{Admin: true}, Filter{Tag: "Go"}), 1)
}

func TestSortByDate(t *testing.T) {
	t.Parallel()

	all := []content.Article{
		article("a", "2024-01-01", []string{"x"}, nil, nil),
		article("b", "2024-06-15", []string{"x"}, nil, nil),
		article("c", "2023-12-31", []string{"x"}, nil, nil),
	}
	SortByDate(all)
	require.Equal(t, []string{"b", "a", "c"}, names(all))
}

func TestTagCounts(t *testing.T) {
	t.Parallel()

	all := []content.Article{
		article("1", "2024-01-01", []string{"a", "b"}, nil, nil),
		article("2", "2024-01-01", []string{"b", "c"}, nil, nil),
		article("3", "2024-01-01", []string{"a"}, nil, nil),
	}
	require.Equal(t, map[string]int{"a": 2, "b": 2, "c": 1}, TagCounts(all))
	require.Empty(t, TagCounts(nil))
}

func TestPage(t *testing.T) {
	t.Parallel()

	var all []content.Article
	for _, n := range []string{"1", "2", "3", "4", "5"} {
		all = append(all, article(n, "2024-01-01", []string{"x"}, nil, nil))
	}

	require.Equal(t, []string{"1", "2"}, names(Page(all, 1, 2)))
	require.Equal(t, []string{"5"}, names(Page(all, 3, 2)))
	require.Empty(t, Page(all, 4, 2))
	require.Len(t, Page(all, 0, 0), 5)

	p, s := NormalizePaging(-1, 1000)
	require.Equal(t, 1, p)
	require.Equal(t, MaxPageSize, s)
}
