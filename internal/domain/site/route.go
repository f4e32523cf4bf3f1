// Package site builds the public URLs of the blog.
package site

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type RouteKind string

const (
	RouteIndex    RouteKind = "index"
	RouteArticles RouteKind = "articles"
	RouteArticle  RouteKind = "article"
	RouteAbout    RouteKind = "about"
	RouteSitemap  RouteKind = "sitemap"
)

type Route struct {
	Kind RouteKind
	Name string // article name, without the file suffix
	Tag  string
	Page int
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Name != "" {
		parts = append(parts, "name="+r.Name)
	}
	if r.Tag != "" {
		parts = append(parts, "tag="+r.Tag)
	}
	if r.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", r.Page))
	}
	return strings.Join(parts, " ")
}

// Path is the site-relative path of r, query included.
func (r Route) Path() string {
	var p string
	switch r.Kind {
	case RouteArticles:
		p = "/articles"
	case RouteArticle:
		p = "/articles/" + url.PathEscape(r.Name)
	case RouteAbout:
		p = "/about"
	case RouteSitemap:
		p = "/sitemap.xml"
	default:
		p = "/"
	}

	q := url.Values{}
	if r.Tag != "" {
		q.Set("tag", r.Tag)
	}
	if r.Page > 1 {
		q.Set("page", strconv.Itoa(r.Page))
	}
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}

// URL joins Path onto the absolute site URL.
func (r Route) URL(siteURL string) string {
	return strings.TrimSuffix(siteURL, "/") + r.Path()
}

// StaticRoutes are the pages that exist regardless of content.
func StaticRoutes() []Route {
	return []Route{
		{Kind: RouteIndex},
		{Kind: RouteArticles},
		{Kind: RouteAbout},
	}
}
