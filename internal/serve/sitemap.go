package serve

import (
	"encoding/xml"
	"geoblog/internal/domain/site"
	"github.com/rs/zerolog"
	"net/http"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// handleSitemap lists the static pages and every published article that
// has no geo restriction.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.PublicIndex(r.Context())
	if err != nil {
		writeError(w, r, err, false)
		return
	}

	set := urlset{Xmlns: sitemapNS}
	for _, rt := range site.StaticRoutes() {
		set.URLs = append(set.URLs, sitemapURL{Loc: rt.URL(s.siteURL)})
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        site.Route{Kind: site.RouteArticle, Name: a.Name()}.URL(s.siteURL),
			LastMod:    a.Meta.Date,
			ChangeFreq: "monthly",
			Priority:   "0.8",
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("sitemap encode")
	}
}
