package serve

import (
	"fmt"
	"geoblog/internal/domain/content"
	domainerr "geoblog/internal/domain/errors"
	"geoblog/internal/domain/site"
	"geoblog/internal/policy"
	"geoblog/internal/render"
	"github.com/go-chi/chi/v5"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 4 << 20

var errNoRoute = fmt.Errorf("no such route: %w", domainerr.ErrNotFound)

type articleSummary struct {
	Name     string          `json:"name"`
	Filename string          `json:"filename"`
	Metadata content.MDField `json:"metadata"`
}

type articleResponse struct {
	articleSummary
	Content string           `json:"content"`
	HTML    string           `json:"html"`
	TOC     []render.Heading `json:"toc"`
	TOCBase int              `json:"toc_base"`
	Draft   bool             `json:"draft"`
}

type listResponse struct {
	Items []articleSummary `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

type saveRequest struct {
	Filename string          `json:"filename"`
	Metadata content.MDField `json:"metadata"`
	Content  string          `json:"content"`
	Drafts   bool            `json:"drafts"`
}

func summarize(a content.Article) articleSummary {
	return articleSummary{Name: a.Name(), Filename: a.Filename, Metadata: a.Meta}
}

// queryFlag treats "?drafts", "?drafts=1" and "?drafts=true" as set.
func queryFlag(r *http.Request, key string) bool {
	v, ok := r.URL.Query()[key]
	if !ok {
		return false
	}
	if len(v) == 0 || v[0] == "" {
		return true
	}
	b, err := strconv.ParseBool(v[0])
	return err == nil && b
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(key, "must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	all, err := s.svc.List(r.Context(), r.URL.Query().Get("tag"), queryFlag(r, "drafts"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page, size = policy.NormalizePaging(page, size)
	items := make([]articleSummary, 0, size)
	for _, a := range policy.Page(all, page, size) {
		items = append(items, summarize(a))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(all), Page: page, Size: size})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	drafts := queryFlag(r, "drafts")
	a, err := s.svc.Get(r.Context(), chi.URLParam(r, "filename"), drafts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	etag := `"` + content.FingerprintOf(a).Hash + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	res, err := s.md.Render([]byte(a.Content))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{
		articleSummary: summarize(a),
		Content:        a.Content,
		HTML:           string(res.HTML),
		TOC:            res.Headings,
		TOCBase:        render.MinLevel(res.Headings),
		Draft:          drafts,
	})
}

func matchesETag(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.TagCounts(r.Context(), queryFlag(r, "drafts"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.fail(w, r, domainerr.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req saveRequest
	if err := decodeStrict(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	a, err := s.svc.Create(r.Context(), req.Filename, req.Metadata, req.Content, req.Drafts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", site.Route{Kind: site.RouteArticle, Name: a.Name()}.Path())
	writeJSON(w, http.StatusCreated, summarize(a))
}

func (s *Server) handleSaveArticle(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.fail(w, r, domainerr.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req saveRequest
	if err := decodeStrict(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	a, err := s.svc.Save(r.Context(), chi.URLParam(r, "filename"), req.Metadata, req.Content, queryFlag(r, "drafts"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(a))
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "filename"), queryFlag(r, "drafts")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
