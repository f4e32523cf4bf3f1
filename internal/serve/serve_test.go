package serve

import (
	"context"
	"encoding/json"
	"geoblog/internal/auth"
	"geoblog/internal/domain/config"
	"geoblog/internal/domain/content"
	"geoblog/internal/service"
	"geoblog/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mapGeo map[string]string

func (g mapGeo) ResolveCountry(ip string) (string, bool) {
	cc, ok := g[ip]
	return cc, ok
}

type env struct {
	handler http.Handler
	store   *store.Store
	admin   string
	reader  string
}

func newEnv(t *testing.T) env {
	t.Helper()

	base := t.TempDir()
	st := store.New(filepath.Join(base, "raw_articles"), filepath.Join(base, "drafts"), zerolog.Nop())
	require.NoError(t, st.EnsureRoots())

	provider, err := auth.NewProvider(auth.Options{Secret: "test-secret-0123456789", Issuer: "geoblog", AdminTeamID: "admins"})
	require.NoError(t, err)
	adminTok, err := provider.Issue("owner", []string{"admins"}, time.Hour)
	require.NoError(t, err)
	readerTok, err := provider.Issue("friend", []string{"readers"}, time.Hour)
	require.NoError(t, err)

	metrics := NewMetrics()
	svc := service.New(service.Options{
		Store: st,
		Auth:  provider,
		Geo:   metrics.CountGeo(mapGeo{"203.0.113.7": "fr", "198.51.100.9": "US"}),
		Now:   func() time.Time { return time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local) },
		Log:   zerolog.Nop(),
	})
	srv := New(Options{
		HTTP:    config.HTTPConfig{TrustForwardedFor: true, RequestTimeout: 5 * time.Second},
		SiteURL: "https://blog.example.com",
		Service: svc,
		Auth:    provider,
		Metrics: metrics,
		Log:     zerolog.Nop(),
	})
	return env{handler: srv.Handler(), store: st, admin: adminTok, reader: readerTok}
}

func (e env) seed(t *testing.T, r store.Root, name, date string, allow, block []string) {
	t.Helper()
	m := content.MDField{Title: name, Description: "about " + name, Date: date, Tags: []string{"go"}, GeoAllow: allow, GeoBlock: block}
	require.NoError(t, e.store.Write(r, name, m, "# "+name+"\n\nbody\n"))
}

type call struct {
	method, target, body, token, ip string
	header                          map[string]string
}

func (e env) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.target, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.ip != "" {
		req.Header.Set("X-Forwarded-For", c.ip+", 10.0.0.1")
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestListArticles_GeoAndPaging(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Published, "a", "2024-01-01", nil, nil)
	e.seed(t, store.Published, "b", "2024-06-15", nil, []string{"US"})
	e.seed(t, store.Published, "c", "2023-12-31", []string{"FR"}, nil)

	rr := e.do(t, call{method: http.MethodGet, target: "/api/articles?size=2", ip: "203.0.113.7"})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[listResponse](t, rr)
	require.Equal(t, 3, got.Total)
	require.Len(t, got.Items, 2)
	require.Equal(t, "b", got.Items[0].Name)
	require.Equal(t, "a", got.Items[1].Name)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles?page=2&size=2", ip: "203.0.113.7"})
	got = decode[listResponse](t, rr)
	require.Len(t, got.Items, 1)
	require.Equal(t, "c", got.Items[0].Name)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles", ip: "198.51.100.9"})
	got = decode[listResponse](t, rr)
	require.Equal(t, 1, got.Total)
	require.Equal(t, "a", got.Items[0].Name)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles"})
	got = decode[listResponse](t, rr)
	require.Equal(t, 0, got.Total)
	require.NotNil(t, got.Items)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles?page=x"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetArticle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Published, "hello", "2024-01-01", nil, []string{"US"})

	rr := e.do(t, call{method: http.MethodGet, target: "/api/articles/hello", ip: "203.0.113.7"})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[articleResponse](t, rr)
	require.Equal(t, "hello.md", got.Filename)
	require.Contains(t, got.HTML, `<h1 id="hello">hello</h1>`)
	require.Len(t, got.TOC, 1)
	require.Equal(t, 1, got.TOCBase)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/hello", ip: "203.0.113.7", header: map[string]string{"If-None-Match": etag}})
	require.Equal(t, http.StatusNotModified, rr.Code)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/hello", ip: "198.51.100.9"})
	require.Equal(t, http.StatusForbidden, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	require.Equal(t, "unauthorized", resp.Error.Code)
	require.Equal(t, "unauthorized", resp.Error.Message)
	require.NotEmpty(t, resp.Error.RequestID)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/missing", ip: "203.0.113.7"})
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", decode[ErrorResponse](t, rr).Error.Code)
}

func TestDrafts_AdminOnly(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Drafts, "wip", "2024-01-01", []string{"JP"}, nil)

	for _, tok := range []string{"", e.reader, "garbage"} {
		rr := e.do(t, call{method: http.MethodGet, target: "/api/articles?drafts=1", token: tok, ip: "203.0.113.7"})
		require.Equal(t, http.StatusForbidden, rr.Code)
		rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/wip?drafts", token: tok, ip: "203.0.113.7"})
		require.Equal(t, http.StatusForbidden, rr.Code)
	}

	rr := e.do(t, call{method: http.MethodGet, target: "/api/articles?drafts=1", token: e.admin})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, decode[listResponse](t, rr).Total)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/wip?drafts=true", token: e.admin})
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, decode[articleResponse](t, rr).Draft)
}

func TestCreateSaveDelete(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	body := `{"filename":"first-post","metadata":{"title":"First","description":"d","date":"1990-01-01","tags":["go"]},"content":"hi"}`

	rr := e.do(t, call{method: http.MethodPost, target: "/api/articles", body: body})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(t, call{method: http.MethodPost, target: "/api/articles", body: body, token: e.admin})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, "/articles/first-post", rr.Header().Get("Location"))
	created := decode[articleSummary](t, rr)
	require.Equal(t, "2025-01-02", created.Metadata.Date)

	rr = e.do(t, call{method: http.MethodPost, target: "/api/articles", body: strings.Replace(body, "first-post", "First-Post", 1), token: e.admin})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, call{method: http.MethodPost, target: "/api/articles", body: body, token: e.admin})
	require.Equal(t, http.StatusConflict, rr.Code)

	bad := `{"metadata":{"title":"","description":"d","tags":[]},"content":"x"}`
	rr = e.do(t, call{method: http.MethodPut, target: "/api/articles/first-post", body: bad, token: e.admin})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	fields := decode[ErrorResponse](t, rr).Error.Fields
	require.NotEmpty(t, fields)

	update := `{"metadata":{"title":"Renamed","description":"d","tags":["go","news"],"geoBlock":["US"]},"content":"v2"}`
	rr = e.do(t, call{method: http.MethodPut, target: "/api/articles/first-post", body: update, token: e.admin})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles/first-post", ip: "203.0.113.7"})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[articleResponse](t, rr)
	require.Equal(t, "Renamed", got.Metadata.Title)
	require.Equal(t, []string{"US"}, got.Metadata.GeoBlock)
	require.Equal(t, "v2", got.Content)

	rr = e.do(t, call{method: http.MethodDelete, target: "/api/articles/first-post", token: e.reader})
	require.Equal(t, http.StatusForbidden, rr.Code)
	rr = e.do(t, call{method: http.MethodDelete, target: "/api/articles/first-post", token: e.admin})
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = e.do(t, call{method: http.MethodDelete, target: "/api/articles/first-post", token: e.admin})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreate_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rr := e.do(t, call{method: http.MethodPost, target: "/api/articles", body: `{"filename":"x","extra":1}`, token: e.admin})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", decode[ErrorResponse](t, rr).Error.Code)
}

func TestTags(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Published, "a", "2024-01-01", nil, nil)
	e.seed(t, store.Published, "b", "2024-01-02", []string{"DE"}, nil)

	rr := e.do(t, call{method: http.MethodGet, target: "/api/tags", ip: "203.0.113.7"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]int{"go": 1}, decode[map[string]int](t, rr))

	rr = e.do(t, call{method: http.MethodGet, target: "/api/tags", token: e.admin})
	require.Equal(t, map[string]int{"go": 2}, decode[map[string]int](t, rr))
}

func TestInvalidDataHidesDetailFromAnonymous(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	path := filepath.Join(e.store.Dir(store.Published), "broken.md")
	require.NoError(t, writeRaw(path, "---\ntitle: \"x\"\ndescription: \"d\"\ndate: \"2024-01-01\"\ntags: []\n---\n"))

	rr := e.do(t, call{method: http.MethodGet, target: "/api/articles", ip: "203.0.113.7"})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "internal error", decode[ErrorResponse](t, rr).Error.Message)

	rr = e.do(t, call{method: http.MethodGet, target: "/api/articles", token: e.admin})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, decode[ErrorResponse](t, rr).Error.Message, "broken.md")
}

func TestExpiredRequestIsGatewayTimeout(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Published, "open", "2024-01-01", nil, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/articles/open", nil).WithContext(ctx)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
	require.Equal(t, "deadline_exceeded", decode[ErrorResponse](t, rr).Error.Code)
}

func TestSitemap(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, store.Published, "open", "2024-01-01", nil, nil)
	e.seed(t, store.Published, "hidden", "2024-01-02", nil, []string{"US"})
	e.seed(t, store.Drafts, "draft", "2024-01-03", nil, nil)

	rr := e.do(t, call{method: http.MethodGet, target: "/sitemap.xml"})
	require.Equal(t, http.StatusOK, rr.Code)
	out := rr.Body.String()
	require.Contains(t, out, "<loc>https://blog.example.com/articles/open</loc>")
	require.Contains(t, out, "<lastmod>2024-01-01</lastmod>")
	require.Contains(t, out, "<loc>https://blog.example.com/</loc>")
	require.NotContains(t, out, "hidden")
	require.NotContains(t, out, "draft")
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rr := e.do(t, call{method: http.MethodGet, target: "/healthz"})
	require.Equal(t, http.StatusOK, rr.Code)

	e.do(t, call{method: http.MethodGet, target: "/api/articles", ip: "203.0.113.7"})
	rr = e.do(t, call{method: http.MethodGet, target: "/metrics"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `geoblog_http_requests_total{method="GET",route="/api/articles",status="200"} 1`)
	require.Contains(t, rr.Body.String(), `geoblog_geo_lookups_total{result="hit"} 1`)

	rr = e.do(t, call{method: http.MethodGet, target: "/nope"})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	require.Equal(t, "192.0.2.10", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", clientIP(req, true))
	require.Equal(t, "192.0.2.10", clientIP(req, false))
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	require.True(t, relevant("/x/raw_articles/post.md"))
	require.False(t, relevant("/x/raw_articles/.post.md-123.tmp"))
	require.False(t, relevant("/x/raw_articles/notes.txt"))
}
